package main

import (
	"context"
	"fmt"

	"github.com/Madhav-Gupta-28/olist-insights/database"
	"github.com/Madhav-Gupta-28/olist-insights/dump"
	"github.com/Madhav-Gupta-28/olist-insights/loader"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	datasetDir     string
	checkpointPath string
	batchSize      int
	outDir         string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import the Olist CSV files",
	Long: `Imports the Olist CSV files into MongoDB, embedding order items, payments
and the first review into each order. Progress is saved to the checkpoint file
after every batch, so an interrupted load can be rerun.

With --store memory the data is loaded in process and written to --dump-dir,
ready for offline use with "query --store memory".`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export every collection to <out>/<collection>.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = b.close(context.Background()) }()

		return dump.Write(ctx, b.source, outDir, logger)
	},
}

func init() {
	loadCmd.Flags().StringVar(&datasetDir, "dataset", "./dataset", "Directory holding the Olist CSV files")
	loadCmd.Flags().StringVar(&checkpointPath, "checkpoint", "processed_orders.json", "Resume checkpoint file")
	loadCmd.Flags().IntVar(&batchSize, "batch-size", loader.DefaultBatchSize, "Documents per insert")

	dumpCmd.Flags().StringVar(&outDir, "out", "db_dump", "Output directory")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	opts := loader.Options{BatchSize: batchSize, Logger: logger}

	switch storeKind {
	case storeMemory:
		if dumpDir == "" {
			return errNoDumpDir
		}
		s := store.NewMemoryStore()
		if err := loader.New(datasetDir, s, opts).Run(ctx); err != nil {
			return err
		}
		return dump.Write(ctx, s, dumpDir, logger)
	case storeMongo:
		if err := cfg.RequireMongo(); err != nil {
			return err
		}
		cp, err := loader.LoadCheckpoint(checkpointPath)
		if err != nil {
			return err
		}
		opts.Checkpoint = cp

		db, err := database.ConnectDB(ctx, cfg.MongoURI, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = database.Disconnect(context.Background()) }()

		if err := loader.New(datasetDir, loader.NewMongoWriter(db), opts).Run(ctx); err != nil {
			logger.Error("Load failed; progress saved", zap.String("checkpoint", checkpointPath), zap.Error(err))
			return err
		}
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		logger.Info("Data import completed")
		return nil
	default:
		return fmt.Errorf("unknown store %q", storeKind)
	}
}
