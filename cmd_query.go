package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

var outputFormat string

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	noteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List the available reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := reports.DefaultCatalog()
		rows := make([][]string, len(catalog))
		for i, q := range catalog {
			rows[i] = []string{strconv.Itoa(q.Number), q.Slug, q.Title}
		}
		fmt.Fprintln(cmd.OutOrStdout(), render([]string{"#", "slug", "title"}, rows))
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [number|slug]",
	Short: "Run one report and print its table",
	Long: `Runs one report of the catalog and prints the result.

Examples:
  olist-insights query 1
  olist-insights query top-cities-by-customers --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "Output format: table, json or csv")
}

func runQuery(cmd *cobra.Command, args []string) error {
	q, err := reports.DefaultCatalog().Find(args[0])
	if err != nil {
		return err
	}
	switch outputFormat {
	case formatTable, formatJSON, formatCSV:
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = b.close(context.Background()) }()

	src, closeCache := newSource(ctx, b)
	defer func() { _ = closeCache() }()

	if cfg.QueryTimeout > 0 {
		var cancelQuery context.CancelFunc
		ctx, cancelQuery = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancelQuery()
	}
	t, err := src.Run(ctx, q.Slug)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case formatCSV:
		return reports.WriteCSV(out, t)
	default:
		printTable(out, q, t)
		return nil
	}
}

func printTable(w io.Writer, q *reports.Query, t *reports.Table) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d. %s", q.Number, q.Title)))
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	rows := make([][]string, len(t.Rows))
	for i := range t.Rows {
		vals := t.Values(i)
		row := make([]string, len(vals))
		for j, v := range vals {
			row[j] = reports.FormatValue(v)
		}
		rows[i] = row
	}
	fmt.Fprintln(w, render(t.Columns, rows))
	if q.Note != "" {
		fmt.Fprintln(w, noteStyle.Render(q.Note))
	}
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
