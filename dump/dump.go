// Package dump exports collections to relaxed Extended JSON files, one array
// per collection, and reads them back.
package dump

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Madhav-Gupta-28/olist-insights/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	fileExt   = ".json"
	indent    = "    "
	batchSize = 1000
)

// Inserter receives documents read from a dump. store.MemoryStore and
// loader.MongoWriter satisfy it.
type Inserter interface {
	InsertMany(ctx context.Context, collection string, docs []interface{}) error
}

// Write saves every collection of src to dir/<collection>.json.
func Write(ctx context.Context, src store.Source, dir string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	names, err := src.CollectionNames(ctx)
	if err != nil {
		return err
	}
	logger.Info("Found collections", zap.Strings("collections", names))

	for _, name := range names {
		docs, err := src.Documents(ctx, name)
		if err != nil {
			return fmt.Errorf("dump %s: %w", name, err)
		}
		raws := make([]json.RawMessage, len(docs))
		for i, d := range docs {
			raw, err := bson.MarshalExtJSON(ordered(d), false, false)
			if err != nil {
				return fmt.Errorf("dump %s: %w", name, err)
			}
			raws[i] = raw
		}
		out, err := json.MarshalIndent(raws, "", indent)
		if err != nil {
			return fmt.Errorf("dump %s: %w", name, err)
		}

		path := filepath.Join(dir, name+fileExt)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("dump %s: %w", name, err)
		}
		logger.Info("Dumped collection",
			zap.String("collection", name),
			zap.Int("documents", len(docs)),
			zap.String("file", path))
	}
	return nil
}

// Load inserts the documents of every dump file in dir into w.
func Load(ctx context.Context, dir string, w Inserter) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("load dump: no %s files in %s", fileExt, dir)
	}
	sort.Strings(paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), fileExt)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load dump %s: %w", name, err)
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(raw, &raws); err != nil {
			return fmt.Errorf("load dump %s: %w", name, err)
		}

		batch := make([]interface{}, 0, batchSize)
		for i, r := range raws {
			var doc bson.D
			if err := bson.UnmarshalExtJSON(r, false, &doc); err != nil {
				return fmt.Errorf("load dump %s document %d: %w", name, i, err)
			}
			batch = append(batch, doc)
			if len(batch) == batchSize {
				if err := w.InsertMany(ctx, name, batch); err != nil {
					return err
				}
				batch = make([]interface{}, 0, batchSize)
			}
		}
		if len(batch) > 0 {
			if err := w.InsertMany(ctx, name, batch); err != nil {
				return err
			}
		}
	}
	return nil
}

// ordered converts maps to documents with sorted keys, _id first, so dumps
// of the same data are byte-identical.
func ordered(v interface{}) interface{} {
	switch x := v.(type) {
	case bson.M:
		return orderedDoc(x)
	case map[string]interface{}:
		return orderedDoc(x)
	case []interface{}:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = ordered(e)
		}
		return out
	case bson.A:
		return ordered([]interface{}(x))
	}
	return v
}

func orderedDoc(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "_id" || keys[j] == "_id" {
			return keys[i] == "_id"
		}
		return keys[i] < keys[j]
	})
	d := make(bson.D, len(keys))
	for i, k := range keys {
		d[i] = bson.E{Key: k, Value: ordered(m[k])}
	}
	return d
}
