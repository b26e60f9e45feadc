package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Checkpoint records the ids inserted per collection so an interrupted load
// can resume without duplicate key errors. An empty path keeps it in memory.
type Checkpoint struct {
	path string
	done map[string]map[string]struct{}
}

func LoadCheckpoint(path string) (*Checkpoint, error) {
	cp := &Checkpoint{path: path, done: map[string]map[string]struct{}{}}
	if path == "" {
		return cp, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var saved map[string][]string
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	for collection, ids := range saved {
		cp.Add(collection, ids...)
	}
	return cp, nil
}

func (c *Checkpoint) Done(collection, id string) bool {
	_, ok := c.done[collection][id]
	return ok
}

func (c *Checkpoint) Add(collection string, ids ...string) {
	if c.done[collection] == nil {
		c.done[collection] = map[string]struct{}{}
	}
	for _, id := range ids {
		c.done[collection][id] = struct{}{}
	}
}

func (c *Checkpoint) Count(collection string) int {
	return len(c.done[collection])
}

// Save writes the checkpoint atomically.
func (c *Checkpoint) Save() error {
	if c.path == "" {
		return nil
	}
	out := make(map[string][]string, len(c.done))
	for collection, set := range c.done {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[collection] = ids
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
