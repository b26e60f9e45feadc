package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Madhav-Gupta-28/olist-insights/pipeline"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrDuplicateKey = errors.New("store: duplicate key")

// MemoryStore keeps collections in process and evaluates pipelines with the
// in-memory engine. Documents pass through the BSON codec on insert, so
// struct tags apply exactly as they would for MongoDB.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]pipeline.Document
	ids         map[string]map[string]struct{}
	version     uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string][]pipeline.Document{},
		ids:         map[string]map[string]struct{}{},
	}
}

// InsertMany adds documents in order. Like an ordered MongoDB insert it
// stops at the first duplicate _id, keeping the documents before it.
func (s *MemoryStore) InsertMany(_ context.Context, collection string, docs []interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[collection] == nil {
		s.ids[collection] = map[string]struct{}{}
	}
	for _, d := range docs {
		doc, err := toDocument(d)
		if err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
		if id, ok := doc["_id"]; ok {
			key := fmt.Sprintf("%v", id)
			if _, dup := s.ids[collection][key]; dup {
				return fmt.Errorf("insert into %s: %w: _id %s", collection, ErrDuplicateKey, key)
			}
			s.ids[collection][key] = struct{}{}
		}
		s.collections[collection] = append(s.collections[collection], doc)
		s.version++
	}
	return nil
}

// Insert is InsertMany without a context, for fixtures.
func (s *MemoryStore) Insert(collection string, docs ...interface{}) error {
	return s.InsertMany(context.Background(), collection, docs)
}

func toDocument(v interface{}) (pipeline.Document, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return pipeline.NormalizeDocument(m), nil
}

func (s *MemoryStore) Aggregate(ctx context.Context, collection string, p pipeline.Pipeline) ([]bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolve := func(name string) ([]pipeline.Document, error) {
		return s.collections[name], nil
	}
	out, err := p.Run(s.collections[collection], resolve)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	results := make([]bson.M, len(out))
	for i, d := range out {
		results[i] = bson.M(d)
	}
	return results, nil
}

func (s *MemoryStore) Fingerprint(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("mem:%d", s.version), nil
}

func (s *MemoryStore) CollectionNames(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Documents(_ context.Context, collection string) ([]bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]bson.M, len(docs))
	for i, d := range docs {
		out[i] = bson.M(d)
	}
	return out, nil
}
