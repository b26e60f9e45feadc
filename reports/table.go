// Package reports defines the ten canned report queries and runs them.
package reports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Madhav-Gupta-28/olist-insights/pipeline"
)

var ErrUnknownQuery = errors.New("unknown query")

// Row maps column names to scalars: string, int64, float64, time.Time or nil.
type Row map[string]interface{}

// Table is the result of one query, rows in the query's documented order.
type Table struct {
	Query   string   `json:"query" bson:"query"`
	Columns []string `json:"columns" bson:"columns"`
	Rows    []Row    `json:"rows" bson:"rows"`
}

// Values returns the column values of row i in column order.
func (t *Table) Values(i int) []interface{} {
	out := make([]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = t.Rows[i][c]
	}
	return out
}

// Chart describes how the presentation layer should plot a table.
type Chart struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	X           string   `json:"x,omitempty"`
	Y           string   `json:"y,omitempty"`
	Path        []string `json:"path,omitempty"`
	Size        string   `json:"size,omitempty"`
	Color       string   `json:"color,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Bins        int      `json:"bins,omitempty"`
	Cumulative  bool     `json:"cumulative,omitempty"`
}

// Query is a parameterless report: a pipeline over one base collection and
// the shaping applied to its output.
type Query struct {
	Number      int
	Slug        string
	Title       string
	Description string
	Note        string
	Collection  string
	Pipeline    pipeline.Pipeline
	Shape       []Step
	Columns     []string
	Charts      []Chart
}

// Catalog is an ordered list of queries, as shown in the menu.
type Catalog []*Query

// Find resolves a query by number ("4") or slug.
func (c Catalog) Find(id string) (*Query, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if n, err := strconv.Atoi(id); err == nil {
		for _, q := range c {
			if q.Number == n {
				return q, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, id)
	}
	for _, q := range c {
		if q.Slug == id {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, id)
}
