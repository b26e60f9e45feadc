package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/pipeline"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrShape          = errors.New("malformed result")
	ErrNonFiniteValue = errors.New("non-finite value in result")
)

// MillisPerDay converts timestamp differences, which the store returns in
// milliseconds, to days.
const MillisPerDay = 1000 * 60 * 60 * 24

// Step adjusts one result row in place.
type Step func(Row) error

// Rename moves a field, typically the implicit group key _id.
func Rename(from, to string) Step {
	return func(r Row) error {
		v, ok := r[from]
		if !ok {
			return nil
		}
		delete(r, from)
		r[to] = v
		return nil
	}
}

// MillisToDays replaces a millisecond duration with fractional days.
func MillisToDays(from, to string) Step {
	return func(r Row) error {
		v := r[from]
		delete(r, from)
		if v == nil {
			r[to] = nil
			return nil
		}
		ms, ok := pipeline.ToFloat(v)
		if !ok {
			return fmt.Errorf("%w: %s is %T, want a number", ErrShape, from, v)
		}
		r[to] = ms / MillisPerDay
		return nil
	}
}

// Drop removes a helper field.
func Drop(field string) Step {
	return func(r Row) error {
		delete(r, field)
		return nil
	}
}

// MonthStart adds a first-of-month UTC date built from year and month columns.
func MonthStart(yearCol, monthCol, to string) Step {
	return func(r Row) error {
		y, m := r[yearCol], r[monthCol]
		if y == nil || m == nil {
			r[to] = nil
			return nil
		}
		year, okY := y.(int64)
		month, okM := m.(int64)
		if !okY || !okM || month < 1 || month > 12 {
			return fmt.Errorf("%w: cannot build a date from %v-%v", ErrShape, y, m)
		}
		r[to] = time.Date(int(year), time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return nil
	}
}

// Shape turns raw store output into the query's table. Only declared
// columns are kept; a column missing from a document becomes nil.
func Shape(q *Query, docs []bson.M) (*Table, error) {
	rows := make([]Row, 0, len(docs))
	for i, d := range docs {
		row := Row(pipeline.NormalizeDocument(d))
		for _, step := range q.Shape {
			if err := step(row); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", q.Slug, i, err)
			}
		}
		out := make(Row, len(q.Columns))
		for _, c := range q.Columns {
			v := row[c]
			if !pipeline.IsFinite(v) {
				return nil, fmt.Errorf("%s row %d: %w: %s", q.Slug, i, ErrNonFiniteValue, c)
			}
			out[c] = v
		}
		rows = append(rows, out)
	}
	return &Table{Query: q.Slug, Columns: q.Columns, Rows: rows}, nil
}

// normalizeRows restores canonical value types after a codec round trip.
func normalizeRows(t *Table) {
	for i, r := range t.Rows {
		t.Rows[i] = Row(pipeline.NormalizeDocument(bson.M(r)))
	}
	if t.Rows == nil {
		t.Rows = []Row{}
	}
}
