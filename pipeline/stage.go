package pipeline

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolver returns the documents of another collection for $lookup.
type Resolver func(collection string) ([]Document, error)

// Stage is one step of an aggregation pipeline.
type Stage interface {
	// Name is the MongoDB stage operator, e.g. "$group".
	Name() string
	operand() interface{}
	apply(docs []Document, resolve Resolver) ([]Document, error)
}

// Pipeline is an ordered list of stages over one base collection.
type Pipeline []Stage

// Mongo renders the pipeline for mongo.Collection.Aggregate.
func (p Pipeline) Mongo() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p))
	for _, s := range p {
		out = append(out, bson.D{{Key: s.Name(), Value: s.operand()}})
	}
	return out
}

// Run evaluates the pipeline over docs in memory.
func (p Pipeline) Run(docs []Document, resolve Resolver) ([]Document, error) {
	var err error
	for i, s := range p {
		docs, err = s.apply(docs, resolve)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, s.Name(), err)
		}
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// ---------- $match ----------

type CondOp string

const (
	OpNotNull CondOp = "$ne"
	OpEq      CondOp = "$eq"
	OpGt      CondOp = "$gt"
	OpGte     CondOp = "$gte"
	OpLt      CondOp = "$lt"
	OpLte     CondOp = "$lte"
)

// Cond is a predicate on one field.
type Cond struct {
	Field string
	Op    CondOp
	Value interface{}
}

// NotNull matches documents whose field exists and is not null.
func NotNull(field string) Cond { return Cond{Field: field, Op: OpNotNull} }

func Eq(field string, v interface{}) Cond  { return Cond{Field: field, Op: OpEq, Value: v} }
func Gt(field string, v interface{}) Cond  { return Cond{Field: field, Op: OpGt, Value: v} }
func Gte(field string, v interface{}) Cond { return Cond{Field: field, Op: OpGte, Value: v} }
func Lt(field string, v interface{}) Cond  { return Cond{Field: field, Op: OpLt, Value: v} }
func Lte(field string, v interface{}) Cond { return Cond{Field: field, Op: OpLte, Value: v} }

func (c Cond) matches(doc Document) bool {
	v, _ := Lookup(doc, c.Field)
	if c.Op == OpNotNull {
		return v != nil
	}
	want := Normalize(c.Value)
	if c.Op == OpEq {
		return typeRank(v) == typeRank(want) && Compare(v, want) == 0
	}
	// Range predicates only compare within one BSON type class.
	if v == nil || typeRank(v) != typeRank(want) {
		return false
	}
	cmp := Compare(v, want)
	switch c.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

type MatchStage struct {
	Conds []Cond
}

func Match(conds ...Cond) Stage { return MatchStage{Conds: conds} }

func (MatchStage) Name() string { return "$match" }

func (m MatchStage) operand() interface{} {
	out := bson.D{}
	index := map[string]int{}
	for _, c := range m.Conds {
		var value interface{} = c.Value
		if c.Op == OpNotNull {
			value = nil
		}
		op := bson.E{Key: string(c.Op), Value: value}
		if i, ok := index[c.Field]; ok {
			out[i].Value = append(out[i].Value.(bson.D), op)
			continue
		}
		index[c.Field] = len(out)
		out = append(out, bson.E{Key: c.Field, Value: bson.D{op}})
	}
	return out
}

func (m MatchStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		keep := true
		for _, c := range m.Conds {
			if !c.matches(d) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, d)
		}
	}
	return out, nil
}

// ---------- $unwind ----------

type UnwindStage struct {
	Path string
}

// Unwind emits one document per element of the array at path. Missing, null
// and empty arrays produce no documents.
func Unwind(path string) Stage { return UnwindStage{Path: path} }

func (UnwindStage) Name() string { return "$unwind" }

func (u UnwindStage) operand() interface{} { return "$" + u.Path }

func (u UnwindStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		v, ok := Lookup(d, u.Path)
		if !ok || v == nil {
			continue
		}
		arr, isArr := v.([]interface{})
		if !isArr {
			out = append(out, d)
			continue
		}
		for _, elem := range arr {
			out = append(out, setPath(d, u.Path, elem))
		}
	}
	return out, nil
}

// ---------- $addFields / $project ----------

type AddFieldsStage struct {
	Fields []NamedExpr
}

func AddFields(fields ...NamedExpr) Stage { return AddFieldsStage{Fields: fields} }

func (AddFieldsStage) Name() string { return "$addFields" }

func (a AddFieldsStage) operand() interface{} { return namedFields(a.Fields) }

func (a AddFieldsStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		next := d
		for _, f := range a.Fields {
			v, err := f.Expr.eval(d)
			if err != nil {
				return nil, err
			}
			next = setPath(next, f.Name, v)
		}
		out = append(out, next)
	}
	return out, nil
}

// ProjectStage keeps only the named fields. _id is dropped unless named.
type ProjectStage struct {
	Fields []NamedExpr
}

func Project(fields ...NamedExpr) Stage { return ProjectStage{Fields: fields} }

func (ProjectStage) Name() string { return "$project" }

func (p ProjectStage) operand() interface{} {
	out := bson.D{}
	hasID := false
	for _, f := range p.Fields {
		if f.Name == "_id" {
			hasID = true
		}
	}
	if !hasID {
		out = append(out, bson.E{Key: "_id", Value: 0})
	}
	return append(out, namedFields(p.Fields)...)
}

func (p ProjectStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		next := Document{}
		for _, f := range p.Fields {
			v, err := f.Expr.eval(d)
			if err != nil {
				return nil, err
			}
			next = setPath(next, f.Name, v)
		}
		out = append(out, next)
	}
	return out, nil
}

func namedFields(fields []NamedExpr) bson.D {
	out := bson.D{}
	for _, f := range fields {
		out = append(out, bson.E{Key: f.Name, Value: f.Expr.bsonValue()})
	}
	return out
}

// ---------- $group ----------

type AccOp string

const (
	AccSum   AccOp = "$sum"
	AccAvg   AccOp = "$avg"
	AccFirst AccOp = "$first"
)

type Accumulator struct {
	Name string
	Op   AccOp
	Expr Expr
}

func Sum(name string, e Expr) Accumulator   { return Accumulator{Name: name, Op: AccSum, Expr: e} }
func Avg(name string, e Expr) Accumulator   { return Accumulator{Name: name, Op: AccAvg, Expr: e} }
func First(name string, e Expr) Accumulator { return Accumulator{Name: name, Op: AccFirst, Expr: e} }

// Count counts the documents of each group.
func Count(name string) Accumulator { return Sum(name, Lit(1)) }

type GroupStage struct {
	ID           Expr
	Accumulators []Accumulator
}

// Group groups documents by the id expression. Groups come out in the
// order their key was first seen; callers sort explicitly.
func Group(id Expr, accs ...Accumulator) Stage {
	return GroupStage{ID: id, Accumulators: accs}
}

func (GroupStage) Name() string { return "$group" }

func (g GroupStage) operand() interface{} {
	out := bson.D{{Key: "_id", Value: g.ID.bsonValue()}}
	for _, a := range g.Accumulators {
		out = append(out, bson.E{Key: a.Name, Value: bson.D{{Key: string(a.Op), Value: a.Expr.bsonValue()}}})
	}
	return out
}

type accState struct {
	intSum   int64
	floatSum float64
	isFloat  bool
	n        int64
	first    interface{}
	seen     bool
}

func (s *accState) add(op AccOp, v interface{}) {
	switch op {
	case AccFirst:
		if !s.seen {
			s.first = v
			s.seen = true
		}
	case AccSum, AccAvg:
		switch x := v.(type) {
		case int64:
			s.intSum += x
		case float64:
			s.floatSum += x
			s.isFloat = true
		default:
			// non-numeric values are ignored by $sum and $avg
			return
		}
		s.n++
	}
}

func (s *accState) result(op AccOp) interface{} {
	switch op {
	case AccFirst:
		return s.first
	case AccSum:
		if s.isFloat {
			return s.floatSum + float64(s.intSum)
		}
		return s.intSum
	case AccAvg:
		if s.n == 0 {
			return nil
		}
		return (s.floatSum + float64(s.intSum)) / float64(s.n)
	}
	return nil
}

func (g GroupStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	type group struct {
		id     interface{}
		states []accState
	}
	groups := map[string]*group{}
	var keys []string

	for _, d := range docs {
		id, err := g.ID.eval(d)
		if err != nil {
			return nil, err
		}
		key := canonicalKey(id)
		grp, ok := groups[key]
		if !ok {
			grp = &group{id: id, states: make([]accState, len(g.Accumulators))}
			groups[key] = grp
			keys = append(keys, key)
		}
		for i, a := range g.Accumulators {
			v, err := a.Expr.eval(d)
			if err != nil {
				return nil, err
			}
			grp.states[i].add(a.Op, v)
		}
	}

	out := make([]Document, 0, len(keys))
	for _, key := range keys {
		grp := groups[key]
		doc := Document{"_id": grp.id}
		for i, a := range g.Accumulators {
			doc[a.Name] = grp.states[i].result(a.Op)
		}
		out = append(out, doc)
	}
	return out, nil
}

// ---------- $lookup ----------

type LookupStage struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

// LookupFrom joins each document to the documents of another collection
// whose foreignField equals localField. Matches land in an array at as.
func LookupFrom(from, localField, foreignField, as string) Stage {
	return LookupStage{From: from, LocalField: localField, ForeignField: foreignField, As: as}
}

func (LookupStage) Name() string { return "$lookup" }

func (l LookupStage) operand() interface{} {
	return bson.D{
		{Key: "from", Value: l.From},
		{Key: "localField", Value: l.LocalField},
		{Key: "foreignField", Value: l.ForeignField},
		{Key: "as", Value: l.As},
	}
}

func (l LookupStage) apply(docs []Document, resolve Resolver) ([]Document, error) {
	if resolve == nil {
		return nil, fmt.Errorf("%w: $lookup without resolver", ErrUnsupported)
	}
	foreign, err := resolve(l.From)
	if err != nil {
		return nil, err
	}

	// Build side: hash the foreign collection on the join field.
	table := make(map[string][]interface{}, len(foreign))
	for _, fd := range foreign {
		v, _ := Lookup(fd, l.ForeignField)
		key := canonicalKey(v)
		table[key] = append(table[key], fd)
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		v, _ := Lookup(d, l.LocalField)
		matched := table[canonicalKey(v)]
		joined := make([]interface{}, len(matched))
		copy(joined, matched)
		out = append(out, setPath(d, l.As, joined))
	}
	return out, nil
}

// ---------- $sort / $limit ----------

type SortKey struct {
	Field string
	Desc  bool
}

func Asc(field string) SortKey  { return SortKey{Field: field} }
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

type SortStage struct {
	Keys []SortKey
}

func Sort(keys ...SortKey) Stage { return SortStage{Keys: keys} }

func (SortStage) Name() string { return "$sort" }

func (s SortStage) operand() interface{} {
	out := bson.D{}
	for _, k := range s.Keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: k.Field, Value: dir})
	}
	return out
}

func (s SortStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	out := make([]Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range s.Keys {
			a, _ := Lookup(out[i], k.Field)
			b, _ := Lookup(out[j], k.Field)
			c := Compare(a, b)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

type LimitStage struct {
	N int64
}

func Limit(n int64) Stage { return LimitStage{N: n} }

func (LimitStage) Name() string { return "$limit" }

func (l LimitStage) operand() interface{} { return l.N }

func (l LimitStage) apply(docs []Document, _ Resolver) ([]Document, error) {
	if int64(len(docs)) <= l.N {
		return docs, nil
	}
	return docs[:l.N], nil
}
