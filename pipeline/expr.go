package pipeline

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Expr is an aggregation expression. It renders to the MongoDB expression
// language and evaluates against an in-memory document.
type Expr interface {
	bsonValue() interface{}
	eval(doc Document) (interface{}, error)
}

// NamedExpr binds an output field name to an expression.
type NamedExpr struct {
	Name string
	Expr Expr
}

// As binds name to e.
func As(name string, e Expr) NamedExpr {
	return NamedExpr{Name: name, Expr: e}
}

type fieldExpr struct {
	path string
}

// Field references a (dotted) field path of the current document.
func Field(path string) Expr {
	return fieldExpr{path: strings.TrimPrefix(path, "$")}
}

func (f fieldExpr) bsonValue() interface{} { return "$" + f.path }

func (f fieldExpr) eval(doc Document) (interface{}, error) {
	v, _ := Lookup(doc, f.path)
	return v, nil
}

type literalExpr struct {
	value interface{}
}

// Lit is a constant.
func Lit(v interface{}) Expr {
	return literalExpr{value: v}
}

func (l literalExpr) bsonValue() interface{} {
	if s, ok := l.value.(string); ok && strings.HasPrefix(s, "$") {
		return bson.D{{Key: "$literal", Value: s}}
	}
	return l.value
}

func (l literalExpr) eval(Document) (interface{}, error) {
	return Normalize(l.value), nil
}

type docExpr struct {
	fields []NamedExpr
}

// Doc builds an embedded document, typically a compound group key.
func Doc(fields ...NamedExpr) Expr {
	return docExpr{fields: fields}
}

func (d docExpr) bsonValue() interface{} {
	out := bson.D{}
	for _, f := range d.fields {
		out = append(out, bson.E{Key: f.Name, Value: f.Expr.bsonValue()})
	}
	return out
}

func (d docExpr) eval(doc Document) (interface{}, error) {
	out := Document{}
	for _, f := range d.fields {
		v, err := f.Expr.eval(doc)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

type opExpr struct {
	op    string
	args  []Expr
	unary bool
}

func (o opExpr) bsonValue() interface{} {
	if o.unary {
		return bson.D{{Key: o.op, Value: o.args[0].bsonValue()}}
	}
	args := bson.A{}
	for _, a := range o.args {
		args = append(args, a.bsonValue())
	}
	return bson.D{{Key: o.op, Value: args}}
}

// Add sums numbers, or shifts a date by milliseconds.
func Add(args ...Expr) Expr { return opExpr{op: "$add", args: args} }

// Subtract returns a-b. Two dates yield the difference in milliseconds.
func Subtract(a, b Expr) Expr { return opExpr{op: "$subtract", args: []Expr{a, b}} }

func Divide(a, b Expr) Expr { return opExpr{op: "$divide", args: []Expr{a, b}} }

// Year and Month extract calendar parts of a date in UTC, which is how the
// store keeps timestamps. No other time zone is applied.
func Year(e Expr) Expr  { return opExpr{op: "$year", args: []Expr{e}, unary: true} }
func Month(e Expr) Expr { return opExpr{op: "$month", args: []Expr{e}, unary: true} }

// Round rounds half to even at the given number of decimal places.
func Round(e Expr, places int) Expr {
	return opExpr{op: "$round", args: []Expr{e, Lit(places)}}
}

// IfNull yields fallback when e is null or missing.
func IfNull(e, fallback Expr) Expr {
	return opExpr{op: "$ifNull", args: []Expr{e, fallback}}
}

func (o opExpr) eval(doc Document) (interface{}, error) {
	vals := make([]interface{}, len(o.args))
	for i, a := range o.args {
		v, err := a.eval(doc)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	switch o.op {
	case "$add":
		return evalAdd(vals)
	case "$subtract":
		return evalSubtract(vals[0], vals[1])
	case "$divide":
		return evalDivide(vals[0], vals[1])
	case "$year", "$month":
		if vals[0] == nil {
			return nil, nil
		}
		t, ok := vals[0].(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: %s of %T", ErrTypeMismatch, o.op, vals[0])
		}
		if o.op == "$year" {
			return int64(t.UTC().Year()), nil
		}
		return int64(t.UTC().Month()), nil
	case "$round":
		return evalRound(vals[0], vals[1])
	case "$ifNull":
		if vals[0] != nil {
			return vals[0], nil
		}
		return vals[1], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, o.op)
}

func evalAdd(vals []interface{}) (interface{}, error) {
	var (
		intSum   int64
		floatSum float64
		isFloat  bool
		date     *time.Time
	)
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			return nil, nil
		case int64:
			intSum += x
		case float64:
			floatSum += x
			isFloat = true
		case time.Time:
			if date != nil {
				return nil, fmt.Errorf("%w: $add of two dates", ErrTypeMismatch)
			}
			t := x
			date = &t
		default:
			return nil, fmt.Errorf("%w: $add of %T", ErrTypeMismatch, v)
		}
	}
	if date != nil {
		ms := float64(intSum) + floatSum
		return date.Add(time.Duration(ms * float64(time.Millisecond))), nil
	}
	if isFloat {
		return floatSum + float64(intSum), nil
	}
	return intSum, nil
}

func evalSubtract(a, b interface{}) (interface{}, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	if ta, ok := a.(time.Time); ok {
		switch tb := b.(type) {
		case time.Time:
			return ta.Sub(tb).Milliseconds(), nil
		case int64, float64:
			ms, _ := ToFloat(tb)
			return ta.Add(-time.Duration(ms * float64(time.Millisecond))), nil
		}
		return nil, fmt.Errorf("%w: $subtract %T from date", ErrTypeMismatch, b)
	}
	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if aInt && bInt {
		return ia - ib, nil
	}
	fa, okA := ToFloat(a)
	fb, okB := ToFloat(b)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: $subtract of %T and %T", ErrTypeMismatch, a, b)
	}
	return fa - fb, nil
}

func evalDivide(a, b interface{}) (interface{}, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	fa, okA := ToFloat(a)
	fb, okB := ToFloat(b)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: $divide of %T and %T", ErrTypeMismatch, a, b)
	}
	if fb == 0 {
		return nil, ErrDivideByZero
	}
	return fa / fb, nil
}

func evalRound(v, places interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if i, ok := v.(int64); ok {
		return i, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: $round of %T", ErrTypeMismatch, v)
	}
	p, _ := ToFloat(places)
	return RoundHalfEven(f, int(p)), nil
}

// RoundHalfEven rounds f to places decimals, ties to even. Like MongoDB, it
// rounds the 34-digit decimal form of f rather than f scaled in binary.
func RoundHalfEven(f float64, places int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'e', 33, 64))
	if !ok {
		return f
	}
	exp := places
	if exp < 0 {
		exp = -exp
	}
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	if places >= 0 {
		r.Mul(r, scale)
	} else {
		r.Quo(r, scale)
	}

	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	half := new(big.Int).Lsh(new(big.Int).Abs(rem), 1)
	if c := half.Cmp(r.Denom()); c > 0 || (c == 0 && q.Bit(0) == 1) {
		if r.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}

	out := new(big.Rat).SetInt(q)
	if places >= 0 {
		out.Quo(out, scale)
	} else {
		out.Mul(out, scale)
	}
	v, _ := out.Float64()
	if v == 0 && math.Signbit(f) {
		return math.Copysign(0, -1)
	}
	return v
}
