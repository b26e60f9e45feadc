package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTypeMismatch = errors.New("pipeline: type mismatch")
	ErrDivideByZero = errors.New("pipeline: division by zero")
	ErrUnsupported  = errors.New("pipeline: unsupported operator")
)

// Document is the in-memory form of a BSON document. Values are normalized:
// nil, bool, int64, float64, string, time.Time, Document or []interface{}.
type Document = map[string]interface{}

// Normalize converts driver and Go values into the canonical in-memory set.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return float64(x)
	case primitive.Decimal128:
		f, err := parseDecimal(x)
		if err != nil {
			return x.String()
		}
		return f
	case primitive.M:
		return normalizeMap(x)
	case map[string]interface{}:
		return normalizeMap(x)
	case primitive.D:
		out := make(Document, len(x))
		for _, e := range x {
			out[e.Key] = Normalize(e.Value)
		}
		return out
	case primitive.A:
		return normalizeSlice(x)
	case []interface{}:
		return normalizeSlice(x)
	}
	return v
}

func normalizeMap(m map[string]interface{}) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

func normalizeSlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = Normalize(v)
	}
	return out
}

func parseDecimal(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscan(d.String(), &f)
	return f, err
}

// NormalizeDocument normalizes every value of a driver document.
func NormalizeDocument(m bson.M) Document {
	return normalizeMap(m)
}

// Lookup resolves a dotted path. The bool is false when a segment is missing.
func Lookup(doc Document, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(Document)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath returns a shallow copy of doc with path set to v. Intermediate
// documents are copied so siblings produced by unwind never share writes.
func setPath(doc Document, path string, v interface{}) Document {
	out := make(Document, len(doc)+1)
	for k, val := range doc {
		out[k] = val
	}
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		out[head] = v
		return out
	}
	child, _ := out[head].(Document)
	if child == nil {
		child = Document{}
	}
	out[head] = setPath(child, rest, v)
	return out
}

// ToFloat converts a numeric value.
func ToFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

// typeRank follows the BSON comparison order for the types we keep.
func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 1
	case int64, float64:
		return 3
	case string:
		return 4
	case Document:
		return 5
	case []interface{}:
		return 6
	case bool:
		return 9
	case time.Time:
		return 10
	}
	return 20
}

// Compare orders two normalized values the way MongoDB sorts them.
func Compare(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch x := a.(type) {
	case nil:
		return 0
	case int64, float64:
		return compareNumbers(x, b)
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case time.Time:
		y := b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	case Document:
		return compareDocuments(x, b.(Document))
	case []interface{}:
		y := b.([]interface{})
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(x), len(y))
	}
	return strings.Compare(canonicalKey(a), canonicalKey(b))
}

// compareNumbers compares two int64 or float64 values without passing large
// longs through float64.
func compareNumbers(a, b interface{}) int {
	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if !aInt {
		ia, aInt = wholeInt(a.(float64))
	}
	if !bInt {
		ib, bInt = wholeInt(b.(float64))
	}
	if aInt && bInt {
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	}
	fa, _ := ToFloat(a)
	fb, _ := ToFloat(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

// wholeInt reports f as an int64 when it is integral and in range.
func wholeInt(f float64) (int64, bool) {
	if math.Trunc(f) != f || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// compareDocuments walks both documents pair by pair, comparing value type,
// then field name, then value. In-memory documents do not keep field order,
// so pairs are taken in sorted field order.
func compareDocuments(a, b Document) int {
	ka, kb := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		va, vb := a[ka[i]], b[kb[i]]
		if c := cmpInt(typeRank(va), typeRank(vb)); c != 0 {
			return c
		}
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := Compare(va, vb); c != 0 {
			return c
		}
	}
	return cmpInt(len(ka), len(kb))
}

func sortedKeys(d Document) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// canonicalKey renders a value into a string usable as a grouping or join
// key. Numerically equal ints and floats share a key, as in MongoDB.
func canonicalKey(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case int64:
		return fmt.Sprintf("n:%d", x)
	case float64:
		if i, ok := wholeInt(x); ok {
			return fmt.Sprintf("n:%d", i)
		}
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return "s:" + x
	case bool:
		return fmt.Sprintf("b:%t", x)
	case time.Time:
		return fmt.Sprintf("t:%d", x.UnixMilli())
	case Document:
		keys := sortedKeys(x)
		var sb strings.Builder
		sb.WriteString("{")
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(canonicalKey(x[k]))
			sb.WriteString(";")
		}
		sb.WriteString("}")
		return sb.String()
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = canonicalKey(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// IsFinite reports false for NaN and infinite floats.
func IsFinite(v interface{}) bool {
	f, ok := v.(float64)
	if !ok {
		return true
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
