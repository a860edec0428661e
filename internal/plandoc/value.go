package plandoc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a plan attribute Value.
type Kind int

const (
	// KindAbsent marks an attribute that does not exist at the queried path.
	// Absent is distinct from an explicit null and from an empty collection.
	KindAbsent Kind = iota
	// KindNull marks an attribute that exists with an explicit null value.
	KindNull
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged union over the shapes a plan attribute can take. Callers
// switch on Kind (or use the As* accessors) instead of performing unchecked
// type assertions against raw JSON.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	list []Value
	m    map[string]Value
}

// Absent is the Value returned for paths that do not resolve.
var Absent = Value{kind: KindAbsent}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is missing entirely.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether the value is an explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInt returns the numeric payload as an int64 when the value is a number
// with no fractional part. Numbers are carried as json.Number so integer
// attributes such as ports never degrade into floats.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// AsFloat returns the numeric payload as a float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Len returns the element count for lists and maps, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Index returns the i-th element of a list value, or Absent when the value
// is not a list or the index is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Absent
	}
	return v.list[i]
}

// Key returns the named entry of a map value, or Absent when the value is
// not a map or the key is missing.
func (v Value) Key(name string) Value {
	if v.kind != KindMap {
		return Absent
	}
	entry, ok := v.m[name]
	if !ok {
		return Absent
	}
	return entry
}

// Strings flattens a list of strings into a []string. The second return is
// false when the value is not a list or any element is not a string.
func (v Value) Strings() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, 0, len(v.list))
	for _, elem := range v.list {
		s, ok := elem.AsString()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Equal reports deep structural equality. The method signature follows the
// go-cmp convention so documents compare correctly under cmp.Diff.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for key, elem := range v.m {
			other, ok := o.m[key]
			if !ok || !elem.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GoString renders the value for diagnostics.
func (v Value) GoString() string {
	switch v.kind {
	case KindAbsent:
		return "<absent>"
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, elem := range v.list {
			parts[i] = elem.GoString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for key := range v.m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", key, v.m[key].GoString()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}

// fromJSON converts a decoded JSON value (decoded with UseNumber) into a
// Value. Unrecognised shapes collapse to Absent rather than failing, so one
// malformed node cannot abort interpretation of the rest of the document.
func fromJSON(raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Value{kind: KindNull}
	case string:
		return Value{kind: KindString, str: typed}
	case json.Number:
		return Value{kind: KindNumber, num: typed}
	case bool:
		return Value{kind: KindBool, b: typed}
	case []any:
		list := make([]Value, len(typed))
		for i, elem := range typed {
			list[i] = fromJSON(elem)
		}
		return Value{kind: KindList, list: list}
	case map[string]any:
		m := make(map[string]Value, len(typed))
		for key, elem := range typed {
			m[key] = fromJSON(elem)
		}
		return Value{kind: KindMap, m: m}
	default:
		return Absent
	}
}
