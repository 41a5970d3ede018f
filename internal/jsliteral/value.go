// Package jsliteral parses the constrained JavaScript object/array
// literal grammar used by vendor API documentation files. It accepts
// unquoted object keys, single- and double-quoted strings, trailing
// commas, comments, regex literals, and the bare tokens true/false/
// null/undefined. It does not evaluate expressions or execute code.
package jsliteral

// Kind identifies the variant of a Value.
type Kind uint8

const (
	Invalid Kind = iota
	ObjectKind
	ArrayKind
	StringKind
	NumberKind
	BoolKind
	NullKind
	RegexKind
)

func (k Kind) String() string {
	switch k {
	case ObjectKind:
		return "object"
	case ArrayKind:
		return "array"
	case StringKind:
		return "string"
	case NumberKind:
		return "number"
	case BoolKind:
		return "boolean"
	case NullKind:
		return "null"
	case RegexKind:
		return "regex"
	default:
		return "invalid"
	}
}

// Value is one node of the normalized literal tree. Values are
// immutable once the parser returns them.
type Value struct {
	kind  Kind
	str   string // StringKind text, RegexKind pattern source
	flags string // RegexKind flags
	num   float64
	whole bool // NumberKind had no fraction or exponent
	b     bool
	arr   []*Value
	obj   *Object
}

func (v *Value) Kind() Kind { return v.kind }

// Str returns the string text or, for regex values, the pattern source
// without its / delimiters.
func (v *Value) Str() string { return v.str }

// RegexFlags returns the flags of a regex literal, e.g. "i".
func (v *Value) RegexFlags() string { return v.flags }

func (v *Value) Float() float64 { return v.num }

func (v *Value) Int() int64 { return int64(v.num) }

// IsWhole reports whether a number was written without a fractional or
// exponent part.
func (v *Value) IsWhole() bool { return v.whole }

func (v *Value) Bool() bool { return v.b }

// Items returns the elements of an array value in source order.
func (v *Value) Items() []*Value {
	return v.arr
}

// Object returns the ordered key/value mapping of an object value, or
// nil for other kinds.
func (v *Value) Object() *Object {
	return v.obj
}

// Get looks up a key on an object value. It returns nil, false for
// non-objects and missing keys.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.kind != ObjectKind {
		return nil, false
	}
	return v.obj.Get(key)
}

// Truthy reports JavaScript-style truthiness for the scalar kinds. The
// vendor documents mark flags like "optional" with 1/0 as often as
// with true/false.
func (v *Value) Truthy() bool {
	if v == nil {
		return false
	}
	switch v.kind {
	case BoolKind:
		return v.b
	case NumberKind:
		return v.num != 0
	case StringKind:
		return v.str != ""
	case NullKind:
		return false
	default:
		return true
	}
}

// Interface converts the value into plain Go data (map[string]any,
// []any, string, float64, bool, nil). Regex literals render as
// "/pattern/flags". Object key order is not preserved; callers that
// need ordered traversal should walk the Value tree instead.
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case ObjectKind:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			item, _ := v.obj.Get(k)
			out[k] = item.Interface()
		}
		return out
	case ArrayKind:
		out := make([]any, 0, len(v.arr))
		for _, item := range v.arr {
			out = append(out, item.Interface())
		}
		return out
	case StringKind:
		return v.str
	case NumberKind:
		if v.whole {
			return int64(v.num)
		}
		return v.num
	case BoolKind:
		return v.b
	case RegexKind:
		return "/" + v.str + "/" + v.flags
	default:
		return nil
	}
}

// Object is an insertion-ordered string→Value mapping.
type Object struct {
	keys  []string
	items map[string]*Value
}

func newObject() *Object {
	return &Object{items: make(map[string]*Value)}
}

func (o *Object) set(key string, v *Value) {
	if _, dup := o.items[key]; !dup {
		o.keys = append(o.keys, key)
	}
	o.items[key] = v
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order. The returned slice must
// not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Get(key string) (*Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.items[key]
	return v, ok
}
