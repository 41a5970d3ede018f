package apitree

import (
	"strings"

	"github.com/proxdocs/apidoc2openapi/internal/jsliteral"
)

var methodSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(Methods))
	for _, m := range Methods {
		s[m] = struct{}{}
	}
	return s
}()

// Decode turns a normalized literal into the endpoint forest. Two top
// level shapes are accepted: a bare array of sibling nodes, or a single
// object carrying a "children" key (the root, representing "/").
func Decode(v *jsliteral.Value) ([]*Node, error) {
	switch v.Kind() {
	case jsliteral.ArrayKind:
		return decodeNodes(v, "")
	case jsliteral.ObjectKind:
		if _, ok := v.Get("children"); !ok {
			return nil, &ShapeError{Msg: "top-level object has no children key"}
		}
		root, err := decodeNode(v, "", true)
		if err != nil {
			return nil, err
		}
		return []*Node{root}, nil
	default:
		return nil, &ShapeError{Msg: "top level must be an array of nodes or a root object, got " + v.Kind().String()}
	}
}

func decodeNodes(v *jsliteral.Value, prefix string) ([]*Node, error) {
	items := v.Items()
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		if item.Kind() != jsliteral.ObjectKind {
			return nil, &ShapeError{Path: prefix, Msg: "tree node must be an object, got " + item.Kind().String()}
		}
		n, err := decodeNode(item, prefix, false)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeNode(v *jsliteral.Value, prefix string, isRoot bool) (*Node, error) {
	n := &Node{}

	if pv, ok := v.Get("path"); ok {
		if pv.Kind() != jsliteral.StringKind {
			return nil, &ShapeError{Path: prefix, Msg: "node path must be a string"}
		}
		n.Path = pv.Str()
	} else if !isRoot {
		return nil, &ShapeError{Path: prefix, Msg: "node lacks a path segment"}
	}
	cur := prefix + n.Path

	if tv, ok := v.Get("text"); ok && tv.Kind() == jsliteral.StringKind {
		n.Text = tv.Str()
	}
	if lv, ok := v.Get("leaf"); ok {
		n.Leaf = lv.Truthy()
	}

	if iv, ok := v.Get("info"); ok && iv.Kind() != jsliteral.NullKind {
		if iv.Kind() != jsliteral.ObjectKind {
			return nil, &ShapeError{Path: cur, Msg: "node info block must be an object, got " + iv.Kind().String()}
		}
		for _, method := range iv.Object().Keys() {
			if _, known := methodSet[method]; !known {
				continue
			}
			mv, _ := iv.Get(method)
			if mv.Kind() != jsliteral.ObjectKind {
				continue
			}
			op, err := decodeOperation(method, mv, cur)
			if err != nil {
				return nil, err
			}
			n.Ops = append(n.Ops, op)
		}
	}

	// Some vendor nodes place method entries directly on the node
	// instead of inside an info block.
	for _, key := range v.Object().Keys() {
		if _, known := methodSet[key]; !known {
			continue
		}
		mv, _ := v.Get(key)
		if mv.Kind() != jsliteral.ObjectKind {
			continue
		}
		op, err := decodeOperation(key, mv, cur)
		if err != nil {
			return nil, err
		}
		n.Ops = append(n.Ops, op)
	}

	if cv, ok := v.Get("children"); ok && cv.Kind() != jsliteral.NullKind {
		if cv.Kind() != jsliteral.ArrayKind {
			return nil, &ShapeError{Path: cur, Msg: "node children must be an array, got " + cv.Kind().String()}
		}
		children, err := decodeNodes(cv, cur)
		if err != nil {
			return nil, err
		}
		n.Children = children
	}

	return n, nil
}

func decodeOperation(method string, v *jsliteral.Value, path string) (*OperationSpec, error) {
	op := &OperationSpec{Method: method}

	if dv, ok := v.Get("description"); ok && dv.Kind() == jsliteral.StringKind {
		op.Description = dv.Str()
	}
	if pv, ok := v.Get("permissions"); ok {
		op.Permissions = pv.Interface()
	}

	if pv, ok := v.Get("parameters"); ok && pv.Kind() == jsliteral.ObjectKind {
		if props, ok := pv.Get("properties"); ok {
			if props.Kind() != jsliteral.ObjectKind {
				return nil, &ShapeError{Path: path, Msg: "parameter properties must be an object"}
			}
			op.Parameters = decodeProperties(props)
		}
	}

	if rv, ok := v.Get("returns"); ok && rv.Kind() == jsliteral.ObjectKind {
		ret := decodeField("", rv)
		op.Returns = &ret
	}

	return op, nil
}

func decodeProperties(props *jsliteral.Value) []FieldSpec {
	obj := props.Object()
	fields := make([]FieldSpec, 0, obj.Len())
	for _, name := range obj.Keys() {
		fv, _ := obj.Get(name)
		if fv.Kind() != jsliteral.ObjectKind {
			continue
		}
		fields = append(fields, decodeField(name, fv))
	}
	return fields
}

func decodeField(name string, v *jsliteral.Value) FieldSpec {
	f := FieldSpec{Name: name}

	if tv, ok := v.Get("type"); ok && tv.Kind() == jsliteral.StringKind {
		f.Type = tv.Str()
	}
	if dv, ok := v.Get("description"); ok && dv.Kind() == jsliteral.StringKind {
		f.Description = dv.Str()
	}
	if fv, ok := v.Get("format"); ok && fv.Kind() == jsliteral.StringKind {
		f.Format = fv.Str()
	}
	if ov, ok := v.Get("optional"); ok {
		f.Optional = ov.Truthy()
	}
	if ev, ok := v.Get("enum"); ok && ev.Kind() == jsliteral.ArrayKind {
		for _, item := range ev.Items() {
			f.Enum = append(f.Enum, item.Interface())
		}
	}
	if pv, ok := v.Get("pattern"); ok {
		f.Pattern = patternSource(pv)
	}
	if mv, ok := v.Get("minimum"); ok && mv.Kind() == jsliteral.NumberKind {
		min := mv.Float()
		f.Minimum = &min
	}
	if mv, ok := v.Get("maximum"); ok && mv.Kind() == jsliteral.NumberKind {
		max := mv.Float()
		f.Maximum = &max
	}
	if mv, ok := v.Get("minLength"); ok && mv.Kind() == jsliteral.NumberKind && mv.Float() >= 0 {
		n := uint64(mv.Int())
		f.MinLength = &n
	}
	if mv, ok := v.Get("maxLength"); ok && mv.Kind() == jsliteral.NumberKind && mv.Float() >= 0 {
		n := uint64(mv.Int())
		f.MaxLength = &n
	}
	if dv, ok := v.Get("default"); ok {
		f.Default = dv.Interface()
		f.HasDefault = true
	}
	if iv, ok := v.Get("items"); ok && iv.Kind() == jsliteral.ObjectKind {
		item := decodeField("", iv)
		f.Items = &item
	}
	if pv, ok := v.Get("properties"); ok && pv.Kind() == jsliteral.ObjectKind {
		f.Properties = decodeProperties(pv)
	}

	return f
}

// patternSource extracts a usable regex source from either a regex
// literal or a string that carries its own / delimiters.
func patternSource(v *jsliteral.Value) string {
	switch v.Kind() {
	case jsliteral.RegexKind:
		return v.Str()
	case jsliteral.StringKind:
		s := v.Str()
		if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
			return s[1 : len(s)-1]
		}
		return s
	default:
		return ""
	}
}
