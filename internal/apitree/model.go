// Package apitree decodes the vendor endpoint tree out of a normalized
// literal and flattens it into per-operation records.
package apitree

import "fmt"

// Methods lists the HTTP methods the vendor documents use, in the
// order operations are emitted for a single node.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// Node is one endpoint-tree node. Path holds the vendor's segment text
// which may embed {param} placeholders. A node with no operations
// contributes only path prefix.
type Node struct {
	Path     string
	Text     string
	Leaf     bool
	Ops      []*OperationSpec
	Children []*Node
}

// OperationSpec describes one HTTP method entry of a node.
type OperationSpec struct {
	Method      string
	Description string
	// Permissions is carried through untouched; the pipeline never
	// interprets it.
	Permissions any
	Parameters  []FieldSpec
	Returns     *FieldSpec
}

// FieldSpec is the vendor's informal per-field type descriptor.
type FieldSpec struct {
	Name        string
	Type        string // vendor type vocabulary, open-ended
	Description string
	Format      string
	Optional    bool
	Enum        []any
	Pattern     string // regex source without delimiters
	Minimum     *float64
	Maximum     *float64
	MinLength   *uint64
	MaxLength   *uint64
	Default     any
	HasDefault  bool // distinguishes an explicit null default from no default
	Items       *FieldSpec
	Properties  []FieldSpec
}

// Record pairs one accumulated endpoint path with one method entry.
type Record struct {
	Path string
	Text string
	Spec *OperationSpec
}

// ShapeError reports structurally valid data that does not match
// either known vendor tree shape.
type ShapeError struct {
	Path string // endpoint path prefix where decoding failed, may be empty
	Msg  string
}

func (e *ShapeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("apitree: %s (at %q)", e.Msg, e.Path)
	}
	return "apitree: " + e.Msg
}
