// Package generate turns a normalized vendor endpoint literal into a
// complete OpenAPI 3.0.3 document for one product variant.
package generate

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/proxdocs/apidoc2openapi/internal/apitree"
	"github.com/proxdocs/apidoc2openapi/internal/jsliteral"
)

// Result is a successful run: a complete document plus any recoverable
// warnings collected along the way. An empty Warnings slice means the
// run was clean.
type Result struct {
	Doc      *openapi3.T
	Warnings []Warning
	Stats    Stats
}

// Generate is the pipeline entry point. raw is the literal source
// (the extracted assignment value; trailing script is ignored).
// Normalization and tree-shape problems abort with no document;
// field-level and operation-id issues are collected as warnings on an
// otherwise valid result.
func Generate(raw []byte, cfg *Config) (*Result, error) {
	val, _, err := jsliteral.ParseOne(raw)
	if err != nil {
		return nil, err
	}

	nodes, err := apitree.Decode(val)
	if err != nil {
		return nil, err
	}
	records := apitree.Flatten(nodes)

	g := newGenerator(cfg)
	doc, err := g.assemble(records)
	if err != nil {
		return nil, err
	}

	return &Result{
		Doc:      doc,
		Warnings: g.warnings,
		Stats:    newStats(doc, len(records)),
	}, nil
}
