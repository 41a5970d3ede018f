package generate

import "github.com/getkin/kin-openapi/openapi3"

// Stats summarizes a generated document.
type Stats struct {
	Endpoints  int // operation records produced by the walker
	Paths      int
	Operations int
	Tags       int
	Schemas    int
}

func newStats(doc *openapi3.T, endpoints int) Stats {
	s := Stats{
		Endpoints: endpoints,
		Paths:     len(doc.Paths),
		Tags:      len(doc.Tags),
	}
	for _, item := range doc.Paths {
		s.Operations += len(item.Operations())
	}
	if doc.Components != nil {
		s.Schemas = len(doc.Components.Schemas)
	}
	return s
}
