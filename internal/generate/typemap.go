package generate

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/proxdocs/apidoc2openapi/internal/apitree"
)

// fieldSchema converts one vendor field descriptor into an OpenAPI
// schema fragment. fallbackType fills in an absent vendor type:
// "string" for parameters, "object" for return trees. Object fragments
// with properties are recorded as promotion candidates.
func (g *generator) fieldSchema(f *apitree.FieldSpec, fieldPath, fallbackType, opID string) (*openapi3.SchemaRef, error) {
	if name := g.cfg.matchSharedSchema(f); name != "" {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, nil), nil
	}

	vt := f.Type
	if vt == "" {
		vt = fallbackType
	}

	s := &openapi3.Schema{
		Description: f.Description,
		Format:      f.Format,
	}
	if f.HasDefault {
		s.Default = f.Default
	}

	switch vt {
	case "integer", "number":
		s.Type = vt
		s.Min = f.Minimum
		s.Max = f.Maximum

	case "boolean":
		s.Type = "boolean"

	case "string":
		s.Type = "string"

	case "null":
		// OpenAPI 3.0 has no null type.
		s.Nullable = true

	case "array":
		s.Type = "array"
		if f.Items == nil {
			return nil, &apitree.ShapeError{Path: fieldPath, Msg: "array field has no items schema"}
		}
		items, err := g.fieldSchema(f.Items, fieldPath+".items", "string", opID)
		if err != nil {
			return nil, err
		}
		s.Items = items

	case "object":
		s.Type = "object"
		if len(f.Properties) == 0 {
			s.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(true)}
			break
		}
		s.Properties = make(openapi3.Schemas, len(f.Properties))
		for i := range f.Properties {
			prop := &f.Properties[i]
			ps, err := g.fieldSchema(prop, fieldPath+"."+prop.Name, "string", opID)
			if err != nil {
				return nil, err
			}
			s.Properties[prop.Name] = ps
			if !prop.Optional {
				s.Required = append(s.Required, prop.Name)
			}
		}

	default:
		// The vendor type vocabulary is not closed; unknown names fall
		// back to string and the run continues.
		s.Type = "string"
		g.warnf(WarnFieldMapping, fieldPath, "unrecognized vendor type %q mapped to string", vt)
	}

	// The vendor attaches enums to integers and length bounds to
	// loosely typed fields, so constraints carry over regardless of
	// the declared type. Boolean is the one type that never takes an
	// enum.
	s.Pattern = f.Pattern
	if len(f.Enum) > 0 && vt != "boolean" {
		s.Enum = f.Enum
	}
	if f.MinLength != nil {
		s.MinLength = *f.MinLength
	}
	if f.MaxLength != nil {
		s.MaxLength = f.MaxLength
	}

	ref := openapi3.NewSchemaRef("", s)
	if vt == "object" && len(s.Properties) > 0 {
		g.registerFragment(ref, fieldPath, opID)
	}
	return ref, nil
}

// fragmentGroup tracks every site sharing one structural shape.
type fragmentGroup struct {
	fieldPath string // first occurrence, source of the component name
	schema    *openapi3.Schema
	sites     []*openapi3.SchemaRef
	ops       map[string]struct{}
}

func (g *generator) registerFragment(ref *openapi3.SchemaRef, fieldPath, opID string) {
	raw, err := json.Marshal(ref.Value)
	if err != nil {
		return
	}
	key := string(raw)
	grp, ok := g.fragments[key]
	if !ok {
		grp = &fragmentGroup{
			fieldPath: fieldPath,
			schema:    ref.Value,
			ops:       make(map[string]struct{}),
		}
		g.fragments[key] = grp
		g.fragOrder = append(g.fragOrder, key)
	}
	grp.sites = append(grp.sites, ref)
	grp.ops[opID] = struct{}{}
}

func (g *generator) warnf(kind WarningKind, where, format string, args ...any) {
	g.warnings = append(g.warnings, Warning{
		Kind:    kind,
		Where:   where,
		Message: fmt.Sprintf(format, args...),
	})
}
