package generate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/proxdocs/apidoc2openapi/internal/apitree"
)

type generator struct {
	cfg      *Config
	warnings []Warning

	opIDs     map[string]int
	fragments map[string]*fragmentGroup
	fragOrder []string
	tags      map[string]struct{}
}

func newGenerator(cfg *Config) *generator {
	return &generator{
		cfg:       cfg,
		opIDs:     make(map[string]int),
		fragments: make(map[string]*fragmentGroup),
		tags:      make(map[string]struct{}),
	}
}

// assemble merges all operation records plus the variant's shared
// components into one document, then runs the promotion pass and the
// whole-document reference check.
func (g *generator) assemble(records []apitree.Record) (*openapi3.T, error) {
	components := &openapi3.Components{
		Schemas:         make(openapi3.Schemas, len(g.cfg.SharedSchemas)),
		SecuritySchemes: make(openapi3.SecuritySchemes, len(g.cfg.AuthSchemes)),
	}
	for name, ref := range g.cfg.SharedSchemas {
		components.Schemas[name] = ref
	}
	for name, scheme := range g.cfg.AuthSchemes {
		components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{Value: scheme}
	}

	doc := &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       g.cfg.info(),
		Servers:    g.cfg.servers(),
		Security:   g.cfg.Security,
		Paths:      openapi3.Paths{},
		Components: components,
	}

	for _, rec := range records {
		template, pathParams := pathTemplate(rec.Path)
		op, err := g.buildOperation(rec, template, pathParams)
		if err != nil {
			return nil, err
		}
		item := doc.Paths[template]
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths[template] = item
		}
		// A record reaching an already occupied method slot replaces
		// it; the collision was already surfaced as a warning by the
		// operation id resolver.
		item.SetOperation(rec.Spec.Method, op)
	}

	doc.Tags = g.tagList()
	g.promoteShared(components)

	if err := verifyRefs(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *generator) buildOperation(rec apitree.Record, template string, pathParams []string) (*openapi3.Operation, error) {
	spec := rec.Spec
	opID := g.operationID(spec.Method, template)
	tag := g.tagFor(template)
	g.tags[tag] = struct{}{}

	summary := spec.Description
	if summary == "" {
		summary = spec.Method + " " + template
	}

	op := &openapi3.Operation{
		Summary:     summary,
		Description: spec.Description,
		OperationID: opID,
		Tags:        []string{tag},
	}
	if spec.Permissions != nil {
		op.Extensions = map[string]any{"x-proxmox-permissions": spec.Permissions}
	}

	declared := make(map[string]*apitree.FieldSpec, len(spec.Parameters))
	for i := range spec.Parameters {
		declared[spec.Parameters[i].Name] = &spec.Parameters[i]
	}

	fieldBase := strings.Trim(template, "/")
	inPath := make(map[string]struct{}, len(pathParams))
	var params openapi3.Parameters
	for _, name := range pathParams {
		inPath[name] = struct{}{}
		desc := "The " + name + " parameter"
		var schema *openapi3.SchemaRef
		if f, ok := declared[name]; ok {
			// The node's own declaration is more specific than the
			// default string path parameter and wins.
			s, err := g.fieldSchema(f, fieldBase+"."+name, "string", opID)
			if err != nil {
				return nil, err
			}
			schema = s
			if f.Description != "" {
				desc = f.Description
			}
		} else if comp, ok := g.cfg.PathParamSchemas[name]; ok {
			schema = openapi3.NewSchemaRef("#/components/schemas/"+comp, nil)
		} else {
			schema = openapi3.NewSchemaRef("", &openapi3.Schema{Type: "string", Description: desc})
		}
		params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        name,
			In:          "path",
			Required:    true,
			Description: desc,
			Schema:      schema,
		}})
	}

	if spec.Method == "GET" || spec.Method == "DELETE" {
		for i := range spec.Parameters {
			f := &spec.Parameters[i]
			if _, dup := inPath[f.Name]; dup {
				continue
			}
			schema, err := g.fieldSchema(f, fieldBase+"."+f.Name, "string", opID)
			if err != nil {
				return nil, err
			}
			params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
				Name:        f.Name,
				In:          "query",
				Required:    !f.Optional,
				Description: f.Description,
				Schema:      schema,
			}})
		}
	} else if len(spec.Parameters) > 0 {
		body := &openapi3.Schema{Type: "object", Properties: openapi3.Schemas{}}
		for i := range spec.Parameters {
			f := &spec.Parameters[i]
			if _, dup := inPath[f.Name]; dup {
				continue
			}
			schema, err := g.fieldSchema(f, fieldBase+"."+f.Name, "string", opID)
			if err != nil {
				return nil, err
			}
			body.Properties[f.Name] = schema
			if !f.Optional {
				body.Required = append(body.Required, f.Name)
			}
		}
		if len(body.Properties) > 0 {
			op.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
				Required: len(body.Required) > 0,
				Content:  openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef("", body)),
			}}
		}
	}
	if len(params) > 0 {
		op.Parameters = params
	}

	responses := openapi3.Responses{}
	if spec.Returns != nil {
		schema, err := g.fieldSchema(spec.Returns, fieldBase+".returns", "object", opID)
		if err != nil {
			return nil, err
		}
		desc := spec.Returns.Description
		if desc == "" {
			desc = "Successful operation"
		}
		responses["200"] = &openapi3.ResponseRef{Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		}}
	} else {
		desc := "Successful operation"
		responses["200"] = &openapi3.ResponseRef{Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.NewContentWithJSONSchemaRef(
				openapi3.NewSchemaRef("#/components/schemas/ProxmoxSuccess", nil)),
		}}
	}
	for code, ref := range errorResponses() {
		responses[code] = ref
	}
	op.Responses = responses

	sec := g.cfg.Security
	op.Security = &sec

	return op, nil
}

func (g *generator) tagList() openapi3.Tags {
	names := make([]string, 0, len(g.tags))
	for name := range g.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	tags := make(openapi3.Tags, 0, len(names))
	for _, name := range names {
		tags = append(tags, &openapi3.Tag{
			Name:        name,
			Description: name + " related operations",
		})
	}
	return tags
}

// promoteShared moves object fragments reused by two or more
// operations into components.schemas and rewrites every site to $ref.
// Registration order makes naming deterministic.
func (g *generator) promoteShared(components *openapi3.Components) {
	for _, key := range g.fragOrder {
		grp := g.fragments[key]
		if len(grp.ops) < 2 {
			continue
		}
		name := uniqueComponentName(pascalName(grp.fieldPath), components.Schemas)
		components.Schemas[name] = openapi3.NewSchemaRef("", grp.schema)
		for _, site := range grp.sites {
			site.Ref = "#/components/schemas/" + name
		}
	}
}

func uniqueComponentName(base string, schemas openapi3.Schemas) string {
	name := base
	for i := 2; ; i++ {
		if _, taken := schemas[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

const schemaRefPrefix = "#/components/schemas/"

// verifyRefs walks the finished document and confirms every schema
// reference and security scheme name resolves. A failure here is an
// assembler defect, never an input problem.
func verifyRefs(doc *openapi3.T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return &ConsistencyError{Msg: "marshal document: " + err.Error()}
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return &ConsistencyError{Msg: "reparse document: " + err.Error()}
	}

	missing := make(map[string]struct{})
	var walk func(node any)
	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			if ref, ok := n["$ref"].(string); ok && strings.HasPrefix(ref, schemaRefPrefix) {
				name := strings.TrimPrefix(ref, schemaRefPrefix)
				if _, exists := doc.Components.Schemas[name]; !exists {
					missing[ref] = struct{}{}
				}
			}
			for _, v := range n {
				walk(v)
			}
		case []any:
			for _, v := range n {
				walk(v)
			}
		}
	}
	walk(tree)

	for _, req := range doc.Security {
		for name := range req {
			if _, exists := doc.Components.SecuritySchemes[name]; !exists {
				missing["securityScheme:"+name] = struct{}{}
			}
		}
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for ref := range missing {
			names = append(names, ref)
		}
		sort.Strings(names)
		return &ConsistencyError{Msg: "unresolved references: " + strings.Join(names, ", ")}
	}
	return nil
}
