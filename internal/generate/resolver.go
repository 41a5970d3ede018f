package generate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var pathParamRe = regexp.MustCompile(`\{([^}]+)\}`)

// pathTemplate normalizes an accumulated vendor path into an OpenAPI
// path template and lists its parameter names in order of appearance.
func pathTemplate(raw string) (string, []string) {
	tpl := "/" + strings.Trim(raw, "/")
	var params []string
	for _, m := range pathParamRe.FindAllStringSubmatch(tpl, -1) {
		params = append(params, m[1])
	}
	return tpl, params
}

var titleCaser = cases.Title(language.English)

// tagFor picks the tag for a path: the longest matching prefix in the
// variant's tag mapping, else the title-cased first segment, else
// "Default" for the root.
func (g *generator) tagFor(template string) string {
	trimmed := strings.Trim(template, "/")
	if trimmed == "" {
		return "Default"
	}

	best := ""
	bestTag := ""
	for prefix, tag := range g.cfg.TagMapping {
		p := strings.Trim(prefix, "/")
		if p == "" {
			continue
		}
		if trimmed == p || strings.HasPrefix(trimmed, p+"/") {
			// Ties cannot occur: equal-length distinct prefixes cannot
			// both match the same path.
			if len(p) > len(best) {
				best = p
				bestTag = tag
			}
		}
	}
	if bestTag != "" {
		return bestTag
	}

	first := trimmed
	if i := strings.IndexByte(first, '/'); i >= 0 {
		first = first[:i]
	}
	return titleCaser.String(first)
}

var opIDClean = strings.NewReplacer("/", "_", "{", "", "}", "")

// operationID derives a deterministic slug from method and template.
// Colliding records (same method+path reached through two branches)
// get numeric suffixes, with one warning per extra occurrence.
func (g *generator) operationID(method, template string) string {
	slug := strings.ToLower(method) + "_" + strings.Trim(opIDClean.Replace(template), "_")
	slug = strings.Trim(slug, "_")
	n := g.opIDs[slug]
	g.opIDs[slug] = n + 1
	if n == 0 {
		return slug
	}
	id := fmt.Sprintf("%s_%d", slug, n+1)
	g.warnf(WarnDuplicateOperation, template,
		"duplicate operation for %s %s, assigned id %q", method, template, id)
	return id
}

// pascalName turns a field path like "nodes.{node}.status.returns"
// into a component name like "NodesNodeStatusReturns".
func pascalName(fieldPath string) string {
	var b strings.Builder
	upper := true
	for _, r := range fieldPath {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				b.WriteRune(r - 'a' + 'A')
			} else {
				b.WriteRune(r)
			}
			upper = false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return "Schema"
	}
	return b.String()
}
