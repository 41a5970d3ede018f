// Package output renders generated documents to JSON and YAML and
// writes them to disk or a stream.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatBoth Format = "both"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatBoth:
		return FormatBoth, nil
	default:
		return "", fmt.Errorf("output: unknown format %q (allowed: json, yaml, both)", s)
	}
}

// EncodeJSON renders a document as indented JSON with a trailing
// newline. Object keys come out sorted, so equal documents encode to
// equal bytes.
func EncodeJSON(doc *openapi3.T) ([]byte, error) {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("output: marshal document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("output: indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EncodeYAML renders a document as YAML by round-tripping through its
// JSON form, which keeps the two encodings structurally identical.
func EncodeYAML(doc *openapi3.T) ([]byte, error) {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("output: marshal document: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("output: reparse document: %w", err)
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("output: encode yaml: %w", err)
	}
	return out, nil
}

// Options controls where and how Emit writes files.
type Options struct {
	OutDir string // required; target directory
	Format Format // json, yaml, or both
	Force  bool   // overwrite existing files
	DryRun bool   // don't write, only plan
}

// PlannedFile describes a file Emit wrote or would write.
type PlannedFile struct {
	RelPath string
	Size    int
}

// Result lists the emitted files in deterministic order.
type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Emit writes <api>-api.json and/or <api>-api.yaml under OutDir.
// Existing files are refused unless Force is set.
func Emit(api string, doc *openapi3.T, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output: OutDir is required")
	}
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}

	files := map[string][]byte{}
	if format == FormatJSON || format == FormatBoth {
		data, err := EncodeJSON(doc)
		if err != nil {
			return nil, err
		}
		files[api+"-api.json"] = data
	}
	if format == FormatYAML || format == FormatBoth {
		data, err := EncodeYAML(doc)
		if err != nil {
			return nil, err
		}
		files[api+"-api.yaml"] = data
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if !opts.Force && !opts.DryRun {
		for _, name := range names {
			path := filepath.Join(opts.OutDir, name)
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("output: %s already exists (use --force to overwrite)", path)
			}
		}
	}

	res := &Result{OutDir: opts.OutDir}
	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("output: create %s: %w", opts.OutDir, err)
		}
	}
	for _, name := range names {
		data := files[name]
		if !opts.DryRun {
			path := filepath.Join(opts.OutDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("output: write %s: %w", path, err)
			}
		}
		res.Planned = append(res.Planned, PlannedFile{RelPath: name, Size: len(data)})
	}
	return res, nil
}
