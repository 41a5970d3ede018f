package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PrinterOptions controls stream rendering.
type PrinterOptions struct {
	ForcePretty  bool
	ForceCompact bool
}

// Printer writes document bytes to a stream, indenting JSON when the
// stream is a terminal.
type Printer struct {
	out    io.Writer
	err    io.Writer
	pretty bool
}

func NewPrinter(out io.Writer, errw io.Writer, opts PrinterOptions) *Printer {
	pretty := false
	if opts.ForcePretty {
		pretty = true
	} else if opts.ForceCompact {
		pretty = false
	} else {
		// auto
		if f, ok := out.(*os.File); ok {
			pretty = term.IsTerminal(int(f.Fd()))
		}
	}
	return &Printer{out: out, err: errw, pretty: pretty}
}

func (p *Printer) Out() io.Writer { return p.out }
func (p *Printer) Err() io.Writer { return p.err }

// PrintBody writes body to the output stream, re-indenting valid JSON
// in pretty mode and guaranteeing a trailing newline.
func (p *Printer) PrintBody(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	out := body
	if p.pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	if _, err := p.out.Write(out); err != nil {
		return err
	}
	if out[len(out)-1] != '\n' {
		_, _ = p.out.Write([]byte("\n"))
	}
	return nil
}

// PrintSummary writes a one-line run summary to the error stream.
func (p *Printer) PrintSummary(api string, paths, operations, tags, schemas, warnings int) {
	fmt.Fprintf(p.err, "%s: %d paths, %d operations, %d tags, %d schemas", api, paths, operations, tags, schemas)
	if warnings > 0 {
		fmt.Fprintf(p.err, ", %d warnings", warnings)
	}
	fmt.Fprintln(p.err)
}
