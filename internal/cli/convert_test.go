package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestConvertConfigFromFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *ConvertConfig
	convertRunner = func(ctx context.Context, cfg *ConvertConfig, cmd *cobra.Command) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { convertRunner = runConvert })

	root.SetArgs([]string{
		"--verbose",
		"convert",
		"--input", "apidoc.js",
		"--api", "pbs",
		"--out", "./dist",
		"--format", "both",
		"--strict",
		"--dry-run",
		"--force",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}
	if captured.Input != "apidoc.js" {
		t.Errorf("input mismatch: got %q", captured.Input)
	}
	if captured.API != "pbs" {
		t.Errorf("api mismatch: got %q", captured.API)
	}
	if captured.Out != "./dist" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if captured.Format != "both" {
		t.Errorf("format mismatch: got %q", captured.Format)
	}
	if !captured.Strict || !captured.DryRun || !captured.Force || !captured.Verbose {
		t.Errorf("boolean flags not applied: %+v", captured)
	}
}

func TestConvertConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`input: config-apidoc.js
api: pve
out: from-config
format: yaml
strict: true
force: false
verbose: true
`) + "\n"

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *ConvertConfig
	convertRunner = func(ctx context.Context, cfg *ConvertConfig, cmd *cobra.Command) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { convertRunner = runConvert })

	root.SetArgs([]string{
		"--config", configPath,
		"convert",
		"--input", "flag-apidoc.js",
		"--api", "pbs",
		"--force",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}
	// Flags beat the config file; untouched fields keep config values.
	if captured.Input != "flag-apidoc.js" {
		t.Errorf("input mismatch: got %q", captured.Input)
	}
	if captured.API != "pbs" {
		t.Errorf("api mismatch: got %q", captured.API)
	}
	if captured.Out != "from-config" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if captured.Format != "yaml" {
		t.Errorf("format mismatch: got %q", captured.Format)
	}
	if !captured.Strict || !captured.Force || !captured.Verbose {
		t.Errorf("boolean merge wrong: %+v", captured)
	}
}

func TestConvertValidation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"convert"}, "--input is required"},
		{"bad api", []string{"convert", "--input", "a.js", "--api", "pmg"}, "unsupported --api"},
		{"bad format", []string{"convert", "--input", "a.js", "--format", "xml"}, "unsupported --format"},
		{"stdout both", []string{"convert", "--input", "a.js", "--format", "both", "--stdout"}, "--stdout cannot combine"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tc.args)

			err := root.Execute()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestConvertConfigUnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("inptu: typo.js\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "convert", "--input", "a.js"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--unknown-flag"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for unknown flag")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "unknown flag") || !strings.Contains(err.Error(), "Usage:") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestConvertEndToEnd_Stdout(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "apidoc.js")
	script := `const apiSchema = [
  { path: "/version", info: { GET: { description: "API version" } } },
];
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--stdout"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"openapi": "3.0.3"`) {
		t.Errorf("stdout missing document: %s", out.String())
	}
	if !strings.Contains(errOut.String(), "1 operations") {
		t.Errorf("summary missing from stderr: %s", errOut.String())
	}
}

func TestConvertEndToEnd_WritesFiles(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "apidoc.js")
	script := `var pveapi = [
  { path: "/nodes", info: { GET: {} } },
];
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	outDir := filepath.Join(tmpDir, "dist")
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--out", outDir, "--format", "both"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, name := range []string{"pve-api.json", "pve-api.yaml"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestConvertReusesExtractedLiteralForUnchangedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "apidoc.js")
	script := `const apiSchema = [
  { path: "/version", info: { GET: {} } },
];
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	fi, err := os.Stat(scriptPath)
	if err != nil {
		t.Fatalf("stat script: %v", err)
	}

	var first bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&first)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--stdout"})
	if err := root.Execute(); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Swap the contents but keep the modification time; the cached
	// literal from the first run must still be served.
	if err := os.WriteFile(scriptPath, []byte("not javascript at all"), 0o644); err != nil {
		t.Fatalf("rewrite script: %v", err)
	}
	if err := os.Chtimes(scriptPath, fi.ModTime(), fi.ModTime()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	var second bytes.Buffer
	root = NewRootCmd()
	root.SetOut(&second)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--stdout"})
	if err := root.Execute(); err != nil {
		t.Fatalf("second run should hit the cache: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("cached run diverged from original output")
	}
}

func TestConvertStrictFailsOnWarnings(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "apidoc.js")
	script := `const apiSchema = [
  { path: "/odd", info: { GET: { parameters: { type: "object", properties: {
    widget: { type: "frobnicator" },
  } } } } },
];
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--stdout", "--strict"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--strict") {
		t.Fatalf("expected strict failure, got %v", err)
	}
}

func TestConvertParseErrorReportsScriptOffset(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "apidoc.js")
	script := "// header\nconst apiSchema = [ { path: f(1) } ];\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", "--input", scriptPath, "--stdout"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse error at byte") {
		t.Fatalf("expected offset in error, got %v", err)
	}
	if !strings.Contains(err.Error(), scriptPath) {
		t.Fatalf("expected script location in error, got %v", err)
	}
}
