package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/proxdocs/apidoc2openapi/internal/generate"
	"github.com/proxdocs/apidoc2openapi/internal/jsliteral"
	"github.com/proxdocs/apidoc2openapi/internal/loader"
	"github.com/proxdocs/apidoc2openapi/internal/output"
)

// ConvertConfig captures all inputs that influence the convert command after
// merging defaults, config file values, and CLI overrides.
type ConvertConfig struct {
	Input      string
	API        string
	Out        string
	Format     string
	Stdout     bool
	Strict     bool
	DryRun     bool
	Force      bool
	Verbose    bool
	ConfigPath string
}

func defaultConvertConfig() ConvertConfig {
	return ConvertConfig{API: "pve", Format: "json", Out: "."}
}

var convertRunner = runConvert

// extractCache keeps literals from already-seen local scripts so
// repeated conversions of an unchanged file skip re-extraction.
var extractCache = loader.NewCache()

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an apidoc.js schema into an OpenAPI document",
		Long: "Convert an apidoc.js schema into an OpenAPI 3.0.3 document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  apidoc2openapi convert --input apidoc.js --api pve --out ./dist
  apidoc2openapi convert --input https://pve.example:8006/pve-docs/api-viewer/apidoc.js --format both
  apidoc2openapi --config config.yaml convert --force`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConvertConfig(cmd)
			if err != nil {
				return err
			}
			return convertRunner(cmd.Context(), cfg, cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the vendor apidoc.js script")
	flags.String("api", "", "API variant to target (pve|pbs); defaults to pve")
	flags.String("out", "", "Output directory; defaults to the current directory")
	flags.String("format", "", "Output format (json|yaml|both); defaults to json")
	flags.Bool("stdout", false, "Write the document to stdout instead of files")
	flags.Bool("strict", false, "Treat mapping warnings as fatal")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveConvertConfig(cmd *cobra.Command) (*ConvertConfig, error) {
	cfg := defaultConvertConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConvertConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyConvertFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyConvertFlagOverrides(flags *pflag.FlagSet, cfg *ConvertConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("api") {
		value, err := flags.GetString("api")
		if err != nil {
			return err
		}
		cfg.API = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = strings.TrimSpace(value)
	}
	if flags.Changed("stdout") {
		value, err := flags.GetBool("stdout")
		if err != nil {
			return err
		}
		cfg.Stdout = value
	}
	if flags.Changed("strict") {
		value, err := flags.GetBool("strict")
		if err != nil {
			return err
		}
		cfg.Strict = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *ConvertConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.API = strings.ToLower(strings.TrimSpace(c.API))
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.API == "" {
		c.API = "pve"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Out == "" {
		c.Out = "."
	}
}

func (c *ConvertConfig) validate() error {
	if c.Input == "" {
		return newUsageError("convert: --input is required (set via flag or config file)")
	}
	if _, err := generate.ConfigFor(c.API); err != nil {
		return newUsageError(fmt.Sprintf("convert: unsupported --api %q (allowed: %s)", c.API, strings.Join(generate.Variants(), ", ")))
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return newUsageError(fmt.Sprintf("convert: unsupported --format %q (allowed: json, yaml, both)", c.Format))
	}
	if c.Stdout && c.Format == string(output.FormatBoth) {
		return newUsageError("convert: --stdout cannot combine with --format both")
	}
	return nil
}

func runConvert(ctx context.Context, cfg *ConvertConfig, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	script, err := loader.Load(ctx, cfg.Input)
	if err != nil {
		var le *loader.LoadError
		if errors.As(err, &le) && le.Code == loader.InputError {
			return newUsageError(le.Message)
		}
		return err
	}
	logger.Debug("loaded script", "location", script.Location, "bytes", len(script.Source))

	literal, base, err := extractCache.ExtractCached(script)
	if err != nil {
		return err
	}

	variant, err := generate.ConfigFor(cfg.API)
	if err != nil {
		return err
	}

	res, err := generate.Generate(literal, variant)
	if err != nil {
		// Literal offsets are relative to the extracted slice; shift
		// them back into script coordinates before reporting.
		var se *jsliteral.SyntaxError
		if errors.As(err, &se) {
			return fmt.Errorf("%s: parse error at byte %d: %s near %q", script.Location, base+se.Offset, se.Msg, se.Context)
		}
		return err
	}

	for _, w := range res.Warnings {
		logger.Warn(w.Message, "kind", string(w.Kind), "where", w.Where)
	}
	if cfg.Strict && len(res.Warnings) > 0 {
		return fmt.Errorf("convert: %d warnings with --strict enabled", len(res.Warnings))
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.PrinterOptions{})

	if cfg.Stdout {
		format, _ := output.ParseFormat(cfg.Format)
		var data []byte
		if format == output.FormatYAML {
			data, err = output.EncodeYAML(res.Doc)
		} else {
			data, err = output.EncodeJSON(res.Doc)
		}
		if err != nil {
			return err
		}
		if err := printer.PrintBody(data); err != nil {
			return err
		}
	} else {
		format, _ := output.ParseFormat(cfg.Format)
		emitted, err := output.Emit(cfg.API, res.Doc, output.Options{
			OutDir: cfg.Out,
			Format: format,
			Force:  cfg.Force,
			DryRun: cfg.DryRun,
		})
		if err != nil {
			return wrapOutputError(err, absPath(cfg.Out))
		}
		if cfg.DryRun {
			printPlan(cmd.OutOrStdout(), absPath(cfg.Out), emitted.Planned)
		} else {
			for _, f := range emitted.Planned {
				logger.Debug("wrote file", "path", filepath.Join(emitted.OutDir, f.RelPath), "bytes", f.Size)
			}
		}
	}

	printer.PrintSummary(cfg.API, res.Stats.Paths, res.Stats.Operations, res.Stats.Tags, res.Stats.Schemas, len(res.Warnings))
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printPlan(w io.Writer, outDir string, planned []output.PlannedFile) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, f := range planned {
		fmt.Fprintf(w, "- %s (%d bytes)\n", f.RelPath, f.Size)
	}
}

func absPath(p string) string {
	if ap, err := filepath.Abs(p); err == nil {
		return ap
	}
	return p
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "already exists") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func applyConvertConfigFromFile(cfg *ConvertConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Input = str
		case "api":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.API = str
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "format":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Format = str
		case "stdout":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Stdout = val
		case "strict":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Strict = val
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
