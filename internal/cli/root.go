package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the apidoc2openapi CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apidoc2openapi",
		Short:         "Convert Proxmox apidoc.js schemas to OpenAPI 3.0 documents",
		Long:          "apidoc2openapi reads the JavaScript endpoint schema shipped with Proxmox VE and Proxmox Backup Server and emits an equivalent OpenAPI 3.0.3 document.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	conv := newConvertCmd()
	conv.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})
	cmd.AddCommand(conv)

	cmd.AddCommand(newVersionCmd())

	return cmd
}
