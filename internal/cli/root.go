// Package cli implements the gantt command line: transforming record files
// into timelines and drawing them as SVG.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/okian/gantt/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "yaml"

	log logger.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "yaml"} //nolint:gochecknoglobals // fixed enumeration

// Logger returns the command logger. Without --verbose it discards output.
func (o *RootOptions) Logger() logger.Logger {
	if o.log == nil {
		return logger.Nop()
	}
	return o.log
}

// NewRootCommand creates the root command for the gantt CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Hierarchical Gantt timeline tool",
		Long: `Transform hierarchical records with start and end instants into Gantt
timeline rows, bar intervals and layout geometry, or draw them as SVG.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !opts.Verbose {
				opts.log = logger.Nop()
				return nil
			}
			// Diagnostics go to stderr so they never corrupt the output document.
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return WrapExitError(ExitCommandError, "init logging", err)
			}
			_ = logger.SetLevelString("debug")
			opts.log = logger.Named("cli")
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")

	cmd.AddCommand(NewTransformCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
