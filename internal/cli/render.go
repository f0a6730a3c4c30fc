package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/gantt/internal/adapters/svg"
	"github.com/okian/gantt/pkg/logger"
)

// RenderOptions extends the transform flags with drawing flags.
type RenderOptions struct {
	TransformOptions
	Output string
	Width  float64
	Title  string
}

// RenderSummary is printed after writing the SVG to a file.
type RenderSummary struct {
	Output    string `json:"output" yaml:"output"`
	Rows      int    `json:"rows" yaml:"rows"`
	Intervals int    `json:"intervals" yaml:"intervals"`
	Dropped   int    `json:"dropped" yaml:"dropped"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}
	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Draw a record file as an SVG Gantt chart",
		Long: `Transform a JSON or YAML record file and draw the timeline as SVG.
Without -o the document is written to stdout; with -o a summary is printed
in the selected format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts, args[0])
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SVG to this file instead of stdout")
	cmd.Flags().Float64Var(&opts.Width, "width", 1000, "chart width in px")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title")
	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, path string) error {
	if opts.Width <= 0 {
		return NewExitError(ExitCommandError, "--width must be positive")
	}
	ctx := cmd.Context()
	l := rootOpts.Logger()

	res, err := opts.transform(ctx, cmd, l, path)
	if err != nil {
		return err
	}
	loc, err := opts.location()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := svg.NewWriter(
		svg.WithWidth(opts.Width),
		svg.WithTitle(opts.Title),
		svg.WithTimeFormat(opts.TimeFormat),
		svg.WithLocation(loc),
	)
	if err := w.Write(&buf, res); err != nil {
		return WrapExitError(ExitFailure, "render svg", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o600); err != nil {
		return WrapExitError(ExitCommandError, "write "+opts.Output, err)
	}
	l.Info(ctx, "svg written", logger.String("output", opts.Output), logger.Int("bytes", buf.Len()))

	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if err := f.Encode(RenderSummary{
		Output:    opts.Output,
		Rows:      len(res.Rows),
		Intervals: len(res.Intervals),
		Dropped:   res.DroppedTotal(),
	}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
