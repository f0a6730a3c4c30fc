package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/gantt/internal/app"
	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/engine"
	"github.com/okian/gantt/pkg/logger"
)

// TransformOptions are the engine flags shared by transform and render.
type TransformOptions struct {
	WindowStart  string
	WindowEnd    string
	Sort         bool
	MinRowHeight float64
	MinBarWidth  float64
	TimeFormat   string
	Location     string
}

func (o *TransformOptions) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&o.WindowStart, "window-start", "", "pin the view window start (RFC 3339, date or epoch ms)")
	fs.StringVar(&o.WindowEnd, "window-end", "", "pin the view window end (RFC 3339, date or epoch ms)")
	fs.BoolVar(&o.Sort, "sort", false, "order records by their sortKey")
	fs.Float64Var(&o.MinRowHeight, "min-row-height", 0, "minimum row height in px (default 40)")
	fs.Float64Var(&o.MinBarWidth, "min-bar-width", 0, "minimum bar width in px (default 2)")
	fs.StringVar(&o.TimeFormat, "time-format", "", "Go layout for start/end texts (default \"2006-01-02 15:04:05\")")
	fs.StringVar(&o.Location, "location", "UTC", "time zone for zone-less timestamps and texts")
}

// apply lets explicitly set flags override the request file.
func (o *TransformOptions) apply(cmd *cobra.Command, req *types.TimelineRequest) {
	fs := cmd.Flags()
	if fs.Changed("window-start") {
		req.ViewStart = o.WindowStart
	}
	if fs.Changed("window-end") {
		req.ViewEnd = o.WindowEnd
	}
	if fs.Changed("sort") {
		req.Sort = o.Sort
	}
	if fs.Changed("min-row-height") {
		req.MinRowHeight = o.MinRowHeight
	}
	if fs.Changed("min-bar-width") {
		req.MinBarWidth = o.MinBarWidth
	}
}

func (o *TransformOptions) location() (*time.Location, error) {
	if o.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(o.Location)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --location", err)
	}
	return loc, nil
}

// transform loads path and runs it through the service.
func (o *TransformOptions) transform(ctx context.Context, cmd *cobra.Command, l logger.Logger, path string) (*engine.Result, error) {
	loc, err := o.location()
	if err != nil {
		return nil, err
	}
	req, err := LoadRequest(path, cmd.InOrStdin())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load records", err)
	}
	o.apply(cmd, &req)
	l.Debug(ctx, "loaded records", logger.String("path", path), logger.Int("records", len(req.Records)))

	svc := service.New(
		service.WithLogger(l),
		service.WithTimeFormat(o.TimeFormat),
		service.WithLocation(loc),
	)
	res, err := svc.Render(ctx, req)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "transform", err)
	}
	l.Debug(ctx, "transform complete",
		logger.Int("rows", len(res.Rows)),
		logger.Int("intervals", len(res.Intervals)),
		logger.Int("dropped", res.DroppedTotal()),
	)
	return res, nil
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{}
	cmd := &cobra.Command{
		Use:   "transform <file|->",
		Short: "Transform a record file into timeline rows, intervals and layout",
		Long: `Transform a JSON or YAML record file into Gantt timeline rows, bar
intervals and layout geometry. The file holds either a list of records or a
request object with a records field. Use - to read stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, rootOpts, opts, args[0])
		},
	}
	opts.bind(cmd)
	return cmd
}

func runTransform(cmd *cobra.Command, rootOpts *RootOptions, opts *TransformOptions, path string) error {
	res, err := opts.transform(cmd.Context(), cmd, rootOpts.Logger(), path)
	if err != nil {
		return err
	}
	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if err := f.Encode(types.FromResult(res)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
