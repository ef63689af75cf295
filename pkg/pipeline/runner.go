package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/render/sink"
	"github.com/celosnet/ugantt/pkg/render/styles"
	"github.com/celosnet/ugantt/pkg/resolve"
)

// Runner executes the pipeline. It is stateless apart from its logger,
// so one Runner can serve concurrent requests.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to the default.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the complete load → resolve → layout → render pipeline.
// A returned error means the run could not proceed at all; reference
// failures inside the document surface as diagnostics on the Result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	theme, err := loadTheme(opts.Theme)
	if err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	doc, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	logger.Info("loaded document",
		"project", doc.Project,
		"rows", len(doc.Rows),
		"duration", result.Stats.LoadTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolveStart := time.Now()
	resolver, err := resolve.New(doc)
	if err != nil {
		return nil, err
	}
	res := resolver.Resolve()
	result.Resolution = res
	result.Stats.ResolveTime = time.Since(resolveStart)
	logger.Info("resolved references",
		"points", len(res.Points),
		"diagnostics", len(res.Diagnostics),
		"duration", result.Stats.ResolveTime)
	for _, d := range res.Diagnostics {
		if d.Severity == resolve.SeverityError {
			logger.Error(d.Message, "row", d.Row)
		} else {
			logger.Warn(d.Message, "row", d.Row)
		}
	}

	layoutStart := time.Now()
	l := layout.Build(doc, res, opts.Built)
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	logger.Info("computed layout",
		"slots", len(l.Slots),
		"arrows", len(l.Arrows),
		"duration", result.Stats.LayoutTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	renderStart := time.Now()
	for _, format := range opts.Formats {
		data, err := r.render(l, format, theme)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = data
	}
	result.Stats.RenderTime = time.Since(renderStart)
	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

func (r *Runner) load(opts Options) (*project.Document, error) {
	if opts.Path != "" {
		return project.Load(opts.Path)
	}
	return project.Decode(bytes.NewReader(opts.Source))
}

func (r *Runner) render(l *layout.Layout, format string, theme styles.Theme) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(l, sink.WithTheme(theme)), nil
	case FormatPDF:
		return sink.RenderPDF(l, sink.WithTheme(theme))
	case FormatJSON:
		return sink.RenderJSON(l)
	}
	// Unreachable after option validation.
	panic("unknown format " + format)
}
