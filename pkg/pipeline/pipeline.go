// Package pipeline runs the complete load → resolve → layout → render
// chain for a project document.
//
// The CLI and the HTTP API both go through a Runner so the stages and
// their logging behave identically from every entry point. Resolution
// failures are not fatal: the pipeline carries diagnostics through and
// still renders the rows that resolved, so a document with one broken
// reference produces a partial chart plus an error report rather than
// nothing.
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/render/styles"
	"github.com/celosnet/ugantt/pkg/resolve"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options configures one pipeline run. This struct supports JSON
// serialization for API requests.
type Options struct {
	// Source selects the document: a file path, or raw YAML given
	// directly (the API path). Exactly one must be set.
	Path   string `json:"path,omitempty"`
	Source []byte `json:"source,omitempty"`

	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"` // TOML theme file, empty for the default

	// Runtime options (not serialized)
	Built  time.Time   `json:"-"` // timestamp for the footer; zero means now
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Path == "" && len(o.Source) == 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "no document given")
	}
	if o.Path != "" && len(o.Source) > 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "both a path and inline source given")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPDF}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
		}
	}
	if o.Built.IsZero() {
		o.Built = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// Stats records per-stage timings of a run.
type Stats struct {
	LoadTime    time.Duration `json:"load_time"`
	ResolveTime time.Duration `json:"resolve_time"`
	LayoutTime  time.Duration `json:"layout_time"`
	RenderTime  time.Duration `json:"render_time"`
}

// Result is the complete output of a pipeline run.
type Result struct {
	Document   *project.Document
	Resolution *resolve.Result
	Layout     *layout.Layout
	Artifacts  map[string][]byte // format -> rendered bytes
	Stats      Stats
}

// Failed reports whether resolution produced any errors. The artifacts
// are still present, rendered from the rows that resolved.
func (r *Result) Failed() bool {
	return r.Resolution != nil && r.Resolution.Failed()
}

// loadTheme reads the named theme, or the default when unset.
func loadTheme(path string) (styles.Theme, error) {
	if path == "" {
		return styles.Default(), nil
	}
	return styles.Load(path)
}
