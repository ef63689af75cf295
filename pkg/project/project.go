// Package project defines the document model for a ugantt timeline: the
// project header, display options, color keys, and the rows that make up
// the chart.
//
// The document is authored in YAML. Time-reference fields (`at`, `dep`)
// are deliberately loose (any) here; pkg/timeref normalizes them and
// pkg/resolve gives them positions. A Document is constructed once by Load
// or Decode and treated as immutable afterwards.
package project

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/celosnet/ugantt/pkg/calendar"
	"github.com/celosnet/ugantt/pkg/errors"
)

// DefaultLabelWidth is the width of the label column in page units when
// the document does not override it.
const DefaultLabelWidth = 50.0

// Document is a parsed timeline description.
type Document struct {
	Project string    `yaml:"project"`
	Version string    `yaml:"version"`
	Unit    string    `yaml:"unit"`
	Length  int       `yaml:"length"`
	Start   time.Time `yaml:"start"`
	Options Options   `yaml:"options"`
	Keys    []Key     `yaml:"keys"`
	Rows    []Row     `yaml:"rows"`
}

// Options is the display configuration block. Every field is optional.
type Options struct {
	KeyLegend  bool     `yaml:"key_legend"`   // append a legend of all keys (default false)
	KeyInBlock bool     `yaml:"key_in_block"` // write the key name inside work blocks (default false)
	ShowYear   *bool    `yaml:"show_year"`    // year markers on the axis (default true)
	Title      Text     `yaml:"title"`        // chart title; explicit false disables it
	Footer     Text     `yaml:"footer"`       // page footer; explicit false disables it
	LabelWidth *float64 `yaml:"label_width"`  // label column width (default 50.0)
	OneBased   bool     `yaml:"one_based"`    // number units from 1 instead of 0
}

// Key is a named RGB color applied to work blocks that reference it.
type Key struct {
	Name  string `yaml:"name"`
	Color [3]int `yaml:"color"`
}

// Row is one horizontal slot of the chart. A row must define at least one
// of At, Phases, Breaks, or Gap.
type Row struct {
	Name   string     `yaml:"name"`
	At     any        `yaml:"at"`     // time reference (see pkg/timeref)
	Length *float64   `yaml:"length"` // absent means milestone (zero width)
	Dep    any        `yaml:"dep"`    // dependency reference(s)
	Key    string     `yaml:"key"`    // key name for block color
	Stripe *bool      `yaml:"stripe"` // overrides the alternating background
	Gap    bool       `yaml:"gap"`    // spacer/heading row with no blocks
	Phases []SubBlock `yaml:"phases"` // named sub-intervals drawn as brackets
	Breaks []SubBlock `yaml:"breaks"` // named sub-intervals drawn as outlines
}

// SubBlock is a named sub-interval inside a phases or breaks row.
// Both At and Length are required by the document schema.
type SubBlock struct {
	Name   string  `yaml:"name"`
	At     any     `yaml:"at"`
	Length float64 `yaml:"length"`
}

// HasShape reports whether the row defines at least one of at, phases,
// breaks, or gap. Rows that don't are invalid (but only fatal for
// themselves, not for the document).
func (r *Row) HasShape() bool {
	return r.At != nil || len(r.Phases) > 0 || len(r.Breaks) > 0 || r.Gap
}

// IsMilestone reports whether the row is a zero-width point in time.
func (r *Row) IsMilestone() bool {
	return r.At != nil && r.Length == nil
}

// ShowYear resolves the year-marker option with its default.
func (o Options) ShowYearValue() bool {
	if o.ShowYear == nil {
		return true
	}
	return *o.ShowYear
}

// LabelWidthValue resolves the label column width with its default.
func (o Options) LabelWidthValue() float64 {
	if o.LabelWidth == nil {
		return DefaultLabelWidth
	}
	return *o.LabelWidth
}

// TitleText returns the effective chart title, or "" when disabled.
func (d *Document) TitleText() string {
	return d.Options.Title.Or(fmt.Sprintf("%s timeline", d.Project))
}

// FooterText returns the effective footer, or "" when disabled. The built
// date is injected by the caller so output stays reproducible in tests.
func (d *Document) FooterText(built time.Time) string {
	return d.Options.Footer.Or(fmt.Sprintf("%s timeline / version %s / built %s",
		d.Project, d.Version, built.Format("2 Jan 2006")))
}

// Validate checks the document-level invariants the schema pass cannot
// express: required header fields, a positive length, a start date on the
// unit's period boundary, and key color ranges. Row-shape problems are
// left to the resolver so one bad row cannot sink the document.
func (d *Document) Validate() error {
	if d.Project == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "missing required field 'project'")
	}
	if d.Version == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "missing required field 'version'")
	}
	unit, err := calendar.ParseUnit(d.Unit)
	if err != nil {
		return err
	}
	if d.Length <= 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "length must be positive, got %d", d.Length)
	}
	if d.Start.IsZero() {
		return errors.New(errors.ErrCodeInvalidDocument, "missing required field 'start'")
	}
	if !calendar.OnBoundary(unit, d.Start) {
		boundary := "a Monday"
		if unit == calendar.Month {
			boundary = "the first of a month"
		}
		return errors.New(errors.ErrCodeInvalidDocument,
			"start %s is not on the %s boundary (must be %s)",
			d.Start.Format("2006-01-02"), unit, boundary)
	}
	for _, k := range d.Keys {
		for _, ch := range k.Color {
			if ch < 0 || ch > 255 {
				return errors.New(errors.ErrCodeInvalidDocument,
					"key %q: color channel %d out of range 0-255", k.Name, ch)
			}
		}
	}
	return nil
}

// Text is a tri-state string option: unset (use the default), explicitly
// disabled (`false` in the document), or set to a value.
type Text struct {
	set      bool
	disabled bool
	value    string
}

// Or returns the effective text: the value when set, def when unset, and
// "" when explicitly disabled.
func (t Text) Or(def string) string {
	if t.disabled {
		return ""
	}
	if !t.set {
		return def
	}
	return t.value
}

// Disabled reports whether the option was explicitly turned off.
func (t Text) Disabled() bool { return t.disabled }

// UnmarshalYAML decodes a string, an explicit boolean false (disable), or
// null (unset).
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!null":
		*t = Text{}
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		// `true` keeps the default; only `false` disables.
		*t = Text{disabled: !b}
		return nil
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*t = Text{set: true, value: s}
		return nil
	}
}

// MarshalYAML round-trips the tri-state for layout JSON/YAML export.
func (t Text) MarshalYAML() (any, error) {
	if t.disabled {
		return false, nil
	}
	if !t.set {
		return nil, nil
	}
	return t.value, nil
}
