// Package styles holds the visual parameters for chart rendering.
//
// A Theme captures everything a sink needs beyond the layout itself:
// page geometry, row metrics, font sizes, and the grey palette. Themes
// load from TOML so the defaults can be overridden without rebuilding.
package styles

import (
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/celosnet/ugantt/pkg/errors"
)

// Page describes the output page in millimeters. The default is A4
// landscape.
type Page struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	MarginLeft   float64 `toml:"margin_left"`
	MarginRight  float64 `toml:"margin_right"`
	MarginTop    float64 `toml:"margin_top"`
	MarginBottom float64 `toml:"margin_bottom"`
}

// Chart describes the row and block metrics, in page units.
type Chart struct {
	RowHeight        float64 `toml:"row_height"`
	BlockInset       float64 `toml:"block_inset"` // vertical inset of blocks within their row
	MilestoneRadius  float64 `toml:"milestone_radius"`
	AxisHeight       float64 `toml:"axis_height"`
	LegendBlockWidth float64 `toml:"legend_block_width"`
}

// Font holds the type family and the point sizes of each text role.
type Font struct {
	Family string  `toml:"family"`
	Title  float64 `toml:"title"`
	Label  float64 `toml:"label"`
	Block  float64 `toml:"block"`
	Tick   float64 `toml:"tick"`
	Number float64 `toml:"number"`
	Legend float64 `toml:"legend"`
	Footer float64 `toml:"footer"`
}

// Palette holds the grey levels used for everything that is not a key
// color. Values are 0-255 applied to all three channels.
type Palette struct {
	Fill      uint8 `toml:"fill"`       // default block fill when a row has no key
	Stripe    uint8 `toml:"stripe"`     // alternating row background
	Axis      uint8 `toml:"axis"`       // tick lines
	Line      uint8 `toml:"line"`       // dependency lines and break outlines
	Text      uint8 `toml:"text"`       // row labels
	TickText  uint8 `toml:"tick_text"`  // axis labels
	Milestone uint8 `toml:"milestone"`  // milestone dot
	BlockText uint8 `toml:"block_text"` // in-block key labels on dark fills
}

// Dash is the on/off pattern of dependency lines.
type Dash struct {
	On  float64 `toml:"on"`
	Off float64 `toml:"off"`
}

// Theme is the complete visual configuration for a sink.
type Theme struct {
	Page  Page    `toml:"page"`
	Chart Chart   `toml:"chart"`
	Font  Font    `toml:"font"`
	Color Palette `toml:"color"`
	Dash  Dash    `toml:"dash"`
}

// Default returns the stock theme: A4 landscape, 6mm rows, the familiar
// grey palette.
func Default() Theme {
	return Theme{
		Page: Page{
			Width:        297.0,
			Height:       210.0,
			MarginLeft:   10.0,
			MarginRight:  15.0,
			MarginTop:    10.0,
			MarginBottom: 16.0,
		},
		Chart: Chart{
			RowHeight:        6.0,
			BlockInset:       1.0,
			MilestoneRadius:  1.1,
			AxisHeight:       12.0,
			LegendBlockWidth: 40.0,
		},
		Font: Font{
			Family: "Helvetica",
			Title:  16.0,
			Label:  10.0,
			Block:  7.0,
			Tick:   7.0,
			Number: 5.0,
			Legend: 14.0,
			Footer: 8.0,
		},
		Color: Palette{
			Fill:      150,
			Stripe:    240,
			Axis:      200,
			Line:      100,
			Text:      100,
			TickText:  10,
			Milestone: 30,
			BlockText: 240,
		},
		Dash: Dash{On: 0.6, Off: 0.8},
	}
}

// Load reads a theme from a TOML file. Fields absent from the file keep
// their default values; unknown fields are rejected.
func Load(path string) (Theme, error) {
	t := Default()
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "parse theme %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme,
			"unknown theme fields: %s", strings.Join(keys, ", "))
	}
	if err := t.Validate(); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// Validate checks that the geometry is usable.
func (t Theme) Validate() error {
	switch {
	case t.Page.Width <= 0 || t.Page.Height <= 0:
		return errors.New(errors.ErrCodeInvalidTheme, "page dimensions must be positive")
	case t.Page.MarginLeft+t.Page.MarginRight >= t.Page.Width:
		return errors.New(errors.ErrCodeInvalidTheme, "horizontal margins exceed the page width")
	case t.Page.MarginTop+t.Page.MarginBottom >= t.Page.Height:
		return errors.New(errors.ErrCodeInvalidTheme, "vertical margins exceed the page height")
	case t.Chart.RowHeight <= 0:
		return errors.New(errors.ErrCodeInvalidTheme, "row_height must be positive")
	case t.Chart.MilestoneRadius <= 0:
		return errors.New(errors.ErrCodeInvalidTheme, "milestone_radius must be positive")
	case t.Dash.On <= 0 || t.Dash.Off < 0:
		return errors.New(errors.ErrCodeInvalidTheme, "dash pattern must be positive")
	}
	return nil
}

// Grey renders a palette level as a #rrggbb string for SVG output.
func Grey(level uint8) string {
	const hex = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i := 0; i < 3; i++ {
		b[1+2*i] = hex[level>>4]
		b[2+2*i] = hex[level&0xf]
	}
	return string(b)
}
