package sink

import (
	"encoding/json"

	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/layout"
)

// The JSON sink emits the resolved layout itself rather than a drawing,
// for downstream tooling and the HTTP API.

type jsonChart struct {
	Project     string           `json:"project"`
	Title       string           `json:"title,omitempty"`
	Footer      string           `json:"footer,omitempty"`
	Unit        string           `json:"unit"`
	Start       string           `json:"start"`
	Length      int              `json:"length"`
	OneBased    bool             `json:"one_based,omitempty"`
	Slots       []jsonSlot       `json:"slots"`
	Arrows      []jsonArrow      `json:"arrows,omitempty"`
	Legend      []jsonKey        `json:"legend,omitempty"`
	Diagnostics []jsonDiagnostic `json:"diagnostics,omitempty"`
}

type jsonSlot struct {
	Row     int         `json:"row"`
	Name    string      `json:"name,omitempty"`
	Gap     bool        `json:"gap,omitempty"`
	Striped bool        `json:"striped,omitempty"`
	Blocks  []jsonBlock `json:"blocks,omitempty"`
}

type jsonBlock struct {
	Kind   string  `json:"kind"`
	Label  string  `json:"label,omitempty"`
	Start  float64 `json:"start"`
	Length float64 `json:"length,omitempty"`
	Color  string  `json:"color,omitempty"`
}

type jsonArrow struct {
	FromSlot int     `json:"from_slot"`
	ToSlot   int     `json:"to_slot"`
	FromPos  float64 `json:"from_pos"`
	ToPos    float64 `json:"to_pos"`
}

type jsonKey struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Row      string `json:"row,omitempty"`
	Message  string `json:"message"`
}

func blockKindName(k layout.BlockKind) string {
	switch k {
	case layout.BlockWork:
		return "work"
	case layout.BlockMilestone:
		return "milestone"
	case layout.BlockPhase:
		return "phase"
	case layout.BlockBreak:
		return "break"
	}
	return "unknown"
}

// RenderJSON renders the layout as indented JSON.
func RenderJSON(l *layout.Layout) ([]byte, error) {
	c := jsonChart{
		Project:  l.Project,
		Title:    l.Title,
		Footer:   l.Footer,
		Unit:     string(l.Unit),
		Start:    l.Start.Format("2006-01-02"),
		Length:   l.Length,
		OneBased: l.OneBased,
		Slots:    make([]jsonSlot, 0, len(l.Slots)),
	}

	for _, s := range l.Slots {
		js := jsonSlot{Row: s.Row, Name: s.Name, Gap: s.Gap, Striped: s.Striped}
		for _, b := range s.Blocks {
			jb := jsonBlock{
				Kind:   blockKindName(b.Kind),
				Label:  b.Label,
				Start:  b.Start,
				Length: b.Length,
			}
			if b.Color != nil {
				jb.Color = b.Color.Hex()
			}
			js.Blocks = append(js.Blocks, jb)
		}
		c.Slots = append(c.Slots, js)
	}

	for _, a := range l.Arrows {
		c.Arrows = append(c.Arrows, jsonArrow(a))
	}
	for _, e := range l.Legend {
		c.Legend = append(c.Legend, jsonKey{Name: e.Name, Color: e.Color.Hex()})
	}
	for _, d := range l.Diagnostics {
		c.Diagnostics = append(c.Diagnostics, jsonDiagnostic{
			Severity: d.Severity.String(),
			Row:      d.Row,
			Message:  d.Message,
		})
	}

	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	return append(out, '\n'), nil
}
