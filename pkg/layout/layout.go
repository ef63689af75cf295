// Package layout assigns resolved rows to vertical slots and horizontal
// unit-space intervals, producing a render-ready structure.
//
// Positions stay in unit space throughout: a renderer scales them to page
// units with the column-width parameters it is given. The layout never
// touches pixels or fonts.
package layout

import (
	"fmt"
	"time"

	"github.com/celosnet/ugantt/pkg/calendar"
	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/resolve"
	"github.com/celosnet/ugantt/pkg/timeref"
)

// Color is an RGB triple from the document's keys table.
type Color struct {
	R, G, B uint8
}

// BlockKind discriminates the drawable block shapes.
type BlockKind int

const (
	BlockWork      BlockKind = iota // filled rectangle
	BlockMilestone                  // zero-width point marker
	BlockPhase                      // horizontal bracket
	BlockBreak                      // outlined rectangle
)

// Block is one horizontal element on a slot. Start and Length are in unit
// space; milestones have Length 0.
type Block struct {
	Kind   BlockKind
	Label  string // sub-block name, or in-block key label for work rows
	Start  float64
	Length float64
	Color  *Color // nil renders with the default fill
}

// End returns the block's end position.
func (b Block) End() float64 { return b.Start + b.Length }

// Slot is one vertical row of the chart.
type Slot struct {
	Index   int    // vertical position, top to bottom
	Row     int    // index of the source row in the document
	Name    string // label column text; empty for unnamed rows
	Gap     bool   // heading/spacer slot with no blocks
	Striped bool   // background tint for this slot
	Blocks  []Block
}

// Arrow is a resolved dependency line from a source position (on the slot
// it rises from) to the dependent row's start.
type Arrow struct {
	FromSlot int // slot of the dependency's row; -1 for bare index/date deps
	ToSlot   int
	FromPos  float64 // unit position of the dependency endpoint
	ToPos    float64 // unit position of the dependent row's start
}

// LegendEntry is one key in the optional legend.
type LegendEntry struct {
	Name  string
	Color Color
}

// Layout is the resolved, render-ready chart.
type Layout struct {
	Project    string
	Title      string // empty when disabled
	Footer     string // empty when disabled
	Unit       calendar.Unit
	Start      time.Time
	Length     int
	OneBased   bool
	LabelWidth float64
	KeyInBlock bool

	Axis        []calendar.Tick
	Slots       []Slot
	Arrows      []Arrow
	Legend      []LegendEntry // non-empty only when key_legend is set
	Diagnostics []resolve.Diagnostic
}

// Build assembles the layout from a document and its resolution result.
// Failed rows are skipped (their diagnostics carry over) so the rest of
// the document still renders. The built timestamp feeds the default
// footer text.
func Build(doc *project.Document, res *resolve.Result, built time.Time) *Layout {
	cal := mustCalendar(doc)

	l := &Layout{
		Project:     doc.Project,
		Title:       doc.TitleText(),
		Footer:      doc.FooterText(built),
		Unit:        cal.Unit(),
		Start:       cal.Start(),
		Length:      doc.Length,
		OneBased:    doc.Options.OneBased,
		LabelWidth:  doc.Options.LabelWidthValue(),
		KeyInBlock:  doc.Options.KeyInBlock,
		Axis:        cal.Ticks(doc.Options.ShowYearValue()),
		Diagnostics: append([]resolve.Diagnostic(nil), res.Diagnostics...),
	}

	slotOf := make(map[int]int, len(res.Rows)) // row index -> slot index
	striped := false

	for _, rr := range res.Rows {
		row := &doc.Rows[rr.Index]
		if rr.Err != nil {
			continue
		}
		if row.Stripe != nil {
			striped = *row.Stripe
		}

		slot := Slot{
			Index:   len(l.Slots),
			Row:     rr.Index,
			Name:    rr.Name,
			Gap:     rr.Gap,
			Striped: striped,
		}
		striped = !striped

		if !rr.Gap {
			slot.Blocks = l.rowBlocks(doc, &rr, row)
		}

		slotOf[rr.Index] = slot.Index
		l.Slots = append(l.Slots, slot)
	}

	l.buildArrows(res, slotOf)

	if doc.Options.KeyLegend {
		for _, k := range doc.Keys {
			l.Legend = append(l.Legend, LegendEntry{Name: k.Name, Color: colorOf(k)})
		}
	}
	return l
}

// rowBlocks computes the blocks on one slot: the row's own work block or
// milestone marker, plus any break and phase sub-intervals.
func (l *Layout) rowBlocks(doc *project.Document, rr *resolve.RowResult, row *project.Row) []Block {
	var blocks []Block

	if rr.HasTiming {
		if rr.Milestone {
			blocks = append(blocks, Block{Kind: BlockMilestone, Start: rr.Start})
		} else {
			b := Block{Kind: BlockWork, Start: rr.Start, Length: rr.Length}
			l.applyKey(doc, row, &b)
			blocks = append(blocks, b)
		}
	}

	for _, p := range rr.Breaks {
		blocks = append(blocks, Block{Kind: BlockBreak, Label: p.Name, Start: p.Start, Length: p.Length})
	}
	for _, p := range rr.Phases {
		blocks = append(blocks, Block{Kind: BlockPhase, Label: p.Name, Start: p.Start, Length: p.Length})
	}
	return blocks
}

// applyKey colors a work block from the row's key reference. Key names
// match with the same case-insensitive prefix rule as symbolic references.
// A missing key is reported but leaves the block uncolored.
func (l *Layout) applyKey(doc *project.Document, row *project.Row, b *Block) {
	if row.Key == "" {
		return
	}
	k := findKey(doc.Keys, row.Key)
	if k == nil {
		err := errors.New(errors.ErrCodeMissingKey, "no key matches %q", row.Key).WithRow(row.Name)
		l.Diagnostics = append(l.Diagnostics, resolve.Diagnostic{
			Severity: resolve.SeverityWarning,
			Row:      row.Name,
			Message:  errors.UserMessage(err),
			Err:      err,
		})
		return
	}
	c := colorOf(*k)
	b.Color = &c
	if l.KeyInBlock {
		b.Label = k.Name
	}
}

// findKey returns the first key whose name matches the reference, or nil.
func findKey(keys []project.Key, ref string) *project.Key {
	re, err := timeref.CompilePattern(ref)
	if err != nil {
		return nil
	}
	for i := range keys {
		if re.MatchString(keys[i].Name) {
			return &keys[i]
		}
	}
	return nil
}

// buildArrows converts resolved dependency endpoints into arrows between
// slots. Dependencies whose source or dependent row did not make it into
// the layout degrade gracefully: a missing source keeps the horizontal
// segment, a missing dependent drops the arrow.
func (l *Layout) buildArrows(res *resolve.Result, slotOf map[int]int) {
	for _, rr := range res.Rows {
		if len(rr.Deps) == 0 || !rr.HasTiming {
			continue
		}
		to, ok := slotOf[rr.Index]
		if !ok {
			continue
		}
		for _, d := range rr.Deps {
			from := -1
			if d.SourceRow >= 0 {
				if s, ok := slotOf[d.SourceRow]; ok {
					from = s
				}
			}
			l.Arrows = append(l.Arrows, Arrow{
				FromSlot: from,
				ToSlot:   to,
				FromPos:  d.Pos,
				ToPos:    rr.Start,
			})
		}
	}
}

func colorOf(k project.Key) Color {
	return Color{R: uint8(k.Color[0]), G: uint8(k.Color[1]), B: uint8(k.Color[2])}
}

// Hex renders the color as a #rrggbb string for SVG output.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// mustCalendar rebuilds the calendar for a document that already passed
// validation; by construction this cannot fail.
func mustCalendar(doc *project.Document) *calendar.Calendar {
	unit, err := calendar.ParseUnit(doc.Unit)
	if err != nil {
		panic(err)
	}
	cal, err := calendar.New(unit, doc.Start, doc.Length, doc.Options.OneBased)
	if err != nil {
		panic(err)
	}
	return cal
}
