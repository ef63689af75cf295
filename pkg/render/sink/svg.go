package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/render/styles"
)

// Option configures a sink renderer.
type Option func(*renderer)

// WithTheme overrides the default theme.
func WithTheme(t styles.Theme) Option {
	return func(r *renderer) { r.theme = t }
}

type renderer struct {
	theme styles.Theme
}

func newRenderer(opts ...Option) renderer {
	r := renderer{theme: styles.Default()}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG renders the layout as a single-page SVG document sized to
// its content.
func RenderSVG(l *layout.Layout, opts ...Option) []byte {
	r := newRenderer(opts...)
	f := newFrame(l, r.theme)
	th := r.theme

	var buf bytes.Buffer
	height := f.contentHeight()
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0fmm" height="%.0fmm" font-family="%s, sans-serif">`+"\n",
		th.Page.Width, height, th.Page.Width, height, th.Font.Family)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")

	svgStripes(&buf, f)
	svgTitle(&buf, f)
	svgAxis(&buf, f)
	svgSlots(&buf, f)
	svgArrows(&buf, f)
	svgLegend(&buf, f)
	svgFooter(&buf, f, height)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func svgStripes(buf *bytes.Buffer, f frame) {
	for _, s := range f.l.Slots {
		if !s.Striped {
			continue
		}
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			f.theme.Page.MarginLeft, f.slotTop(s.Index), f.rowWidth(), f.theme.Chart.RowHeight,
			styles.Grey(f.theme.Color.Stripe))
	}
}

func svgTitle(buf *bytes.Buffer, f frame) {
	if f.l.Title == "" {
		return
	}
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" font-weight="bold" fill="black">%s</text>`+"\n",
		f.theme.Page.MarginLeft, f.theme.Page.MarginTop+f.theme.Font.Title/2.0,
		f.theme.Font.Title, html.EscapeString(f.l.Title))
}

func svgAxis(buf *bytes.Buffer, f frame) {
	th := f.theme
	axisTop := th.Page.MarginTop + f.titleH + 3.0
	tickBottom := axisTop + 6.0

	// Closing tick after the last unit.
	fmt.Fprintf(buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.3"/>`+"\n",
		f.x(float64(f.l.Length)), axisTop, f.x(float64(f.l.Length)), tickBottom, styles.Grey(th.Color.Axis))

	for _, tick := range f.l.Axis {
		x := f.x(float64(tick.Index))
		fmt.Fprintf(buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.3"/>`+"\n",
			x, axisTop, x, tickBottom, styles.Grey(th.Color.Axis))
		if tick.Year != "" {
			fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" font-weight="bold" fill="%s">%s</text>`+"\n",
				x, axisTop-0.5, th.Font.Number, styles.Grey(th.Color.TickText), tick.Year)
		}
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
			x, axisTop+3.0, th.Font.Tick, styles.Grey(th.Color.TickText), html.EscapeString(tick.Label))
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%d</text>`+"\n",
			x, axisTop+6.5, th.Font.Number, styles.Grey(th.Color.TickText), tick.Display)
	}
}

func svgSlots(buf *bytes.Buffer, f frame) {
	th := f.theme
	for _, s := range f.l.Slots {
		top := f.slotTop(s.Index)
		labelY := f.slotMid(s.Index) + th.Font.Label/3.0

		if s.Name != "" {
			weight, style, fill := "normal", "normal", styles.Grey(th.Color.Text)
			if s.Gap {
				weight, fill = "bold", "black"
			} else if slotIsMilestone(s) {
				style = "italic"
			}
			fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" font-weight="%s" font-style="%s" fill="%s">%s</text>`+"\n",
				th.Page.MarginLeft, labelY, th.Font.Label, weight, style, fill, html.EscapeString(s.Name))
		}

		for _, b := range s.Blocks {
			svgBlock(buf, f, top, b)
		}
	}
}

func slotIsMilestone(s layout.Slot) bool {
	return len(s.Blocks) == 1 && s.Blocks[0].Kind == layout.BlockMilestone
}

func svgBlock(buf *bytes.Buffer, f frame, top float64, b layout.Block) {
	th := f.theme
	inset := th.Chart.BlockInset

	switch b.Kind {
	case layout.BlockWork:
		fill := styles.Grey(th.Color.Fill)
		if b.Color != nil {
			fill = b.Color.Hex()
		}
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			f.x(b.Start), top+inset, b.Length*f.unitWidth, th.Chart.RowHeight-2*inset, fill)
		if b.Label != "" {
			fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
				f.x(b.Start)+0.5, top+th.Chart.RowHeight/2.0+th.Font.Block/3.0,
				th.Font.Block, styles.Grey(blockTextLevel(th, b.Color)), html.EscapeString(b.Label))
		}

	case layout.BlockMilestone:
		fmt.Fprintf(buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			f.x(b.Start), top+th.Chart.RowHeight/2.0, th.Chart.MilestoneRadius,
			styles.Grey(th.Color.Milestone))

	case layout.BlockBreak:
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="0.3"/>`+"\n",
			f.x(b.Start), top+inset, b.Length*f.unitWidth, th.Chart.RowHeight-2*inset,
			styles.Grey(th.Color.Line))
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
			f.x(b.Start)+0.5, top+th.Chart.RowHeight/2.0+th.Font.Block/3.0,
			th.Font.Block, styles.Grey(th.Color.Text), html.EscapeString(b.Label))

	case layout.BlockPhase:
		x1, x2 := f.x(b.Start), f.x(b.End())
		y := top + inset
		stroke := styles.Grey(th.Color.Line)
		fmt.Fprintf(buf, `  <path d="M %.2f %.2f L %.2f %.2f L %.2f %.2f L %.2f %.2f" fill="none" stroke="%s" stroke-width="0.3"/>`+"\n",
			x1+0.5, y+1.0, x1+1.5, y, x2-1.5, y, x2-0.5, y+1.0, stroke)
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
			x1+1.0, top+th.Chart.RowHeight/2.0+th.Font.Block/3.0,
			th.Font.Block, styles.Grey(th.Color.Text), html.EscapeString(b.Label))
	}
}

// blockTextLevel picks the in-block label grey: light text on dark
// fills, dark text on light ones.
func blockTextLevel(th styles.Theme, c *layout.Color) uint8 {
	if c != nil && (int(c.R)+int(c.G)+int(c.B))/3 > 200 {
		return th.Color.Text
	}
	return th.Color.BlockText
}

func svgArrows(buf *bytes.Buffer, f frame) {
	segs := f.arrowSegments(f.l.Arrows, func(slot int) (float64, bool) {
		return f.slotMid(slot), true
	})
	for _, s := range segs {
		fmt.Fprintf(buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.3" stroke-dasharray="%.1f %.1f"/>`+"\n",
			s.a.x, s.a.y, s.b.x, s.b.y, styles.Grey(f.theme.Color.Line),
			f.theme.Dash.On, f.theme.Dash.Off)
	}
}

func svgLegend(buf *bytes.Buffer, f frame) {
	if len(f.l.Legend) == 0 {
		return
	}
	th := f.theme
	top := f.slotTop(len(f.l.Slots))

	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="black">Key</text>`+"\n",
		th.Page.MarginLeft, top+th.Chart.RowHeight, th.Font.Legend)

	for i, e := range f.l.Legend {
		rowTop := top + th.Chart.RowHeight*float64(i+1)
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
			th.Page.MarginLeft, rowTop+th.Chart.RowHeight/2.0+th.Font.Label/3.0,
			th.Font.Label, styles.Grey(th.Color.Text), html.EscapeString(e.Name))
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			f.chartLeft, rowTop+th.Chart.BlockInset, th.Chart.LegendBlockWidth,
			th.Chart.RowHeight-2*th.Chart.BlockInset, e.Color.Hex())
	}
}

func svgFooter(buf *bytes.Buffer, f frame, height float64) {
	if f.l.Footer == "" {
		return
	}
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
		f.theme.Page.MarginLeft, height-f.theme.Page.MarginBottom/2.0,
		f.theme.Font.Footer, styles.Grey(f.theme.Color.Text), html.EscapeString(f.l.Footer))
}
