package sink

import (
	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/render/styles"
)

// frame maps unit-space layout coordinates onto page coordinates. Both
// sinks share it so SVG and PDF output line up exactly.
type frame struct {
	theme styles.Theme
	l     *layout.Layout

	unitWidth float64
	chartLeft float64 // x of unit 0
	chartTop  float64 // y of the first slot (below title and axis)
	titleH    float64
}

func newFrame(l *layout.Layout, theme styles.Theme) frame {
	f := frame{theme: theme, l: l}
	p := theme.Page

	f.chartLeft = p.MarginLeft + l.LabelWidth
	f.unitWidth = (p.Width - f.chartLeft - p.MarginRight) / float64(l.Length)
	if l.Title != "" {
		f.titleH = theme.Chart.RowHeight + 4.0
	}
	f.chartTop = p.MarginTop + f.titleH + theme.Chart.AxisHeight
	return f
}

// x converts a unit-space position to a page x coordinate.
func (f frame) x(pos float64) float64 {
	return f.chartLeft + pos*f.unitWidth
}

// slotTop returns the y of a slot's top edge, counted from the top of
// the current chart area. The PDF sink re-bases slot indexes per page.
func (f frame) slotTop(slot int) float64 {
	return f.chartTop + float64(slot)*f.theme.Chart.RowHeight
}

// slotMid returns the y of a slot's vertical midline.
func (f frame) slotMid(slot int) float64 {
	return f.slotTop(slot) + f.theme.Chart.RowHeight/2.0
}

// rowWidth is the full drawable width of a stripe, from the left margin
// to just past the chart's right edge.
func (f frame) rowWidth() float64 {
	return f.theme.Page.Width - f.theme.Page.MarginLeft - f.theme.Page.MarginRight + 1.5
}

// legendHeight is the vertical extent of the legend, zero when absent.
func (f frame) legendHeight() float64 {
	if len(f.l.Legend) == 0 {
		return 0
	}
	return f.theme.Chart.RowHeight * float64(len(f.l.Legend)+1)
}

// contentHeight is the full height of the chart content on an unbroken
// page: title, axis, all slots, legend, and the footer line.
func (f frame) contentHeight() float64 {
	h := f.chartTop + float64(len(f.l.Slots))*f.theme.Chart.RowHeight + f.legendHeight()
	if f.l.Footer != "" {
		h += f.theme.Chart.RowHeight
	}
	return h + f.theme.Page.MarginBottom
}

// arrowSegments converts the layout's arrows into drawable line
// segments: a vertical rise at the source position from the source
// row's midline down to the dependent row's midline, and a horizontal
// run along the dependent's midline when the dependent starts later.
// slotMid maps a slot index to a midline y; it returns false for slots
// not on the current page, which degrade to a half-row rise.
func (f frame) arrowSegments(arrows []layout.Arrow, slotMid func(int) (float64, bool)) []segment {
	var segs []segment
	for _, a := range arrows {
		toY, ok := slotMid(a.ToSlot)
		if !ok {
			continue
		}
		fromY, ok := float64(0), false
		if a.FromSlot >= 0 {
			fromY, ok = slotMid(a.FromSlot)
		}
		if !ok {
			fromY = toY - f.theme.Chart.RowHeight/2.0
		}

		x := f.x(a.FromPos)
		segs = append(segs, seg(x, fromY, x, toY))
		if a.ToPos > a.FromPos {
			segs = append(segs, seg(x, toY, f.x(a.ToPos), toY))
		}
	}
	return mergeSegments(segs)
}
