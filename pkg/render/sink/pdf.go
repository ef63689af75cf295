package sink

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/celosnet/ugantt/pkg/calendar"
	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/render/styles"
)

// RenderPDF renders the layout as a paginated PDF. Slots that do not
// fit on a page continue on the next one under a repeated time axis,
// with dependency lines clipped to the page of their dependent row.
func RenderPDF(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	p := pdfRenderer{
		th:  r.theme,
		l:   l,
		f:   newFrame(l, r.theme),
		pdf: newPDF(r.theme),
	}
	p.render()

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	return buf.Bytes(), nil
}

func newPDF(th styles.Theme) *fpdf.Fpdf {
	return fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: th.Page.Width, Ht: th.Page.Height},
	})
}

type pdfRenderer struct {
	th  styles.Theme
	l   *layout.Layout
	f   frame
	pdf *fpdf.Fpdf

	pageTop  float64 // y of the first slot on the current page
	firstLot int     // slot index at the top of the current page
}

func (p *pdfRenderer) render() {
	perPage := p.slotsPerPage()
	for lo := 0; lo < len(p.l.Slots) || lo == 0; lo += perPage {
		hi := min(lo+perPage, len(p.l.Slots))
		p.renderPage(lo, hi)
	}
	p.renderLegend()
	p.renderFooter()
}

// slotsPerPage is how many rows fit between the axis and the bottom
// margin of a continuation page.
func (p *pdfRenderer) slotsPerPage() int {
	usable := p.th.Page.Height - p.th.Page.MarginBottom -
		(p.th.Page.MarginTop + p.th.Chart.AxisHeight)
	n := int(usable / p.th.Chart.RowHeight)
	if n < 1 {
		n = 1
	}
	return n
}

func (p *pdfRenderer) renderPage(lo, hi int) {
	p.pdf.AddPage()
	p.firstLot = lo
	p.pageTop = p.th.Page.MarginTop
	if p.pdf.PageNo() == 1 {
		p.renderTitle()
	}
	p.renderAxis()

	for _, s := range p.l.Slots[lo:hi] {
		p.renderSlot(s)
	}
	p.renderArrows(lo, hi)
}

// slotY returns the top of a slot on the current page.
func (p *pdfRenderer) slotY(slot int) float64 {
	return p.pageTop + float64(slot-p.firstLot)*p.th.Chart.RowHeight
}

func (p *pdfRenderer) grey(level uint8) (int, int, int) {
	return int(level), int(level), int(level)
}

func (p *pdfRenderer) renderTitle() {
	if p.l.Title == "" {
		return
	}
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(p.th.Font.Family, "B", p.th.Font.Title)
	p.pdf.Text(p.th.Page.MarginLeft, p.pageTop+p.th.Font.Title/2.0, p.l.Title)
	p.pageTop += p.th.Chart.RowHeight + 4.0
}

func (p *pdfRenderer) renderAxis() {
	th := p.th
	axisTop := p.pageTop + 3.0
	size := p.fitFontSize(axisSample(p.l.Unit), th.Font.Tick, p.f.unitWidth)

	drawTick := func(x float64) {
		p.pdf.SetDrawColor(p.grey(th.Color.Axis))
		p.pdf.SetLineWidth(0.3)
		p.pdf.Line(x, axisTop, x, axisTop+6.0)
	}
	drawTick(p.f.x(float64(p.l.Length)))

	for _, tick := range p.l.Axis {
		x := p.f.x(float64(tick.Index))
		drawTick(x)
		p.pdf.SetTextColor(p.grey(th.Color.TickText))
		p.pdf.SetFont(th.Font.Family, "", size)
		p.pdf.Text(x, axisTop+3.0, tick.Label)
		if tick.Year != "" {
			p.pdf.SetFont(th.Font.Family, "B", th.Font.Number)
			p.pdf.Text(x, axisTop-0.5, tick.Year)
		}
		p.pdf.SetFont(th.Font.Family, "", th.Font.Number)
		p.pdf.Text(x, axisTop+6.5, strconv.Itoa(tick.Display))
	}
	p.pageTop += th.Chart.AxisHeight
}

// axisSample is the widest label the axis can produce, used to size the
// tick font once per page instead of per label.
func axisSample(unit calendar.Unit) string {
	if unit == calendar.Week {
		return "30 May"
	}
	return "May"
}

// fitFontSize shrinks a font size until the text fits the given width.
func (p *pdfRenderer) fitFontSize(txt string, size, width float64) float64 {
	for size > 1.0 {
		p.pdf.SetFont(p.th.Font.Family, "", size)
		if p.pdf.GetStringWidth(txt) <= width-2.0 {
			break
		}
		size -= 0.1
	}
	return size
}

func (p *pdfRenderer) renderSlot(s layout.Slot) {
	th := p.th
	top := p.slotY(s.Index)

	if s.Striped {
		p.pdf.SetFillColor(p.grey(th.Color.Stripe))
		p.pdf.Rect(th.Page.MarginLeft, top, p.f.rowWidth(), th.Chart.RowHeight, "F")
	}

	if s.Name != "" {
		style := ""
		color := th.Color.Text
		if s.Gap {
			style = "B"
			color = 0
		} else if slotIsMilestone(s) {
			style = "I"
		}
		p.pdf.SetTextColor(p.grey(color))
		p.pdf.SetFont(th.Font.Family, style, th.Font.Label)
		p.pdf.Text(th.Page.MarginLeft, top+th.Chart.RowHeight/2.0+th.Font.Label/6.0, s.Name)
	}

	for _, b := range s.Blocks {
		p.renderBlock(top, b)
	}
}

func (p *pdfRenderer) renderBlock(top float64, b layout.Block) {
	th := p.th
	inset := th.Chart.BlockInset
	x := p.f.x(b.Start)
	w := b.Length * p.f.unitWidth
	midY := top + th.Chart.RowHeight/2.0

	switch b.Kind {
	case layout.BlockWork:
		if b.Color != nil {
			p.pdf.SetFillColor(int(b.Color.R), int(b.Color.G), int(b.Color.B))
		} else {
			p.pdf.SetFillColor(p.grey(th.Color.Fill))
		}
		p.pdf.Rect(x, top+inset, w, th.Chart.RowHeight-2*inset, "F")
		if b.Label != "" {
			p.pdf.SetTextColor(p.grey(blockTextLevel(th, b.Color)))
			p.pdf.SetFont(th.Font.Family, "", th.Font.Block)
			if p.pdf.GetStringWidth(b.Label) < w {
				p.pdf.Text(x+0.5, midY+th.Font.Block/6.0, b.Label)
			}
		}

	case layout.BlockMilestone:
		p.pdf.SetFillColor(p.grey(th.Color.Milestone))
		p.pdf.Circle(x, midY, th.Chart.MilestoneRadius, "F")

	case layout.BlockBreak:
		size := p.fitFontSize(b.Label, th.Font.Block, w)
		p.pdf.SetTextColor(p.grey(th.Color.Text))
		p.pdf.SetFont(th.Font.Family, "", size)
		p.pdf.Text(x+0.5, midY+size/6.0, b.Label)
		p.pdf.SetDrawColor(p.grey(th.Color.Line))
		p.pdf.Rect(x, top+inset, w, th.Chart.RowHeight-2*inset, "D")

	case layout.BlockPhase:
		size := p.fitFontSize(b.Label, th.Font.Block, w)
		p.pdf.SetTextColor(p.grey(th.Color.Text))
		p.pdf.SetFont(th.Font.Family, "", size)
		p.pdf.Text(x+1.0, midY+size/6.0, b.Label)
		p.pdf.SetDrawColor(p.grey(th.Color.Line))
		x2 := p.f.x(b.End())
		y := top + inset
		p.pdf.Line(x+1.5, y, x2-1.5, y)
		p.pdf.Line(x+0.5, y+1.0, x+1.5, y)
		p.pdf.Line(x2-0.5, y+1.0, x2-1.5, y)
	}
}

func (p *pdfRenderer) renderArrows(lo, hi int) {
	segs := p.f.arrowSegments(p.l.Arrows, func(slot int) (float64, bool) {
		if slot < lo || slot >= hi {
			return 0, false
		}
		return p.slotY(slot) + p.th.Chart.RowHeight/2.0, true
	})
	if len(segs) == 0 {
		return
	}
	p.pdf.SetDrawColor(p.grey(p.th.Color.Line))
	p.pdf.SetLineWidth(0.3)
	p.pdf.SetDashPattern([]float64{p.th.Dash.On, p.th.Dash.Off}, 0)
	for _, s := range segs {
		p.pdf.Line(s.a.x, s.a.y, s.b.x, s.b.y)
	}
	p.pdf.SetDashPattern([]float64{}, 0)
}

func (p *pdfRenderer) renderLegend() {
	if len(p.l.Legend) == 0 {
		return
	}
	th := p.th
	onPage := len(p.l.Slots) - p.firstLot
	top := p.slotY(p.firstLot+onPage) + th.Chart.RowHeight
	if top+p.f.legendHeight() > th.Page.Height-th.Page.MarginBottom {
		p.pdf.AddPage()
		top = th.Page.MarginTop
	}

	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(th.Font.Family, "", th.Font.Legend)
	p.pdf.Text(th.Page.MarginLeft, top+th.Chart.RowHeight/2.0, "Key")

	for i, e := range p.l.Legend {
		rowTop := top + th.Chart.RowHeight*float64(i+1)
		p.pdf.SetTextColor(p.grey(th.Color.Text))
		p.pdf.SetFont(th.Font.Family, "", th.Font.Label)
		p.pdf.Text(th.Page.MarginLeft, rowTop+th.Chart.RowHeight/2.0+th.Font.Label/6.0, e.Name)
		p.pdf.SetFillColor(int(e.Color.R), int(e.Color.G), int(e.Color.B))
		p.pdf.Rect(p.f.chartLeft, rowTop+th.Chart.BlockInset,
			th.Chart.LegendBlockWidth, th.Chart.RowHeight-2*th.Chart.BlockInset, "F")
	}
}

func (p *pdfRenderer) renderFooter() {
	if p.l.Footer == "" {
		return
	}
	p.pdf.SetTextColor(p.grey(p.th.Color.Text))
	p.pdf.SetFont(p.th.Font.Family, "", p.th.Font.Footer)
	p.pdf.Text(p.th.Page.MarginLeft, p.th.Page.Height-p.th.Page.MarginBottom/2.0, p.l.Footer)
}
