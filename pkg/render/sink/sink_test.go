package sink

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celosnet/ugantt/pkg/layout"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/render/styles"
	"github.com/celosnet/ugantt/pkg/resolve"
)

const demoDoc = `
project: Widget
version: "1"
unit: week
length: 12
start: 2015-11-02
options:
  key_legend: true
  key_in_block: true
keys:
  - name: development
    color: [230, 120, 120]
rows:
  - name: A10 specification
    at: 0
    length: 3
    key: development
  - name: A1 development
    at: A10
    length: 2
    key: development
    dep: A10
  - name: Launch
    at: +A1
  - name: Team breaks
    breaks:
      - name: Xmas
        at: 7
        length: 2
  - name: Phases
    phases:
      - name: Design
        at: 0
        length: 4
`

func demoLayout(t *testing.T) *layout.Layout {
	t.Helper()
	doc, err := project.Decode(strings.NewReader(demoDoc))
	require.NoError(t, err)
	r, err := resolve.New(doc)
	require.NoError(t, err)
	res := r.Resolve()
	require.False(t, res.Failed(), "diagnostics: %+v", res.Diagnostics)
	return layout.Build(doc, res, time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC))
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(demoLayout(t)))

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Contains(t, svg, "Widget timeline")
	assert.Contains(t, svg, "A10 specification")
	assert.Contains(t, svg, `fill="#e67878"`, "key color reaches the work block")
	assert.Contains(t, svg, "Xmas")
	assert.Contains(t, svg, "stroke-dasharray", "dependency lines are dashed")
	assert.Contains(t, svg, ">Key<", "legend header")
	assert.Contains(t, svg, "2 Nov", "axis labels")
	assert.Contains(t, svg, ">2015<", "year marker over the first unit")
}

func TestRenderSVGEscapesLabels(t *testing.T) {
	doc, err := project.Decode(strings.NewReader(`
project: A&B
version: "1"
unit: week
length: 4
start: 2015-11-02
rows:
  - name: spec <draft>
    at: 0
`))
	require.NoError(t, err)
	r, err := resolve.New(doc)
	require.NoError(t, err)
	svg := string(RenderSVG(layout.Build(doc, r.Resolve(), time.Now())))

	assert.Contains(t, svg, "spec &lt;draft&gt;")
	assert.NotContains(t, svg, "<draft>")
}

func TestRenderSVGWithTheme(t *testing.T) {
	th := styles.Default()
	th.Color.Stripe = 220

	l := demoLayout(t)
	require.True(t, l.Slots[1].Striped)
	svg := string(RenderSVG(l, WithTheme(th)))
	assert.Contains(t, svg, `fill="#dcdcdc"`)
}

func TestRenderPDF(t *testing.T) {
	out, err := RenderPDF(demoLayout(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"), "valid PDF header")
	assert.Greater(t, len(out), 1000)
}

func TestRenderPDFPaginates(t *testing.T) {
	var b strings.Builder
	b.WriteString(`
project: Long
version: "1"
unit: week
length: 8
start: 2015-11-02
rows:
`)
	for i := 0; i < 80; i++ {
		b.WriteString("  - name: task\n    at: 0\n    length: 1\n")
	}
	doc, err := project.Decode(strings.NewReader(b.String()))
	require.NoError(t, err)
	r, err := resolve.New(doc)
	require.NoError(t, err)

	out, err := RenderPDF(layout.Build(doc, r.Resolve(), time.Now()))
	require.NoError(t, err)
	// One "/Type /Pages" plus at least two "/Type /Page" objects.
	assert.GreaterOrEqual(t, strings.Count(string(out), "/Type /Page"), 3,
		"80 rows cannot fit one A4 page")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(demoLayout(t))
	require.NoError(t, err)

	var chart map[string]any
	require.NoError(t, json.Unmarshal(out, &chart))

	assert.Equal(t, "Widget", chart["project"])
	assert.Equal(t, "week", chart["unit"])
	assert.Equal(t, "2015-11-02", chart["start"])

	slots := chart["slots"].([]any)
	require.Len(t, slots, 5)
	first := slots[0].(map[string]any)
	blocks := first["blocks"].([]any)
	require.Len(t, blocks, 1)
	block := blocks[0].(map[string]any)
	assert.Equal(t, "work", block["kind"])
	assert.Equal(t, "#e67878", block["color"])

	require.NotEmpty(t, chart["arrows"])
	require.Len(t, chart["legend"].([]any), 1)
}
