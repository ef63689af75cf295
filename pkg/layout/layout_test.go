package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/resolve"
)

var built = time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC)

func build(t *testing.T, src string) *Layout {
	t.Helper()
	doc, err := project.Decode(strings.NewReader(src))
	require.NoError(t, err)
	r, err := resolve.New(doc)
	require.NoError(t, err)
	return Build(doc, r.Resolve(), built)
}

const header = `
project: Widget
version: "1"
unit: week
length: 12
start: 2015-11-02
`

func TestSlotsAndBlocks(t *testing.T) {
	l := build(t, header+`
rows:
  - name: Spec
    at: 0
    length: 3
  - name: Launch
    at: Spec
  - name: Heading
    gap: true
`)
	require.Len(t, l.Slots, 3)

	require.Len(t, l.Slots[0].Blocks, 1)
	work := l.Slots[0].Blocks[0]
	assert.Equal(t, BlockWork, work.Kind)
	assert.Equal(t, 0.0, work.Start)
	assert.Equal(t, 3.0, work.End())

	require.Len(t, l.Slots[1].Blocks, 1)
	assert.Equal(t, BlockMilestone, l.Slots[1].Blocks[0].Kind)
	assert.Equal(t, 3.0, l.Slots[1].Blocks[0].Start)

	assert.True(t, l.Slots[2].Gap)
	assert.Empty(t, l.Slots[2].Blocks)
	assert.Equal(t, "Heading", l.Slots[2].Name)
}

func TestStripeAlternationAndOverride(t *testing.T) {
	l := build(t, header+`
rows:
  - name: a
    at: 0
  - name: b
    at: 0
  - name: c
    at: 0
    stripe: true
  - name: d
    at: 0
`)
	require.Len(t, l.Slots, 4)
	assert.False(t, l.Slots[0].Striped)
	assert.True(t, l.Slots[1].Striped)
	// The override restarts the parity; alternation continues from it.
	assert.True(t, l.Slots[2].Striped)
	assert.False(t, l.Slots[3].Striped)
}

func TestFailedRowsAreSkipped(t *testing.T) {
	l := build(t, header+`
rows:
  - name: a
    at: 0
    length: 1
  - name: broken
    at: nosuchrow
  - name: b
    at: 2
    length: 1
`)
	require.Len(t, l.Slots, 2, "the failed row gets no slot")
	assert.Equal(t, "a", l.Slots[0].Name)
	assert.Equal(t, "b", l.Slots[1].Name)
	assert.Equal(t, 2, l.Slots[1].Row, "slots remember their document row")

	require.NotEmpty(t, l.Diagnostics)
	assert.Equal(t, "broken", l.Diagnostics[0].Row)
}

func TestKeyColors(t *testing.T) {
	l := build(t, header+`
options:
  key_in_block: true
keys:
  - name: development
    color: [230, 120, 120]
rows:
  - name: a
    at: 0
    length: 2
    key: dev
  - name: b
    at: 2
    length: 2
    key: qa
`)
	require.Len(t, l.Slots, 2)

	colored := l.Slots[0].Blocks[0]
	require.NotNil(t, colored.Color, "key names match by the same prefix rule as references")
	assert.Equal(t, "#e67878", colored.Color.Hex())
	assert.Equal(t, "development", colored.Label, "key_in_block labels the block with the key name")

	plain := l.Slots[1].Blocks[0]
	assert.Nil(t, plain.Color, "a missing key leaves the default fill")

	var warned bool
	for _, d := range l.Diagnostics {
		if d.Err != nil && errors.Is(d.Err, errors.ErrCodeMissingKey) {
			warned = true
			assert.Equal(t, "b", d.Row)
		}
	}
	assert.True(t, warned, "missing keys are reported, not fatal")
}

func TestLegend(t *testing.T) {
	src := header + `
options:
  key_legend: %s
keys:
  - name: development
    color: [230, 120, 120]
rows:
  - name: a
    at: 0
`
	withLegend := build(t, strings.Replace(src, "%s", "true", 1))
	require.Len(t, withLegend.Legend, 1)
	assert.Equal(t, "development", withLegend.Legend[0].Name)
	assert.Equal(t, Color{230, 120, 120}, withLegend.Legend[0].Color)

	without := build(t, strings.Replace(src, "%s", "false", 1))
	assert.Empty(t, without.Legend)
}

func TestArrows(t *testing.T) {
	l := build(t, header+`
rows:
  - name: A1 development
    at: 0
    length: 3
  - name: A2 testing
    at: 4
    length: 2
    dep: A1
  - name: fixed
    at: 8
    length: 1
    dep: 6
`)
	require.Len(t, l.Arrows, 2)

	a := l.Arrows[0]
	assert.Equal(t, 0, a.FromSlot)
	assert.Equal(t, 1, a.ToSlot)
	assert.Equal(t, 3.0, a.FromPos, "the arrow rises from the dependency's end")
	assert.Equal(t, 4.0, a.ToPos)

	b := l.Arrows[1]
	assert.Equal(t, -1, b.FromSlot, "numeric deps have no source slot")
	assert.Equal(t, 6.0, b.FromPos)
}

func TestArrowFromFailedRowDegrades(t *testing.T) {
	l := build(t, header+`
rows:
  - name: broken
    at: nosuchrow
  - name: b
    at: 2
    length: 1
    dep: 1
`)
	require.Len(t, l.Arrows, 1)
	assert.Equal(t, -1, l.Arrows[0].FromSlot)
}

func TestSubBlocks(t *testing.T) {
	l := build(t, header+`
rows:
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
      - name: Build
        at: Design
        length: 6
`)
	require.Len(t, l.Slots, 2)

	require.Len(t, l.Slots[0].Blocks, 1)
	br := l.Slots[0].Blocks[0]
	assert.Equal(t, BlockBreak, br.Kind)
	assert.Equal(t, "Xmas", br.Label)
	assert.Equal(t, 7.0, br.Start)

	require.Len(t, l.Slots[1].Blocks, 2)
	assert.Equal(t, BlockPhase, l.Slots[1].Blocks[0].Kind)
	assert.Equal(t, 4.0, l.Slots[1].Blocks[1].Start, "phases chain off each other")
}

func TestHeaderFields(t *testing.T) {
	l := build(t, header+`
options:
  label_width: 80
rows:
  - name: a
    at: 0
`)
	assert.Equal(t, "Widget", l.Project)
	assert.Equal(t, "Widget timeline", l.Title)
	assert.Equal(t, "Widget timeline / version 1 / built 1 Feb 2016", l.Footer)
	assert.Equal(t, 12, l.Length)
	assert.Equal(t, 80.0, l.LabelWidth)
	assert.NotEmpty(t, l.Axis)
	assert.Equal(t, 0, l.Axis[0].Index)
}
