package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/project"
)

func mustDoc(t *testing.T, src string) *project.Document {
	t.Helper()
	doc, err := project.Decode(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func resolveDoc(t *testing.T, src string) *Result {
	t.Helper()
	r, err := New(mustDoc(t, src))
	require.NoError(t, err)
	return r.Resolve()
}

const header = `
project: Widget
version: "1"
unit: week
length: 12
start: 2015-11-02
`

func TestSymbolicAnchorsAndOffsets(t *testing.T) {
	// The worked example: A10 at 0 length 3, A1 at 5 length 2.
	res := resolveDoc(t, header+`
rows:
  - name: A10 specification
    at: 0
    length: 3
  - name: A1 development
    at: 5
    length: 2
  - name: end default
    at: A10
  - name: start anchor
    at: -A10
  - name: end offset
    at: [A10, 2]
  - name: first match wins
    at: A1
  - name: negative fractional
    at: [A1, -1.5]
`)
	require.Len(t, res.Rows, 7)
	assert.False(t, res.Failed(), "diagnostics: %+v", res.Diagnostics)

	assert.Equal(t, 3.0, res.Rows[2].Start, "A10 resolves to its end by default")
	assert.Equal(t, 0.0, res.Rows[3].Start, "-A10 resolves to its start")
	assert.Equal(t, 5.0, res.Rows[4].Start, "[A10,2] adds the offset to the end")
	assert.Equal(t, 7.0, res.Rows[5].Start, "A1 matches 'A1 development', not 'A10 specification'")
	assert.Equal(t, 5.5, res.Rows[6].Start)
}

func TestFirstMatchWinsByDocumentOrder(t *testing.T) {
	// "A" matches both rows; document order decides, not specificity.
	res := resolveDoc(t, header+`
rows:
  - name: A longer earlier
    at: 1
    length: 4
  - name: A
    at: 8
    length: 1
  - name: ref
    at: -A
`)
	assert.Equal(t, 1.0, res.Rows[2].Start)
}

func TestCaseInsensitiveMatch(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: Alpha phase
    at: 2
    length: 1
  - name: ref
    at: -ALPHA
`)
	assert.False(t, res.Failed())
	assert.Equal(t, 2.0, res.Rows[1].Start)
}

func TestDateReference(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: by date
    at: 2015-11-16
    length: 1
  - name: quoted date
    at: "2015-11-23"
`)
	assert.False(t, res.Failed())
	assert.Equal(t, 2.0, res.Rows[0].Start)
	assert.Equal(t, 3.0, res.Rows[1].Start)
	assert.True(t, res.Rows[1].Milestone)
}

func TestOneBasedShiftsBareNumbersOnly(t *testing.T) {
	zero := resolveDoc(t, header+`
rows:
  - name: A
    at: 0
    length: 3
  - name: B
    at: A
`)
	one := resolveDoc(t, header+`options:
  one_based: true
rows:
  - name: A
    at: 1
    length: 3
  - name: B
    at: A
`)
	require.False(t, zero.Failed())
	require.False(t, one.Failed())
	assert.Equal(t, zero.Rows[0].Start, one.Rows[0].Start, "geometry is identical under one_based")
	assert.Equal(t, zero.Rows[1].Start, one.Rows[1].Start)
}

func TestChainedReferences(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: C
    at: B
    length: 1
  - name: A
    at: 0
    length: 2
  - name: B
    at: A
    length: 3
`)
	assert.False(t, res.Failed())
	assert.Equal(t, 2.0, res.Rows[2].Start, "B starts at A's end")
	assert.Equal(t, 5.0, res.Rows[0].Start, "C starts at B's end, resolved on demand")
}

func TestPhaseAndBreakCandidates(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: Phases
    phases:
      - name: Design phase
        at: 0
        length: 4
  - name: after design
    at: Design
`)
	assert.False(t, res.Failed(), "diagnostics: %+v", res.Diagnostics)
	assert.Equal(t, 4.0, res.Rows[1].Start, "phase names are candidates too")
	require.Len(t, res.Rows[0].Phases, 1)
	assert.Equal(t, OriginPhase, res.Rows[0].Phases[0].Origin)
}

func TestUnresolvedReference(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: A
    at: 0
    length: 1
  - name: bad
    at: nosuchrow
  - name: fine
    at: A
`)
	require.NotNil(t, res.Rows[1].Err)
	assert.True(t, errors.Is(res.Rows[1].Err, errors.ErrCodeUnresolvedReference))
	assert.Nil(t, res.Rows[2].Err, "other rows still resolve")
	assert.True(t, res.Failed())
}

func TestFailurePropagatesToDependents(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: bad
    at: nosuchrow
  - name: downstream
    at: bad
`)
	require.NotNil(t, res.Rows[1].Err)
	assert.True(t, errors.Is(res.Rows[1].Err, errors.ErrCodeUnresolvedReference))
	// Both the origin and the dependent are reported.
	assert.GreaterOrEqual(t, len(res.Diagnostics), 2)
}

func TestDirectCycle(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: me
    at: me
`)
	require.NotNil(t, res.Rows[0].Err)
	assert.True(t, errors.Is(res.Rows[0].Err, errors.ErrCodeCyclicReference))
}

func TestIndirectCycle(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: B
    at: C
    length: 1
  - name: C
    at: B
    length: 1
  - name: unrelated
    at: 4
`)
	require.NotNil(t, res.Rows[0].Err)
	require.NotNil(t, res.Rows[1].Err)
	assert.True(t, errors.Is(res.Rows[0].Err, errors.ErrCodeCyclicReference))
	assert.True(t, errors.Is(res.Rows[1].Err, errors.ErrCodeCyclicReference))
	// Cycle members are named.
	assert.Contains(t, res.Rows[0].Err.Message, `"B"`)
	assert.Contains(t, res.Rows[0].Err.Message, `"C"`)
	assert.Nil(t, res.Rows[2].Err, "rows outside the cycle resolve")
}

func TestInvalidRowShape(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: empty
    length: 2
  - name: fine
    at: 0
    length: 1
`)
	require.NotNil(t, res.Rows[0].Err)
	assert.True(t, errors.Is(res.Rows[0].Err, errors.ErrCodeInvalidRowShape))
	assert.Nil(t, res.Rows[1].Err)
}

func TestReferenceToGapRowFails(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: Heading
    gap: true
  - name: ref
    at: Heading
`)
	require.NotNil(t, res.Rows[1].Err)
	assert.True(t, errors.Is(res.Rows[1].Err, errors.ErrCodeUnresolvedReference))
	assert.Nil(t, res.Rows[0].Err, "the gap row itself is fine")
}

func TestMalformedReference(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: bad regex
    at: "spec("
  - name: fine
    at: 0
`)
	require.NotNil(t, res.Rows[0].Err)
	assert.True(t, errors.Is(res.Rows[0].Err, errors.ErrCodeMalformedReference))
	assert.Nil(t, res.Rows[1].Err)
}

func TestDeps(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: A1 development
    at: 0
    length: 3
  - name: A2 testing
    at: 3
    length: 2
  - name: two deps
    at: 6
    length: 1
    dep: [A1, A2]
  - name: offset dep
    at: 6
    length: 1
    dep: [[A1, -1.5]]
`)
	assert.False(t, res.Failed(), "diagnostics: %+v", res.Diagnostics)

	two := res.Rows[2].Deps
	require.Len(t, two, 2, "dep: [A1, A2] is two independent dependencies")
	assert.Equal(t, 3.0, two[0].Pos)
	assert.Equal(t, 0, two[0].SourceRow)
	assert.Equal(t, 5.0, two[1].Pos)
	assert.Equal(t, 1, two[1].SourceRow)

	offset := res.Rows[3].Deps
	require.Len(t, offset, 1, "dep: [[A1,-1.5]] is one offset dependency")
	assert.Equal(t, 1.5, offset[0].Pos)
}

func TestDepDoesNotAffectPosition(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: A
    at: 5
    length: 2
  - name: B
    at: 1
    length: 1
    dep: A
`)
	assert.Equal(t, 1.0, res.Rows[1].Start, "position comes from at, not dep")
	// B starts before its dependency's end: warning, not error.
	assert.False(t, res.Failed())
	var warned bool
	for _, d := range res.Diagnostics {
		if d.Severity == SeverityWarning && d.Row == "B" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a before-its-dependency warning")
}

func TestIdempotence(t *testing.T) {
	src := header + `
rows:
  - name: A
    at: 0
    length: 3
  - name: B
    at: A
    length: 2
  - name: M
    at: +B
`
	first := resolveDoc(t, src)
	second := resolveDoc(t, src)
	assert.Equal(t, first, second, "fresh resolution of the same document is identical")

	// Resolving through the same Resolver returns the memoized result.
	r, err := New(mustDoc(t, src))
	require.NoError(t, err)
	assert.Same(t, r.Resolve(), r.Resolve())
}

func TestResolvedPoints(t *testing.T) {
	res := resolveDoc(t, header+`
rows:
  - name: A
    at: 0
    length: 3
  - name: Phases
    phases:
      - name: P1
        at: 0
        length: 5
`)
	require.Len(t, res.Points, 2)
	assert.Equal(t, "A", res.Points[0].Name)
	assert.Equal(t, OriginRow, res.Points[0].Origin)
	assert.Equal(t, 3.0, res.Points[0].End())
	assert.Equal(t, "P1", res.Points[1].Name)
	assert.Equal(t, OriginPhase, res.Points[1].Origin)
}
