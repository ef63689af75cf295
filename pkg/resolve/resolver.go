// Package resolve turns the symbolic time references of a project document
// into concrete zero-based unit positions.
//
// Every named row, phase, and break is a candidate point. Symbolic
// references scan the candidates in document order and the first name
// match wins; the matched candidate is resolved on demand, recursively,
// with explicit per-candidate states so cycles are detected and reported
// with their full membership instead of hanging or blowing the stack.
//
// Resolution is a single-threaded batch over one document. A Resolver
// holds per-run state and must not be shared across documents; results are
// memoized and never mutated after Resolve returns.
package resolve

import (
	"fmt"
	"strings"

	"github.com/celosnet/ugantt/pkg/calendar"
	"github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/timeref"
)

// Origin says what kind of named point a candidate came from.
type Origin int

const (
	OriginRow Origin = iota
	OriginPhase
	OriginBreak
)

func (o Origin) String() string {
	switch o {
	case OriginPhase:
		return "phase"
	case OriginBreak:
		return "break"
	default:
		return "row"
	}
}

// state is the resolution lifecycle of a candidate point. Resolved and
// Failed are terminal; nothing transitions back.
type state uint8

const (
	unresolved state = iota
	resolving
	resolved
	failed
)

// Point is a fully resolved named time-point.
type Point struct {
	Name   string
	Origin Origin
	Row    int // owning row index in document order
	Start  float64
	Length float64
}

// End returns the end position of the point's interval.
func (p Point) End() float64 { return p.Start + p.Length }

// Dep is a resolved dependency endpoint for one arrow.
type Dep struct {
	Row       int     // dependent row index
	SourceRow int     // row owning the matched candidate, -1 when none
	Pos       float64 // resolved position of the dependency
}

// RowResult carries the per-row outcome of resolution.
type RowResult struct {
	Index     int
	Name      string
	Gap       bool
	Err       *errors.Error // row-scoped failure; nil when the row resolved
	HasTiming bool          // row has its own at
	Start     float64
	Length    float64
	Milestone bool
	Phases    []Point
	Breaks    []Point
	Deps      []Dep
}

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one user-visible finding from the resolution pass.
type Diagnostic struct {
	Severity Severity
	Row      string
	Message  string
	Err      error // underlying error for SeverityError, nil for warnings
}

// Result is the complete output of a resolution pass.
type Result struct {
	Rows        []RowResult
	Points      []Point // every successfully resolved candidate, document order
	Diagnostics []Diagnostic
}

// Failed reports whether any error-severity diagnostic was produced.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// candidate is the internal resolution state for one named point.
type candidate struct {
	name     string
	origin   Origin
	rowIndex int
	hasAt    bool
	ref      timeref.Ref
	refErr   *errors.Error // at failed to parse
	length   float64

	state  state
	target *candidate // memoized symbolic match
	pos    float64
	err    *errors.Error
}

// Resolver resolves one document. Create a fresh Resolver per document;
// state is not shared across runs.
type Resolver struct {
	doc        *project.Document
	cal        *calendar.Calendar
	candidates []*candidate
	byRow      map[int]*candidate // row index -> the row's own candidate
	result     *Result
}

// New builds a resolver for a validated document.
func New(doc *project.Document) (*Resolver, error) {
	unit, err := calendar.ParseUnit(doc.Unit)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.New(unit, doc.Start, doc.Length, doc.Options.OneBased)
	if err != nil {
		return nil, err
	}
	r := &Resolver{doc: doc, cal: cal, byRow: make(map[int]*candidate)}
	r.buildCandidates()
	return r, nil
}

// Calendar exposes the calendar derived from the document header.
func (r *Resolver) Calendar() *calendar.Calendar { return r.cal }

// buildCandidates enumerates the candidate universe in document order:
// each row, then its breaks, then its phases. Unnamed rows occupy a slot
// but cannot be matched.
func (r *Resolver) buildCandidates() {
	oneBased := r.doc.Options.OneBased
	for i := range r.doc.Rows {
		row := &r.doc.Rows[i]
		c := &candidate{name: row.Name, origin: OriginRow, rowIndex: i}
		if row.Length != nil {
			c.length = *row.Length
		}
		if row.At != nil {
			c.hasAt = true
			ref, err := timeref.Parse(row.At, oneBased)
			if err != nil {
				c.refErr = asError(err).WithRow(row.Name).WithField("at")
			} else {
				c.ref = ref
			}
		}
		r.candidates = append(r.candidates, c)
		r.byRow[i] = c

		for j := range row.Breaks {
			r.candidates = append(r.candidates, r.subCandidate(i, &row.Breaks[j], OriginBreak))
		}
		for j := range row.Phases {
			r.candidates = append(r.candidates, r.subCandidate(i, &row.Phases[j], OriginPhase))
		}
	}
}

func (r *Resolver) subCandidate(rowIndex int, b *project.SubBlock, origin Origin) *candidate {
	c := &candidate{
		name:     b.Name,
		origin:   origin,
		rowIndex: rowIndex,
		length:   b.Length,
	}
	rowName := r.doc.Rows[rowIndex].Name
	if b.At == nil {
		c.refErr = errors.New(errors.ErrCodeMalformedReference,
			"%s %q is missing 'at'", origin, b.Name).WithRow(rowName)
		return c
	}
	c.hasAt = true
	ref, err := timeref.Parse(b.At, r.doc.Options.OneBased)
	if err != nil {
		c.refErr = asError(err).WithRow(rowName).WithField("at")
	} else {
		c.ref = ref
	}
	return c
}

// Resolve runs the batch resolution pass. The result is memoized; calling
// Resolve again returns the same value.
func (r *Resolver) Resolve() *Result {
	if r.result != nil {
		return r.result
	}
	res := &Result{}

	// Resolve every candidate that carries its own timing. Candidates
	// without one (gap rows, phases-only rows) stay unresolved and fail
	// only the references that name them.
	for _, c := range r.candidates {
		if c.hasAt || c.refErr != nil {
			r.resolvePoint(c, res)
		}
	}

	for i := range r.doc.Rows {
		res.Rows = append(res.Rows, r.rowResult(i, res))
	}

	for _, c := range r.candidates {
		if c.state == resolved {
			res.Points = append(res.Points, Point{
				Name:   c.name,
				Origin: c.origin,
				Row:    c.rowIndex,
				Start:  c.pos,
				Length: c.length,
			})
		}
	}

	r.result = res
	return res
}

// resolvePoint drives an iterative depth-first resolution of c, using an
// explicit stack instead of recursion. Cycle membership falls directly out
// of the stack contents when a Resolving candidate is revisited.
func (r *Resolver) resolvePoint(c *candidate, res *Result) {
	stack := []*candidate{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		switch cur.state {
		case resolved, failed:
			stack = stack[:len(stack)-1]

		case resolving:
			// The candidate's target (if any) has been processed.
			r.finish(cur, res)
			stack = stack[:len(stack)-1]

		case unresolved:
			cur.state = resolving
			if cur.refErr != nil {
				r.fail(cur, cur.refErr, res)
				stack = stack[:len(stack)-1]
				continue
			}
			if cur.ref.Kind != timeref.Symbolic {
				continue // finished on the next visit
			}

			target := r.match(cur.ref)
			if target == nil {
				r.fail(cur, errors.New(errors.ErrCodeUnresolvedReference,
					"no row, phase or break matches pattern %q", cur.ref.Pattern).
					WithRow(cur.name), res)
				stack = stack[:len(stack)-1]
				continue
			}
			if !target.hasAt {
				r.fail(cur, errors.New(errors.ErrCodeUnresolvedReference,
					"pattern %q matches %s %q, which has no timing of its own",
					cur.ref.Pattern, target.origin, target.name).WithRow(cur.name), res)
				stack = stack[:len(stack)-1]
				continue
			}
			cur.target = target
			if target.state == resolving {
				r.failCycle(stack, target, res)
				continue
			}
			if target.state == unresolved {
				stack = append(stack, target)
			}
		}
	}
}

// match scans the candidate universe in document order and returns the
// first name match, or nil. Unnamed candidates never match.
func (r *Resolver) match(ref timeref.Ref) *candidate {
	for _, c := range r.candidates {
		if c.name != "" && ref.Matches(c.name) {
			return c
		}
	}
	return nil
}

// finish computes the final position of a candidate whose dependencies are
// settled, transitioning it to resolved or failed.
func (r *Resolver) finish(c *candidate, res *Result) {
	switch c.ref.Kind {
	case timeref.Index:
		c.pos = c.ref.Index + c.ref.Offset
		c.state = resolved

	case timeref.Date:
		c.pos = r.cal.Index(c.ref.Date) + c.ref.Offset
		c.state = resolved

	case timeref.Symbolic:
		t := c.target
		if t == nil || t.state != resolved {
			name := c.ref.Pattern
			if t != nil {
				name = t.name
			}
			r.fail(c, errors.New(errors.ErrCodeUnresolvedReference,
				"depends on %q, which failed to resolve", name).WithRow(c.name), res)
			return
		}
		pos := t.pos
		if c.ref.Anchor == timeref.End {
			pos += t.length
		}
		c.pos = pos + c.ref.Offset
		c.state = resolved
	}
}

// fail marks a candidate as terminally failed and records the diagnostic.
func (r *Resolver) fail(c *candidate, err *errors.Error, res *Result) {
	if c.state == failed {
		return
	}
	c.state = failed
	c.err = err
	res.Diagnostics = append(res.Diagnostics, Diagnostic{
		Severity: SeverityError,
		Row:      r.doc.Rows[c.rowIndex].Name,
		Message:  errors.UserMessage(err),
		Err:      err,
	})
}

// failCycle fails every member of a detected reference cycle. The cycle is
// the stack suffix from the revisited candidate to the top.
func (r *Resolver) failCycle(stack []*candidate, target *candidate, res *Result) {
	from := 0
	for i, c := range stack {
		if c == target {
			from = i
			break
		}
	}
	members := stack[from:]
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, fmt.Sprintf("%q", m.name))
	}
	cycleErr := errors.New(errors.ErrCodeCyclicReference,
		"reference cycle: %s", strings.Join(names, " -> "))
	for _, m := range members {
		r.fail(m, cycleErr.WithRow(m.name), res)
	}
}

// rowResult assembles the per-row outcome, including dependency endpoints.
func (r *Resolver) rowResult(i int, res *Result) RowResult {
	row := &r.doc.Rows[i]
	rr := RowResult{Index: i, Name: row.Name, Gap: row.Gap}

	if !row.HasShape() {
		rr.Err = errors.New(errors.ErrCodeInvalidRowShape,
			"row defines none of at, phases, breaks, or gap").WithRow(row.Name)
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityError,
			Row:      row.Name,
			Message:  errors.UserMessage(rr.Err),
			Err:      rr.Err,
		})
		return rr
	}

	c := r.byRow[i]
	if c.hasAt || c.refErr != nil {
		if c.state == resolved {
			rr.HasTiming = true
			rr.Start = c.pos
			rr.Length = c.length
			rr.Milestone = row.IsMilestone()
		} else {
			rr.Err = c.err
		}
	}

	rr.Breaks = r.subPoints(row.Breaks, i, OriginBreak)
	rr.Phases = r.subPoints(row.Phases, i, OriginPhase)

	if row.Dep != nil && rr.Err == nil {
		rr.Deps = r.rowDeps(i, &rr, res)
	}
	return rr
}

// subPoints collects the resolved sub-blocks of a row, skipping failed
// ones (their diagnostics were already recorded).
func (r *Resolver) subPoints(blocks []project.SubBlock, rowIndex int, origin Origin) []Point {
	if len(blocks) == 0 {
		return nil
	}
	var pts []Point
	for _, c := range r.candidates {
		if c.rowIndex == rowIndex && c.origin == origin && c.state == resolved {
			pts = append(pts, Point{
				Name:   c.name,
				Origin: origin,
				Row:    rowIndex,
				Start:  c.pos,
				Length: c.length,
			})
		}
	}
	return pts
}

// rowDeps resolves the row's dependency references into arrow endpoints.
// Dependency failures are reported but never fail the row itself.
func (r *Resolver) rowDeps(i int, rr *RowResult, res *Result) []Dep {
	row := &r.doc.Rows[i]
	refs, err := timeref.ParseDeps(row.Dep, r.doc.Options.OneBased)
	if err != nil {
		e := asError(err).WithRow(row.Name).WithField("dep")
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityError, Row: row.Name, Message: errors.UserMessage(e), Err: e,
		})
		return nil
	}

	var deps []Dep
	for _, ref := range refs {
		dep, derr := r.depEndpoint(ref)
		if derr != nil {
			e := derr.WithRow(row.Name).WithField("dep")
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError, Row: row.Name, Message: errors.UserMessage(e), Err: e,
			})
			continue
		}
		dep.Row = i
		if rr.HasTiming && dep.Pos > rr.Start {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Row:      row.Name,
				Message:  fmt.Sprintf("row starts before its dependency %s", ref),
			})
		}
		deps = append(deps, dep)
	}
	return deps
}

// depEndpoint resolves one dependency reference to a position and, when it
// matched a candidate, the row the arrow should rise from.
func (r *Resolver) depEndpoint(ref timeref.Ref) (Dep, *errors.Error) {
	switch ref.Kind {
	case timeref.Index:
		return Dep{SourceRow: -1, Pos: ref.Index + ref.Offset}, nil
	case timeref.Date:
		return Dep{SourceRow: -1, Pos: r.cal.Index(ref.Date) + ref.Offset}, nil
	}

	target := r.match(ref)
	if target == nil {
		return Dep{}, errors.New(errors.ErrCodeUnresolvedReference,
			"no row, phase or break matches pattern %q", ref.Pattern)
	}
	if target.state != resolved {
		return Dep{}, errors.New(errors.ErrCodeUnresolvedReference,
			"dependency %q did not resolve", target.name)
	}
	pos := target.pos
	if ref.Anchor == timeref.End {
		pos += target.length
	}
	return Dep{SourceRow: target.rowIndex, Pos: pos + ref.Offset}, nil
}

// asError coerces any error into the package error type.
func asError(err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "unexpected error")
}
