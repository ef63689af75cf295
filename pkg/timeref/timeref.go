// Package timeref parses the raw time-reference values that appear in a
// project document (`at`, `dep`, and the `at` of phases and breaks) into
// normalized Ref values.
//
// Three forms are recognized:
//   - a bare number: an absolute unit index (shifted down by one when the
//     document uses one-based numbering)
//   - a calendar date (YYYY-MM-DD)
//   - a symbolic reference: a case-insensitive pattern matched against the
//     start of candidate names up to a word boundary, optionally prefixed
//     with "-" (anchor to the candidate's start) or "+" (anchor to its end,
//     the default)
//
// A 2-element sequence pairs any of the above with an additive numeric
// offset in time units: ["A10", 2] resolves two units after A10's end.
package timeref

import (
	"fmt"
	"regexp"
	"time"

	"github.com/celosnet/ugantt/pkg/errors"
)

// Kind discriminates the three reference forms.
type Kind int

const (
	Index Kind = iota // absolute unit index
	Date              // calendar date
	Symbolic          // pattern match against candidate names
)

// Anchor selects which end of the matched candidate a symbolic reference
// resolves to. The default is End: "A10" means "when A10 finishes".
type Anchor int

const (
	End Anchor = iota
	Start
)

// Ref is a normalized time reference.
type Ref struct {
	Kind    Kind
	Index   float64        // set when Kind == Index
	Date    time.Time      // set when Kind == Date
	Pattern string         // set when Kind == Symbolic (sign stripped)
	Anchor  Anchor         // symbolic only
	Offset  float64        // additive offset in time units, any kind
	re      *regexp.Regexp // compiled pattern, symbolic only
}

// Matches reports whether a candidate name matches this symbolic reference.
// Matching is case-insensitive, anchored to the start of the name, and must
// end at a word boundary: "A1" matches "A1 development" but not "A10 spec".
func (r Ref) Matches(name string) bool {
	return r.re != nil && r.re.MatchString(name)
}

// String renders the reference for diagnostics.
func (r Ref) String() string {
	var s string
	switch r.Kind {
	case Index:
		s = fmt.Sprintf("unit %g", r.Index)
	case Date:
		s = r.Date.Format("2006-01-02")
	case Symbolic:
		if r.Anchor == Start {
			s = "-" + r.Pattern
		} else {
			s = r.Pattern
		}
	}
	if r.Offset != 0 {
		s = fmt.Sprintf("[%s, %+g]", s, r.Offset)
	}
	return s
}

// dateForm matches the calendar-date string form. Parsing is still
// delegated to time.Parse so impossible dates fail loudly.
var dateForm = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// Parse normalizes a raw document value into a Ref.
//
// When oneBased is true, bare numeric references are shifted down by one so
// that resolution always operates in zero-based unit space. The shift
// applies to numbers only; dates and symbolic references are unaffected.
func Parse(v any, oneBased bool) (Ref, error) {
	switch val := v.(type) {
	case int:
		return numericRef(float64(val), oneBased), nil
	case int64:
		return numericRef(float64(val), oneBased), nil
	case float64:
		return numericRef(val, oneBased), nil
	case time.Time:
		return Ref{Kind: Date, Date: val}, nil
	case string:
		return parseString(val)
	case []any:
		return parsePair(val, oneBased)
	case nil:
		return Ref{}, errors.New(errors.ErrCodeMalformedReference, "reference is empty")
	default:
		return Ref{}, errors.New(errors.ErrCodeMalformedReference, "unrecognized reference form %T", v)
	}
}

// ParseDeps normalizes a `dep` value into independent references.
//
// A list is a list of plain dependencies, each parsed like a singular `at`;
// a single dependency carrying an offset must therefore be wrapped in an
// extra list level: `dep: [[A1, -1.5]]` is one offset dependency while
// `dep: [A1, A2]` is two plain ones. This asymmetry is inherited from the
// document format and is preserved deliberately.
func ParseDeps(v any, oneBased bool) ([]Ref, error) {
	list, ok := v.([]any)
	if !ok {
		ref, err := Parse(v, oneBased)
		if err != nil {
			return nil, err
		}
		return []Ref{ref}, nil
	}
	refs := make([]Ref, 0, len(list))
	for _, item := range list {
		ref, err := Parse(item, oneBased)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func numericRef(v float64, oneBased bool) Ref {
	if oneBased {
		v -= 1.0
	}
	return Ref{Kind: Index, Index: v}
}

func parseString(s string) (Ref, error) {
	if dateForm.MatchString(s) {
		d, err := time.Parse("2006-1-2", s)
		if err != nil {
			return Ref{}, errors.Wrap(errors.ErrCodeMalformedReference, err, "invalid date %q", s)
		}
		return Ref{Kind: Date, Date: d}, nil
	}

	anchor := End
	pat := s
	if len(s) > 0 {
		switch s[0] {
		case '-':
			anchor = Start
			pat = s[1:]
		case '+':
			anchor = End
			pat = s[1:]
		}
	}

	re, err := CompilePattern(pat)
	if err != nil {
		return Ref{}, errors.Wrap(errors.ErrCodeMalformedReference, err, "invalid pattern %q", pat)
	}
	return Ref{Kind: Symbolic, Pattern: pat, Anchor: anchor, re: re}, nil
}

func parsePair(list []any, oneBased bool) (Ref, error) {
	if len(list) != 2 {
		return Ref{}, errors.New(errors.ErrCodeMalformedReference, "offset pair must have exactly 2 elements, got %d", len(list))
	}
	offset, ok := asNumber(list[1])
	if !ok {
		return Ref{}, errors.New(errors.ErrCodeMalformedReference, "offset must be numeric, got %T", list[1])
	}
	ref, err := Parse(list[0], oneBased)
	if err != nil {
		return Ref{}, err
	}
	ref.Offset += offset
	return ref, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// CompilePattern compiles a symbolic pattern into the matcher used for
// candidate names: case-insensitive, anchored at the start, terminated by a
// word boundary. Key names are matched with the same rule.
func CompilePattern(pat string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)^(?:` + pat + `)\b`)
}
