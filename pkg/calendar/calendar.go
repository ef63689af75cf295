// Package calendar converts between calendar dates and abstract time-unit
// indices for the two supported granularities, week and month.
//
// All internal arithmetic is zero-based and relative to the normalized
// project start (the Monday of the start week, or the first of the start
// month). One-based numbering is a display concern only: DisplayIndex and
// Ticks shift the visible numbers without touching the unit math.
package calendar

import (
	"math"
	"time"

	"github.com/celosnet/ugantt/pkg/errors"
)

// Unit is the project time granularity.
type Unit string

const (
	Week  Unit = "week"
	Month Unit = "month"
)

// monthDays is the average month length used for fractional month
// arithmetic. Kept at two decimals so day-of-month offsets survive the
// round trip through an index exactly.
const monthDays = 30.42

// ParseUnit validates a unit name from the document.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Week, Month:
		return Unit(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidDocument, "unknown unit %q (must be week or month)", s)
}

// Calendar performs date/index conversion relative to a project start.
type Calendar struct {
	unit     Unit
	start    time.Time // normalized to the unit's period boundary
	length   int
	oneBased bool
}

// New creates a Calendar for the given unit, anchored at start.
// The start date is normalized to its period boundary (Monday for week,
// first of month for month). Length is the number of visible units.
func New(unit Unit, start time.Time, length int, oneBased bool) (*Calendar, error) {
	if length <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "length must be positive, got %d", length)
	}
	switch unit {
	case Week, Month:
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown unit %q", unit)
	}
	return &Calendar{
		unit:     unit,
		start:    Normalize(unit, start),
		length:   length,
		oneBased: oneBased,
	}, nil
}

// Unit returns the calendar granularity.
func (c *Calendar) Unit() Unit { return c.unit }

// Start returns the normalized start date.
func (c *Calendar) Start() time.Time { return c.start }

// Length returns the number of visible units.
func (c *Calendar) Length() int { return c.length }

// OneBased reports whether display numbering starts at 1.
func (c *Calendar) OneBased() bool { return c.oneBased }

// Index converts a date to a zero-based unit position relative to the
// project start. Positions are fractional: a Wednesday in the start week
// of a weekly calendar is at index 2/7.
func (c *Calendar) Index(d time.Time) float64 {
	d = midnight(d)
	if c.unit == Week {
		return days(c.start, d) / 7.0
	}
	months := (d.Year()-c.start.Year())*12 + int(d.Month()) - int(c.start.Month())
	return float64(months) + float64(d.Day()-c.start.Day())/monthDays
}

// Date converts a zero-based unit position back to a calendar date.
// It is the inverse of Index for any date within the project span.
func (c *Calendar) Date(idx float64) time.Time {
	if c.unit == Week {
		return c.start.AddDate(0, 0, int(math.Round(idx*7.0)))
	}
	whole := int(math.Floor(idx + 1e-9))
	frac := idx - float64(whole)
	day := int(math.Round(frac * monthDays))
	return c.start.AddDate(0, whole, day)
}

// DisplayIndex maps an internal zero-based unit index to the externally
// visible number.
func (c *Calendar) DisplayIndex(i int) int {
	if c.oneBased {
		return i + 1
	}
	return i
}

// UnitDate returns the calendar date of the i-th whole unit.
func (c *Calendar) UnitDate(i int) time.Time {
	if c.unit == Week {
		return c.start.AddDate(0, 0, 7*i)
	}
	return c.start.AddDate(0, i, 0)
}

// Tick describes one axis column: its display number, its date label, and
// an optional year marker placed above the label.
type Tick struct {
	Index   int    // zero-based unit index
	Display int    // externally visible number
	Label   string // "2 Jan" for weeks, "Jan" for months
	Year    string // "2016" on year boundaries (and on the first unit), else empty
}

// Ticks generates one axis tick per visible unit. Year markers appear above
// the first unit and above the first unit of each January; showYear=false
// suppresses them entirely.
func (c *Calendar) Ticks(showYear bool) []Tick {
	ticks := make([]Tick, 0, c.length)
	d := c.start
	for i := 0; i < c.length; i++ {
		t := Tick{
			Index:   i,
			Display: c.DisplayIndex(i),
			Label:   c.label(d),
		}
		if showYear && ((d.Month() == time.January && d.Day() < 7) || i == 0) {
			t.Year = d.Format("2006")
		}
		ticks = append(ticks, t)
		d = next(c.unit, d)
	}
	return ticks
}

func (c *Calendar) label(d time.Time) string {
	if c.unit == Week {
		return d.Format("2 Jan")
	}
	return d.Format("Jan")
}

// Normalize snaps a date to the unit's period boundary: the Monday of its
// week, or the first day of its month.
func Normalize(unit Unit, d time.Time) time.Time {
	d = midnight(d)
	if unit == Week {
		return monday(d)
	}
	return firstOfMonth(d)
}

// OnBoundary reports whether d already sits on the unit's period boundary.
func OnBoundary(unit Unit, d time.Time) bool {
	return midnight(d).Equal(Normalize(unit, d))
}

func monday(d time.Time) time.Time {
	wd := int(d.Weekday()) // Sunday=0
	if wd == 0 {
		wd = 6
	} else {
		wd--
	}
	return d.AddDate(0, 0, -wd)
}

func firstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func next(unit Unit, d time.Time) time.Time {
	if unit == Week {
		return d.AddDate(0, 0, 7)
	}
	return d.AddDate(0, 1, 0)
}

func midnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// days counts the calendar days from a to b.
func days(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24.0
}
