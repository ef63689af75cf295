package sink

import "sort"

// Dependency lines are drawn dashed, so overlapping segments interfere:
// two dashes half a phase apart render as a solid line. Before drawing,
// collinear segments that touch or overlap are merged into one.

type point struct {
	x, y float64
}

type segment struct {
	a, b point
}

// seg builds a segment with endpoints ordered along the varying axis.
func seg(x1, y1, x2, y2 float64) segment {
	if x2 < x1 || (x1 == x2 && y2 < y1) {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	return segment{point{x1, y1}, point{x2, y2}}
}

func (s segment) horizontal() bool { return s.a.y == s.b.y }

// mergeSegments collapses overlapping collinear segments. Horizontal
// segments merge along x, vertical along y; everything else passes
// through untouched.
func mergeSegments(segs []segment) []segment {
	type lineKey struct {
		horizontal bool
		fixed      float64
	}
	lines := make(map[lineKey][]segment)
	var rest []segment

	for _, s := range segs {
		switch {
		case s.horizontal():
			k := lineKey{true, s.a.y}
			lines[k] = append(lines[k], s)
		case s.a.x == s.b.x:
			k := lineKey{false, s.a.x}
			lines[k] = append(lines[k], s)
		default:
			rest = append(rest, s)
		}
	}

	keys := make([]lineKey, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.horizontal != b.horizontal {
			return b.horizontal
		}
		return a.fixed < b.fixed
	})

	out := rest
	for _, k := range keys {
		out = append(out, mergeLine(lines[k], k.horizontal)...)
	}
	return out
}

// mergeLine merges segments known to lie on one line, sweeping along the
// varying axis.
func mergeLine(segs []segment, horizontal bool) []segment {
	pos := func(p point) float64 {
		if horizontal {
			return p.x
		}
		return p.y
	}
	sort.Slice(segs, func(i, j int) bool { return pos(segs[i].a) < pos(segs[j].a) })

	out := segs[:1]
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if pos(s.a) <= pos(last.b) {
			if pos(s.b) > pos(last.b) {
				last.b = s.b
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
