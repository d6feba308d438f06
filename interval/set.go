// Package interval turns subsumption and disjointness over a DAG into
// containment and overlap tests on sorted integer intervals.
package interval

import (
	"fmt"
	"sort"
	"strings"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo, Hi int
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Lo, iv.Hi)
}

// Set is a sorted list of disjoint, non-adjacent intervals.
type Set []Interval

// Point returns the set holding only x.
func Point(x int) Set {
	return Set{{x, x}}
}

// Normalize sorts s and merges overlapping or adjacent intervals in place.
func Normalize(s Set) Set {
	if len(s) < 2 {
		return s
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Lo < s[j].Lo })
	out := s[:1]
	for _, iv := range s[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= last.Hi+1 {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Union merges two normalized sets into a new normalized set.
func (s Set) Union(t Set) Set {
	if len(t) == 0 {
		return s
	}
	if len(s) == 0 {
		return append(Set(nil), t...)
	}
	out := make(Set, 0, len(s)+len(t))
	i, j := 0, 0
	push := func(iv Interval) {
		if n := len(out); n > 0 && iv.Lo <= out[n-1].Hi+1 {
			if iv.Hi > out[n-1].Hi {
				out[n-1].Hi = iv.Hi
			}
			return
		}
		out = append(out, iv)
	}
	for i < len(s) || j < len(t) {
		if j == len(t) || (i < len(s) && s[i].Lo <= t[j].Lo) {
			push(s[i])
			i++
		} else {
			push(t[j])
			j++
		}
	}
	return out
}

// Intersect returns the normalized intersection of two normalized sets.
func (s Set) Intersect(t Set) Set {
	var out Set
	i, j := 0, 0
	for i < len(s) && j < len(t) {
		lo, hi := max(s[i].Lo, t[j].Lo), min(s[i].Hi, t[j].Hi)
		if lo <= hi {
			out = append(out, Interval{lo, hi})
		}
		if s[i].Hi < t[j].Hi {
			i++
		} else {
			j++
		}
	}
	return out
}

// Contains reports whether x lies in s.
func (s Set) Contains(x int) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].Hi >= x })
	return i < len(s) && s[i].Lo <= x
}

// Overlaps reports whether s and t share at least one point.
func (s Set) Overlaps(t Set) bool {
	i, j := 0, 0
	for i < len(s) && j < len(t) {
		if s[i].Hi < t[j].Lo {
			i++
		} else if t[j].Hi < s[i].Lo {
			j++
		} else {
			return true
		}
	}
	return false
}

// Each calls fn for every point of s in ascending order.
func (s Set) Each(fn func(x int)) {
	for _, iv := range s {
		for x := iv.Lo; x <= iv.Hi; x++ {
			fn(x)
		}
	}
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, iv := range s {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " ")
}
