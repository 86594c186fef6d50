// Package linediff computes line-level differences between two scalar
// renderings. Each line keeps its trailing newline, so concatenating segments
// reproduces the inputs exactly.
package linediff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Segment is a run of lines that is unchanged, added or removed. At most one
// of Added and Removed is set.
type Segment struct {
	Value   string `json:"value"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// Changed reports whether the segment is an addition or removal.
func (s Segment) Changed() bool {
	return s.Added || s.Removed
}

// Diff returns the ordered segments turning oldText into newText. Dropping
// Added segments reconstructs oldText and dropping Removed segments
// reconstructs newText. Diff(x, x) yields only unchanged segments.
func Diff(oldText, newText string) []Segment {
	if oldText == newText {
		if oldText == "" {
			return []Segment{}
		}
		return []Segment{{Value: oldText}}
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		segment := Segment{Value: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			segment.Added = true
		case diffmatchpatch.DiffDelete:
			segment.Removed = true
		}
		segments = appendSegment(segments, segment)
	}
	return segments
}

// appendSegment merges consecutive segments of the same kind.
func appendSegment(segments []Segment, next Segment) []Segment {
	if n := len(segments); n > 0 {
		last := &segments[n-1]
		if last.Added == next.Added && last.Removed == next.Removed {
			last.Value += next.Value
			return segments
		}
	}
	return append(segments, next)
}

// HasChanges reports whether any segment is an addition or removal.
func HasChanges(segments []Segment) bool {
	for _, segment := range segments {
		if segment.Changed() {
			return true
		}
	}
	return false
}

// Old reconstructs the old text from segments.
func Old(segments []Segment) string {
	return join(segments, func(s Segment) bool { return !s.Added })
}

// New reconstructs the new text from segments.
func New(segments []Segment) string {
	return join(segments, func(s Segment) bool { return !s.Removed })
}

// Stats counts the added and removed lines across segments.
func Stats(segments []Segment) (added, removed int) {
	for _, segment := range segments {
		lines := countLines(segment.Value)
		switch {
		case segment.Added:
			added += lines
		case segment.Removed:
			removed += lines
		}
	}
	return added, removed
}

func join(segments []Segment, keep func(Segment) bool) string {
	var b strings.Builder
	for _, segment := range segments {
		if keep(segment) {
			b.WriteString(segment.Value)
		}
	}
	return b.String()
}

func countLines(value string) int {
	if value == "" {
		return 0
	}
	n := strings.Count(value, "\n")
	if !strings.HasSuffix(value, "\n") {
		n++
	}
	return n
}
