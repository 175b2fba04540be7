package clinical

import (
	"sort"
	"strings"
)

// Segment is one labeled region of a note: everything between a section
// label and the start of the next recognized label.
type Segment struct {
	Key   string
	Label string
	Body  string
}

// Scanner slices free text into labeled segments. A section matches at the
// leftmost occurrence of any of its label spellings, case-insensitively.
type Scanner struct {
	sections []SectionDef
	labels   []string
}

func NewScanner(sections []SectionDef) *Scanner {
	s := &Scanner{sections: sections}
	for _, sec := range sections {
		s.labels = append(s.labels, sec.Labels...)
	}
	return s
}

// KnownLabels lists every label spelling the scanner recognizes.
func (s *Scanner) KnownLabels() []string {
	return s.labels
}

type mark struct {
	key   string
	label string
	start int
	end   int
}

// Scan returns the segments in the order the labels occur in the text.
// Text before the first label belongs to no segment. A label at the very end
// of the text yields a segment with an empty body.
func (s *Scanner) Scan(text string) []Segment {
	lower := strings.ToLower(text)

	var marks []mark
	for _, sec := range s.sections {
		best := mark{start: -1}
		for _, label := range sec.Labels {
			idx := strings.Index(lower, strings.ToLower(label))
			if idx < 0 {
				continue
			}
			if best.start < 0 || idx < best.start {
				best = mark{key: sec.Key, label: label, start: idx, end: idx + len(label)}
			}
		}
		if best.start >= 0 {
			marks = append(marks, best)
		}
	}

	sort.Slice(marks, func(i, j int) bool { return marks[i].start < marks[j].start })

	segments := make([]Segment, 0, len(marks))
	for i, m := range marks {
		bodyEnd := len(text)
		if i+1 < len(marks) {
			bodyEnd = marks[i+1].start
		}
		if m.end > bodyEnd {
			// Overlapping labels, the earlier mark swallowed this one.
			continue
		}
		segments = append(segments, Segment{
			Key:   m.key,
			Label: text[m.start:m.end],
			Body:  text[m.end:bodyEnd],
		})
	}

	return segments
}

// startsWithLabel reports whether the fragment begins with one of the known
// label spellings, which means it is the torn-off head of the next section.
func (s *Scanner) startsWithLabel(fragment string) bool {
	lower := strings.ToLower(strings.TrimSpace(fragment))
	for _, label := range s.labels {
		if strings.HasPrefix(lower, strings.ToLower(label)) {
			return true
		}
	}
	return false
}
