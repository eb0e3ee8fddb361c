package analysis

import (
	"regexp"
	"strings"

	"iepreview-backend/models"
)

const (
	// leadingContext is how many characters of text before a header match
	// are pulled into the section window.
	leadingContext = 100
	// minSectionSize guards against an immediately-adjacent header
	// truncating a section, and discards windows too small to analyze.
	minSectionSize = 200
	// maxSectionSpan caps a section at this many characters past its
	// header match start.
	maxSectionSpan = 3000
)

// headerPattern is a compiled section-header matcher. rejectNext, when set,
// invalidates a hit whose trailing text matches it (RE2 has no lookahead,
// so "ACCOMMODATIONS not followed by LIST" is expressed this way).
type headerPattern struct {
	re         *regexp.Regexp
	rejectNext *regexp.Regexp
}

func pat(expr string) headerPattern {
	return headerPattern{re: regexp.MustCompile(`(?i)` + expr)}
}

func patExcept(expr, reject string) headerPattern {
	return headerPattern{
		re:         regexp.MustCompile(`(?i)` + expr),
		rejectNext: regexp.MustCompile(`(?i)^` + reject),
	}
}

// find returns the first acceptable match of p in text as [start, end)
func (p headerPattern) find(text string) (int, int, bool) {
	off := 0
	for {
		loc := p.re.FindStringIndex(text[off:])
		if loc == nil {
			return 0, 0, false
		}
		s, e := off+loc[0], off+loc[1]
		if p.rejectNext != nil && p.rejectNext.MatchString(text[e:]) {
			off = e
			continue
		}
		return s, e, true
	}
}

// sectionKind pairs a section name with its header patterns. Order matters
// twice over: kinds are emitted in this order, and within a kind the first
// pattern that matches anywhere in the document wins.
type sectionKind struct {
	name     string
	patterns []headerPattern
}

var sectionKinds = []sectionKind{
	{"Present Levels", []headerPattern{
		pat(`PRESENT\s+LEVEL[S]?\s+(OF\s+)?(ACADEMIC\s+ACHIEVEMENT|PERFORMANCE)`),
		pat(`PLAAFP`),
		pat(`SUMMARY\s+OF\s+PRESENT\s+LEVEL`),
	}},
	{"Measurable Goals", []headerPattern{
		pat(`ANNUAL\s+GOAL[S]?`),
		pat(`MEASURABLE\s+(ANNUAL\s+)?GOAL[S]?`),
		pat(`IEP\s+GOAL[S]?`),
	}},
	{"Special Education Services", []headerPattern{
		pat(`SPECIAL\s+EDUCATION.*?SERVICE[S]?`),
		pat(`STATEMENT\s+OF.*?SERVICE[S]?`),
		pat(`SPECIALLY\s+DESIGNED\s+INSTRUCTION`),
	}},
	{"Related Services", []headerPattern{
		pat(`RELATED\s+SERVICE[S]?`),
		pat(`SUPPLEMENTARY\s+AIDS`),
	}},
	{"Accommodations", []headerPattern{
		patExcept(`ACCOMMODATION[S]?`, `\s+LIST`),
		pat(`MODIFICATION[S]?`),
		pat(`TESTING\s+ACCOMMODATION[S]?`),
	}},
	{"LRE/Placement", []headerPattern{
		pat(`LEAST\s+RESTRICTIVE\s+ENVIRONMENT`),
		pat(`LRE`),
		pat(`PLACEMENT\s+(DECISION|DETERMINATION)`),
		pat(`EDUCATIONAL\s+PLACEMENT`),
	}},
	{"Transition", []headerPattern{
		pat(`TRANSITION\s+(PLAN|GOAL[S]?|SERVICE[S]?)`),
		pat(`POST[- ]?SECONDARY\s+GOAL[S]?`),
		pat(`COORDINATED\s+ACTIVIT`),
	}},
	{"ESY", []headerPattern{
		pat(`EXTENDED\s+SCHOOL\s+YEAR`),
		pat(`ESY`),
	}},
	{"Assessment", []headerPattern{
		pat(`STATE.*?ASSESSMENT`),
		pat(`TESTING\s+(PARTICIPATION|PROGRAM)`),
	}},
}

// SectionKindNames returns the known section kinds in detection order
func SectionKindNames() []string {
	names := make([]string, len(sectionKinds))
	for i, k := range sectionKinds {
		names[i] = k.name
	}
	return names
}

// DetectSections scans extracted document text for known IEP sections.
// At most one section per kind is produced: the first pattern in the kind's
// list that matches decides, and only its first occurrence counts. Windows
// include up to 100 chars of leading context, stop at the next header of any
// kind (when it is more than 200 chars away) or at the 3000-char cap, and
// are dropped entirely when 200 chars or smaller. Overlapping windows across
// kinds are expected and kept.
func DetectSections(text string) []models.Section {
	sections := make([]models.Section, 0, len(sectionKinds))

	for _, kind := range sectionKinds {
		for _, p := range kind.patterns {
			s, e, ok := p.find(text)
			if !ok {
				continue
			}

			start := s - leadingContext
			if start < 0 {
				start = 0
			}

			end := nextHeaderBoundary(text, e)
			if limit := s + maxSectionSpan; end > limit {
				end = limit
			}

			if end-start > minSectionSize {
				sections = append(sections, models.Section{
					Name:        kind.name,
					Content:     strings.TrimSpace(text[start:end]),
					StartOffset: start,
					EndOffset:   end,
				})
			}
			break // first matching pattern decides this kind
		}
	}

	return sections
}

// nextHeaderBoundary finds the closest header match of any kind after from,
// ignoring matches within minSectionSize of it. Returns len(text) when no
// header qualifies.
func nextHeaderBoundary(text string, from int) int {
	next := len(text)
	tail := text[from:]

	for _, kind := range sectionKinds {
		for _, p := range kind.patterns {
			ms, _, ok := p.find(tail)
			if !ok {
				continue
			}
			candidate := from + ms
			if candidate > from+minSectionSize && candidate < next {
				next = candidate
			}
		}
	}

	return next
}
