package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"iepreview-backend/models"
)

const (
	// snippetContext is how many characters either side of a keyword hit
	// are quoted as evidence.
	snippetContext = 75
	// snippetMax is the snippet length at which truncation kicks in.
	snippetMax = 200
)

// ScanRedFlags finds every case-insensitive literal occurrence of every rule
// keyword in text. Each occurrence becomes its own flag, attributed to the
// first detected section whose window contains the hit ("Unknown" when none
// does). Flags are deliberately not deduplicated: five hits of the same
// keyword are five flags.
func ScanRedFlags(text string, sections []models.Section, lib *RuleLibrary) []models.RedFlag {
	flags := make([]models.RedFlag, 0)

	for _, rule := range lib.Rules() {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}

			// Matching runs against the original text so offsets stay
			// valid: lowercasing first shifts byte positions for runes
			// whose case folding changes length.
			re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
			for _, m := range re.FindAllStringIndex(text, -1) {
				flags = append(flags, models.RedFlag{
					Type:      rule.ID,
					RiskLevel: rule.RiskLevel,
					Section:   attributeSection(sections, m[0]),
					Evidence:  "Found: " + keyword,
					Snippet:   contextSnippet(text, m[0], m[1]),
					ID:        fmt.Sprintf("flag_%d", len(flags)),
					Citation:  rule.Citation,
				})
			}
		}
	}

	return flags
}

// attributeSection returns the name of the first section (in detection
// order) whose window contains pos, or "Unknown"
func attributeSection(sections []models.Section, pos int) string {
	for _, s := range sections {
		if s.StartOffset <= pos && pos <= s.EndOffset {
			return s.Name
		}
	}
	return "Unknown"
}

// contextSnippet quotes the text around a keyword hit with newlines
// collapsed; snippets over 200 chars are truncated with an ellipsis marker.
// Bounds are nudged to rune boundaries so the snippet is always valid UTF-8.
func contextSnippet(text string, matchStart, matchEnd int) string {
	start := matchStart - snippetContext
	if start < 0 {
		start = 0
	}
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	end := matchEnd + snippetContext
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	snippet := strings.TrimSpace(strings.ReplaceAll(text[start:end], "\n", " "))
	if len(snippet) > snippetMax {
		cut := snippetMax
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		return snippet[:cut] + "..."
	}
	return snippet
}
