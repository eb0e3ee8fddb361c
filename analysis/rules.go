// Package analysis implements the deterministic IEP document engine:
// section detection over extracted text, red-flag keyword scanning against
// a rule library, and evidence snippet extraction.
package analysis

import "iepreview-backend/models"

// Rule describes one red-flag pattern: what it means, how risky it is,
// the regulation it anchors to, and the keywords that trigger it.
type Rule struct {
	ID          string
	Description string
	RiskLevel   models.RiskLevel
	Citation    string
	Keywords    []string
}

// RuleLibrary is an ordered, immutable set of red-flag rules. Build it once
// at startup and pass it into the scanner; iteration order is declaration
// order, which keeps flag ids stable across runs.
type RuleLibrary struct {
	rules []Rule
}

// NewRuleLibrary copies rules into a library, preserving order
func NewRuleLibrary(rules []Rule) *RuleLibrary {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return &RuleLibrary{rules: out}
}

// Rules returns the rules in declaration order. Callers must not mutate
// the returned slice.
func (l *RuleLibrary) Rules() []Rule {
	return l.rules
}

// Len returns the number of rules in the library
func (l *RuleLibrary) Len() int {
	return len(l.rules)
}

// DefaultRules returns the production red-flag library with IDEA citations
func DefaultRules() *RuleLibrary {
	return NewRuleLibrary([]Rule{
		{
			ID:          "vague_goals",
			Description: "Goals lack specific, measurable criteria",
			RiskLevel:   models.RiskHigh,
			Citation:    "34 CFR 300.320(a)(2)",
			Keywords:    []string{"improve", "increase", "develop", "will work on"},
		},
		{
			ID:          "missing_baselines",
			Description: "Present levels lack baseline data for goals",
			RiskLevel:   models.RiskHigh,
			Citation:    "34 CFR 300.320(a)(1)",
			Keywords:    []string{"no baseline", "current level unknown"},
		},
		{
			ID:          "generic_accommodations",
			Description: "Accommodations are generic, not individualized",
			RiskLevel:   models.RiskMedium,
			Citation:    "34 CFR 300.320(a)(4)",
			Keywords:    []string{"extended time", "preferential seating", "extra time"},
		},
		{
			ID:          "missing_frequencies",
			Description: "Services lack specific frequency and duration",
			RiskLevel:   models.RiskHigh,
			Citation:    "34 CFR 300.320(a)(7)",
			Keywords:    []string{"as needed", "weekly", "monthly", "regularly"},
		},
		{
			ID:          "lre_violation",
			Description: "Placement not justified or lacks LRE consideration",
			RiskLevel:   models.RiskHigh,
			Citation:    "34 CFR 300.114",
			Keywords:    []string{"separate class", "resource room", "special school"},
		},
		{
			ID:          "no_progress_monitoring",
			Description: "Insufficient progress monitoring plan",
			RiskLevel:   models.RiskMedium,
			Citation:    "34 CFR 300.320(a)(3)",
			Keywords:    []string{"progress", "monitoring", "data collection"},
		},
		{
			ID:          "parent_exclusion",
			Description: "Limited evidence of parent participation",
			RiskLevel:   models.RiskMedium,
			Citation:    "34 CFR 300.322",
			Keywords:    []string{"parent input", "family concerns", "parent participation"},
		},
	})
}
