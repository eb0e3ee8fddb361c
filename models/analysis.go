package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// RiskLevel classifies how severe a red flag is
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Section is a detected IEP section: a bounded window of the document text.
// Offsets index into the original extracted text; windows of different
// section kinds may overlap.
type Section struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// RedFlag is one keyword hit against the red-flag rule library. One flag is
// emitted per occurrence; repeated hits are kept because evidence volume
// matters to the consumer.
type RedFlag struct {
	Type      string    `json:"type"`
	RiskLevel RiskLevel `json:"risk_level"`
	Section   string    `json:"section"`
	Evidence  string    `json:"evidence"`
	Snippet   string    `json:"snippet"`
	ID        string    `json:"id"`
	Citation  string    `json:"citation,omitempty"`
}

// EvidenceRef links an analysis finding back to quoted document text
type EvidenceRef struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
}

// SectionAnalysis is the normalized evaluator verdict for one section.
// A failed evaluation yields the degraded form: zero scores and an
// "analysis_error" flag, never a missing entry.
type SectionAnalysis struct {
	Section         string        `json:"section"`
	ComplianceScore int           `json:"compliance_score"`
	QualityScore    int           `json:"quality_score"`
	Traceability    string        `json:"traceability"`
	Flags           []string      `json:"flags"`
	Evidence        []EvidenceRef `json:"evidence"`
	Recommendation  string        `json:"recommendation"`
	Citations       []string      `json:"citations"`
}

// ActionPlan is the audience-tailored set of next steps
type ActionPlan struct {
	PriorityIssues   []string `json:"priority_issues"`
	MeetingRequests  []string `json:"meeting_requests"`
	SpecificLanguage []string `json:"specific_language"`
	FollowUpSteps    []string `json:"follow_up_steps"`
}

// DocumentInfo describes the analyzed document and run parameters
type DocumentInfo struct {
	TextLength    int       `json:"text_length"`
	SectionsFound int       `json:"sections_found"`
	AnalysisMode  string    `json:"analysis_mode"`
	Timestamp     time.Time `json:"timestamp"`
}

// OverallScores aggregates per-section scores and flag counts
type OverallScores struct {
	Compliance int       `json:"compliance"`
	Quality    int       `json:"quality"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// ReportSummary is the headline block of a comprehensive report
type ReportSummary struct {
	TotalSections           int `json:"total_sections"`
	CompliantSections       int `json:"compliant_sections"`
	HighRiskFlags           int `json:"high_risk_flags"`
	PriorityRecommendations int `json:"priority_recommendations"`
}

// ComprehensiveReport is the full output of one analysis run
type ComprehensiveReport struct {
	DocumentInfo    DocumentInfo      `json:"document_info"`
	SectionAnalyses []SectionAnalysis `json:"section_analyses"`
	RedFlags        []RedFlag         `json:"red_flags"`
	OverallScores   OverallScores     `json:"overall_scores"`
	ActionPlan      ActionPlan        `json:"action_plan"`
	Summary         ReportSummary     `json:"summary"`
}

// Value implements driver.Valuer for JSONB
func (r ComprehensiveReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *ComprehensiveReport) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, r)
}
