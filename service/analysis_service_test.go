package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iepreview-backend/models"
)

// evaluatorFunc adapts a function to the Evaluator interface
type evaluatorFunc func(ctx context.Context, system, prompt string) ([]byte, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, system, prompt string) ([]byte, error) {
	return f(ctx, system, prompt)
}

func sectionedText() string {
	pad := strings.Repeat("z", 600)
	return "PRESENT LEVELS OF ACADEMIC ACHIEVEMENT\n" + pad +
		"\nANNUAL GOALS\n" + pad
}

// routingEvaluator answers the three prompt kinds the pipeline issues
func routingEvaluator(sectionJSON, traceJSON, planJSON string) evaluatorFunc {
	return func(ctx context.Context, system, prompt string) ([]byte, error) {
		switch {
		case strings.Contains(prompt, "action plan"):
			return []byte(planJSON), nil
		case strings.Contains(prompt, "connection between Present Levels and Goals"):
			return []byte(traceJSON), nil
		default:
			return []byte(sectionJSON), nil
		}
	}
}

func TestRunEmptyText(t *testing.T) {
	s := NewAnalysisService()
	if _, err := s.Run(context.Background(), "   \n ", "parent"); !errors.Is(err, ErrNoDocumentText) {
		t.Fatalf("err = %v, want ErrNoDocumentText", err)
	}
}

func TestRunReportShape(t *testing.T) {
	eval := routingEvaluator(
		`{"compliance_score": 85, "quality_score": 70, "specific_flags": ["vague criteria"], "evidence_snippets": [{"text": "quote", "issue": "problem"}], "idea_citations": ["34 CFR 300.320(a)(2)"], "recommendation": "Tighten goals"}`,
		`{"assessment": "Goals trace to present levels"}`,
		`{"priority_issues": ["Fix goals"], "meeting_requests": ["Request data"], "specific_language": ["I request..."], "follow_up_steps": ["Follow up in writing"]}`,
	)
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	report, err := s.Run(context.Background(), sectionedText(), "parent")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.DocumentInfo.AnalysisMode != "parent" {
		t.Fatalf("mode = %s, want parent", report.DocumentInfo.AnalysisMode)
	}
	if report.DocumentInfo.SectionsFound != 2 {
		t.Fatalf("sections found = %d, want 2", report.DocumentInfo.SectionsFound)
	}
	if len(report.SectionAnalyses) != 2 {
		t.Fatalf("got %d analyses, want 2", len(report.SectionAnalyses))
	}
	if report.SectionAnalyses[0].Section != "Present Levels" || report.SectionAnalyses[1].Section != "Measurable Goals" {
		t.Fatalf("analyses out of detection order: %+v", report.SectionAnalyses)
	}
	for _, a := range report.SectionAnalyses {
		if a.ComplianceScore != 85 || a.QualityScore != 70 {
			t.Fatalf("unexpected scores: %+v", a)
		}
		if a.Traceability != "Not assessed" {
			t.Fatalf("traceability = %q, want Not assessed", a.Traceability)
		}
	}
	if report.OverallScores.Compliance != 85 || report.OverallScores.Quality != 70 {
		t.Fatalf("overall scores: %+v", report.OverallScores)
	}
	if report.OverallScores.RiskLevel != models.RiskMedium {
		t.Fatalf("risk = %s, want medium", report.OverallScores.RiskLevel)
	}
	if report.Summary.CompliantSections != 2 {
		t.Fatalf("compliant sections = %d, want 2", report.Summary.CompliantSections)
	}
	if len(report.ActionPlan.PriorityIssues) != 1 || report.ActionPlan.PriorityIssues[0] != "Fix goals" {
		t.Fatalf("action plan: %+v", report.ActionPlan)
	}
	if report.Summary.PriorityRecommendations != 1 {
		t.Fatalf("priority recommendations = %d, want 1", report.Summary.PriorityRecommendations)
	}
}

func TestRunDegradedWithoutEvaluator(t *testing.T) {
	s := NewAnalysisService()

	report, err := s.Run(context.Background(), sectionedText(), "advocate")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, a := range report.SectionAnalyses {
		if a.ComplianceScore != 0 || a.QualityScore != 0 {
			t.Fatalf("degraded analysis should score 0: %+v", a)
		}
		if len(a.Flags) != 1 || a.Flags[0] != "analysis_error" {
			t.Fatalf("degraded flags: %+v", a.Flags)
		}
		if a.Recommendation != "Manual review required" {
			t.Fatalf("degraded recommendation: %q", a.Recommendation)
		}
	}
	// no positive scores: overall means stay at zero
	if report.OverallScores.Compliance != 0 || report.OverallScores.Quality != 0 {
		t.Fatalf("overall scores: %+v", report.OverallScores)
	}
	if report.ActionPlan.PriorityIssues[0] != "Manual review required" {
		t.Fatalf("fallback plan: %+v", report.ActionPlan)
	}
	if report.ActionPlan.SpecificLanguage == nil {
		t.Fatalf("fallback plan must carry every field: %+v", report.ActionPlan)
	}
}

func TestRunDegradedOnEvaluatorError(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, system, prompt string) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	report, err := s.Run(context.Background(), sectionedText(), "parent")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, a := range report.SectionAnalyses {
		if len(a.Flags) != 1 || a.Flags[0] != "analysis_error" {
			t.Fatalf("expected analysis_error flag: %+v", a)
		}
	}
	if report.ActionPlan.MeetingRequests[0] != "Discuss compliance concerns" {
		t.Fatalf("fallback plan: %+v", report.ActionPlan)
	}
}

func TestRunDegradedOnMalformedJSON(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, system, prompt string) ([]byte, error) {
		return []byte("not json"), nil
	})
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	report, err := s.Run(context.Background(), sectionedText(), "parent")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, a := range report.SectionAnalyses {
		if a.Recommendation != "Manual review required" {
			t.Fatalf("expected degraded analysis: %+v", a)
		}
	}
}

func TestRunHighRiskEscalation(t *testing.T) {
	eval := routingEvaluator(
		`{"compliance_score": 90, "quality_score": 90}`,
		`{"assessment": "ok"}`,
		`{"priority_issues": [], "meeting_requests": [], "specific_language": [], "follow_up_steps": []}`,
	)
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	// "improve" is a high-risk keyword; four occurrences push overall risk
	// over the >3 threshold
	text := sectionedText() + " improve improve improve improve"

	report, err := s.Run(context.Background(), text, "parent")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Summary.HighRiskFlags < 4 {
		t.Fatalf("high risk flags = %d, want >= 4", report.Summary.HighRiskFlags)
	}
	if report.OverallScores.RiskLevel != models.RiskHigh {
		t.Fatalf("risk = %s, want high", report.OverallScores.RiskLevel)
	}
}

func TestNormalizeAudience(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"parent", "parent"},
		{"advocate", "advocate"},
		{"", "advocate"},
		{"PARENT", "advocate"},
		{"lawyer", "advocate"},
	}
	for _, tt := range tests {
		if got := normalizeAudience(tt.in); got != tt.want {
			t.Fatalf("normalizeAudience(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMeanOverPositive(t *testing.T) {
	analyses := []models.SectionAnalysis{
		{ComplianceScore: 80},
		{ComplianceScore: 0}, // degraded, excluded
		{ComplianceScore: 65},
	}
	got := meanOverPositive(analyses, func(a models.SectionAnalysis) int { return a.ComplianceScore })
	if got != 72 { // (80+65)/2 truncated
		t.Fatalf("mean = %d, want 72", got)
	}

	if meanOverPositive(nil, func(a models.SectionAnalysis) int { return 0 }) != 0 {
		t.Fatalf("empty mean should be 0")
	}
}

func TestAnalyzeSectionDefaults(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, system, prompt string) ([]byte, error) {
		return []byte(`{"compliance_score": 50, "quality_score": 40}`), nil
	})
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	a := s.analyzeSection(context.Background(), models.Section{Name: "Measurable Goals", Content: "goals"})
	if a.Flags == nil || a.Citations == nil || a.Evidence == nil {
		t.Fatalf("absent fields should default to empty slices: %+v", a)
	}
	if len(a.Flags) != 0 || len(a.Citations) != 0 {
		t.Fatalf("expected empty defaults: %+v", a)
	}
}

func TestCheckTraceabilityMissingSections(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, system, prompt string) ([]byte, error) {
		t.Fatal("evaluator must not be called without both sections")
		return nil, nil
	})
	s := NewAnalysisService(AnalysisWithEvaluator(eval))

	got := s.checkTraceability(context.Background(), []models.Section{{Name: "Measurable Goals"}})
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestCheckTraceabilityFailure(t *testing.T) {
	sections := []models.Section{
		{Name: "Present Levels", Content: "levels"},
		{Name: "Measurable Goals", Content: "goals"},
	}

	s := NewAnalysisService(AnalysisWithEvaluator(evaluatorFunc(
		func(ctx context.Context, system, prompt string) ([]byte, error) {
			return nil, errors.New("timeout")
		})))
	got := s.checkTraceability(context.Background(), sections)
	if got["Present_Levels_to_Goals"] != "Analysis failed" {
		t.Fatalf("got %v, want Analysis failed", got)
	}

	s = NewAnalysisService(AnalysisWithEvaluator(evaluatorFunc(
		func(ctx context.Context, system, prompt string) ([]byte, error) {
			return []byte(`{"unexpected": true}`), nil
		})))
	got = s.checkTraceability(context.Background(), sections)
	if got["Present_Levels_to_Goals"] != "Unable to assess" {
		t.Fatalf("got %v, want Unable to assess", got)
	}
}
