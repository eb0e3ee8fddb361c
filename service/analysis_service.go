package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"iepreview-backend/analysis"
	"iepreview-backend/models"
	"iepreview-backend/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoDocumentText   = errors.New("document has no extracted text")
	ErrReportNotFound   = errors.New("analysis report not found")
)

const (
	// AudienceParent selects plain-language coaching output; anything else
	// gets the formal advocate tone.
	AudienceParent   = "parent"
	AudienceAdvocate = "advocate"

	// lowComplianceThreshold marks sections that feed the action plan.
	lowComplianceThreshold = 70
	// compliantThreshold marks sections counted as compliant in the summary.
	compliantThreshold = 80
	// highRiskFlagLimit caps how many high-risk flags are quoted to the
	// evaluator when building the action plan.
	highRiskFlagLimit = 5
	// traceabilityContentCap bounds each section's content in the
	// traceability prompt.
	traceabilityContentCap = 2000
	// sectionAnalysisConcurrency bounds parallel evaluator calls per run.
	sectionAnalysisConcurrency = 4
)

// AnalysisService runs comprehensive IEP analyses: section detection,
// per-section compliance evaluation, traceability, red-flag scanning, and
// action-plan generation
type AnalysisService struct {
	docRepo    *repository.DocumentRepository
	reportRepo *repository.ReportRepository
	evaluator  Evaluator
	rules      *analysis.RuleLibrary
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithDocumentRepository sets the document repository
func AnalysisWithDocumentRepository(repo *repository.DocumentRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.docRepo = repo
	}
}

// AnalysisWithReportRepository sets the report repository
func AnalysisWithReportRepository(repo *repository.ReportRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.reportRepo = repo
	}
}

// AnalysisWithEvaluator sets the external evaluator
func AnalysisWithEvaluator(e Evaluator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.evaluator = e
	}
}

// AnalysisWithRuleLibrary sets the red-flag rule library
func AnalysisWithRuleLibrary(lib *analysis.RuleLibrary) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.rules = lib
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = analysis.DefaultRules()
	}
	return s
}

// AnalyzeDocumentRequest represents a request to analyze a stored document
type AnalyzeDocumentRequest struct {
	DocumentID uuid.UUID
	Audience   string
}

// AnalyzeDocumentResult represents the result of an analysis run
type AnalyzeDocumentResult struct {
	Report *models.AnalysisReport
}

// AnalyzeDocument loads a stored document, runs the comprehensive analysis
// on its extracted text, and persists the report. Missing documents and
// missing text are fatal input errors; evaluator failures are not, they
// degrade individual report dimensions instead.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) (*AnalyzeDocumentResult, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if doc.ExtractedText == nil || strings.TrimSpace(*doc.ExtractedText) == "" {
		return nil, ErrNoDocumentText
	}

	report, err := s.Run(ctx, *doc.ExtractedText, req.Audience)
	if err != nil {
		return nil, err
	}

	stored := &models.AnalysisReport{
		DocumentID: req.DocumentID,
		Audience:   report.DocumentInfo.AnalysisMode,
		Report:     *report,
	}
	if err := s.reportRepo.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store analysis report: %w", err)
	}

	return &AnalyzeDocumentResult{Report: stored}, nil
}

// Run executes the full analysis pipeline over raw document text.
// Section analyses run concurrently but the report lists them in detection
// order regardless of completion order.
func (s *AnalysisService) Run(ctx context.Context, text, audience string) (*models.ComprehensiveReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoDocumentText
	}
	mode := normalizeAudience(audience)

	sections := analysis.DetectSections(text)

	analyses := make([]models.SectionAnalysis, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sectionAnalysisConcurrency)
	for i, section := range sections {
		g.Go(func() error {
			analyses[i] = s.analyzeSection(gctx, section)
			return nil
		})
	}
	// analyzeSection contains its own failures, so the only error surface
	// here is context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	traceability := s.checkTraceability(ctx, sections)
	for i := range analyses {
		key := analyses[i].Section + "_traceability"
		if assessment, ok := traceability[key]; ok {
			analyses[i].Traceability = assessment
		} else {
			analyses[i].Traceability = "Not assessed"
		}
	}

	flags := analysis.ScanRedFlags(text, sections, s.rules)

	plan := s.generateActionPlan(ctx, analyses, flags, mode)

	highRisk := 0
	for _, f := range flags {
		if f.RiskLevel == models.RiskHigh {
			highRisk++
		}
	}
	overallRisk := models.RiskMedium
	if highRisk > 3 {
		overallRisk = models.RiskHigh
	}

	compliant := 0
	for _, a := range analyses {
		if a.ComplianceScore >= compliantThreshold {
			compliant++
		}
	}

	report := &models.ComprehensiveReport{
		DocumentInfo: models.DocumentInfo{
			TextLength:    len(text),
			SectionsFound: len(sections),
			AnalysisMode:  mode,
			Timestamp:     time.Now().UTC(),
		},
		SectionAnalyses: analyses,
		RedFlags:        flags,
		OverallScores: models.OverallScores{
			Compliance: meanOverPositive(analyses, func(a models.SectionAnalysis) int { return a.ComplianceScore }),
			Quality:    meanOverPositive(analyses, func(a models.SectionAnalysis) int { return a.QualityScore }),
			RiskLevel:  overallRisk,
		},
		ActionPlan: plan,
		Summary: models.ReportSummary{
			TotalSections:           len(sections),
			CompliantSections:       compliant,
			HighRiskFlags:           highRisk,
			PriorityRecommendations: len(plan.PriorityIssues),
		},
	}

	return report, nil
}

// GetReport retrieves a stored analysis report by id
func (s *AnalysisService) GetReport(ctx context.Context, id uuid.UUID) (*models.AnalysisReport, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// GetLatestReport retrieves the most recent stored report for a document
func (s *AnalysisService) GetLatestReport(ctx context.Context, documentID uuid.UUID) (*models.AnalysisReport, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}
	report, err := s.reportRepo.GetLatestByDocumentID(ctx, documentID)
	if err != nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// normalizeAudience maps the audience flag onto a known mode. Unrecognized
// values currently fall back to the advocate tone rather than erroring.
func normalizeAudience(audience string) string {
	if audience == AudienceParent {
		return AudienceParent
	}
	return AudienceAdvocate
}

// meanOverPositive is the integer-truncated mean over entries with a
// positive score, 0 when none qualify
func meanOverPositive(analyses []models.SectionAnalysis, score func(models.SectionAnalysis) int) int {
	sum, n := 0, 0
	for _, a := range analyses {
		if v := score(a); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// sectionRubrics holds section-kind-specific evaluation criteria. Kinds
// without an entry use genericRubric.
var sectionRubrics = map[string]string{
	"Present Levels": `Analyze this Present Levels section for IDEA compliance. Check for:
- Baseline academic performance data
- Functional performance description
- Impact of disability on general curriculum
- Specific, measurable current levels
Rate compliance 0-100 and identify deficits.`,

	"Measurable Goals": `Analyze these IEP goals for legal compliance. Check each goal for:
- Specific, measurable criteria (SMART format)
- Baseline data connection to present levels
- Realistic but challenging targets
- Clear mastery criteria and timeframes
Rate compliance 0-100 and flag non-compliant goals.`,

	"Special Education Services": `Analyze special education services for compliance. Check for:
- Specific frequency (times per week/month)
- Duration (minutes per session)
- Location specification
- Service provider qualifications
- Connection to identified needs
Rate compliance 0-100 and flag missing elements.`,

	"Accommodations": `Analyze accommodations for individualization. Check for:
- Specific to student's disability/needs
- Implementation details provided
- Not generic or boilerplate language
- Testing and instructional accommodations
Rate compliance 0-100 and identify generic items.`,

	"LRE/Placement": `Analyze LRE/placement decision for compliance. Check for:
- Justification for restrictive placement
- Consideration of inclusion options
- Documentation of supplementary aids tried
- Regular education participation maximized
Rate compliance 0-100 and flag LRE violations.`,
}

const genericRubric = "Analyze this IEP section for compliance with IDEA requirements."

const analystSystemInstruction = "You are an expert special education attorney analyzing IEP compliance. Return only valid JSON."

// sectionEvalResult is the JSON shape requested from the evaluator for one
// section. Every field is defaulted on absence; the evaluator reply is
// never trusted to be complete.
type sectionEvalResult struct {
	ComplianceScore  int      `json:"compliance_score"`
	QualityScore     int      `json:"quality_score"`
	SpecificFlags    []string `json:"specific_flags"`
	EvidenceSnippets []struct {
		Text  string `json:"text"`
		Issue string `json:"issue"`
	} `json:"evidence_snippets"`
	IdeaCitations  []string `json:"idea_citations"`
	Recommendation string   `json:"recommendation"`
}

// analyzeSection evaluates one section against its rubric. Any evaluator
// failure yields the degraded result instead of an error so one weak
// section can never abort the report.
func (s *AnalysisService) analyzeSection(ctx context.Context, section models.Section) models.SectionAnalysis {
	if s.evaluator == nil {
		return degradedSectionAnalysis(section.Name)
	}

	rubric, ok := sectionRubrics[section.Name]
	if !ok {
		rubric = genericRubric
	}

	prompt := fmt.Sprintf(`%s

IEP Section Content:
%s

Return ONLY valid JSON:
{
  "compliance_score": 85,
  "quality_score": 70,
  "specific_flags": ["missing frequency", "vague criteria"],
  "evidence_snippets": [
    {"text": "exact quote from document", "issue": "specific problem"}
  ],
  "idea_citations": ["34 CFR 300.320(a)(2)"],
  "recommendation": "Specific actionable improvement"
}`, rubric, section.Content)

	raw, err := s.evaluator.Evaluate(ctx, analystSystemInstruction, prompt)
	if err != nil {
		log.Printf("Warning: Analysis failed for %s: %v", section.Name, err)
		return degradedSectionAnalysis(section.Name)
	}

	var result sectionEvalResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("Warning: Malformed analysis result for %s: %v", section.Name, err)
		return degradedSectionAnalysis(section.Name)
	}

	evidence := make([]models.EvidenceRef, 0, len(result.EvidenceSnippets))
	for _, snippet := range result.EvidenceSnippets {
		evidence = append(evidence, models.EvidenceRef{
			ID:      "section_" + strings.ToLower(section.Name),
			Snippet: snippet.Text,
		})
	}

	flags := result.SpecificFlags
	if flags == nil {
		flags = []string{}
	}
	citations := result.IdeaCitations
	if citations == nil {
		citations = []string{}
	}

	return models.SectionAnalysis{
		Section:         section.Name,
		ComplianceScore: result.ComplianceScore,
		QualityScore:    result.QualityScore,
		Flags:           flags,
		Evidence:        evidence,
		Recommendation:  result.Recommendation,
		Citations:       citations,
	}
}

// degradedSectionAnalysis is the fixed fallback for a failed evaluation
func degradedSectionAnalysis(sectionName string) models.SectionAnalysis {
	return models.SectionAnalysis{
		Section:         sectionName,
		ComplianceScore: 0,
		QualityScore:    0,
		Flags:           []string{"analysis_error"},
		Evidence:        []models.EvidenceRef{},
		Recommendation:  "Manual review required",
		Citations:       []string{},
	}
}

// checkTraceability cross-references the present-levels and goals sections.
// Returns an empty map when either section is missing; "Analysis failed"
// when the evaluator errors. Never raises.
func (s *AnalysisService) checkTraceability(ctx context.Context, sections []models.Section) map[string]string {
	result := make(map[string]string)

	var presentLevels, goals *models.Section
	for i := range sections {
		if presentLevels == nil && strings.Contains(sections[i].Name, "Present") {
			presentLevels = &sections[i]
		}
		if goals == nil && strings.Contains(sections[i].Name, "Goal") {
			goals = &sections[i]
		}
	}
	if presentLevels == nil || goals == nil {
		return result
	}
	if s.evaluator == nil {
		result["Present_Levels_to_Goals"] = "Analysis failed"
		return result
	}

	prompt := fmt.Sprintf(`Analyze the connection between Present Levels and Goals:

Present Levels:
%s

Goals:
%s

Check if:
1. Each deficit in Present Levels has a corresponding goal
2. Each goal addresses a deficit mentioned in Present Levels
3. Goals are logically connected to identified needs

Return JSON: {"assessment": "traceability assessment"}`,
		capContent(presentLevels.Content, traceabilityContentCap),
		capContent(goals.Content, traceabilityContentCap))

	raw, err := s.evaluator.Evaluate(ctx, analystSystemInstruction, prompt)
	if err != nil {
		log.Printf("Warning: Traceability check failed: %v", err)
		result["Present_Levels_to_Goals"] = "Analysis failed"
		return result
	}

	var parsed struct {
		Assessment string `json:"assessment"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Assessment == "" {
		result["Present_Levels_to_Goals"] = "Unable to assess"
		return result
	}

	result["Present_Levels_to_Goals"] = parsed.Assessment
	return result
}

func capContent(content string, limit int) string {
	if len(content) > limit {
		return content[:limit]
	}
	return content
}

// actionPlanResult is the JSON shape requested for the action plan
type actionPlanResult struct {
	PriorityIssues   []string `json:"priority_issues"`
	MeetingRequests  []string `json:"meeting_requests"`
	SpecificLanguage []string `json:"specific_language"`
	FollowUpSteps    []string `json:"follow_up_steps"`
}

// generateActionPlan aggregates high-risk flags and low-scoring sections
// into an audience-tailored plan; evaluator failure yields the fixed
// generic plan
func (s *AnalysisService) generateActionPlan(ctx context.Context, analyses []models.SectionAnalysis, flags []models.RedFlag, mode string) models.ActionPlan {
	if s.evaluator == nil {
		return fallbackActionPlan()
	}

	var highRisk []string
	for _, f := range flags {
		if f.RiskLevel == models.RiskHigh {
			highRisk = append(highRisk, f.Type+": "+f.Evidence)
			if len(highRisk) == highRiskFlagLimit {
				break
			}
		}
	}

	var lowCompliance []string
	for _, a := range analyses {
		if a.ComplianceScore < lowComplianceThreshold {
			lowCompliance = append(lowCompliance, fmt.Sprintf("%s (score: %d)", a.Section, a.ComplianceScore))
		}
	}

	tone := "formal legal audit format with precise citations"
	audience := "professional advocates and attorneys"
	if mode == AudienceParent {
		tone = "coaching, plain English explanations"
		audience = "parents who need to understand what to ask for"
	}

	prompt := fmt.Sprintf(`Create an action plan in %s for %s.

High Priority Issues:
%s

Low Compliance Sections:
%s

Generate:
1. Top 3-5 priority fixes
2. What to request at next IEP meeting
3. Specific language to use
4. Follow-up steps

Return JSON: {"priority_issues": [], "meeting_requests": [], "specific_language": [], "follow_up_steps": []}`,
		tone, audience,
		strings.Join(highRisk, "\n"),
		strings.Join(lowCompliance, "\n"))

	system := fmt.Sprintf("You are creating an IEP action plan for %s in %s.", audience, tone)

	raw, err := s.evaluator.Evaluate(ctx, system, prompt)
	if err != nil {
		log.Printf("Warning: Action plan generation failed: %v", err)
		return fallbackActionPlan()
	}

	var result actionPlanResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("Warning: Malformed action plan result: %v", err)
		return fallbackActionPlan()
	}

	plan := models.ActionPlan{
		PriorityIssues:   result.PriorityIssues,
		MeetingRequests:  result.MeetingRequests,
		SpecificLanguage: result.SpecificLanguage,
		FollowUpSteps:    result.FollowUpSteps,
	}
	if plan.PriorityIssues == nil {
		plan.PriorityIssues = []string{}
	}
	if plan.MeetingRequests == nil {
		plan.MeetingRequests = []string{}
	}
	if plan.SpecificLanguage == nil {
		plan.SpecificLanguage = []string{}
	}
	if plan.FollowUpSteps == nil {
		plan.FollowUpSteps = []string{}
	}
	return plan
}

// fallbackActionPlan is the fixed generic plan used when generation fails
func fallbackActionPlan() models.ActionPlan {
	return models.ActionPlan{
		PriorityIssues:   []string{"Manual review required"},
		MeetingRequests:  []string{"Discuss compliance concerns"},
		SpecificLanguage: []string{},
		FollowUpSteps:    []string{"Consult with advocate"},
	}
}
