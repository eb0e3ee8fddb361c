package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"iepreview-backend/models"
	"iepreview-backend/repository"

	"github.com/google/uuid"
)

// Matching weights, summing to 1.0. Grade/area fit is currently an
// unconditional 1.0 pending per-grade capability data.
const (
	weightTagOverlap    = 0.45
	weightGradeAreaFit  = 0.15
	weightCapacity      = 0.15
	weightLanguageMatch = 0.10
	weightPriceFit      = 0.10
	weightTimezone      = 0.05
)

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrAdvocateNotFound  = errors.New("advocate not found")
	ErrProposalNotFound  = errors.New("match proposal not found")
	ErrInvalidTransition = errors.New("proposal does not allow this transition")
	ErrNotAuthorized     = errors.New("actor not authorized for this action")
)

// ProposalStore is the persistence surface the proposal lifecycle runs
// against. *repository.ProposalRepository is the production implementation.
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.MatchProposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) error
	List(ctx context.Context) ([]*models.MatchProposal, error)
	CountByAdvocateAndStatus(ctx context.Context, advocateID uuid.UUID, statuses ...models.ProposalStatus) (int, error)
	CreateEvent(ctx context.Context, event *models.MatchEvent) error
	ListEvents(ctx context.Context, proposalID uuid.UUID) ([]*models.MatchEvent, error)
}

// MatchService scores student/advocate compatibility and drives the
// proposal lifecycle
type MatchService struct {
	studentRepo      *repository.StudentRepository
	advocateRepo     *repository.AdvocateRepository
	proposalRepo     ProposalStore
	notificationRepo *repository.NotificationRepository
}

// MatchServiceOption is a functional option for MatchService
type MatchServiceOption func(*MatchService)

// MatchWithStudentRepository sets the student repository
func MatchWithStudentRepository(repo *repository.StudentRepository) MatchServiceOption {
	return func(s *MatchService) {
		s.studentRepo = repo
	}
}

// MatchWithAdvocateRepository sets the advocate repository
func MatchWithAdvocateRepository(repo *repository.AdvocateRepository) MatchServiceOption {
	return func(s *MatchService) {
		s.advocateRepo = repo
	}
}

// MatchWithProposalRepository sets the proposal store
func MatchWithProposalRepository(repo ProposalStore) MatchServiceOption {
	return func(s *MatchService) {
		s.proposalRepo = repo
	}
}

// MatchWithNotificationRepository sets the notification repository
func MatchWithNotificationRepository(repo *repository.NotificationRepository) MatchServiceOption {
	return func(s *MatchService) {
		s.notificationRepo = repo
	}
}

// NewMatchService creates a new match service
func NewMatchService(opts ...MatchServiceOption) *MatchService {
	s := &MatchService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreBreakdown holds the weighted value of each scoring component
type ScoreBreakdown struct {
	TagOverlap            float64 `json:"tag_overlap"`
	LanguageMatch         float64 `json:"language_match"`
	GradeAreaFit          float64 `json:"grade_area_fit"`
	CapacityAvailable     float64 `json:"capacity_available"`
	PriceFit              float64 `json:"price_fit"`
	TimezoneCompatibility float64 `json:"timezone_compatibility"`
}

// jaccard is |A∩B| / |A∪B| over the unique elements of each slice,
// 0.0 when either is empty
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// ScoreMatch computes the 0-100 compatibility score between a student and
// an advocate given the advocate's current active caseload. Pure: the
// caseload is passed in so callers control how fresh the count is.
func ScoreMatch(student *models.Student, advocate *models.AdvocateProfile, currentCaseload int) (float64, ScoreBreakdown) {
	breakdown := ScoreBreakdown{
		TagOverlap:    jaccard(student.Needs, advocate.Tags) * weightTagOverlap,
		LanguageMatch: jaccard(student.Languages, advocate.Languages) * weightLanguageMatch,
		GradeAreaFit:  1.0 * weightGradeAreaFit,
	}

	capacityRatio := 0.0
	if advocate.MaxCaseload > 0 {
		capacityRatio = float64(advocate.MaxCaseload-currentCaseload) / float64(advocate.MaxCaseload)
		if capacityRatio < 0 {
			capacityRatio = 0
		}
	}
	breakdown.CapacityAvailable = capacityRatio * weightCapacity

	priceScore := 1.0
	if student.Budget != nil && advocate.HourlyRate != nil {
		switch {
		case *advocate.HourlyRate <= *student.Budget:
			priceScore = 1.0
		case *advocate.HourlyRate <= *student.Budget*1.2:
			priceScore = 0.7
		default:
			priceScore = 0.3
		}
	}
	breakdown.PriceFit = priceScore * weightPriceFit

	timezoneScore := 0.5
	if student.Timezone == advocate.Timezone {
		timezoneScore = 1.0
	}
	breakdown.TimezoneCompatibility = timezoneScore * weightTimezone

	total := (breakdown.TagOverlap + breakdown.LanguageMatch + breakdown.GradeAreaFit +
		breakdown.CapacityAvailable + breakdown.PriceFit + breakdown.TimezoneCompatibility) * 100

	return math.Min(100, math.Max(0, total)), breakdown
}

// CurrentCaseload counts the advocate's proposals in accepted or scheduled
// status. The count is a live read and may be momentarily stale under
// concurrent proposal creation; scores are advisory so that is accepted.
func (s *MatchService) CurrentCaseload(ctx context.Context, advocateID uuid.UUID) (int, error) {
	if s.proposalRepo == nil {
		return 0, errors.New("proposal repository not set")
	}
	return s.proposalRepo.CountByAdvocateAndStatus(ctx, advocateID,
		models.ProposalAccepted, models.ProposalScheduled)
}

// ProposeMatchesRequest represents a request to propose one student to a
// set of advocates
type ProposeMatchesRequest struct {
	StudentID   uuid.UUID
	AdvocateIDs []uuid.UUID
	CreatedBy   uuid.UUID
	Reason      models.ProposalReason
}

// ProposeMatchesResult represents the created proposals
type ProposeMatchesResult struct {
	Proposals []*models.MatchProposal
}

// ProposeMatches scores and creates a proposal per advocate. Unknown
// advocates are skipped; an unknown student is a fatal input error.
func (s *MatchService) ProposeMatches(ctx context.Context, req ProposeMatchesRequest) (*ProposeMatchesResult, error) {
	if s.studentRepo == nil || s.advocateRepo == nil || s.proposalRepo == nil {
		return nil, errors.New("match repositories not set")
	}

	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, ErrStudentNotFound
	}

	proposals := make([]*models.MatchProposal, 0, len(req.AdvocateIDs))
	for _, advocateID := range req.AdvocateIDs {
		advocate, err := s.advocateRepo.GetByID(ctx, advocateID)
		if err != nil {
			log.Printf("Warning: Skipping unknown advocate %s", advocateID)
			continue
		}

		caseload, err := s.CurrentCaseload(ctx, advocateID)
		if err != nil {
			log.Printf("Warning: Failed to read caseload for %s: %v", advocateID, err)
			caseload = 0
		}

		score, breakdown := ScoreMatch(student, advocate, caseload)

		reason := make(models.ProposalReason, len(req.Reason)+1)
		for k, v := range req.Reason {
			reason[k] = v
		}
		reason["score_breakdown"] = breakdown

		proposal := &models.MatchProposal{
			StudentID:  req.StudentID,
			AdvocateID: advocateID,
			Score:      math.Round(score*100) / 100,
			Status:     models.ProposalProposed,
			Reason:     reason,
			CreatedBy:  req.CreatedBy,
		}
		if err := s.proposalRepo.Create(ctx, proposal); err != nil {
			log.Printf("Warning: Failed to create proposal for advocate %s: %v", advocateID, err)
			continue
		}

		s.recordEvent(ctx, proposal.ID, "proposal_created", req.CreatedBy,
			models.ProposalReason{"score": proposal.Score})
		s.notify(ctx, advocateID, "New Matching Opportunity",
			fmt.Sprintf("You have a new student match proposal for %s (Grade %s)", student.Name, student.Grade),
			proposal.ID)

		proposals = append(proposals, proposal)
	}

	return &ProposeMatchesResult{Proposals: proposals}, nil
}

// RequestIntroRequest represents an intro-call request on a proposal
type RequestIntroRequest struct {
	ProposalID uuid.UUID
	ActorID    uuid.UUID
	When       *time.Time
	Channel    string
	Link       string
}

// RequestIntroResult carries the proposal's new status
type RequestIntroResult struct {
	Status models.ProposalStatus
}

// RequestIntro moves a proposal to intro_requested, or straight to
// scheduled when a time is given. Only allowed from proposed or
// intro_requested.
func (s *MatchService) RequestIntro(ctx context.Context, req RequestIntroRequest) (*RequestIntroResult, error) {
	if s.proposalRepo == nil {
		return nil, errors.New("proposal repository not set")
	}

	proposal, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, ErrProposalNotFound
	}

	if proposal.Status != models.ProposalProposed && proposal.Status != models.ProposalIntroRequested {
		return nil, fmt.Errorf("%w: cannot request intro from %q", ErrInvalidTransition, proposal.Status)
	}

	newStatus := models.ProposalIntroRequested
	eventType := "intro_requested"
	if req.When != nil {
		newStatus = models.ProposalScheduled
		eventType = "intro_scheduled"
	}

	if err := s.proposalRepo.UpdateStatus(ctx, req.ProposalID, newStatus); err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}

	details := models.ProposalReason{"channel": req.Channel, "link": req.Link}
	if req.When != nil {
		details["when_ts"] = req.When.Format(time.RFC3339)
	}
	s.recordEvent(ctx, req.ProposalID, eventType, req.ActorID, details)

	title := "Intro Call Requested"
	message := "An intro call has been requested for this match"
	if req.When != nil {
		title = "Intro Call Scheduled"
		message = fmt.Sprintf("An intro call has been scheduled for %s", req.When.Format("2006-01-02"))
	}
	s.notifyCounterparty(ctx, proposal, req.ActorID, title, message)

	return &RequestIntroResult{Status: newStatus}, nil
}

// ResolveProposalRequest represents an accept or decline action
type ResolveProposalRequest struct {
	ProposalID uuid.UUID
	ActorID    uuid.UUID
}

// ResolveProposalResult carries the proposal's new status
type ResolveProposalResult struct {
	Status models.ProposalStatus
}

// AcceptProposal marks a proposal accepted. Only the addressed advocate may
// accept, and never from a terminal state.
func (s *MatchService) AcceptProposal(ctx context.Context, req ResolveProposalRequest) (*ResolveProposalResult, error) {
	return s.resolve(ctx, req, models.ProposalAccepted, "proposal_accepted",
		"Match Proposal Accepted!", "Your advocate match proposal for %s has been accepted!")
}

// DeclineProposal marks a proposal declined. Only the addressed advocate
// may decline, and never from a terminal state.
func (s *MatchService) DeclineProposal(ctx context.Context, req ResolveProposalRequest) (*ResolveProposalResult, error) {
	return s.resolve(ctx, req, models.ProposalDeclined, "proposal_declined",
		"Match Proposal Declined", "Your advocate match proposal for %s was declined")
}

func (s *MatchService) resolve(ctx context.Context, req ResolveProposalRequest, status models.ProposalStatus, eventType, title, messageFormat string) (*ResolveProposalResult, error) {
	if s.proposalRepo == nil {
		return nil, errors.New("proposal repository not set")
	}

	proposal, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, ErrProposalNotFound
	}

	if req.ActorID != proposal.AdvocateID {
		return nil, fmt.Errorf("%w: only the addressed advocate may resolve a proposal", ErrNotAuthorized)
	}
	if proposal.Status.Terminal() {
		return nil, fmt.Errorf("%w: proposal already %q", ErrInvalidTransition, proposal.Status)
	}

	if err := s.proposalRepo.UpdateStatus(ctx, req.ProposalID, status); err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}

	s.recordEvent(ctx, req.ProposalID, eventType, req.ActorID, nil)

	studentName := "your student"
	parentID := uuid.Nil
	if s.studentRepo != nil {
		if student, err := s.studentRepo.GetByID(ctx, proposal.StudentID); err == nil {
			studentName = student.Name
			parentID = student.ParentID
		}
	}
	if parentID != uuid.Nil {
		s.notify(ctx, parentID, title, fmt.Sprintf(messageFormat, studentName), proposal.ID)
	}

	return &ResolveProposalResult{Status: status}, nil
}

// ListProposals lists all proposals, newest first
func (s *MatchService) ListProposals(ctx context.Context) ([]*models.MatchProposal, error) {
	if s.proposalRepo == nil {
		return nil, errors.New("proposal repository not set")
	}
	return s.proposalRepo.List(ctx)
}

// ListEvents lists a proposal's event history in chronological order
func (s *MatchService) ListEvents(ctx context.Context, proposalID uuid.UUID) ([]*models.MatchEvent, error) {
	if s.proposalRepo == nil {
		return nil, errors.New("proposal repository not set")
	}
	return s.proposalRepo.ListEvents(ctx, proposalID)
}

// recordEvent appends an immutable transition record. Event write failures
// are logged, not escalated: the transition itself already committed.
func (s *MatchService) recordEvent(ctx context.Context, proposalID uuid.UUID, eventType string, actorID uuid.UUID, details models.ProposalReason) {
	event := &models.MatchEvent{
		ProposalID: proposalID,
		EventType:  eventType,
		ActorID:    actorID,
		Details:    details,
	}
	if err := s.proposalRepo.CreateEvent(ctx, event); err != nil {
		log.Printf("Warning: Failed to record %s event for proposal %s: %v", eventType, proposalID, err)
	}
}

func (s *MatchService) notify(ctx context.Context, userID uuid.UUID, title, message string, proposalID uuid.UUID) {
	if s.notificationRepo == nil {
		return
	}
	notification := &models.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		ProposalID: &proposalID,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Warning: Failed to create notification for user %s: %v", userID, err)
	}
}

// notifyCounterparty sends a notification to whichever side of the
// proposal did not act
func (s *MatchService) notifyCounterparty(ctx context.Context, proposal *models.MatchProposal, actorID uuid.UUID, title, message string) {
	target := proposal.AdvocateID
	if actorID == proposal.AdvocateID && s.studentRepo != nil {
		student, err := s.studentRepo.GetByID(ctx, proposal.StudentID)
		if err != nil {
			log.Printf("Warning: Failed to resolve counterparty for proposal %s: %v", proposal.ID, err)
			return
		}
		target = student.ParentID
	}
	s.notify(ctx, target, title, message, proposal.ID)
}
