package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"iepreview-backend/models"

	"github.com/google/uuid"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"a"}, nil, 0.0},
		{"disjoint", []string{"a"}, []string{"b"}, 0.0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1.0},
		{"partial", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"duplicates collapse", []string{"a", "a", "b"}, []string{"a"}, 0.5},
	}

	for _, tt := range tests {
		if got := jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%s: jaccard = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreMatchWorkedExample(t *testing.T) {
	student := &models.Student{
		Needs:     []string{"autism", "ot"},
		Languages: []string{"en"},
		Timezone:  "America/New_York",
		Budget:    floatPtr(90),
	}
	advocate := &models.AdvocateProfile{
		Tags:        []string{"autism", "speech"},
		Languages:   []string{"en"},
		Timezone:    "America/New_York",
		HourlyRate:  floatPtr(85),
		MaxCaseload: 8,
	}

	score, breakdown := ScoreMatch(student, advocate, 0)

	// 0.15 + 0.10 + 0.15 + 0.15 + 0.10 + 0.05 = 0.70
	if math.Abs(score-70.0) > 1e-9 {
		t.Fatalf("score = %v, want 70.0", score)
	}
	if math.Abs(breakdown.TagOverlap-0.45/3.0) > 1e-9 {
		t.Fatalf("tag overlap = %v, want %v", breakdown.TagOverlap, 0.45/3.0)
	}
	if math.Abs(breakdown.GradeAreaFit-0.15) > 1e-9 {
		t.Fatalf("grade/area fit = %v, want 0.15", breakdown.GradeAreaFit)
	}
	if math.Abs(breakdown.LanguageMatch-0.10) > 1e-9 {
		t.Fatalf("language match = %v, want 0.10", breakdown.LanguageMatch)
	}
	if math.Abs(breakdown.CapacityAvailable-0.15) > 1e-9 {
		t.Fatalf("capacity = %v, want 0.15", breakdown.CapacityAvailable)
	}
	if math.Abs(breakdown.PriceFit-0.10) > 1e-9 {
		t.Fatalf("price fit = %v, want 0.10", breakdown.PriceFit)
	}
	if math.Abs(breakdown.TimezoneCompatibility-0.05) > 1e-9 {
		t.Fatalf("timezone = %v, want 0.05", breakdown.TimezoneCompatibility)
	}
}

func TestScoreMatchTagMonotonicity(t *testing.T) {
	student := &models.Student{Needs: []string{"autism", "ot", "speech"}}
	base := &models.AdvocateProfile{Tags: []string{"autism"}, MaxCaseload: 5}
	better := &models.AdvocateProfile{Tags: []string{"autism", "ot"}, MaxCaseload: 5}

	baseScore, _ := ScoreMatch(student, base, 0)
	betterScore, _ := ScoreMatch(student, better, 0)

	if betterScore <= baseScore {
		t.Fatalf("more tag overlap should score higher: %v <= %v", betterScore, baseScore)
	}
}

func TestScoreMatchPriceTiers(t *testing.T) {
	student := &models.Student{Budget: floatPtr(100)}

	tests := []struct {
		rate *float64
		want float64 // raw price score before weighting
	}{
		{floatPtr(100), 1.0}, // within budget
		{floatPtr(110), 0.7}, // within 20% stretch
		{floatPtr(121), 0.3}, // over stretch
		{nil, 1.0},           // no rate published
	}

	for _, tt := range tests {
		advocate := &models.AdvocateProfile{HourlyRate: tt.rate, MaxCaseload: 1}
		_, breakdown := ScoreMatch(student, advocate, 0)
		if math.Abs(breakdown.PriceFit-tt.want*weightPriceFit) > 1e-9 {
			t.Fatalf("rate %v: price fit = %v, want %v", tt.rate, breakdown.PriceFit, tt.want*weightPriceFit)
		}
	}

	// no budget published: full price score regardless of rate
	noBudget := &models.Student{}
	_, breakdown := ScoreMatch(noBudget, &models.AdvocateProfile{HourlyRate: floatPtr(500), MaxCaseload: 1}, 0)
	if math.Abs(breakdown.PriceFit-weightPriceFit) > 1e-9 {
		t.Fatalf("no budget: price fit = %v, want %v", breakdown.PriceFit, weightPriceFit)
	}
}

func TestScoreMatchCapacity(t *testing.T) {
	student := &models.Student{}

	// full caseload: no capacity contribution
	full := &models.AdvocateProfile{MaxCaseload: 4}
	_, breakdown := ScoreMatch(student, full, 4)
	if breakdown.CapacityAvailable != 0 {
		t.Fatalf("full caseload capacity = %v, want 0", breakdown.CapacityAvailable)
	}

	// over-subscribed caseload clamps at zero rather than going negative
	_, breakdown = ScoreMatch(student, full, 6)
	if breakdown.CapacityAvailable != 0 {
		t.Fatalf("oversubscribed capacity = %v, want 0", breakdown.CapacityAvailable)
	}

	// zero max caseload never divides
	none := &models.AdvocateProfile{MaxCaseload: 0}
	_, breakdown = ScoreMatch(student, none, 0)
	if breakdown.CapacityAvailable != 0 {
		t.Fatalf("zero max caseload capacity = %v, want 0", breakdown.CapacityAvailable)
	}
}

func TestScoreMatchTimezone(t *testing.T) {
	student := &models.Student{Timezone: "America/Chicago"}

	same := &models.AdvocateProfile{Timezone: "America/Chicago", MaxCaseload: 1}
	_, breakdown := ScoreMatch(student, same, 0)
	if math.Abs(breakdown.TimezoneCompatibility-weightTimezone) > 1e-9 {
		t.Fatalf("same timezone = %v, want %v", breakdown.TimezoneCompatibility, weightTimezone)
	}

	other := &models.AdvocateProfile{Timezone: "America/Los_Angeles", MaxCaseload: 1}
	_, breakdown = ScoreMatch(student, other, 0)
	if math.Abs(breakdown.TimezoneCompatibility-0.5*weightTimezone) > 1e-9 {
		t.Fatalf("different timezone = %v, want %v", breakdown.TimezoneCompatibility, 0.5*weightTimezone)
	}
}

func TestScoreMatchBounds(t *testing.T) {
	// Perfect alignment on every component stays at or below 100
	student := &models.Student{
		Needs:     []string{"autism"},
		Languages: []string{"en"},
		Timezone:  "UTC",
		Budget:    floatPtr(200),
	}
	advocate := &models.AdvocateProfile{
		Tags:        []string{"autism"},
		Languages:   []string{"en"},
		Timezone:    "UTC",
		HourlyRate:  floatPtr(100),
		MaxCaseload: 10,
	}

	score, _ := ScoreMatch(student, advocate, 0)
	if score > 100 || score < 0 {
		t.Fatalf("score out of bounds: %v", score)
	}
	if math.Abs(score-100.0) > 1e-9 {
		t.Fatalf("perfect match score = %v, want 100", score)
	}
}

// fakeProposalStore is an in-memory ProposalStore for lifecycle tests
type fakeProposalStore struct {
	proposals map[uuid.UUID]*models.MatchProposal
	events    []*models.MatchEvent
}

func newFakeProposalStore() *fakeProposalStore {
	return &fakeProposalStore{proposals: make(map[uuid.UUID]*models.MatchProposal)}
}

func (f *fakeProposalStore) seed(proposal *models.MatchProposal) uuid.UUID {
	proposal.ID = uuid.New()
	f.proposals[proposal.ID] = proposal
	return proposal.ID
}

func (f *fakeProposalStore) Create(ctx context.Context, proposal *models.MatchProposal) error {
	f.seed(proposal)
	return nil
}

func (f *fakeProposalStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	proposal, ok := f.proposals[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return proposal, nil
}

func (f *fakeProposalStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) error {
	proposal, ok := f.proposals[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	proposal.Status = status
	return nil
}

func (f *fakeProposalStore) List(ctx context.Context) ([]*models.MatchProposal, error) {
	out := make([]*models.MatchProposal, 0, len(f.proposals))
	for _, p := range f.proposals {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProposalStore) CountByAdvocateAndStatus(ctx context.Context, advocateID uuid.UUID, statuses ...models.ProposalStatus) (int, error) {
	return 0, nil
}

func (f *fakeProposalStore) CreateEvent(ctx context.Context, event *models.MatchEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeProposalStore) ListEvents(ctx context.Context, proposalID uuid.UUID) ([]*models.MatchEvent, error) {
	return f.events, nil
}

func TestAcceptProposalDeclinedIsFinal(t *testing.T) {
	advocateID := uuid.New()
	store := newFakeProposalStore()
	id := store.seed(&models.MatchProposal{
		AdvocateID: advocateID,
		Status:     models.ProposalDeclined,
	})
	s := NewMatchService(MatchWithProposalRepository(store))

	_, err := s.AcceptProposal(context.Background(), ResolveProposalRequest{ProposalID: id, ActorID: advocateID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if store.proposals[id].Status != models.ProposalDeclined {
		t.Fatalf("status = %s, declined must stay declined", store.proposals[id].Status)
	}
	if len(store.events) != 0 {
		t.Fatalf("rejected transition must not record events: %+v", store.events)
	}
}

func TestAcceptProposalWrongActor(t *testing.T) {
	store := newFakeProposalStore()
	id := store.seed(&models.MatchProposal{
		AdvocateID: uuid.New(),
		Status:     models.ProposalProposed,
	})
	s := NewMatchService(MatchWithProposalRepository(store))

	_, err := s.AcceptProposal(context.Background(), ResolveProposalRequest{ProposalID: id, ActorID: uuid.New()})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	if store.proposals[id].Status != models.ProposalProposed {
		t.Fatalf("status = %s, want proposed", store.proposals[id].Status)
	}
}

func TestAcceptProposalTransitions(t *testing.T) {
	advocateID := uuid.New()
	store := newFakeProposalStore()
	id := store.seed(&models.MatchProposal{
		AdvocateID: advocateID,
		Status:     models.ProposalIntroRequested,
	})
	s := NewMatchService(MatchWithProposalRepository(store))

	result, err := s.AcceptProposal(context.Background(), ResolveProposalRequest{ProposalID: id, ActorID: advocateID})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if result.Status != models.ProposalAccepted {
		t.Fatalf("status = %s, want accepted", result.Status)
	}
	if store.proposals[id].Status != models.ProposalAccepted {
		t.Fatalf("stored status = %s, want accepted", store.proposals[id].Status)
	}
	if len(store.events) != 1 || store.events[0].EventType != "proposal_accepted" {
		t.Fatalf("events = %+v, want one proposal_accepted", store.events)
	}
}

func TestDeclineProposalAcceptedIsFinal(t *testing.T) {
	advocateID := uuid.New()
	store := newFakeProposalStore()
	id := store.seed(&models.MatchProposal{
		AdvocateID: advocateID,
		Status:     models.ProposalAccepted,
	})
	s := NewMatchService(MatchWithProposalRepository(store))

	_, err := s.DeclineProposal(context.Background(), ResolveProposalRequest{ProposalID: id, ActorID: advocateID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestRequestIntroFromTerminal(t *testing.T) {
	store := newFakeProposalStore()
	id := store.seed(&models.MatchProposal{
		AdvocateID: uuid.New(),
		Status:     models.ProposalDeclined,
	})
	s := NewMatchService(MatchWithProposalRepository(store))

	_, err := s.RequestIntro(context.Background(), RequestIntroRequest{ProposalID: id, ActorID: uuid.New()})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestProposalStatusTerminal(t *testing.T) {
	terminal := []models.ProposalStatus{models.ProposalAccepted, models.ProposalDeclined}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}

	open := []models.ProposalStatus{models.ProposalProposed, models.ProposalIntroRequested, models.ProposalScheduled}
	for _, s := range open {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
