package repository

import (
	"context"

	"iepreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProposalRepository handles database operations for match proposals and
// their event log
type ProposalRepository struct {
	db *pgxpool.Pool
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create creates a new match proposal
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.MatchProposal) error {
	query := `
		INSERT INTO match_proposals (
			student_id, advocate_id, score, status, reason, created_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		proposal.StudentID,
		proposal.AdvocateID,
		proposal.Score,
		proposal.Status,
		proposal.Reason,
		proposal.CreatedBy,
	).Scan(&proposal.ID, &proposal.CreatedAt, &proposal.UpdatedAt)
}

// GetByID retrieves a match proposal by ID
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	proposal := &models.MatchProposal{}
	query := `
		SELECT id, student_id, advocate_id, score, status, reason, created_by,
		       created_at, updated_at
		FROM match_proposals
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&proposal.ID,
		&proposal.StudentID,
		&proposal.AdvocateID,
		&proposal.Score,
		&proposal.Status,
		&proposal.Reason,
		&proposal.CreatedBy,
		&proposal.CreatedAt,
		&proposal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

// UpdateStatus transitions a proposal to a new status
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) error {
	query := `
		UPDATE match_proposals
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// List retrieves all proposals, newest first
func (r *ProposalRepository) List(ctx context.Context) ([]*models.MatchProposal, error) {
	query := `
		SELECT id, student_id, advocate_id, score, status, reason, created_by,
		       created_at, updated_at
		FROM match_proposals
		ORDER BY created_at DESC`

	return r.listProposals(ctx, query)
}

// ListByStudentID retrieves all proposals for a student, best score first
func (r *ProposalRepository) ListByStudentID(ctx context.Context, studentID uuid.UUID) ([]*models.MatchProposal, error) {
	query := `
		SELECT id, student_id, advocate_id, score, status, reason, created_by,
		       created_at, updated_at
		FROM match_proposals
		WHERE student_id = $1
		ORDER BY score DESC, created_at DESC`

	return r.listProposals(ctx, query, studentID)
}

// ListByAdvocateID retrieves all proposals addressed to an advocate
func (r *ProposalRepository) ListByAdvocateID(ctx context.Context, advocateID uuid.UUID) ([]*models.MatchProposal, error) {
	query := `
		SELECT id, student_id, advocate_id, score, status, reason, created_by,
		       created_at, updated_at
		FROM match_proposals
		WHERE advocate_id = $1
		ORDER BY created_at DESC`

	return r.listProposals(ctx, query, advocateID)
}

func (r *ProposalRepository) listProposals(ctx context.Context, query string, args ...interface{}) ([]*models.MatchProposal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []*models.MatchProposal
	for rows.Next() {
		proposal := &models.MatchProposal{}
		err := rows.Scan(
			&proposal.ID,
			&proposal.StudentID,
			&proposal.AdvocateID,
			&proposal.Score,
			&proposal.Status,
			&proposal.Reason,
			&proposal.CreatedBy,
			&proposal.CreatedAt,
			&proposal.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}

	return proposals, rows.Err()
}

// CountByAdvocateAndStatus counts an advocate's proposals in any of the
// given statuses. Used for caseload checks.
func (r *ProposalRepository) CountByAdvocateAndStatus(ctx context.Context, advocateID uuid.UUID, statuses ...models.ProposalStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM match_proposals
		WHERE advocate_id = $1 AND status = ANY($2)`

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var count int
	err := r.db.QueryRow(ctx, query, advocateID, values).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CreateEvent appends an immutable event to a proposal's log
func (r *ProposalRepository) CreateEvent(ctx context.Context, event *models.MatchEvent) error {
	query := `
		INSERT INTO match_events (proposal_id, event_type, actor_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		event.ProposalID,
		event.EventType,
		event.ActorID,
		event.Details,
	).Scan(&event.ID, &event.CreatedAt)
}

// ListEvents retrieves a proposal's events in chronological order
func (r *ProposalRepository) ListEvents(ctx context.Context, proposalID uuid.UUID) ([]*models.MatchEvent, error) {
	query := `
		SELECT id, proposal_id, event_type, actor_id, details, created_at
		FROM match_events
		WHERE proposal_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.MatchEvent
	for rows.Next() {
		event := &models.MatchEvent{}
		err := rows.Scan(
			&event.ID,
			&event.ProposalID,
			&event.EventType,
			&event.ActorID,
			&event.Details,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
