package repository

import (
	"context"

	"iepreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for analysis reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create stores a new analysis report
func (r *ReportRepository) Create(ctx context.Context, report *models.AnalysisReport) error {
	query := `
		INSERT INTO analysis_reports (document_id, audience, report)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		report.DocumentID,
		report.Audience,
		report.Report,
	).Scan(&report.ID, &report.CreatedAt)
}

// GetByID retrieves an analysis report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{}
	query := `
		SELECT id, document_id, audience, report, created_at
		FROM analysis_reports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.DocumentID,
		&report.Audience,
		&report.Report,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// GetLatestByDocumentID retrieves the most recent report for a document
func (r *ReportRepository) GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{}
	query := `
		SELECT id, document_id, audience, report, created_at
		FROM analysis_reports
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, documentID).Scan(
		&report.ID,
		&report.DocumentID,
		&report.Audience,
		&report.Report,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// ListByDocumentID retrieves all reports for a document, newest first
func (r *ReportRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.AnalysisReport, error) {
	query := `
		SELECT id, document_id, audience, report, created_at
		FROM analysis_reports
		WHERE document_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.AnalysisReport
	for rows.Next() {
		report := &models.AnalysisReport{}
		err := rows.Scan(
			&report.ID,
			&report.DocumentID,
			&report.Audience,
			&report.Report,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}
