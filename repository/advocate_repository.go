package repository

import (
	"context"

	"iepreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvocateRepository handles database operations for advocate profiles
type AdvocateRepository struct {
	db *pgxpool.Pool
}

// NewAdvocateRepository creates a new advocate repository
func NewAdvocateRepository(db *pgxpool.Pool) *AdvocateRepository {
	return &AdvocateRepository{db: db}
}

// Create creates a new advocate profile
func (r *AdvocateRepository) Create(ctx context.Context, advocate *models.AdvocateProfile) error {
	query := `
		INSERT INTO advocate_profiles (
			id, tags, languages, timezone, hourly_rate, max_caseload, bio, experience_years
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		advocate.ID,
		advocate.Tags,
		advocate.Languages,
		advocate.Timezone,
		advocate.HourlyRate,
		advocate.MaxCaseload,
		advocate.Bio,
		advocate.ExperienceYears,
	).Scan(&advocate.CreatedAt, &advocate.UpdatedAt)
}

// GetByID retrieves an advocate profile by ID
func (r *AdvocateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdvocateProfile, error) {
	advocate := &models.AdvocateProfile{}
	query := `
		SELECT id, tags, languages, timezone, hourly_rate, max_caseload, bio, experience_years,
		       created_at, updated_at
		FROM advocate_profiles
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&advocate.ID,
		&advocate.Tags,
		&advocate.Languages,
		&advocate.Timezone,
		&advocate.HourlyRate,
		&advocate.MaxCaseload,
		&advocate.Bio,
		&advocate.ExperienceYears,
		&advocate.CreatedAt,
		&advocate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return advocate, nil
}

// List retrieves all advocate profiles
func (r *AdvocateRepository) List(ctx context.Context) ([]*models.AdvocateProfile, error) {
	query := `
		SELECT id, tags, languages, timezone, hourly_rate, max_caseload, bio, experience_years,
		       created_at, updated_at
		FROM advocate_profiles
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advocates []*models.AdvocateProfile
	for rows.Next() {
		advocate := &models.AdvocateProfile{}
		err := rows.Scan(
			&advocate.ID,
			&advocate.Tags,
			&advocate.Languages,
			&advocate.Timezone,
			&advocate.HourlyRate,
			&advocate.MaxCaseload,
			&advocate.Bio,
			&advocate.ExperienceYears,
			&advocate.CreatedAt,
			&advocate.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		advocates = append(advocates, advocate)
	}

	return advocates, rows.Err()
}

// Update saves an updated advocate profile
func (r *AdvocateRepository) Update(ctx context.Context, advocate *models.AdvocateProfile) error {
	query := `
		UPDATE advocate_profiles
		SET tags = $2, languages = $3, timezone = $4, hourly_rate = $5,
		    max_caseload = $6, bio = $7, experience_years = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		advocate.ID,
		advocate.Tags,
		advocate.Languages,
		advocate.Timezone,
		advocate.HourlyRate,
		advocate.MaxCaseload,
		advocate.Bio,
		advocate.ExperienceYears,
	).Scan(&advocate.UpdatedAt)
}
