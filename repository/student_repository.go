package repository

import (
	"context"

	"iepreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles database operations for student profiles
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create creates a new student profile
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (
			id, parent_id, name, grade, needs, languages, timezone, budget, narrative
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		student.ID,
		student.ParentID,
		student.Name,
		student.Grade,
		student.Needs,
		student.Languages,
		student.Timezone,
		student.Budget,
		student.Narrative,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
}

// GetByID retrieves a student profile by ID
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	student := &models.Student{}
	query := `
		SELECT id, parent_id, name, grade, needs, languages, timezone, budget, narrative,
		       created_at, updated_at
		FROM students
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.ParentID,
		&student.Name,
		&student.Grade,
		&student.Needs,
		&student.Languages,
		&student.Timezone,
		&student.Budget,
		&student.Narrative,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return student, nil
}

// ListByParentID retrieves all student profiles owned by a parent
func (r *StudentRepository) ListByParentID(ctx context.Context, parentID uuid.UUID) ([]*models.Student, error) {
	query := `
		SELECT id, parent_id, name, grade, needs, languages, timezone, budget, narrative,
		       created_at, updated_at
		FROM students
		WHERE parent_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student := &models.Student{}
		err := rows.Scan(
			&student.ID,
			&student.ParentID,
			&student.Name,
			&student.Grade,
			&student.Needs,
			&student.Languages,
			&student.Timezone,
			&student.Budget,
			&student.Narrative,
			&student.CreatedAt,
			&student.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	return students, rows.Err()
}

// Update saves an updated student profile
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET name = $2, grade = $3, needs = $4, languages = $5, timezone = $6,
		    budget = $7, narrative = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		student.ID,
		student.Name,
		student.Grade,
		student.Needs,
		student.Languages,
		student.Timezone,
		student.Budget,
		student.Narrative,
	).Scan(&student.UpdatedAt)
}
