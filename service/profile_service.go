package service

import (
	"context"
	"errors"

	"iepreview-backend/models"
	"iepreview-backend/repository"

	"github.com/google/uuid"
)

// ProfileService handles student and advocate profile CRUD
type ProfileService struct {
	studentRepo  *repository.StudentRepository
	advocateRepo *repository.AdvocateRepository
}

// ProfileServiceOption is a functional option for ProfileService
type ProfileServiceOption func(*ProfileService)

// ProfileWithStudentRepository sets the student repository
func ProfileWithStudentRepository(repo *repository.StudentRepository) ProfileServiceOption {
	return func(s *ProfileService) {
		s.studentRepo = repo
	}
}

// ProfileWithAdvocateRepository sets the advocate repository
func ProfileWithAdvocateRepository(repo *repository.AdvocateRepository) ProfileServiceOption {
	return func(s *ProfileService) {
		s.advocateRepo = repo
	}
}

// NewProfileService creates a new profile service
func NewProfileService(opts ...ProfileServiceOption) *ProfileService {
	s := &ProfileService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateStudent stores a new student profile
func (s *ProfileService) CreateStudent(ctx context.Context, student *models.Student) error {
	if s.studentRepo == nil {
		return errors.New("student repository not set")
	}
	if student.Needs == nil {
		student.Needs = []string{}
	}
	if student.Languages == nil {
		student.Languages = []string{}
	}
	return s.studentRepo.Create(ctx, student)
}

// GetStudent retrieves a student by ID
func (s *ProfileService) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if s.studentRepo == nil {
		return nil, errors.New("student repository not set")
	}
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// UpdateStudent saves an updated student profile
func (s *ProfileService) UpdateStudent(ctx context.Context, student *models.Student) error {
	if s.studentRepo == nil {
		return errors.New("student repository not set")
	}
	return s.studentRepo.Update(ctx, student)
}

// CreateAdvocate stores a new advocate profile
func (s *ProfileService) CreateAdvocate(ctx context.Context, advocate *models.AdvocateProfile) error {
	if s.advocateRepo == nil {
		return errors.New("advocate repository not set")
	}
	if advocate.Tags == nil {
		advocate.Tags = []string{}
	}
	if advocate.Languages == nil {
		advocate.Languages = []string{}
	}
	return s.advocateRepo.Create(ctx, advocate)
}

// GetAdvocate retrieves an advocate profile by ID
func (s *ProfileService) GetAdvocate(ctx context.Context, id uuid.UUID) (*models.AdvocateProfile, error) {
	if s.advocateRepo == nil {
		return nil, errors.New("advocate repository not set")
	}
	advocate, err := s.advocateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAdvocateNotFound
	}
	return advocate, nil
}

// UpdateAdvocate saves an updated advocate profile
func (s *ProfileService) UpdateAdvocate(ctx context.Context, advocate *models.AdvocateProfile) error {
	if s.advocateRepo == nil {
		return errors.New("advocate repository not set")
	}
	return s.advocateRepo.Update(ctx, advocate)
}
