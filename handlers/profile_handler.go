package handlers

import (
	"errors"
	"net/http"

	"iepreview-backend/models"
	"iepreview-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProfileHandler handles HTTP requests for student and advocate profiles
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateStudentRequest represents a student profile creation request
type CreateStudentRequest struct {
	ParentID  uuid.UUID `json:"parent_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Grade     string    `json:"grade"`
	Needs     []string  `json:"needs"`
	Languages []string  `json:"languages"`
	Timezone  string    `json:"timezone"`
	Budget    *float64  `json:"budget"`
	Narrative string    `json:"narrative"`
}

// CreateStudent handles POST /api/students
func (h *ProfileHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	student := &models.Student{
		ID:        uuid.New(),
		ParentID:  req.ParentID,
		Name:      req.Name,
		Grade:     req.Grade,
		Needs:     req.Needs,
		Languages: req.Languages,
		Timezone:  req.Timezone,
		Budget:    req.Budget,
		Narrative: req.Narrative,
	}

	if err := h.profileService.CreateStudent(c.Request.Context(), student); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create student profile",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    student,
	})
}

// GetStudent handles GET /api/students/:id
func (h *ProfileHandler) GetStudent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid student ID format",
			},
		})
		return
	}

	student, err := h.profileService.GetStudent(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Student not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    student,
	})
}

// UpdateStudent handles PUT /api/students/:id
func (h *ProfileHandler) UpdateStudent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid student ID format",
			},
		})
		return
	}

	student, err := h.profileService.GetStudent(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Student not found",
			},
		})
		return
	}

	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	student.Name = req.Name
	student.Grade = req.Grade
	student.Needs = req.Needs
	student.Languages = req.Languages
	student.Timezone = req.Timezone
	student.Budget = req.Budget
	student.Narrative = req.Narrative

	if err := h.profileService.UpdateStudent(c.Request.Context(), student); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update student profile",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    student,
	})
}

// CreateAdvocateRequest represents an advocate profile creation request.
// The profile is keyed by the advocate's user ID.
type CreateAdvocateRequest struct {
	UserID          uuid.UUID `json:"user_id" binding:"required"`
	Tags            []string  `json:"tags"`
	Languages       []string  `json:"languages"`
	Timezone        string    `json:"timezone"`
	HourlyRate      *float64  `json:"hourly_rate"`
	MaxCaseload     int       `json:"max_caseload"`
	Bio             string    `json:"bio"`
	ExperienceYears int       `json:"experience_years"`
}

// CreateAdvocate handles POST /api/advocates
func (h *ProfileHandler) CreateAdvocate(c *gin.Context) {
	var req CreateAdvocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	advocate := &models.AdvocateProfile{
		ID:              req.UserID,
		Tags:            req.Tags,
		Languages:       req.Languages,
		Timezone:        req.Timezone,
		HourlyRate:      req.HourlyRate,
		MaxCaseload:     req.MaxCaseload,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
	}

	if err := h.profileService.CreateAdvocate(c.Request.Context(), advocate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create advocate profile",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    advocate,
	})
}

// GetAdvocate handles GET /api/advocates/:id
func (h *ProfileHandler) GetAdvocate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid advocate ID format",
			},
		})
		return
	}

	advocate, err := h.profileService.GetAdvocate(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		code := "DATABASE_ERROR"
		message := "Failed to load advocate profile"
		if errors.Is(err, service.ErrAdvocateNotFound) {
			status = http.StatusNotFound
			code = "NOT_FOUND"
			message = "Advocate not found"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": message,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    advocate,
	})
}

// UpdateAdvocate handles PUT /api/advocates/:id
func (h *ProfileHandler) UpdateAdvocate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid advocate ID format",
			},
		})
		return
	}

	advocate, err := h.profileService.GetAdvocate(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Advocate not found",
			},
		})
		return
	}

	var req CreateAdvocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	advocate.Tags = req.Tags
	advocate.Languages = req.Languages
	advocate.Timezone = req.Timezone
	advocate.HourlyRate = req.HourlyRate
	advocate.MaxCaseload = req.MaxCaseload
	advocate.Bio = req.Bio
	advocate.ExperienceYears = req.ExperienceYears

	if err := h.profileService.UpdateAdvocate(c.Request.Context(), advocate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update advocate profile",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    advocate,
	})
}
