package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"iepreview-backend/models"
	"iepreview-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatchHandler handles HTTP requests for advocate match proposals
type MatchHandler struct {
	matchService *service.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// ProposeMatchesRequest represents the propose request body
type ProposeMatchesRequest struct {
	StudentID   uuid.UUID             `json:"student_id" binding:"required"`
	AdvocateIDs []uuid.UUID           `json:"advocate_ids" binding:"required"`
	CreatedBy   uuid.UUID             `json:"created_by" binding:"required"`
	Reason      models.ProposalReason `json:"reason"`
}

// ProposeMatches handles POST /api/match
func (h *MatchHandler) ProposeMatches(c *gin.Context) {
	var req ProposeMatchesRequest
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

	result, err := h.matchService.ProposeMatches(c.Request.Context(), service.ProposeMatchesRequest{
		StudentID:   req.StudentID,
		AdvocateIDs: req.AdvocateIDs,
		CreatedBy:   req.CreatedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "STUDENT_NOT_FOUND",
					"message": "Student not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROPOSE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"proposals": result.Proposals,
		},
	})
}

// ListProposals handles GET /api/match
func (h *MatchHandler) ListProposals(c *gin.Context) {
	proposals, err := h.matchService.ListProposals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list proposals",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"proposals": proposals,
		},
	})
}

// ListEvents handles GET /api/match/:id/events
func (h *MatchHandler) ListEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid proposal ID format",
			},
		})
		return
	}

	events, err := h.matchService.ListEvents(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list events",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"events": events,
		},
	})
}

// RequestIntroRequest represents the intro request body
type RequestIntroRequest struct {
	ActorID uuid.UUID  `json:"actor_id" binding:"required"`
	When    *time.Time `json:"when"`
	Channel string     `json:"channel"`
	Link    string     `json:"link"`
}

// RequestIntro handles POST /api/match/:id/intro
func (h *MatchHandler) RequestIntro(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid proposal ID format",
			},
		})
		return
	}

	var req RequestIntroRequest
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

	result, err := h.matchService.RequestIntro(c.Request.Context(), service.RequestIntroRequest{
		ProposalID: id,
		ActorID:    req.ActorID,
		When:       req.When,
		Channel:    req.Channel,
		Link:       req.Link,
	})
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status": result.Status,
		},
	})
}

// ResolveProposalRequest represents the accept/decline request body
type ResolveProposalRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

// AcceptProposal handles POST /api/match/:id/accept
func (h *MatchHandler) AcceptProposal(c *gin.Context) {
	h.resolve(c, h.matchService.AcceptProposal)
}

// DeclineProposal handles POST /api/match/:id/decline
func (h *MatchHandler) DeclineProposal(c *gin.Context) {
	h.resolve(c, h.matchService.DeclineProposal)
}

func (h *MatchHandler) resolve(c *gin.Context, fn func(ctx context.Context, req service.ResolveProposalRequest) (*service.ResolveProposalResult, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid proposal ID format",
			},
		})
		return
	}

	var req ResolveProposalRequest
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

	result, err := fn(c.Request.Context(), service.ResolveProposalRequest{
		ProposalID: id,
		ActorID:    req.ActorID,
	})
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status": result.Status,
		},
	})
}

func (h *MatchHandler) writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Proposal not found",
			},
		})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": "Proposal cannot transition from its current status",
			},
		})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_AUTHORIZED",
				"message": "Only the proposed advocate may perform this action",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TRANSITION_FAILED",
				"message": err.Error(),
			},
		})
	}
}
