package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripvote/internal/domain/voting"
	"tripvote/internal/services"
	"tripvote/internal/transport/httpdto"
)

// SessionHandler handles voting session creation.
type SessionHandler struct {
	service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create handles POST /voting-sessions. Requires an authenticated creator.
func (h *SessionHandler) Create(c *gin.Context) {
	var req httpdto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	creatorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("expires_at must be RFC 3339", "INVALID_REQUEST"))
			return
		}
		expiresAt = &t
	}

	session, err := h.service.Create(c.Request.Context(), services.CreateSessionInput{
		TripID:      req.TripID,
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		Rules: voting.Rules{
			ApprovalThreshold: req.Rules.ApprovalThreshold,
			MinVotesRequired:  req.Rules.MinVotesRequired,
			ExpectedVotes:     req.Rules.ExpectedVotes,
			AnonymousAllowed:  req.Rules.AnonymousAllowed,
		},
		ExpiresAt: expiresAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(sessionDTO(&session)))
}

func sessionDTO(s *voting.VotingSession) httpdto.SessionResponse {
	out := httpdto.SessionResponse{
		SessionID: s.ID,
		TripID:    s.TripID,
		Title:     s.Title,
		Status:    s.Status,
		ShareLink: s.ShareLink,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.ExpiresAt != nil {
		v := s.ExpiresAt.Format(time.RFC3339)
		out.ExpiresAt = &v
	}
	return out
}
