package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	"tripvote/internal/services"
	"tripvote/internal/transport/httpdto"
)

// VoteHandler handles vote intake, result reads and the sweep triggers.
type VoteHandler struct {
	votes    *services.VoteService
	notifier *services.NotificationService
	sweeper  *services.ExpirationSweeper
}

func NewVoteHandler(votes *services.VoteService, notifier *services.NotificationService, sweeper *services.ExpirationSweeper) *VoteHandler {
	return &VoteHandler{votes: votes, notifier: notifier, sweeper: sweeper}
}

// Submit handles POST /votes/submit for both members and guests. Guests are
// identified by client IP; members by the optional bearer token.
func (h *VoteHandler) Submit(c *gin.Context) {
	var req httpdto.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	vote, err := h.votes.Submit(c.Request.Context(), services.SubmitVoteInput{
		ShareLink: req.ShareLink,
		Voter:     voterIdentity(c),
		Value:     *req.Value,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.VoteResponse{
		VoteID:    vote.ID,
		SessionID: vote.SessionID,
		CreatedAt: vote.CreatedAt.Format(time.RFC3339),
	}))
}

// Results handles GET /votes/results/:share_link.
func (h *VoteHandler) Results(c *gin.Context) {
	view, err := h.votes.Results(c.Request.Context(), c.Param("share_link"), voterIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := httpdto.ResultsResponse{
		SessionID: view.SessionID,
		Title:     view.Title,
		Status:    view.Status,
		Counts: httpdto.TallyDTO{
			Total:   view.Tally.Total,
			For:     view.Tally.For,
			Against: view.Tally.Against,
		},
		ApprovalRate: view.Tally.ApprovalRatio(),
		Outcome:      string(view.Outcome),
		YouVoted:     view.YouVoted,
	}
	if view.ExpiresAt != nil {
		v := view.ExpiresAt.Format(time.RFC3339)
		out.ExpiresAt = &v
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

// CloseExpired handles POST /votes/close-expired, the external sweep trigger.
func (h *VoteHandler) CloseExpired(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context(), c.Query("purge") == "true")
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SweepResponse{
		NewlyClosedCount: result.Closed,
		EmailedCount:     result.Notified,
		PurgedCount:      result.Purged,
	}))
}

// SendResults handles POST /votes/send-results/:session_id, the idempotent
// manual resend.
func (h *VoteHandler) SendResults(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("session_id must be a UUID", "INVALID_REQUEST"))
		return
	}

	status, err := h.notifier.SendResults(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendResultsResponse{Status: string(status)}))
}

// voterIdentity resolves who is voting: the authenticated user id when the
// optional auth middleware found a valid token, otherwise the client IP.
func voterIdentity(c *gin.Context) voting.VoterIdentity {
	if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
		return voting.VoterIdentity{UserID: &userID}
	}
	return voting.VoterIdentity{IPAddress: c.ClientIP()}
}
