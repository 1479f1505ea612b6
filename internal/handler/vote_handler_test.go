package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tripvote/config"
	"tripvote/internal/domain/voting"
	"tripvote/internal/middleware"
	"tripvote/internal/repository"
	"tripvote/internal/services"
)

const testSecret = "handler-test-secret"

type nullMailer struct{}

func (nullMailer) Send(toEmail, subject, textBody string) error { return nil }
func (nullMailer) Configured() bool                             { return true }

type fixture struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	auth := services.NewAuthService(&config.Config{JWTSecret: testSecret})
	closer := services.NewSessionCloser(store, nil)
	notifier := services.NewNotificationService(store, store.VoteRepo(), store, nullMailer{}, nil)
	sessionService := services.NewSessionService(store, store, nil)
	voteService := services.NewVoteService(store, store.VoteRepo(), closer, notifier, nil)
	sweeper := services.NewExpirationSweeper(store, closer, notifier, 0, nil)

	sessions := NewSessionHandler(sessionService)
	votes := NewVoteHandler(voteService, notifier, sweeper)

	router := gin.New()
	router.POST("/voting-sessions", middleware.AuthMiddleware(auth), sessions.Create)
	router.POST("/votes/submit", middleware.OptionalAuthMiddleware(auth), votes.Submit)
	router.GET("/votes/results/:share_link", middleware.OptionalAuthMiddleware(auth), votes.Results)
	router.POST("/votes/close-expired", votes.CloseExpired)
	router.POST("/votes/send-results/:session_id", middleware.AuthMiddleware(auth), votes.SendResults)

	return &fixture{router: router, store: store}
}

func (f *fixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := services.AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seedSession(t *testing.T, mutate func(*voting.VotingSession)) voting.VotingSession {
	t.Helper()
	s := voting.VotingSession{
		ID:        uuid.New(),
		TripID:    uuid.New(),
		CreatorID: uuid.New(),
		Title:     "Road trip",
		Rules: voting.Rules{
			ApprovalThreshold: 0.5,
			MinVotesRequired:  1,
			AnonymousAllowed:  true,
		},
		Status:    voting.StatusActive,
		ShareLink: uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if mutate != nil {
		mutate(&s)
	}
	if err := f.store.Create(context.Background(), &s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	f.store.SetUserEmail(s.CreatorID, "creator@example.com")
	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func TestCreateSessionEndpoint(t *testing.T) {
	f := newFixture(t)
	creator := uuid.New()
	tripID := uuid.New()
	f.store.SetTrip(tripID)

	w := f.do(t, http.MethodPost, "/voting-sessions", f.token(t, creator), gin.H{
		"trip_id": tripID,
		"title":   "Road trip",
		"rules": gin.H{
			"approval_threshold": 0.6,
			"min_votes_required": 2,
			"expected_votes":     4,
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var data struct {
		SessionID uuid.UUID `json:"session_id"`
		ShareLink string    `json:"share_link"`
		Status    string    `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.ShareLink == "" || data.Status != voting.StatusActive {
		t.Errorf("data = %+v, want active session with share link", data)
	}
}

func TestCreateSessionRequiresAuth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/voting-sessions", "", gin.H{"title": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateSessionUnknownTrip(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/voting-sessions", f.token(t, uuid.New()), gin.H{
		"trip_id": uuid.New(),
		"title":   "Orphan",
		"rules": gin.H{
			"approval_threshold": 0.6,
			"min_votes_required": 1,
			"expected_votes":     2,
		},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", w.Code, w.Body.String())
	}
}

func TestSubmitVoteAsGuest(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, nil)

	w := f.do(t, http.MethodPost, "/votes/submit", "", gin.H{
		"share_link": session.ShareLink,
		"value":      true,
		"comment":    "sounds fun",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Same client IP voting again is a conflict.
	w = f.do(t, http.MethodPost, "/votes/submit", "", gin.H{
		"share_link": session.ShareLink,
		"value":      false,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("resubmit status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Code != "DUPLICATE_VOTE" {
		t.Errorf("code = %s, want DUPLICATE_VOTE", env.Code)
	}
}

func TestSubmitVoteFalseValueAccepted(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, nil)

	w := f.do(t, http.MethodPost, "/votes/submit", f.token(t, uuid.New()), gin.H{
		"share_link": session.ShareLink,
		"value":      false,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("AGAINST vote rejected: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSubmitVoteMissingValue(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, nil)

	w := f.do(t, http.MethodPost, "/votes/submit", "", gin.H{
		"share_link": session.ShareLink,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitGuestForbiddenWhenAnonymousDisallowed(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, func(s *voting.VotingSession) {
		s.Rules.AnonymousAllowed = false
	})

	w := f.do(t, http.MethodPost, "/votes/submit", "", gin.H{
		"share_link": session.ShareLink,
		"value":      true,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", w.Code, w.Body.String())
	}
}

func TestResultsEndpoint(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, nil)
	voterID := uuid.New()
	f.store.SetUserEmail(voterID, "alice@example.com")

	w := f.do(t, http.MethodPost, "/votes/submit", f.token(t, voterID), gin.H{
		"share_link": session.ShareLink,
		"value":      true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/votes/results/"+session.ShareLink, f.token(t, voterID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results status = %d, body = %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var data struct {
		Status   string `json:"status"`
		Outcome  string `json:"outcome"`
		YouVoted bool   `json:"you_voted"`
		Counts   struct {
			Total int `json:"total"`
			For   int `json:"for"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Counts.Total != 1 || data.Counts.For != 1 {
		t.Errorf("counts = %+v, want one FOR vote", data.Counts)
	}
	if data.Outcome != string(voting.OutcomeApproved) {
		t.Errorf("outcome = %s, want APPROVED", data.Outcome)
	}
	if !data.YouVoted {
		t.Errorf("you_voted = false for the voter")
	}
}

func TestResultsUnknownLink(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/votes/results/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCloseExpiredEndpoint(t *testing.T) {
	f := newFixture(t)
	expired := time.Now().Add(-time.Hour)
	f.seedSession(t, func(s *voting.VotingSession) {
		s.ExpiresAt = &expired
	})

	w := f.do(t, http.MethodPost, "/votes/close-expired", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var data struct {
		NewlyClosedCount int `json:"newly_closed_count"`
		EmailedCount     int `json:"emailed_count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.NewlyClosedCount != 1 || data.EmailedCount != 1 {
		t.Errorf("data = %+v, want 1 closed and 1 emailed", data)
	}
}

func TestSendResultsEndpointIdempotent(t *testing.T) {
	f := newFixture(t)
	completedAt := time.Now()
	session := f.seedSession(t, func(s *voting.VotingSession) {
		s.Status = voting.StatusCompleted
		s.CompletedAt = &completedAt
	})
	token := f.token(t, session.CreatorID)
	path := fmt.Sprintf("/votes/send-results/%s", session.ID)

	w := f.do(t, http.MethodPost, path, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var data struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != "sent" {
		t.Errorf("first call status = %s, want sent", data.Status)
	}

	w = f.do(t, http.MethodPost, path, token, nil)
	env = decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != "already_sent" {
		t.Errorf("second call status = %s, want already_sent", data.Status)
	}
}

func TestSendResultsOnActiveSessionConflicts(t *testing.T) {
	f := newFixture(t)
	session := f.seedSession(t, nil)

	w := f.do(t, http.MethodPost, "/votes/send-results/"+session.ID.String(), f.token(t, session.CreatorID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
}
