package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var got postmarkEmail
	var gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("token-123", "noreply@tripvote.test", WithAPIURL(srv.URL))
	if err := client.Send("alice@example.com", "Voting Results: Lisbon", "final tally"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotToken != "token-123" {
		t.Errorf("server token = %q, want token-123", gotToken)
	}
	if got.From != "noreply@tripvote.test" || got.To != "alice@example.com" {
		t.Errorf("addresses = %q -> %q", got.From, got.To)
	}
	if got.Subject != "Voting Results: Lisbon" || got.TextBody != "final tally" {
		t.Errorf("content = %q / %q", got.Subject, got.TextBody)
	}
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient("token-123", "noreply@tripvote.test", WithAPIURL(srv.URL))
	if err := client.Send("alice@example.com", "subject", "body"); err == nil {
		t.Fatal("Send succeeded against a 422 response")
	}
}

func TestSendUnconfigured(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient("", "noreply@tripvote.test", WithAPIURL(srv.URL))
	if client.Configured() {
		t.Error("Configured() = true with empty token")
	}
	if err := client.Send("alice@example.com", "subject", "body"); err == nil {
		t.Fatal("Send succeeded without a server token")
	}
	if calls != 0 {
		t.Errorf("unconfigured client hit the API %d times", calls)
	}
}
