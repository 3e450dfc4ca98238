package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSlackSenderPostsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlackSender(srv.URL)
	err := s.Send(context.Background(), "Execution failed", "X1: no confirmation")
	require.NoError(t, err)
	assert.Equal(t, "*Execution failed*\nX1: no confirmation", got["text"])
}

func TestSlackSenderNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSlackSender(srv.URL).Send(context.Background(), "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// failingSender always errors; the notifier must swallow it.
type failingSender struct{}

func (failingSender) Send(context.Context, string, string) error {
	return assert.AnError
}
func (failingSender) Name() string { return "failing" }

func TestNotifierSwallowsSenderFailures(t *testing.T) {
	n := NewNotifier([]Sender{failingSender{}}, nil, testLogger())
	// Must not panic or bubble the error anywhere.
	n.Notify(context.Background(), "execution_failed", "title", "body")
}

func TestNotifierFiltersEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("filtered event must not reach the sender")
	}))
	defer srv.Close()

	n := NewNotifier([]Sender{NewSlackSender(srv.URL)}, []string{"execution_failed"}, testLogger())
	n.Notify(context.Background(), "proposal_rejected", "title", "body")
}
