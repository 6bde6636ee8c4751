package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventReturnsExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": "evt-123"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret")

	id, err := client.CreateEvent(context.Background(), EventDetails{
		Title: "Lesson #1",
		Start: time.Now(),
		End:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", id)
}

func TestUnauthorizedIsSentinelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "expired")

	_, err := client.ListBusyIntervals(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshCredentialSwapsToken(t *testing.T) {
	var lastAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/token/refresh" {
			w.Write([]byte(`{"token": "fresh"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "stale")

	require.NoError(t, client.RefreshCredential(context.Background()))

	_, err := client.ListBusyIntervals(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh", lastAuth)
}

func TestNotConfiguredClientFailsFast(t *testing.T) {
	client := NewHTTPClient("", "")

	err := client.DeleteEvent(context.Background(), "evt-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
