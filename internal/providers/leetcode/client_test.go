package leetcode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/providers"
)

func mirrorServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/%s"
}

func statsHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func failingHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

func TestFetchStats_FirstMirrorWins(t *testing.T) {
	t.Parallel()

	secondHit := false
	mirrors := []string{
		mirrorServer(t, statsHandler(`{"totalSolved": 120, "easySolved": 60, "mediumSolved": 40, "hardSolved": 20, "acceptanceRate": 61.2}`)),
		mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
			secondHit = true
		}),
	}

	client := NewClient(mirrors, 5*time.Second)
	stats, err := client.FetchStats(context.Background(), "coder")

	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalSolved)
	assert.Equal(t, 60, stats.EasySolved)
	assert.Equal(t, 40, stats.MediumSolved)
	assert.Equal(t, 20, stats.HardSolved)
	assert.InDelta(t, 61.2, stats.AcceptanceRate, 0.001)
	assert.False(t, stats.Failed)
	assert.False(t, secondHit, "second mirror must not be queried after a success")
}

func TestFetchStats_SkipsErrorShapedResponse(t *testing.T) {
	t.Parallel()

	mirrors := []string{
		mirrorServer(t, statsHandler(`{"status": "error", "message": "user does not exist"}`)),
		mirrorServer(t, statsHandler(`{"solvedProblem": 77, "easySolved": 50, "mediumSolved": 20, "hardSolved": 7}`)),
	}

	client := NewClient(mirrors, 5*time.Second)
	stats, err := client.FetchStats(context.Background(), "coder")

	require.NoError(t, err)
	assert.Equal(t, 77, stats.TotalSolved)
	assert.Equal(t, 7, stats.HardSolved)
}

func TestFetchStats_SkipsTransportFailure(t *testing.T) {
	t.Parallel()

	mirrors := []string{
		mirrorServer(t, failingHandler(http.StatusBadGateway)),
		mirrorServer(t, statsHandler(`{"totalSolved": 5, "easySolved": 5}`)),
	}

	client := NewClient(mirrors, 5*time.Second)
	stats, err := client.FetchStats(context.Background(), "coder")

	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalSolved)
}

func TestFetchStats_AllMirrorsFail(t *testing.T) {
	t.Parallel()

	mirrors := []string{
		mirrorServer(t, failingHandler(http.StatusBadGateway)),
		mirrorServer(t, statsHandler(`{"status": "error", "message": "user does not exist"}`)),
		mirrorServer(t, failingHandler(http.StatusServiceUnavailable)),
	}

	client := NewClient(mirrors, 5*time.Second)
	stats, err := client.FetchStats(context.Background(), "ghost")

	require.Error(t, err)

	var allFailed *providers.AllFailedError
	require.True(t, errors.As(err, &allFailed))
	assert.Len(t, allFailed.Reasons, 3)

	// The error record is still a usable snapshot: flagged, zeroed,
	// carrying every mirror's reason.
	require.NotNil(t, stats)
	assert.True(t, stats.Failed)
	assert.Zero(t, stats.TotalSolved)
	assert.Zero(t, stats.EasySolved)
	assert.Contains(t, stats.Message, "mirror 1")
	assert.Contains(t, stats.Message, "user does not exist")
	assert.Contains(t, stats.Message, "mirror 3")
}

func TestFetchStats_RejectsNon200WithBody(t *testing.T) {
	t.Parallel()

	mirrors := []string{
		mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"totalSolved": 9999}`)) // must be ignored
		}),
	}

	client := NewClient(mirrors, 5*time.Second)
	stats, err := client.FetchStats(context.Background(), "coder")

	require.Error(t, err)
	assert.True(t, stats.Failed)
}

func TestNewClient_DefaultMirrors(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, time.Second)
	assert.Equal(t, DefaultMirrors, client.mirrors)
}
