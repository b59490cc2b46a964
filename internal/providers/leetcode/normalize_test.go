package leetcode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrom(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func TestNormalize_AliasedFieldNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "herokuapp shape",
			body: `{"totalSolved": 100, "easySolved": 50, "mediumSolved": 35, "hardSolved": 15, "acceptanceRate": 55.5, "ranking": 123456, "contributionPoints": 12, "reputation": 3}`,
		},
		{
			name: "vercel shape",
			body: `{"solvedProblem": 100, "easySolved": 50, "mediumSolved": 35, "hardSolved": 15, "acRate": 55.5, "ranking": 123456, "contributionPoint": 12, "reputation": 3}`,
		},
		{
			name: "snake case shape",
			body: `{"total_solved": 100, "easy_solved": 50, "medium_solved": 35, "hard_solved": 15, "acceptance_rate": 55.5, "ranking": 123456, "contribution_points": 12, "reputation": 3}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stats := normalize(rawFrom(t, tt.body))
			assert.Equal(t, 100, stats.TotalSolved)
			assert.Equal(t, 50, stats.EasySolved)
			assert.Equal(t, 35, stats.MediumSolved)
			assert.Equal(t, 15, stats.HardSolved)
			assert.InDelta(t, 55.5, stats.AcceptanceRate, 0.001)
			assert.Equal(t, 123456, stats.Ranking)
			assert.Equal(t, 12, stats.ContributionPoints)
			assert.Equal(t, 3, stats.Reputation)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	once := normalize(rawFrom(t, `{"solvedProblem": 88, "easySolved": 40, "mediumSolved": 30, "hardSolved": 18, "acRate": "72.4%"}`))

	payload, err := json.Marshal(once)
	require.NoError(t, err)

	twice := normalize(rawFrom(t, string(payload)))
	assert.Equal(t, once, twice)
}

func TestNormalize_NumericStrings(t *testing.T) {
	t.Parallel()

	stats := normalize(rawFrom(t, `{"totalSolved": "42", "easySolved": "40", "acceptanceRate": "63.1%"}`))

	assert.Equal(t, 42, stats.TotalSolved)
	assert.Equal(t, 40, stats.EasySolved)
	assert.InDelta(t, 63.1, stats.AcceptanceRate, 0.001)
}

func TestNormalize_DerivesTotalFromDifficulties(t *testing.T) {
	t.Parallel()

	stats := normalize(rawFrom(t, `{"easySolved": 10, "mediumSolved": 5, "hardSolved": 1}`))

	assert.Equal(t, 16, stats.TotalSolved)
}

func TestNormalize_MissingFieldsStayZero(t *testing.T) {
	t.Parallel()

	stats := normalize(rawFrom(t, `{}`))

	assert.Zero(t, stats.TotalSolved)
	assert.Zero(t, stats.EasySolved)
	assert.Zero(t, stats.AcceptanceRate)
	assert.False(t, stats.Failed)
}

func TestIsErrorShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		failed  bool
		message string
	}{
		{
			name:    "explicit error status",
			body:    `{"status": "error", "message": "user does not exist"}`,
			failed:  true,
			message: "user does not exist",
		},
		{
			name:   "errors payload",
			body:   `{"errors": [{"message": "boom"}], "message": "that user does not exist"}`,
			failed: true,
		},
		{
			name:    "bare failure message",
			body:    `{"message": "rate limit exceeded"}`,
			failed:  true,
			message: "rate limit exceeded",
		},
		{
			name:   "stats with informational message",
			body:   `{"totalSolved": 3, "message": "retrieved"}`,
			failed: false,
		},
		{
			name:   "success status",
			body:   `{"status": "success", "totalSolved": 3}`,
			failed: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg, failed := isErrorShape(rawFrom(t, tt.body))
			assert.Equal(t, tt.failed, failed)
			if tt.message != "" {
				assert.Equal(t, tt.message, msg)
			}
		})
	}
}
