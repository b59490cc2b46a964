package models

import (
	"time"
)

// Provider names used as map keys and cache key segments
const (
	ProviderGitHub   = "github"
	ProviderLeetCode = "leetcode"
)

// Commit stat acquisition methods. The method tag records which fetch
// strategy produced the snapshot.
const (
	MethodAccurate  = "accurate"
	MethodEstimate  = "estimate"
	MethodSearchAPI = "search_api"
	MethodFallback  = "fallback"
)

// GitHubStats is the normalized commit-activity snapshot
type GitHubStats struct {
	TotalCommits   int       `json:"total_commits"`
	WeeklyCommits  int       `json:"weekly_commits"`
	MonthlyCommits int       `json:"monthly_commits"`
	PublicRepos    int       `json:"public_repos,omitempty"`
	Method         string    `json:"method"`
	LastUpdated    time.Time `json:"last_updated"`
}

// FallbackGitHubStats returns the fixed snapshot used when a username
// cannot be resolved at all. Counts are conservative zeros.
func FallbackGitHubStats() *GitHubStats {
	return &GitHubStats{
		TotalCommits:   0,
		WeeklyCommits:  0,
		MonthlyCommits: 0,
		Method:         MethodFallback,
		LastUpdated:    time.Now(),
	}
}

// LeetCodeStats is the normalized problem-solving snapshot
type LeetCodeStats struct {
	TotalSolved        int     `json:"total_solved"`
	EasySolved         int     `json:"easy_solved"`
	MediumSolved       int     `json:"medium_solved"`
	HardSolved         int     `json:"hard_solved"`
	TotalQuestions     int     `json:"total_questions,omitempty"`
	AcceptanceRate     float64 `json:"acceptance_rate,omitempty"`
	Ranking            int     `json:"ranking,omitempty"`
	ContributionPoints int     `json:"contribution_points,omitempty"`
	Reputation         int     `json:"reputation,omitempty"`
	Failed             bool    `json:"failed,omitempty"`
	Message            string  `json:"message,omitempty"`
}

// FailedLeetCodeStats returns the error-flagged record produced when
// every mirror endpoint failed. Counts are zeroed, the message carries
// the concatenated failure reasons.
func FailedLeetCodeStats(message string) *LeetCodeStats {
	return &LeetCodeStats{
		Failed:  true,
		Message: message,
	}
}
