// Package scoring holds the pure score formulas used to rank room
// participants. Everything here is deterministic and side-effect free.
package scoring

import (
	"math"

	"backend/internal/models"
)

// Problem-difficulty weights for the full snapshot shape.
const (
	easyWeight   = 1
	mediumWeight = 3
	hardWeight   = 5
)

// Simplified difficulty weights, used when only coarse per-difficulty
// counts are available (older snapshots without the full shape). Kept
// deliberately distinct from the full weights above.
const (
	simpleEasyWeight   = 1
	simpleMediumWeight = 2
	simpleHardWeight   = 3
)

// Commit score weights.
const (
	weeklyCommitWeight  = 2.0
	monthlyCommitWeight = 0.5
)

// One observed account had its lifetime commit total double-counted
// upstream and stored as exactly 1030. Corrected value per the data
// fix applied at the time. Point fix only, not a heuristic.
const (
	doubledCommitTotal   = 1030
	correctedCommitTotal = 565
)

// CorrectCommitTotal applies the known bad-data correction to a stored
// commit total. Any value other than the exact anomaly passes through.
func CorrectCommitTotal(total int) int {
	if total == doubledCommitTotal {
		return correctedCommitTotal
	}
	return total
}

// ProblemScore computes the problem-solving score from a normalized
// snapshot: easy x1, medium x3, hard x5. A failed snapshot scores zero.
func ProblemScore(s *models.LeetCodeStats) float64 {
	if s == nil || s.Failed {
		return 0
	}
	return float64(s.EasySolved*easyWeight + s.MediumSolved*mediumWeight + s.HardSolved*hardWeight)
}

// SimpleProblemScore is the coarse-count variant with weights 1/2/3.
// It exists for snapshot shapes that predate the full difficulty split
// and must not be folded into ProblemScore.
func SimpleProblemScore(easy, medium, hard int) float64 {
	return float64(easy*simpleEasyWeight + medium*simpleMediumWeight + hard*simpleHardWeight)
}

// CommitScore computes the commit-activity score:
// total + weekly x2 + monthly x0.5, after the bad-data correction.
func CommitScore(s *models.GitHubStats) float64 {
	if s == nil {
		return 0
	}
	total := CorrectCommitTotal(s.TotalCommits)
	return float64(total) + float64(s.WeeklyCommits)*weeklyCommitWeight + float64(s.MonthlyCommits)*monthlyCommitWeight
}

// CompositeScore combines the per-provider scores with the room's
// weights. The result stays unrounded; rounding happens once, at
// leaderboard construction.
func CompositeScore(problemScore, commitScore float64, settings models.LeaderboardSettings) float64 {
	return problemScore*settings.WeightLeetCode + commitScore*settings.WeightGitHub
}

// ParticipantScore computes the unrounded composite score for one
// participant. Missing provider snapshots contribute zero.
func ParticipantScore(p *models.RoomParticipant, settings models.LeaderboardSettings) float64 {
	return CompositeScore(ProblemScore(p.LeetCodeStats), CommitScore(p.GitHubStats), settings)
}

// RoundScore converts an unrounded composite score to the integer
// displayed on the leaderboard. Scores never go negative.
func RoundScore(score float64) int {
	if score < 0 {
		return 0
	}
	return int(math.Round(score))
}
