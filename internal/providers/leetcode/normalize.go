package leetcode

import (
	"encoding/json"
	"strconv"
	"strings"

	"backend/internal/models"
)

// fieldAliases lists, per canonical field, the source field names the
// mirror APIs are known to use, in lookup order. The canonical name
// comes first so normalizing an already-normalized record is a no-op.
// Keep this table as the single place where mirror schemas reconcile.
var fieldAliases = struct {
	totalSolved        []string
	easySolved         []string
	mediumSolved       []string
	hardSolved         []string
	totalQuestions     []string
	acceptanceRate     []string
	ranking            []string
	contributionPoints []string
	reputation         []string
}{
	totalSolved:        []string{"total_solved", "totalSolved", "solvedProblem", "totalSolvedCount"},
	easySolved:         []string{"easy_solved", "easySolved", "easySolvedCount", "easySolvedProblem"},
	mediumSolved:       []string{"medium_solved", "mediumSolved", "mediumSolvedCount", "mediumSolvedProblem"},
	hardSolved:         []string{"hard_solved", "hardSolved", "hardSolvedCount", "hardSolvedProblem"},
	totalQuestions:     []string{"total_questions", "totalQuestions", "totalProblems", "totalQuestionCount"},
	acceptanceRate:     []string{"acceptance_rate", "acceptanceRate", "acRate"},
	ranking:            []string{"ranking", "rank", "globalRanking"},
	contributionPoints: []string{"contribution_points", "contributionPoints", "contributionPoint"},
	reputation:         []string{"reputation", "reputationPoints"},
}

// normalize reconciles one mirror's raw response into the canonical
// snapshot shape. Missing fields stay zero; a missing total is derived
// from the per-difficulty counts.
func normalize(raw map[string]json.RawMessage) *models.LeetCodeStats {
	stats := &models.LeetCodeStats{
		TotalSolved:        intField(raw, fieldAliases.totalSolved),
		EasySolved:         intField(raw, fieldAliases.easySolved),
		MediumSolved:       intField(raw, fieldAliases.mediumSolved),
		HardSolved:         intField(raw, fieldAliases.hardSolved),
		TotalQuestions:     intField(raw, fieldAliases.totalQuestions),
		AcceptanceRate:     floatField(raw, fieldAliases.acceptanceRate),
		Ranking:            intField(raw, fieldAliases.ranking),
		ContributionPoints: intField(raw, fieldAliases.contributionPoints),
		Reputation:         intField(raw, fieldAliases.reputation),
	}

	if stats.TotalSolved == 0 {
		stats.TotalSolved = stats.EasySolved + stats.MediumSolved + stats.HardSolved
	}
	return stats
}

// isErrorShape reports whether a decoded mirror response is an error
// payload rather than a stats record, returning the failure message.
func isErrorShape(raw map[string]json.RawMessage) (string, bool) {
	if status, ok := stringValue(raw["status"]); ok && strings.EqualFold(status, "error") {
		if msg, ok := stringValue(raw["message"]); ok {
			return msg, true
		}
		return "mirror reported error status", true
	}
	if _, ok := raw["errors"]; ok {
		if msg, ok := stringValue(raw["message"]); ok {
			return msg, true
		}
		return "mirror returned an errors payload", true
	}
	// A bare message with none of the solved-count fields is a failure
	// response (e.g. {"message": "user does not exist"}).
	if msg, ok := stringValue(raw["message"]); ok {
		if !hasAnyField(raw, fieldAliases.totalSolved) && !hasAnyField(raw, fieldAliases.easySolved) {
			return msg, true
		}
	}
	return "", false
}

func hasAnyField(raw map[string]json.RawMessage, candidates []string) bool {
	for _, name := range candidates {
		if _, ok := raw[name]; ok {
			return true
		}
	}
	return false
}

// intField returns the first candidate field decodable as an integer.
// Mirrors disagree on types too, so numeric strings are accepted.
func intField(raw map[string]json.RawMessage, candidates []string) int {
	for _, name := range candidates {
		value, ok := raw[name]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(value, &n); err == nil {
			return n
		}
		var f float64
		if err := json.Unmarshal(value, &f); err == nil {
			return int(f)
		}
		if s, ok := stringValue(value); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return n
			}
		}
	}
	return 0
}

func floatField(raw map[string]json.RawMessage, candidates []string) float64 {
	for _, name := range candidates {
		value, ok := raw[name]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(value, &f); err == nil {
			return f
		}
		if s, ok := stringValue(value); ok {
			s = strings.TrimSuffix(strings.TrimSpace(s), "%")
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func stringValue(value json.RawMessage) (string, bool) {
	if value == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", false
	}
	return s, true
}
