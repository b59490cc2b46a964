package scoring

import (
	"sort"

	"backend/internal/models"
)

// BuildLeaderboard ranks a room's active participants by composite
// score using tie-aware ranking (1224): participants with equal scores
// share a rank, and the next distinct score is offset by the number of
// tied participants above it. The sort is stable, so ties keep their
// input order.
func BuildLeaderboard(participants []models.RoomParticipant, settings models.LeaderboardSettings) []models.LeaderboardEntry {
	type scored struct {
		participant *models.RoomParticipant
		score       int
	}

	rows := make([]scored, 0, len(participants))
	for i := range participants {
		p := &participants[i]
		if !p.IsActive {
			continue
		}
		rows = append(rows, scored{
			participant: p,
			score:       RoundScore(ParticipantScore(p, settings)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].score > rows[j].score
	})

	entries := make([]models.LeaderboardEntry, 0, len(rows))

	currentRank := 1
	previousScore := 0
	sameRankCount := 0

	for i, row := range rows {
		if i == 0 {
			previousScore = row.score
			sameRankCount = 1
		} else if row.score == previousScore {
			sameRankCount++
		} else {
			currentRank += sameRankCount
			previousScore = row.score
			sameRankCount = 1
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:             currentRank,
			UserID:           row.participant.UserID,
			DisplayName:      row.participant.DisplayName,
			GitHubUsername:   row.participant.GitHubUsername,
			LeetCodeUsername: row.participant.LeetCodeUsername,
			TotalScore:       row.score,
		})
	}

	return entries
}
