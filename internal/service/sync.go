package service

import (
	"context"
	"fmt"
	"log"

	"backend/internal/models"
)

// SyncUserProfiles applies a user's updated provider usernames to every
// room where the user is an active participant, re-running acquisition
// for the changed providers in each room. Rooms are processed
// independently: a fetch or save failure in one room is recorded in the
// report and never prevents the remaining rooms from updating.
func (s *StatsService) SyncUserProfiles(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*models.SyncReport, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	githubChanged := req.GitHubUsername != user.GitHubUsername
	leetcodeChanged := req.LeetCodeUsername != user.LeetCodeUsername

	report := &models.SyncReport{UserID: userID}

	if !githubChanged && !leetcodeChanged {
		return report, nil
	}

	user.GitHubUsername = req.GitHubUsername
	user.LeetCodeUsername = req.LeetCodeUsername
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %v: %w", userID, err, ErrPersistence)
	}

	rooms, err := s.rooms.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range rooms {
		room := &rooms[i]
		result := s.syncRoom(ctx, room, userID, req, githubChanged, leetcodeChanged)
		report.RoomsVisited++
		if result.Updated {
			report.RoomsUpdated++
		}
		if result.Error != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("room %s: %s", result.RoomID, result.Error))
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// syncRoom propagates the profile change into a single room. All
// failures are folded into the result so the caller's loop never
// aborts.
func (s *StatsService) syncRoom(ctx context.Context, room *models.Room, userID string, req models.ProfileUpdateRequest, githubChanged, leetcodeChanged bool) models.SyncRoomResult {
	result := models.SyncRoomResult{RoomID: room.ID}

	participant := room.ActiveParticipant(userID)
	if participant == nil {
		result.Error = "no active participant"
		return result
	}

	if githubChanged {
		participant.GitHubUsername = req.GitHubUsername
		if req.GitHubUsername == "" {
			// Back to unlinked: a snapshot may only exist alongside a
			// non-empty username.
			participant.GitHubStats = nil
		}
	}
	if leetcodeChanged {
		participant.LeetCodeUsername = req.LeetCodeUsername
		if req.LeetCodeUsername == "" {
			participant.LeetCodeStats = nil
		}
	}

	_, warnings := s.refreshSnapshots(ctx, participant,
		githubChanged && req.GitHubUsername != "",
		leetcodeChanged && req.LeetCodeUsername != "")
	for _, w := range warnings {
		log.Printf("Profile sync for user %s in room %s: %s", userID, room.ID, w)
	}

	if err := s.rooms.SaveParticipant(ctx, participant); err != nil {
		result.Error = fmt.Sprintf("save failed: %v", err)
		return result
	}

	result.Updated = true
	s.cacheLeaderboard(ctx, room)
	return result
}
