// Package service wires the provider adapters, scoring and the room
// stores into the stats acquisition pipeline exposed to the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/models"
	"backend/internal/scoring"
)

// ErrPersistence marks a collaborator write failure. Unlike provider
// failures it fails the surrounding operation, since the computed data
// would otherwise be lost silently.
var ErrPersistence = errors.New("persistence failure")

// RoomStore is the room persistence collaborator
type RoomStore interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	RoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	SaveParticipant(ctx context.Context, p *models.RoomParticipant) error
}

// UserStore is the user persistence collaborator
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// CommitProvider acquires normalized commit-activity snapshots
type CommitProvider interface {
	FetchStats(ctx context.Context, username string) (*models.GitHubStats, error)
}

// ProblemProvider acquires normalized problem-solving snapshots
type ProblemProvider interface {
	FetchStats(ctx context.Context, username string) (*models.LeetCodeStats, error)
}

// SnapshotCache shields the providers from repeated lookups and holds
// the per-room leaderboard cache with its change-detection version
// counter. Optional: a nil cache disables it.
type SnapshotCache interface {
	GetGitHubStats(ctx context.Context, username string) (*models.GitHubStats, error)
	SetGitHubStats(ctx context.Context, username string, stats *models.GitHubStats, ttl time.Duration) error
	GetLeetCodeStats(ctx context.Context, username string) (*models.LeetCodeStats, error)
	SetLeetCodeStats(ctx context.Context, username string, stats *models.LeetCodeStats, ttl time.Duration) error
	StoreLeaderboard(ctx context.Context, roomID string, entries []models.LeaderboardEntry) error
	GetLeaderboardVersion(ctx context.Context, roomID string) (int64, error)
}

// StatsService implements the stats acquisition and scoring pipeline
type StatsService struct {
	rooms    RoomStore
	users    UserStore
	github   CommitProvider
	leetcode ProblemProvider
	cache    SnapshotCache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewStatsService creates the stats pipeline service. cache may be nil.
func NewStatsService(
	rooms RoomStore,
	users UserStore,
	github CommitProvider,
	leetcode ProblemProvider,
	cache SnapshotCache,
	cacheTTL time.Duration,
) *StatsService {
	return &StatsService{
		rooms:    rooms,
		users:    users,
		github:   github,
		leetcode: leetcode,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// GetStats looks up per-provider snapshots for a single identity.
// Cache-first; provider failures degrade to fallback snapshots with
// warnings, the operation itself still succeeds.
func (s *StatsService) GetStats(ctx context.Context, githubUser, leetcodeUser string) (*models.StatsResponse, error) {
	resp := &models.StatsResponse{}

	if githubUser != "" {
		if cached := s.cachedGitHub(ctx, githubUser); cached != nil {
			resp.GitHub = cached
		} else {
			stats, err := s.github.FetchStats(ctx, githubUser)
			if err != nil {
				resp.Warnings = append(resp.Warnings, fmt.Sprintf("github: %v", err))
			} else {
				s.cacheGitHub(ctx, githubUser, stats)
			}
			resp.GitHub = stats
		}
	}

	if leetcodeUser != "" {
		if cached := s.cachedLeetCode(ctx, leetcodeUser); cached != nil {
			resp.LeetCode = cached
		} else {
			stats, err := s.leetcode.FetchStats(ctx, leetcodeUser)
			if err != nil {
				resp.Warnings = append(resp.Warnings, fmt.Sprintf("leetcode: %v", err))
			} else {
				s.cacheLeetCode(ctx, leetcodeUser, stats)
			}
			resp.LeetCode = stats
		}
	}

	return resp, nil
}

// RefreshParticipant re-runs acquisition for one room participant and
// persists the result. Provider failures degrade to warnings; a failed
// save fails the operation.
func (s *StatsService) RefreshParticipant(ctx context.Context, roomID, userID string) (*models.RefreshParticipantResponse, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	participant := room.ActiveParticipant(userID)
	if participant == nil {
		return nil, fmt.Errorf("user %s is not an active participant of room %s", userID, roomID)
	}

	updates, warnings := s.refreshSnapshots(ctx, participant, true, true)

	if len(updates) > 0 {
		if err := s.rooms.SaveParticipant(ctx, participant); err != nil {
			return nil, fmt.Errorf("save participant %s: %v: %w", userID, err, ErrPersistence)
		}
	}

	return &models.RefreshParticipantResponse{
		Updates:     updates,
		Warnings:    warnings,
		Participant: participant,
	}, nil
}

// RefreshRoom refreshes every active participant of a room. Each
// participant is processed independently: a provider outage or save
// failure for one is recorded as a warning and never blocks the rest.
func (s *StatsService) RefreshRoom(ctx context.Context, roomID string) (*models.RefreshRoomResponse, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	resp := &models.RefreshRoomResponse{RoomID: roomID}

	for i := range room.Participants {
		participant := &room.Participants[i]
		if !participant.IsActive {
			continue
		}

		updates, warnings := s.refreshSnapshots(ctx, participant, true, true)
		for _, w := range warnings {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: %s", participant.DisplayName, w))
		}
		if len(updates) == 0 {
			continue
		}

		if err := s.rooms.SaveParticipant(ctx, participant); err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: save failed: %v", participant.DisplayName, err))
			continue
		}
		resp.UpdatedCount++
	}

	s.cacheLeaderboard(ctx, room)

	return resp, nil
}

// ComputeLeaderboard ranks a room's active participants
func (s *StatsService) ComputeLeaderboard(ctx context.Context, roomID string) (*models.LeaderboardResponse, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	entries := scoring.BuildLeaderboard(room.Participants, room.LeaderboardSettings())
	s.cacheLeaderboard(ctx, room)

	return &models.LeaderboardResponse{
		RoomID:   roomID,
		Version:  s.leaderboardVersion(ctx, roomID),
		Entries:  entries,
		Settings: room.LeaderboardSettings(),
	}, nil
}

// leaderboardVersion reads the room's cached version counter. Zero when
// no cache is configured or the read fails; a reader cannot distinguish
// "no cache" from "first version", which is fine for change detection.
func (s *StatsService) leaderboardVersion(ctx context.Context, roomID string) int64 {
	if s.cache == nil {
		return 0
	}
	version, err := s.cache.GetLeaderboardVersion(ctx, roomID)
	if err != nil {
		log.Printf("Leaderboard version read failed for room %s: %v", roomID, err)
		return 0
	}
	return version
}

// RefreshRoomID is the background-refresh entry point used by the
// worker pool. Warnings are logged since no caller is waiting.
func (s *StatsService) RefreshRoomID(ctx context.Context, roomID string) error {
	resp, err := s.RefreshRoom(ctx, roomID)
	if err != nil {
		return err
	}
	for _, w := range resp.Warnings {
		log.Printf("Background refresh of room %s: %s", roomID, w)
	}
	return nil
}

// refreshSnapshots re-runs acquisition for the requested providers on
// one participant. A provider snapshot is only ever replaced whole; on
// failure the previous snapshot stays (last-known-good) unless none
// existed, in which case the provider's fallback record is stored.
// Returns the list of providers updated and the warnings recorded.
func (s *StatsService) refreshSnapshots(ctx context.Context, p *models.RoomParticipant, doGitHub, doLeetCode bool) (updates, warnings []string) {
	touched := false

	if doGitHub && p.GitHubUsername != "" {
		stats, err := s.github.FetchStats(ctx, p.GitHubUsername)
		switch {
		case err == nil:
			p.GitHubStats = stats
			s.cacheGitHub(ctx, p.GitHubUsername, stats)
			updates = append(updates, models.ProviderGitHub)
			touched = true
		case p.GitHubStats == nil:
			// No previous snapshot to fall back on, keep the fixed
			// fallback record so the participant still ranks.
			p.GitHubStats = stats
			warnings = append(warnings, fmt.Sprintf("github: using fallback stats: %v", err))
			updates = append(updates, models.ProviderGitHub)
			touched = true
		default:
			warnings = append(warnings, fmt.Sprintf("github: kept previous stats: %v", err))
		}
	}

	if doLeetCode && p.LeetCodeUsername != "" {
		stats, err := s.leetcode.FetchStats(ctx, p.LeetCodeUsername)
		switch {
		case err == nil:
			p.LeetCodeStats = stats
			s.cacheLeetCode(ctx, p.LeetCodeUsername, stats)
			updates = append(updates, models.ProviderLeetCode)
			touched = true
		case p.LeetCodeStats == nil:
			p.LeetCodeStats = stats
			warnings = append(warnings, fmt.Sprintf("leetcode: using fallback stats: %v", err))
			updates = append(updates, models.ProviderLeetCode)
			touched = true
		default:
			warnings = append(warnings, fmt.Sprintf("leetcode: kept previous stats: %v", err))
		}
	}

	if touched {
		now := s.now()
		p.StatsLastUpdated = &now
	}
	return updates, warnings
}

// cacheLeaderboard stores the room's current ranking in the cache.
// Best-effort: cache failures are logged, never surfaced.
func (s *StatsService) cacheLeaderboard(ctx context.Context, room *models.Room) {
	if s.cache == nil {
		return
	}
	entries := scoring.BuildLeaderboard(room.Participants, room.LeaderboardSettings())
	if err := s.cache.StoreLeaderboard(ctx, room.ID, entries); err != nil {
		log.Printf("Failed to cache leaderboard for room %s: %v", room.ID, err)
	}
}

func (s *StatsService) cachedGitHub(ctx context.Context, username string) *models.GitHubStats {
	if s.cache == nil {
		return nil
	}
	stats, err := s.cache.GetGitHubStats(ctx, username)
	if err != nil {
		log.Printf("GitHub stats cache read failed for %s: %v", username, err)
		return nil
	}
	return stats
}

func (s *StatsService) cacheGitHub(ctx context.Context, username string, stats *models.GitHubStats) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetGitHubStats(ctx, username, stats, s.cacheTTL); err != nil {
		log.Printf("GitHub stats cache write failed for %s: %v", username, err)
	}
}

func (s *StatsService) cachedLeetCode(ctx context.Context, username string) *models.LeetCodeStats {
	if s.cache == nil {
		return nil
	}
	stats, err := s.cache.GetLeetCodeStats(ctx, username)
	if err != nil {
		log.Printf("LeetCode stats cache read failed for %s: %v", username, err)
		return nil
	}
	return stats
}

func (s *StatsService) cacheLeetCode(ctx context.Context, username string, stats *models.LeetCodeStats) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLeetCodeStats(ctx, username, stats, s.cacheTTL); err != nil {
		log.Printf("LeetCode stats cache write failed for %s: %v", username, err)
	}
}
