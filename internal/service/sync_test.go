package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

func syncFixture(t *testing.T) (*fakeRoomStore, *fakeUserStore, *fakeCommitProvider, *fakeProblemProvider) {
	t.Helper()

	roomA := testRoom("room-a", testParticipant("u1", "old-gh", "old-lc"))
	roomB := testRoom("room-b", testParticipant("u1", "old-gh", "old-lc"))
	rooms := newFakeRoomStore(roomA, roomB)

	// Participants start with the last-known-good snapshots for their
	// current identities, like rows loaded from the database.
	for _, room := range []*models.Room{roomA, roomB} {
		p := room.ActiveParticipant("u1")
		p.GitHubStats = &models.GitHubStats{TotalCommits: 10}
		p.LeetCodeStats = &models.LeetCodeStats{TotalSolved: 10, EasySolved: 10}
	}

	users := &fakeUserStore{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "u1", GitHubUsername: "old-gh", LeetCodeUsername: "old-lc"},
	}}

	github := &fakeCommitProvider{stats: map[string]*models.GitHubStats{
		"old-gh": {TotalCommits: 10},
		"new-gh": {TotalCommits: 99},
	}}
	leetcode := &fakeProblemProvider{stats: map[string]*models.LeetCodeStats{
		"old-lc": {TotalSolved: 10, EasySolved: 10},
		"new-lc": {TotalSolved: 55, EasySolved: 30, MediumSolved: 20, HardSolved: 5},
	}}

	return rooms, users, github, leetcode
}

func TestSyncUserProfiles_PropagatesToAllRooms(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	svc := newTestService(rooms, users, github, leetcode)

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "old-gh",
		LeetCodeUsername: "new-lc",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RoomsVisited)
	assert.Equal(t, 2, report.RoomsUpdated)
	assert.Empty(t, report.Warnings)

	// The user record carries the new username.
	assert.Equal(t, "new-lc", users.users["u1"].LeetCodeUsername)

	// Each room's participant was re-fetched against the new identity.
	for _, roomID := range []string{"room-a", "room-b"} {
		p := rooms.rooms[roomID].ActiveParticipant("u1")
		require.NotNil(t, p, roomID)
		assert.Equal(t, "new-lc", p.LeetCodeUsername, roomID)
		require.NotNil(t, p.LeetCodeStats, roomID)
		assert.Equal(t, 55, p.LeetCodeStats.TotalSolved, roomID)
	}

	// Only the changed provider is re-fetched, once per room.
	assert.Equal(t, 2, leetcode.calls)
	assert.Zero(t, github.calls)
}

func TestSyncUserProfiles_RoomsAreIndependentOnSaveFailure(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	rooms.saveErrFor["room-a"] = errors.New("deadlock detected")
	svc := newTestService(rooms, users, github, leetcode)

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "new-gh",
		LeetCodeUsername: "old-lc",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RoomsVisited)
	assert.Equal(t, 1, report.RoomsUpdated)

	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Updated)
	assert.Contains(t, report.Results[0].Error, "save failed")
	assert.True(t, report.Results[1].Updated)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "room-a")

	// The second room still got the refreshed snapshot.
	p := rooms.rooms["room-b"].ActiveParticipant("u1")
	require.NotNil(t, p.GitHubStats)
	assert.Equal(t, 99, p.GitHubStats.TotalCommits)
}

func TestSyncUserProfiles_RoomsAreIndependentOnFetchFailure(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	// First room's fetch fails, second succeeds.
	leetcode.errQueue = []error{errors.New("all mirrors down"), nil}
	svc := newTestService(rooms, users, github, leetcode)

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "old-gh",
		LeetCodeUsername: "new-lc",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RoomsUpdated)

	// Room A keeps its last-known-good snapshot under the new username.
	pa := rooms.rooms["room-a"].ActiveParticipant("u1")
	assert.Equal(t, "new-lc", pa.LeetCodeUsername)
	require.NotNil(t, pa.LeetCodeStats)
	assert.Equal(t, 10, pa.LeetCodeStats.TotalSolved)

	// Room B's fetch succeeded and is fully refreshed.
	pb := rooms.rooms["room-b"].ActiveParticipant("u1")
	require.NotNil(t, pb.LeetCodeStats)
	assert.Equal(t, 55, pb.LeetCodeStats.TotalSolved)
}

func TestSyncUserProfiles_UnlinkClearsSnapshots(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	// Seed an existing snapshot so clearing is observable.
	for _, roomID := range []string{"room-a", "room-b"} {
		p := rooms.rooms[roomID].ActiveParticipant("u1")
		p.LeetCodeStats = &models.LeetCodeStats{TotalSolved: 10}
	}
	svc := newTestService(rooms, users, github, leetcode)

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "old-gh",
		LeetCodeUsername: "",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RoomsUpdated)
	assert.Zero(t, leetcode.calls, "an unlinked provider must not be fetched")

	for _, roomID := range []string{"room-a", "room-b"} {
		p := rooms.rooms[roomID].ActiveParticipant("u1")
		assert.Empty(t, p.LeetCodeUsername, roomID)
		assert.Nil(t, p.LeetCodeStats, roomID)
	}
}

func TestSyncUserProfiles_NoChangeIsANoOp(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	svc := newTestService(rooms, users, github, leetcode)

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "old-gh",
		LeetCodeUsername: "old-lc",
	})

	require.NoError(t, err)
	assert.Zero(t, report.RoomsVisited)
	assert.Zero(t, users.saves)
	assert.Zero(t, github.calls)
	assert.Zero(t, leetcode.calls)
}

func TestSyncUserProfiles_UserSaveFailureFailsOperation(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	users.saveErr = errors.New("connection refused")
	svc := newTestService(rooms, users, github, leetcode)

	_, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "new-gh",
		LeetCodeUsername: "old-lc",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	// No room work happens when the identity change itself failed.
	assert.Zero(t, rooms.saves)
}

func TestSyncUserProfiles_UnknownUser(t *testing.T) {
	t.Parallel()

	rooms, users, github, leetcode := syncFixture(t)
	svc := newTestService(rooms, users, github, leetcode)

	_, err := svc.SyncUserProfiles(context.Background(), "nobody", models.ProfileUpdateRequest{
		GitHubUsername: "new-gh",
	})

	require.Error(t, err)
}

func TestSyncUserProfiles_InactiveParticipantReported(t *testing.T) {
	t.Parallel()

	active := testRoom("room-a", testParticipant("u1", "old-gh", "old-lc"))
	left := testParticipant("u1", "old-gh", "old-lc")
	left.IsActive = false
	abandoned := testRoom("room-b", left)
	rooms := newFakeRoomStore(active, abandoned)

	users := &fakeUserStore{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "u1", GitHubUsername: "old-gh", LeetCodeUsername: "old-lc"},
	}}
	github := &fakeCommitProvider{stats: map[string]*models.GitHubStats{"new-gh": {TotalCommits: 1}}}
	svc := newTestService(rooms, users, github, &fakeProblemProvider{})

	report, err := svc.SyncUserProfiles(context.Background(), "u1", models.ProfileUpdateRequest{
		GitHubUsername:   "new-gh",
		LeetCodeUsername: "old-lc",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RoomsVisited)
	assert.Equal(t, 1, report.RoomsUpdated)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "no active participant")
}
