package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

type fakeUpserter struct {
	usernames []string
	failOn    string
}

func (f *fakeUpserter) UpsertUser(ctx context.Context, user *models.User) error {
	if user.Username == f.failOn {
		return errors.New("duplicate key")
	}
	f.usernames = append(f.usernames, user.Username)
	return nil
}

func TestSeedUsers_UpsertsEveryUser(t *testing.T) {
	t.Parallel()

	users := generateUsers(6)
	store := &fakeUpserter{}

	require.NoError(t, seedUsers(context.Background(), store, users))
	assert.Equal(t, []string{"dev_1", "dev_2", "dev_3", "dev_4", "dev_5", "dev_6"}, store.usernames)
}

func TestSeedUsers_StopsOnError(t *testing.T) {
	t.Parallel()

	users := generateUsers(3)
	store := &fakeUpserter{failOn: "dev_2"}

	err := seedUsers(context.Background(), store, users)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev_2")
	assert.Equal(t, []string{"dev_1"}, store.usernames)
}

func TestGenerateUsers_EveryThirdHasNoLeetCodeProfile(t *testing.T) {
	t.Parallel()

	users := generateUsers(9)

	require.Len(t, users, 9)
	for i, user := range users {
		assert.NotEmpty(t, user.ID)
		assert.NotEmpty(t, user.GitHubUsername)
		if i%3 == 2 {
			assert.Empty(t, user.LeetCodeUsername, user.Username)
		} else {
			assert.Equal(t, user.Username, user.LeetCodeUsername)
		}
	}
}

func TestGenerateRoom_WeightsSumToOne(t *testing.T) {
	t.Parallel()

	users := generateUsers(TotalUsers)
	room := generateRoom(0, users)

	assert.Equal(t, models.RoomStatusActive, room.Status)
	assert.InDelta(t, 1.0, room.WeightGitHub+room.WeightLeetCode, 0.0001)
	assert.GreaterOrEqual(t, room.WeightGitHub, 0.3)
	assert.LessOrEqual(t, room.WeightGitHub, 0.7)

	require.Len(t, room.Participants, UsersPerRoom)
	for _, p := range room.Participants {
		assert.Equal(t, room.ID, p.RoomID)
		assert.True(t, p.IsActive)
	}
}
