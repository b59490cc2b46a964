package models

import (
	"time"
)

// Room statuses. Lifecycle transitions are handled by the rooms API,
// the stats pipeline only reads them.
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusActive   = "active"
	RoomStatusFinished = "finished"
)

// Room represents a practice room with its leaderboard settings
type Room struct {
	ID             string            `gorm:"primarykey;type:uuid" json:"id"`
	Code           string            `gorm:"uniqueIndex;not null" json:"code"`
	Name           string            `gorm:"not null" json:"name"`
	Status         string            `gorm:"not null;default:waiting" json:"status"`
	WeightGitHub   float64           `gorm:"not null;default:0.5" json:"weight_github"`
	WeightLeetCode float64           `gorm:"not null;default:0.5" json:"weight_leetcode"`
	Participants   []RoomParticipant `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// LeaderboardSettings returns the room's score weights
func (r *Room) LeaderboardSettings() LeaderboardSettings {
	return LeaderboardSettings{
		WeightGitHub:   r.WeightGitHub,
		WeightLeetCode: r.WeightLeetCode,
	}
}

// ActiveParticipant finds the active participant for a user, or nil
func (r *Room) ActiveParticipant(userID string) *RoomParticipant {
	for i := range r.Participants {
		p := &r.Participants[i]
		if p.UserID == userID && p.IsActive {
			return p
		}
	}
	return nil
}

// RoomParticipant is a user's membership in one room, carrying the
// last-known stats snapshots for each linked provider
type RoomParticipant struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	RoomID           string         `gorm:"index;type:uuid;not null" json:"room_id"`
	UserID           string         `gorm:"index;type:uuid;not null" json:"user_id"`
	DisplayName      string         `gorm:"not null" json:"display_name"`
	GitHubUsername   string         `json:"github_username"`
	LeetCodeUsername string         `json:"leetcode_username"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`
	GitHubStats      *GitHubStats   `gorm:"serializer:json" json:"github_stats,omitempty"`
	LeetCodeStats    *LeetCodeStats `gorm:"serializer:json" json:"leetcode_stats,omitempty"`
	StatsLastUpdated *time.Time     `json:"stats_last_updated,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (RoomParticipant) TableName() string {
	return "room_participants"
}

// User represents an account with its linked provider usernames
type User struct {
	ID               string    `gorm:"primarykey;type:uuid" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	GitHubUsername   string    `json:"github_username"`
	LeetCodeUsername string    `json:"leetcode_username"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
