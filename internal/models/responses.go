package models

// LeaderboardSettings carries the score weights used to rank a room
type LeaderboardSettings struct {
	WeightGitHub   float64 `json:"weight_github"`
	WeightLeetCode float64 `json:"weight_leetcode"`
}

// LeaderboardEntry represents a single ranked row in a room leaderboard
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	DisplayName      string `json:"display_name"`
	GitHubUsername   string `json:"github_username,omitempty"`
	LeetCodeUsername string `json:"leetcode_username,omitempty"`
	TotalScore       int    `json:"total_score"`
}

// LeaderboardResponse is the computed leaderboard for one room. The
// version bumps whenever the cached ranking is rewritten, so pollers
// can detect changes without diffing entries.
type LeaderboardResponse struct {
	RoomID   string              `json:"room_id"`
	Version  int64               `json:"version,omitempty"`
	Entries  []LeaderboardEntry  `json:"entries"`
	Settings LeaderboardSettings `json:"settings"`
}

// StatsResponse is the per-provider stats lookup for a single identity
type StatsResponse struct {
	GitHub   *GitHubStats   `json:"github,omitempty"`
	LeetCode *LeetCodeStats `json:"leetcode,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// RefreshParticipantResponse reports one participant's stats refresh
type RefreshParticipantResponse struct {
	Updates     []string         `json:"updates"`
	Warnings    []string         `json:"warnings,omitempty"`
	Participant *RoomParticipant `json:"participant"`
}

// RefreshRoomResponse reports a whole-room stats refresh
type RefreshRoomResponse struct {
	RoomID       string   `json:"room_id"`
	UpdatedCount int      `json:"updated_count"`
	Warnings     []string `json:"warnings,omitempty"`
}

// SyncRoomResult reports the outcome of propagating a profile change
// into a single room
type SyncRoomResult struct {
	RoomID  string `json:"room_id"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// SyncReport aggregates per-room outcomes of a profile sync
type SyncReport struct {
	UserID       string           `json:"user_id"`
	RoomsVisited int              `json:"rooms_visited"`
	RoomsUpdated int              `json:"rooms_updated"`
	Results      []SyncRoomResult `json:"results"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// ProfileUpdateRequest is the payload for linking provider usernames
type ProfileUpdateRequest struct {
	GitHubUsername   string `json:"github_username" validate:"omitempty,max=39"`
	LeetCodeUsername string `json:"leetcode_username" validate:"omitempty,max=50"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
