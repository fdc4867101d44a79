package models

import "time"

// VoteSkip is the target sentinel for a skip vote.
const VoteSkip = "skip"

// Vote is one player's vote for the current day. At most one row per
// (game, day, voter); re-submission overwrites, unvote deletes.
type Vote struct {
	ID        int64     `json:"id"` // serial, preserves insertion order for the tally
	GameID    string    `json:"game_id"`
	DayNumber int       `json:"day_number"`
	VoterID   string    `json:"voter_id"`
	TargetID  string    `json:"target_id"` // player id or "skip"
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
