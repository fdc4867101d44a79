package models

import (
	"database/sql"
	"time"
)

// Action is one player's night action. At most one row per
// (game, night, player); re-submission overwrites.
type Action struct {
	GameID      string         `json:"game_id"`
	NightNumber int            `json:"night_number"`
	PlayerID    string         `json:"player_id"`
	ActionType  string         `json:"action_type"` // copied from the role at submission time
	TargetID    sql.NullString `json:"target_id"`   // raw 1-based position, resolved at night end
	Keyword     sql.NullString `json:"keyword"`
	Processed   bool           `json:"processed"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
