package models

import "time"

// Event types
const (
	EventPhaseChange = "phase_change"
	EventDeath       = "death"
	EventVote        = "vote"
	EventWin         = "win"
	EventOther       = "other"
)

// Event is one append-only audit log row for a game. Display only, never
// read back into decision logic.
type Event struct {
	GameID      string            `bson:"game_id" json:"game_id"`
	Phase       string            `bson:"phase" json:"phase"`
	Seq         int               `bson:"seq" json:"seq"` // phase-relative sequence number
	Type        string            `bson:"type" json:"type"`
	Description string            `bson:"description" json:"description"`
	Payload     map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time         `bson:"expires_at" json:"expires_at"` // TTL index target
}
