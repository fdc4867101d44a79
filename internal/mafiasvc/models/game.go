package models

import (
	"database/sql"
	"time"
)

// Game statuses
const (
	GameStatusPending   = "pending"
	GameStatusActive    = "active"
	GameStatusCompleted = "completed"
	GameStatusCancelled = "cancelled"
)

// Game phases
const (
	PhaseSetup  = "setup"
	PhaseNight  = "night"
	PhaseDay    = "day"
	PhaseVoting = "voting"
	PhaseEnded  = "ended"
)

// Game tiers (role pool restriction)
const (
	TierBasic   = "basic"
	TierPremium = "premium"
)

type Game struct {
	ID              string       `json:"id"` // opaque uuid
	CommunityID     string       `json:"community_id"`
	ChannelID       string       `json:"channel_id"`
	OrganizerID     string       `json:"organizer_id"`
	Status          string       `json:"status"` // pending, active, completed, cancelled
	Phase           string       `json:"phase"`  // setup, night, day, voting, ended
	NightNumber     int          `json:"night_number"`
	DayNumber       int          `json:"day_number"`
	PhaseStartTime  sql.NullTime `json:"phase_start_time"`
	PhaseDeadline   sql.NullTime `json:"phase_deadline"`
	LobbyDeadline   sql.NullTime `json:"lobby_deadline"` // only while pending
	DebugMode       bool         `json:"debug_mode"`
	RevealRoles     bool         `json:"reveal_roles"`
	Tier            string       `json:"tier"`
	FramedPlayers   []string     `json:"framed_players"` // status markers carried across nights
	DousedPlayers   []string     `json:"doused_players"`
	StatusMessageID string       `json:"status_message_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
