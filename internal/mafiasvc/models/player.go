package models

import (
	"database/sql"
	"time"
)

// RolePending is the role sentinel for players in a lobby before assignment.
const RolePending = "pending"

// Death reasons
const (
	DeathReasonKilled  = "killed"
	DeathReasonLynched = "lynched"
	DeathReasonShot    = "shot"
	DeathReasonIgnited = "ignited"
	DeathReasonAlert   = "alert"
)

type Player struct {
	GameID            string       `json:"game_id"`
	PlayerID          string       `json:"player_id"`
	DisplayName       string       `json:"display_name"`
	Role              string       `json:"role"` // role identifier, or "pending" before assignment
	Alive             bool         `json:"alive"`
	HasActedThisPhase bool         `json:"has_acted_this_phase"`
	IsInactive        bool         `json:"is_inactive"`
	LastActionTime    sql.NullTime `json:"last_action_time"`
	BulletsRemaining  int          `json:"bullets_remaining"`
	VestsRemaining    int          `json:"vests_remaining"`
	AlertsRemaining   int          `json:"alerts_remaining"`
	DeathReason       string       `json:"death_reason"` // set exactly once on death
	DeathPhase        string       `json:"death_phase"`
	DeathNight        int          `json:"death_night"` // phase-relative counter, day number for lynches
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
