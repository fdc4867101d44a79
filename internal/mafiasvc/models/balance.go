package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one ledger entry. A player's balance is sum(cr) - sum(dr).
type Balance struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	TType     string          `json:"ttype"` // e.g. "game_reward"
	Dr        decimal.Decimal `json:"dr"`
	Cr        decimal.Decimal `json:"cr"`
	TRef      string          `json:"tref"` // game id for rewards
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
