package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BalanceStore struct {
	db *pgxpool.Pool
}

func NewBalanceStore(db *pgxpool.Pool) *BalanceStore {
	return &BalanceStore{db: db}
}

func (c *BalanceStore) GetBalanceByUserID(ctx context.Context, userID string) (decimal.Decimal, error) {
	var totalDr, totalCr decimal.Decimal

	err := c.db.QueryRow(ctx, `
        SELECT
            COALESCE(SUM(dr), 0),
            COALESCE(SUM(cr), 0)
        FROM balances
        WHERE user_id = $1 AND status = 'completed'
    `, userID).Scan(&totalDr, &totalCr)

	if err != nil {
		return decimal.Zero, err
	}

	balance := totalCr.Sub(totalDr)
	return balance, nil
}

// CreateReward writes one credit ledger entry for a game winner.
func (c *BalanceStore) CreateReward(ctx context.Context, userID string, amount decimal.Decimal, gameID string) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO balances (user_id, ttype, dr, cr, tref, status)
		VALUES ($1, 'game_reward', 0, $2, $3, 'completed')
	`, userID, amount, gameID)
	if err != nil {
		return fmt.Errorf("failed to create reward entry: %w", err)
	}
	return nil
}
