package store

import (
	"context"
	"fmt"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActionStore struct {
	db *pgxpool.Pool
}

func NewActionStore(db *pgxpool.Pool) *ActionStore {
	return &ActionStore{db: db}
}

// UpsertAction stores a night action, overwriting any prior action the
// player submitted this night.
func (s *ActionStore) UpsertAction(ctx context.Context, a *models.Action) error {
	query := `
		INSERT INTO actions (game_id, night_number, player_id, action_type, target_id, keyword)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, night_number, player_id)
		DO UPDATE SET action_type = EXCLUDED.action_type,
			target_id = EXCLUDED.target_id,
			keyword = EXCLUDED.keyword,
			processed = FALSE,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query,
		a.GameID, a.NightNumber, a.PlayerID, a.ActionType, a.TargetID, a.Keyword)
	if err != nil {
		return fmt.Errorf("failed to upsert action: %w", err)
	}
	return nil
}

// GetActionsForNight returns the unprocessed actions of one night.
func (s *ActionStore) GetActionsForNight(ctx context.Context, gameID string, nightNumber int) ([]*models.Action, error) {
	query := `
		SELECT game_id, night_number, player_id, action_type, target_id, keyword,
			processed, created_at, updated_at
		FROM actions
		WHERE game_id = $1 AND night_number = $2 AND NOT processed
		ORDER BY created_at, player_id
	`

	rows, err := s.db.Query(ctx, query, gameID, nightNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get actions for night: %w", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		a := &models.Action{}
		err := rows.Scan(
			&a.GameID,
			&a.NightNumber,
			&a.PlayerID,
			&a.ActionType,
			&a.TargetID,
			&a.Keyword,
			&a.Processed,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, rows.Err()
}

// MarkActionsProcessed consumes a night's actions so a second resolution
// pass finds nothing to do.
func (s *ActionStore) MarkActionsProcessed(ctx context.Context, gameID string, nightNumber int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE actions SET processed = TRUE, updated_at = now()
		WHERE game_id = $1 AND night_number = $2
	`, gameID, nightNumber)
	if err != nil {
		return fmt.Errorf("failed to mark actions processed: %w", err)
	}
	return nil
}
