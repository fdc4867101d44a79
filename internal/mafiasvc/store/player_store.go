package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `game_id, player_id, display_name, role, alive,
		has_acted_this_phase, is_inactive, last_action_time,
		bullets_remaining, vests_remaining, alerts_remaining,
		death_reason, death_phase, death_night, created_at, updated_at`

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func scanPlayer(row interface{ Scan(dest ...any) error }) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.GameID,
		&p.PlayerID,
		&p.DisplayName,
		&p.Role,
		&p.Alive,
		&p.HasActedThisPhase,
		&p.IsInactive,
		&p.LastActionTime,
		&p.BulletsRemaining,
		&p.VestsRemaining,
		&p.AlertsRemaining,
		&p.DeathReason,
		&p.DeathPhase,
		&p.DeathNight,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AddPlayer joins a player to a lobby. It fails with an error if:
// - The game is not in pending status (lobby closed or game running).
// - The player already joined this game (primary key violation).
// - The player is already in another open game (checked by the caller).
func (s *PlayerStore) AddPlayer(ctx context.Context, gameID, playerID, displayName string) (*models.Player, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game ID cannot be empty")
	}
	if playerID == "" {
		return nil, fmt.Errorf("player ID cannot be empty")
	}

	// CTE locks the game row and enforces status='pending'
	const query = `
WITH locked_game AS (
  SELECT id
  FROM games
  WHERE id = $1
    AND status = 'pending'
  FOR UPDATE
)
INSERT INTO players (game_id, player_id, display_name, role)
SELECT lg.id, $2, $3, 'pending'
FROM locked_game lg
RETURNING ` + playerColumns + `;
`
	p, err := scanPlayer(s.db.QueryRow(ctx, query, gameID, playerID, displayName))
	if err != nil {
		// zero rows means the lobby isn't open (or the game doesn't exist)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cannot join game %s: lobby is not open", gameID)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("player %s has already joined game %s", playerID, gameID)
		}
		return nil, fmt.Errorf("failed to add player: %w", err)
	}

	return p, nil
}

func (s *PlayerStore) GetPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE game_id = $1 AND player_id = $2`

	p, err := scanPlayer(s.db.QueryRow(ctx, query, gameID, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// GetPlayers returns all players of a game in join order. Join order is the
// stable ordering used for numeric night-action targets.
func (s *PlayerStore) GetPlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE game_id = $1 ORDER BY created_at, player_id`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

func (s *PlayerStore) GetAlivePlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE game_id = $1 AND alive ORDER BY created_at, player_id`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alive players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

func (s *PlayerStore) CountPlayers(ctx context.Context, gameID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE game_id = $1`, gameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// GetPlayerActiveGame finds the open game a player currently sits in.
func (s *PlayerStore) GetPlayerActiveGame(ctx context.Context, playerID string) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status IN ('pending', 'active')
		  AND id IN (SELECT game_id FROM players WHERE player_id = $1)
		LIMIT 1
	`
	g, err := scanGame(s.db.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player active game: %w", err)
	}
	return g, nil
}

// MarkActed records that a player acted this phase and clears inactivity.
func (s *PlayerStore) MarkActed(ctx context.Context, gameID, playerID string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players
		SET has_acted_this_phase = TRUE, is_inactive = FALSE, last_action_time = $3,
			updated_at = now()
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID, at)
	if err != nil {
		return fmt.Errorf("failed to mark player acted: %w", err)
	}
	return nil
}

// ClearActed un-marks a player after an unvote.
func (s *PlayerStore) ClearActed(ctx context.Context, gameID, playerID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET has_acted_this_phase = FALSE, updated_at = now()
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID)
	return err
}

// MarkInactive flags a living player who sat out the phase.
func (s *PlayerStore) MarkInactive(ctx context.Context, gameID, playerID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET is_inactive = TRUE, updated_at = now()
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID)
	return err
}

// ResetPhaseActions bulk-clears has_acted_this_phase for every living player.
func (s *PlayerStore) ResetPhaseActions(ctx context.Context, gameID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET has_acted_this_phase = FALSE, updated_at = now()
		WHERE game_id = $1 AND alive
	`, gameID)
	if err != nil {
		return fmt.Errorf("failed to reset phase actions: %w", err)
	}
	return nil
}

// AssignRole writes the role and its resource counters at game start.
func (s *PlayerStore) AssignRole(ctx context.Context, gameID, playerID, role string, bullets, vests, alerts int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players
		SET role = $3, bullets_remaining = $4, vests_remaining = $5, alerts_remaining = $6,
			updated_at = now()
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID, role, bullets, vests, alerts)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// UpdateResources writes back the counters consumed during night resolution.
func (s *PlayerStore) UpdateResources(ctx context.Context, gameID, playerID string, bullets, vests, alerts int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players
		SET bullets_remaining = $3, vests_remaining = $4, alerts_remaining = $5,
			updated_at = now()
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID, bullets, vests, alerts)
	return err
}

// MarkDead sets alive=false and the death metadata exactly once. A player
// already dead keeps the original metadata.
func (s *PlayerStore) MarkDead(ctx context.Context, gameID, playerID, reason, phase string, counter int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE players
		SET alive = FALSE, death_reason = $3, death_phase = $4, death_night = $5,
			updated_at = now()
		WHERE game_id = $1 AND player_id = $2 AND alive
	`, gameID, playerID, reason, phase, counter)
	if err != nil {
		return false, fmt.Errorf("failed to mark player dead: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
