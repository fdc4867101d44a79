package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const gameColumns = `id, community_id, channel_id, organizer_id, status, phase,
		night_number, day_number, phase_start_time, phase_deadline, lobby_deadline,
		debug_mode, reveal_roles, tier, framed_players, doused_players,
		status_message_id, created_at, updated_at`

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

func scanGame(row interface{ Scan(dest ...any) error }) (*models.Game, error) {
	g := &models.Game{}
	err := row.Scan(
		&g.ID,
		&g.CommunityID,
		&g.ChannelID,
		&g.OrganizerID,
		&g.Status,
		&g.Phase,
		&g.NightNumber,
		&g.DayNumber,
		&g.PhaseStartTime,
		&g.PhaseDeadline,
		&g.LobbyDeadline,
		&g.DebugMode,
		&g.RevealRoles,
		&g.Tier,
		&g.FramedPlayers,
		&g.DousedPlayers,
		&g.StatusMessageID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GameStore) CreateGame(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (id, community_id, channel_id, organizer_id, status, phase,
			lobby_deadline, debug_mode, reveal_roles, tier, framed_players, doused_players)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.Exec(ctx, query,
		g.ID, g.CommunityID, g.ChannelID, g.OrganizerID, g.Status, g.Phase,
		g.LobbyDeadline, g.DebugMode, g.RevealRoles, g.Tier, g.FramedPlayers, g.DousedPlayers)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (s *GameStore) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(s.db.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	return game, nil
}

// GetOpenGameByChannel finds the pending or active game bound to a channel.
func (s *GameStore) GetOpenGameByChannel(ctx context.Context, channelID string) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE channel_id = $1 AND status IN ('pending', 'active')
		LIMIT 1`

	game, err := scanGame(s.db.QueryRow(ctx, query, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game by channel: %w", err)
	}

	return game, nil
}

// GetAllActiveGames returns every game the sweeper has to look at,
// pending lobbies included.
func (s *GameStore) GetAllActiveGames(ctx context.Context) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status IN ('pending', 'active')
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}

	return games, rows.Err()
}

func (s *GameStore) GetActiveGames(ctx context.Context, communityID string) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE community_id = $1 AND status IN ('pending', 'active')
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list community games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}

	return games, rows.Err()
}

// AdvancePhase writes the entering phase, its window and the counter the
// phase owns, and clears the phase-end claim taken by ClaimPhaseEnd.
func (s *GameStore) AdvancePhase(ctx context.Context, gameID, phase string, start, deadline time.Time, incrNight, incrDay bool) error {
	query := `
		UPDATE games
		SET phase = $2,
			phase_start_time = $3,
			phase_deadline = $4,
			night_number = night_number + $5,
			day_number = day_number + $6,
			phase_ending = FALSE,
			updated_at = now()
		WHERE id = $1
	`
	nightIncr, dayIncr := 0, 0
	if incrNight {
		nightIncr = 1
	}
	if incrDay {
		dayIncr = 1
	}
	_, err := s.db.Exec(ctx, query, gameID, phase, start, deadline, nightIncr, dayIncr)
	if err != nil {
		return fmt.Errorf("failed to advance phase: %w", err)
	}
	return nil
}

// ClaimPhaseEnd atomically claims the right to end the given phase. The
// early-completion path and the sweeper's timeout path can both fire for the
// same deadline; only one caller gets true.
func (s *GameStore) ClaimPhaseEnd(ctx context.Context, gameID, fromPhase string) (bool, error) {
	query := `
		UPDATE games
		SET phase_ending = TRUE, updated_at = now()
		WHERE id = $1 AND status = 'active' AND phase = $2 AND phase_ending = FALSE
	`
	tag, err := s.db.Exec(ctx, query, gameID, fromPhase)
	if err != nil {
		return false, fmt.Errorf("failed to claim phase end: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleasePhaseEnd undoes a claim when the phase-end aborted before any
// transition, so the sweeper can retry on the next tick.
func (s *GameStore) ReleasePhaseEnd(ctx context.Context, gameID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE games SET phase_ending = FALSE, updated_at = now() WHERE id = $1`, gameID)
	return err
}

// SetTerminal moves a game to completed or cancelled with phase ended.
func (s *GameStore) SetTerminal(ctx context.Context, gameID, status string) error {
	query := `
		UPDATE games
		SET status = $2, phase = 'ended', phase_deadline = NULL, phase_ending = FALSE,
			updated_at = now()
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, gameID, status)
	if err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}
	return nil
}

// ActivateGame flips a pending lobby to active. Returns false when the game
// was no longer pending (cancelled meanwhile, or a duplicate start).
func (s *GameStore) ActivateGame(ctx context.Context, gameID string) (bool, error) {
	query := `
		UPDATE games
		SET status = 'active', lobby_deadline = NULL, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := s.db.Exec(ctx, query, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to activate game: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatusSets persists the framed/doused markers carried across nights.
func (s *GameStore) UpdateStatusSets(ctx context.Context, gameID string, framed, doused []string) error {
	if framed == nil {
		framed = []string{}
	}
	if doused == nil {
		doused = []string{}
	}
	_, err := s.db.Exec(ctx, `
		UPDATE games SET framed_players = $2, doused_players = $3, updated_at = now()
		WHERE id = $1
	`, gameID, framed, doused)
	if err != nil {
		return fmt.Errorf("failed to update status sets: %w", err)
	}
	return nil
}

func (s *GameStore) UpdateStatusMessageID(ctx context.Context, gameID, messageID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE games SET status_message_id = $2, updated_at = now() WHERE id = $1
	`, gameID, messageID)
	return err
}
