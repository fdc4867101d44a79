package store

import (
	"context"
	"fmt"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoteStore struct {
	db *pgxpool.Pool
}

func NewVoteStore(db *pgxpool.Pool) *VoteStore {
	return &VoteStore{db: db}
}

// UpsertVote stores a vote for the current day, overwriting a prior vote by
// the same voter. The serial id of the first submission is kept so the tally
// reads votes in original insertion order.
func (s *VoteStore) UpsertVote(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (game_id, day_number, voter_id, target_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, day_number, voter_id)
		DO UPDATE SET target_id = EXCLUDED.target_id,
			processed = FALSE,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query, v.GameID, v.DayNumber, v.VoterID, v.TargetID)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// DeleteVote removes the voter's row for the day. Returns false when there
// was no vote to remove.
func (s *VoteStore) DeleteVote(ctx context.Context, gameID string, dayNumber int, voterID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM votes WHERE game_id = $1 AND day_number = $2 AND voter_id = $3
	`, gameID, dayNumber, voterID)
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetVotesForDay returns the day's votes in insertion order. The tally's
// tie semantics depend on this ordering being stable.
func (s *VoteStore) GetVotesForDay(ctx context.Context, gameID string, dayNumber int) ([]*models.Vote, error) {
	query := `
		SELECT id, game_id, day_number, voter_id, target_id, processed, created_at, updated_at
		FROM votes
		WHERE game_id = $1 AND day_number = $2
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, gameID, dayNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes for day: %w", err)
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		v := &models.Vote{}
		err := rows.Scan(
			&v.ID,
			&v.GameID,
			&v.DayNumber,
			&v.VoterID,
			&v.TargetID,
			&v.Processed,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// MarkVotesProcessed consumes a day's votes so a re-run of the tally cannot
// eliminate twice.
func (s *VoteStore) MarkVotesProcessed(ctx context.Context, gameID string, dayNumber int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE votes SET processed = TRUE, updated_at = now()
		WHERE game_id = $1 AND day_number = $2
	`, gameID, dayNumber)
	if err != nil {
		return fmt.Errorf("failed to mark votes processed: %w", err)
	}
	return nil
}
