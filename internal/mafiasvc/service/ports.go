package service

import (
	"context"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/shopspring/decimal"
)

// Store seams. The pgx/mongo stores satisfy these; tests substitute
// in-memory fakes.

type GameStore interface {
	CreateGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	GetOpenGameByChannel(ctx context.Context, channelID string) (*models.Game, error)
	GetAllActiveGames(ctx context.Context) ([]*models.Game, error)
	GetActiveGames(ctx context.Context, communityID string) ([]*models.Game, error)
	AdvancePhase(ctx context.Context, gameID, phase string, start, deadline time.Time, incrNight, incrDay bool) error
	ClaimPhaseEnd(ctx context.Context, gameID, fromPhase string) (bool, error)
	ReleasePhaseEnd(ctx context.Context, gameID string) error
	SetTerminal(ctx context.Context, gameID, status string) error
	ActivateGame(ctx context.Context, gameID string) (bool, error)
	UpdateStatusSets(ctx context.Context, gameID string, framed, doused []string) error
	UpdateStatusMessageID(ctx context.Context, gameID, messageID string) error
}

type PlayerStore interface {
	AddPlayer(ctx context.Context, gameID, playerID, displayName string) (*models.Player, error)
	GetPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error)
	GetPlayers(ctx context.Context, gameID string) ([]*models.Player, error)
	GetAlivePlayers(ctx context.Context, gameID string) ([]*models.Player, error)
	CountPlayers(ctx context.Context, gameID string) (int, error)
	GetPlayerActiveGame(ctx context.Context, playerID string) (*models.Game, error)
	MarkActed(ctx context.Context, gameID, playerID string, at time.Time) error
	ClearActed(ctx context.Context, gameID, playerID string) error
	MarkInactive(ctx context.Context, gameID, playerID string) error
	ResetPhaseActions(ctx context.Context, gameID string) error
	AssignRole(ctx context.Context, gameID, playerID, role string, bullets, vests, alerts int) error
	UpdateResources(ctx context.Context, gameID, playerID string, bullets, vests, alerts int) error
	MarkDead(ctx context.Context, gameID, playerID, reason, phase string, counter int) (bool, error)
}

type ActionStore interface {
	UpsertAction(ctx context.Context, a *models.Action) error
	GetActionsForNight(ctx context.Context, gameID string, nightNumber int) ([]*models.Action, error)
	MarkActionsProcessed(ctx context.Context, gameID string, nightNumber int) error
}

type VoteStore interface {
	UpsertVote(ctx context.Context, v *models.Vote) error
	DeleteVote(ctx context.Context, gameID string, dayNumber int, voterID string) (bool, error)
	GetVotesForDay(ctx context.Context, gameID string, dayNumber int) ([]*models.Vote, error)
	MarkVotesProcessed(ctx context.Context, gameID string, dayNumber int) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, gameID, phase, eventType, description string, payload map[string]string) error
	GetRecentEvents(ctx context.Context, gameID string, n int) ([]*models.Event, error)
}

type BalanceStore interface {
	GetBalanceByUserID(ctx context.Context, userID string) (decimal.Decimal, error)
	CreateReward(ctx context.Context, userID string, amount decimal.Decimal, gameID string) error
}

// Notifier is the chat-platform collaborator. Delivery failures are logged
// inside the implementation; callers never abort on a notification error.
type Notifier interface {
	Announce(channelID, text string)
	PromptPlayer(playerID, text string)
	RefreshStatusDisplay(ctx context.Context, gameID string)
	CreateStatusDisplay(ctx context.Context, gameID string) (string, error)
}

// Phase-transition ports. The scheduler and the action/vote handlers each
// need the other at call time; both sides depend on these instead.

// PhaseAdvancer is what action and vote submission call after marking a
// player acted.
type PhaseAdvancer interface {
	EndPhase(ctx context.Context, gameID, fromPhase string, isTimeout bool) error
	CheckEarlyPhaseEnd(ctx context.Context, gameID string) (bool, error)
}

// NightResolver is the scheduler's night-exit hook.
type NightResolver interface {
	ResolveNight(ctx context.Context, gameID string) error
}

// VoteTallier is the scheduler's voting-exit hook.
type VoteTallier interface {
	Tally(ctx context.Context, gameID string) error
}

// Rewarder distributes end-of-game rewards to the winning team.
type Rewarder interface {
	DistributeRewards(ctx context.Context, gameID string, winners []*models.Player) error
}
