package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/roles"
	log "github.com/sirupsen/logrus"
)

const (
	// SweepInterval is the wall-clock polling cadence.
	SweepInterval = 5 * time.Minute

	// MinLobbyPlayers is the auto-start threshold at the lobby deadline.
	MinLobbyPlayers = 8
)

// advance warning thresholds before a deadline
var warningThresholds = []time.Duration{2 * time.Hour, 30 * time.Minute}

// GameLifecycle is the slice of the scheduler the sweeper drives.
type GameLifecycle interface {
	EndPhase(ctx context.Context, gameID, fromPhase string, isTimeout bool) error
	StartGame(ctx context.Context, gameID string) error
	CancelGame(ctx context.Context, gameID string) error
	SetupRoles(ctx context.Context, gameID string) error
}

// DeadlineSweeper polls every open game on a fixed interval and triggers
// timeout phase ends, lobby auto-start/cancel and advance warnings. Owned
// by the composition root with an explicit Start/Stop lifecycle.
type DeadlineSweeper struct {
	games     GameStore
	players   PlayerStore
	lifecycle GameLifecycle
	notifier  Notifier

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	running  atomic.Bool // re-entrancy guard: skip a tick while one runs

	mu     sync.Mutex
	warned map[string]bool // one-time warning marks, process lifetime
}

func NewDeadlineSweeper(games GameStore, players PlayerStore, lifecycle GameLifecycle, notifier Notifier) *DeadlineSweeper {
	return &DeadlineSweeper{
		games:     games,
		players:   players,
		lifecycle: lifecycle,
		notifier:  notifier,
		interval:  SweepInterval,
		warned:    make(map[string]bool),
	}
}

// Start launches the sweep loop.
func (w *DeadlineSweeper) Start() {
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !w.running.CompareAndSwap(false, true) {
					log.Warn("sweep tick skipped, previous tick still running")
					continue
				}
				w.Sweep(context.Background())
				w.running.Store(false)
			case <-w.stop:
				return
			}
		}
	}()

	log.Infof("deadline sweeper started, interval %s", w.interval)
}

// Stop halts the loop and waits for it to exit.
func (w *DeadlineSweeper) Stop() {
	close(w.stop)
	<-w.done
	log.Info("deadline sweeper stopped")
}

// Sweep runs one pass over every open game. One game's failure never
// aborts the rest of the pass.
func (w *DeadlineSweeper) Sweep(ctx context.Context) {
	games, err := w.games.GetAllActiveGames(ctx)
	if err != nil {
		log.Errorf("Error [DeadlineSweeper.Sweep] list games: %s", err)
		return
	}

	for _, game := range games {
		if err := w.tickGame(ctx, game); err != nil {
			log.Errorf("Error [DeadlineSweeper.Sweep] game %s: %s", game.ID, err)
		}
	}
}

func (w *DeadlineSweeper) tickGame(ctx context.Context, game *models.Game) error {
	now := time.Now()

	switch game.Status {
	case models.GameStatusPending:
		if !game.LobbyDeadline.Valid {
			return nil
		}
		if !now.Before(game.LobbyDeadline.Time) {
			return w.resolveLobby(ctx, game)
		}
		w.lobbyWarnings(ctx, game, now)
	case models.GameStatusActive:
		if !game.PhaseDeadline.Valid {
			return nil
		}
		if !now.Before(game.PhaseDeadline.Time) {
			return w.lifecycle.EndPhase(ctx, game.ID, game.Phase, true)
		}
		w.phaseWarnings(ctx, game, now)
	}

	return nil
}

// resolveLobby auto-starts a full lobby or cancels a short one.
func (w *DeadlineSweeper) resolveLobby(ctx context.Context, game *models.Game) error {
	count, err := w.players.CountPlayers(ctx, game.ID)
	if err != nil {
		return err
	}

	if count < MinLobbyPlayers {
		w.notifier.Announce(game.ChannelID,
			fmt.Sprintf("Only %d of %d players joined before the deadline. The game is cancelled.", count, MinLobbyPlayers))
		return w.lifecycle.CancelGame(ctx, game.ID)
	}

	if err := w.lifecycle.SetupRoles(ctx, game.ID); err != nil {
		return err
	}
	if _, err := w.notifier.CreateStatusDisplay(ctx, game.ID); err != nil {
		log.Errorf("Error [DeadlineSweeper.resolveLobby] create status display: %s", err)
	}
	return w.lifecycle.StartGame(ctx, game.ID)
}

// withinWindow reports whether a threshold warning is due: the remaining
// time just crossed it, inside one sweep interval.
func withinWindow(remaining, threshold time.Duration) bool {
	return remaining <= threshold && remaining > threshold-SweepInterval
}

func (w *DeadlineSweeper) markWarned(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.warned[key] {
		return false
	}
	w.warned[key] = true
	return true
}

func (w *DeadlineSweeper) lobbyWarnings(ctx context.Context, game *models.Game, now time.Time) {
	if game.DebugMode {
		return
	}
	remaining := game.LobbyDeadline.Time.Sub(now)
	for _, thr := range warningThresholds {
		if !withinWindow(remaining, thr) {
			continue
		}
		key := fmt.Sprintf("%s:lobby:%s", game.ID, thr)
		if !w.markWarned(key) {
			continue
		}
		count, err := w.players.CountPlayers(ctx, game.ID)
		if err != nil {
			log.Errorf("Error [DeadlineSweeper.lobbyWarnings] count players: %s", err)
			continue
		}
		w.notifier.Announce(game.ChannelID,
			fmt.Sprintf("The lobby closes in about %s. %d of %d players have joined.",
				humanDuration(thr), count, MinLobbyPlayers))
	}
}

func (w *DeadlineSweeper) phaseWarnings(ctx context.Context, game *models.Game, now time.Time) {
	if game.DebugMode {
		return
	}
	remaining := game.PhaseDeadline.Time.Sub(now)
	for _, thr := range warningThresholds {
		if !withinWindow(remaining, thr) {
			continue
		}
		key := fmt.Sprintf("%s:%s:%d:%d:%s", game.ID, game.Phase, game.NightNumber, game.DayNumber, thr)
		if !w.markWarned(key) {
			continue
		}

		alive, err := w.players.GetAlivePlayers(ctx, game.ID)
		if err != nil {
			log.Errorf("Error [DeadlineSweeper.phaseWarnings] get alive players: %s", err)
			continue
		}
		var waiting []string
		for _, p := range alive {
			if p.HasActedThisPhase {
				continue
			}
			if game.Phase == models.PhaseNight {
				def, ok := roles.GetRoleDefinition(p.Role)
				if !ok || !def.NightAction {
					continue
				}
			}
			waiting = append(waiting, p.DisplayName)
		}

		text := fmt.Sprintf("The %s phase ends in about %s.", game.Phase, humanDuration(thr))
		if len(waiting) > 0 && game.Phase != models.PhaseDay {
			text += " Still waiting on: " + strings.Join(waiting, ", ")
		}
		w.notifier.Announce(game.ChannelID, text)
	}
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
