package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/roles"
	log "github.com/sirupsen/logrus"
)

// Phase durations. One constant per game, identical for every phase.
const (
	PhaseDurationNormal = 24 * time.Hour
	PhaseDurationDebug  = 5 * time.Minute
)

// PhaseScheduler owns the phase state machine: phase start/end, the
// deadline-vs-early-completion race, win-condition checks and the
// end-of-game transition.
type PhaseScheduler struct {
	games    GameStore
	players  PlayerStore
	events   EventStore
	notifier Notifier
	rewards  Rewarder

	resolver NightResolver
	tallier  VoteTallier
}

func NewPhaseScheduler(games GameStore, players PlayerStore, events EventStore, notifier Notifier, rewards Rewarder) *PhaseScheduler {
	return &PhaseScheduler{
		games:    games,
		players:  players,
		events:   events,
		notifier: notifier,
		rewards:  rewards,
	}
}

// BindHooks wires the phase-exit hooks. The collector and tally engine are
// constructed after the scheduler because they need it as their
// PhaseAdvancer.
func (s *PhaseScheduler) BindHooks(resolver NightResolver, tallier VoteTallier) {
	s.resolver = resolver
	s.tallier = tallier
}

// PhaseDuration is uniform across phases: 24 hours, or 5 minutes in debug
// mode.
func PhaseDuration(g *models.Game) time.Duration {
	if g.DebugMode {
		return PhaseDurationDebug
	}
	return PhaseDurationNormal
}

// nextPhase follows the fixed cycle night → day → voting → night.
func nextPhase(current string) string {
	switch current {
	case models.PhaseNight:
		return models.PhaseDay
	case models.PhaseDay:
		return models.PhaseVoting
	default:
		return models.PhaseNight
	}
}

// StartGame flips a pending lobby to active and opens the first night.
// Role assignment must already have happened (SetupRoles).
func (s *PhaseScheduler) StartGame(ctx context.Context, gameID string) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}
	if game.Status != models.GameStatusPending {
		return fmt.Errorf("game %s is not pending", gameID)
	}

	activated, err := s.games.ActivateGame(ctx, gameID)
	if err != nil {
		return err
	}
	if !activated {
		return nil // lost the race to another starter
	}

	if err := s.events.CreateEvent(ctx, gameID, models.PhaseSetup, models.EventOther, "game setup complete", nil); err != nil {
		log.Errorf("Error [PhaseScheduler.StartGame] create event: %s", err)
	}

	s.notifier.Announce(game.ChannelID, "The game has begun. Night falls on the town...")

	return s.StartPhase(ctx, gameID, models.PhaseNight)
}

// StartPhase opens a phase: sets the window, bumps the counter the phase
// owns, clears every living player's acted flag and announces.
func (s *PhaseScheduler) StartPhase(ctx context.Context, gameID, phase string) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	now := time.Now()
	deadline := now.Add(PhaseDuration(game))
	incrNight := phase == models.PhaseNight
	incrDay := phase == models.PhaseVoting

	if err := s.games.AdvancePhase(ctx, gameID, phase, now, deadline, incrNight, incrDay); err != nil {
		return err
	}
	if err := s.players.ResetPhaseActions(ctx, gameID); err != nil {
		return err
	}

	// re-read for the bumped counters
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("game %s vanished during phase start", gameID)
	}

	desc := phaseAnnouncement(game, phase)
	if err := s.events.CreateEvent(ctx, gameID, phase, models.EventPhaseChange, desc, nil); err != nil {
		log.Errorf("Error [PhaseScheduler.StartPhase] create event: %s", err)
	}

	s.notifier.Announce(game.ChannelID, desc)
	if phase == models.PhaseNight {
		s.SendNightPrompts(ctx, game)
	}
	s.notifier.RefreshStatusDisplay(ctx, gameID)

	return nil
}

func phaseAnnouncement(game *models.Game, phase string) string {
	switch phase {
	case models.PhaseNight:
		return fmt.Sprintf("Night %d has begun. Check your DMs for your night action.", game.NightNumber)
	case models.PhaseDay:
		return fmt.Sprintf("Day breaks after night %d. Discuss your suspicions.", game.NightNumber)
	case models.PhaseVoting:
		return fmt.Sprintf("Voting for day %d is open. Use the vote command.", game.DayNumber)
	default:
		return "The phase has changed."
	}
}

// SendNightPrompts DMs every living player whose role has a night action a
// numbered list of the other living players. The numbering is fixed at
// prompt time; resolution re-reads the alive list later.
func (s *PhaseScheduler) SendNightPrompts(ctx context.Context, game *models.Game) {
	alive, err := s.players.GetAlivePlayers(ctx, game.ID)
	if err != nil {
		log.Errorf("Error [PhaseScheduler.SendNightPrompts] get alive players: %s", err)
		return
	}

	for _, p := range alive {
		def, ok := roles.GetRoleDefinition(p.Role)
		if !ok || !def.NightAction {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Night %d. You are the %s. %s\n", game.NightNumber, def.Name, def.Abilities)
		b.WriteString("Reply with a number to pick a target, or a keyword (skip")
		switch def.ID {
		case roles.RoleVeteran:
			b.WriteString(", alert")
		case roles.RoleBodyguard:
			b.WriteString(", vest")
		case roles.RoleArsonist:
			b.WriteString(", ignite")
		}
		b.WriteString("):\n")
		n := 0
		for _, other := range alive {
			if other.PlayerID == p.PlayerID {
				continue
			}
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, other.DisplayName)
		}

		s.notifier.PromptPlayer(p.PlayerID, b.String())
	}
}

// EndPhase closes the current phase. Both the early-completion check and the
// sweeper's timeout path land here; the store-level claim makes the loser a
// no-op.
func (s *PhaseScheduler) EndPhase(ctx context.Context, gameID, fromPhase string, isTimeout bool) error {
	claimed, err := s.games.ClaimPhaseEnd(ctx, gameID, fromPhase)
	if err != nil {
		return err
	}
	if !claimed {
		return nil // not active, phase moved on, or another caller won
	}

	// once claimed, any failed exit must release the claim or no later
	// sweep could ever re-claim this phase. AdvancePhase and SetTerminal
	// clear the flag themselves on the success paths.
	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := s.games.ReleasePhaseEnd(ctx, gameID); rerr != nil {
			log.Errorf("Error [PhaseScheduler.EndPhase] release claim: %s", rerr)
		}
	}()

	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	if isTimeout {
		s.flagInactivePlayers(ctx, game)
	}

	// phase-exit hook; a failure aborts without a transition so the next
	// sweep retries
	switch fromPhase {
	case models.PhaseNight:
		if err := s.resolver.ResolveNight(ctx, gameID); err != nil {
			log.Errorf("Error [PhaseScheduler.EndPhase] night resolution: %s", err)
			return err
		}
	case models.PhaseVoting:
		if err := s.tallier.Tally(ctx, gameID); err != nil {
			log.Errorf("Error [PhaseScheduler.EndPhase] vote tally: %s", err)
			return err
		}
	}

	players, err := s.players.GetPlayers(ctx, gameID)
	if err != nil {
		return err
	}

	if team, over := roles.EvaluateWin(projection(players)); over {
		if err := s.finishGame(ctx, game, players, team); err != nil {
			return err
		}
		committed = true
		return nil
	}

	if err := s.StartPhase(ctx, gameID, nextPhase(fromPhase)); err != nil {
		return err
	}
	committed = true
	return nil
}

// flagInactivePlayers marks every living player who sat out a timed-out
// phase.
func (s *PhaseScheduler) flagInactivePlayers(ctx context.Context, game *models.Game) {
	alive, err := s.players.GetAlivePlayers(ctx, game.ID)
	if err != nil {
		log.Errorf("Error [PhaseScheduler.flagInactivePlayers] get alive players: %s", err)
		return
	}
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
		if game.Phase == models.PhaseDay {
			continue // day has no action requirement
		}
		if err := s.players.MarkInactive(ctx, game.ID, p.PlayerID); err != nil {
			log.Errorf("Error [PhaseScheduler.flagInactivePlayers] mark inactive: %s", err)
			continue
		}
		desc := fmt.Sprintf("%s did not act before the deadline", p.DisplayName)
		if err := s.events.CreateEvent(ctx, game.ID, game.Phase, models.EventOther, desc, nil); err != nil {
			log.Errorf("Error [PhaseScheduler.flagInactivePlayers] create event: %s", err)
		}
	}
}

// CheckEarlyPhaseEnd ends the phase before its deadline once every
// action-eligible living player has acted. Day phases only end by timeout.
func (s *PhaseScheduler) CheckEarlyPhaseEnd(ctx context.Context, gameID string) (bool, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	if game == nil || game.Status != models.GameStatusActive {
		return false, nil
	}

	alive, err := s.players.GetAlivePlayers(ctx, gameID)
	if err != nil {
		return false, err
	}

	ready := false
	switch game.Phase {
	case models.PhaseNight:
		ready = true // vacuously true with zero night-capable players
		for _, p := range alive {
			def, ok := roles.GetRoleDefinition(p.Role)
			if !ok || !def.NightAction {
				continue
			}
			if !p.HasActedThisPhase {
				ready = false
				break
			}
		}
	case models.PhaseVoting:
		ready = true // vacuously true with zero living players
		for _, p := range alive {
			if !p.HasActedThisPhase {
				ready = false
				break
			}
		}
	default:
		// day has no action requirement and only ends by timeout
	}

	if !ready {
		return false, nil
	}

	return true, s.EndPhase(ctx, gameID, game.Phase, false)
}

// finishGame runs the end-of-game transition: terminal status, win event,
// rewards and the winners announcement.
func (s *PhaseScheduler) finishGame(ctx context.Context, game *models.Game, players []*models.Player, team string) error {
	if err := s.games.SetTerminal(ctx, game.ID, models.GameStatusCompleted); err != nil {
		return err
	}

	desc := "the game is over with no survivors"
	if team != "" {
		desc = fmt.Sprintf("the %s team has won", team)
	}
	if err := s.events.CreateEvent(ctx, game.ID, models.PhaseEnded, models.EventWin, desc, map[string]string{"team": team}); err != nil {
		log.Errorf("Error [PhaseScheduler.finishGame] create event: %s", err)
	}

	var winners []*models.Player
	var names []string
	for _, p := range players {
		def, ok := roles.GetRoleDefinition(p.Role)
		if !ok || def.Team != team {
			continue
		}
		winners = append(winners, p)
		names = append(names, p.DisplayName)
	}

	if team == "" || len(winners) == 0 {
		s.notifier.Announce(game.ChannelID, "The game is over. Nobody survived to claim victory.")
	} else {
		s.notifier.Announce(game.ChannelID,
			fmt.Sprintf("Game over! The %s team wins: %s", team, strings.Join(names, ", ")))
		if err := s.rewards.DistributeRewards(ctx, game.ID, winners); err != nil {
			log.Errorf("Error [PhaseScheduler.finishGame] distribute rewards: %s", err)
		}
	}

	s.notifier.RefreshStatusDisplay(ctx, game.ID)
	return nil
}

// CancelGame aborts a game from any state. Re-cancel is harmless.
func (s *PhaseScheduler) CancelGame(ctx context.Context, gameID string) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	if err := s.games.SetTerminal(ctx, gameID, models.GameStatusCancelled); err != nil {
		return err
	}
	if err := s.events.CreateEvent(ctx, gameID, game.Phase, models.EventOther, "game cancelled", nil); err != nil {
		log.Errorf("Error [PhaseScheduler.CancelGame] create event: %s", err)
	}
	s.notifier.Announce(game.ChannelID, "The game has been cancelled.")
	return nil
}

// SetupRoles draws a tier-filtered, count-matched role pool, shuffles it
// onto the lobby and DMs every player their role card.
func (s *PhaseScheduler) SetupRoles(ctx context.Context, gameID string) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	players, err := s.players.GetPlayers(ctx, gameID)
	if err != nil {
		return err
	}

	pool := roles.BuildRolePool(len(players), game.Tier)
	for i, p := range players {
		def := pool[i]
		if err := s.players.AssignRole(ctx, gameID, p.PlayerID, def.ID, def.Bullets, def.Vests, def.Alerts); err != nil {
			return err
		}
		s.notifier.PromptPlayer(p.PlayerID,
			fmt.Sprintf("You are the %s (%s). %s", def.Name, def.Team, def.Abilities))
	}
	return nil
}

// RestartPhase re-sends the current phase's notifications without mutating
// state. Operator recovery tool for lost messages. With resendRoles, role
// cards go out again too.
func (s *PhaseScheduler) RestartPhase(ctx context.Context, gameID string, resendRoles bool) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}
	if game.Status != models.GameStatusActive {
		return fmt.Errorf("game %s is not active", gameID)
	}

	if resendRoles {
		alive, err := s.players.GetAlivePlayers(ctx, gameID)
		if err != nil {
			return err
		}
		for _, p := range alive {
			def, ok := roles.GetRoleDefinition(p.Role)
			if !ok {
				continue
			}
			s.notifier.PromptPlayer(p.PlayerID,
				fmt.Sprintf("You are the %s (%s). %s", def.Name, def.Team, def.Abilities))
		}
	}

	s.notifier.Announce(game.ChannelID, phaseAnnouncement(game, game.Phase))
	if game.Phase == models.PhaseNight {
		s.SendNightPrompts(ctx, game)
	}
	s.notifier.RefreshStatusDisplay(ctx, gameID)
	return nil
}

// projection maps players onto the (role, alive, resources) view the role
// engine works with.
func projection(players []*models.Player) []roles.PlayerState {
	out := make([]roles.PlayerState, 0, len(players))
	for _, p := range players {
		out = append(out, roles.PlayerState{
			PlayerID: p.PlayerID,
			Role:     p.Role,
			Alive:    p.Alive,
			Bullets:  p.BulletsRemaining,
			Vests:    p.VestsRemaining,
			Alerts:   p.AlertsRemaining,
		})
	}
	return out
}
