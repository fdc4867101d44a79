package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/roles"
	log "github.com/sirupsen/logrus"
)

// ActionCollector parses and stores night actions and runs the night
// resolution at phase end.
type ActionCollector struct {
	games    GameStore
	players  PlayerStore
	actions  ActionStore
	events   EventStore
	notifier Notifier
	phases   PhaseAdvancer
}

func NewActionCollector(games GameStore, players PlayerStore, actions ActionStore, events EventStore, notifier Notifier, phases PhaseAdvancer) *ActionCollector {
	return &ActionCollector{
		games:    games,
		players:  players,
		actions:  actions,
		events:   events,
		notifier: notifier,
		phases:   phases,
	}
}

// roleKeyword reports whether a keyword belongs to a role's vocabulary,
// besides "skip".
func roleKeyword(roleID, word string) bool {
	switch word {
	case roles.KeywordAlert:
		return roleID == roles.RoleVeteran
	case roles.KeywordVest:
		return roleID == roles.RoleBodyguard
	case roles.KeywordIgnite:
		return roleID == roles.RoleArsonist
	}
	return false
}

// SubmitNightAction validates and stores one player's night action.
// The returned string is the single reply the player sees; a non-nil error
// is a store failure, not a validation failure.
func (c *ActionCollector) SubmitNightAction(ctx context.Context, gameID, playerID, rawInput string) (string, error) {
	game, err := c.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "You are not in a running game.", nil
	}
	if game.Status != models.GameStatusActive || game.Phase != models.PhaseNight {
		return "Night actions can only be submitted during the night phase.", nil
	}

	player, err := c.players.GetPlayer(ctx, gameID, playerID)
	if err != nil {
		return "", err
	}
	if player == nil {
		return "You are not part of this game.", nil
	}
	if !player.Alive {
		return "The dead take no actions.", nil
	}

	def, ok := roles.GetRoleDefinition(player.Role)
	if !ok || !def.NightAction {
		return "Your role has no night action.", nil
	}

	input := strings.ToLower(strings.TrimSpace(rawInput))

	action := &models.Action{
		GameID:      gameID,
		NightNumber: game.NightNumber,
		PlayerID:    playerID,
		ActionType:  def.ActionType,
	}

	var reply string
	switch {
	case input == roles.KeywordSkip || roleKeyword(def.ID, input):
		action.Keyword = sql.NullString{String: input, Valid: true}
		reply = fmt.Sprintf("Understood: %s.", input)
	default:
		// a positive integer names a 1-based position in the target list
		// shown at prompt time; identity is resolved at night end, so only
		// the format is checked here
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 {
			return "I didn't understand that. Reply with a target number or a keyword.", nil
		}
		action.TargetID = sql.NullString{String: input, Valid: true}
		reply = fmt.Sprintf("Target %d locked in.", n)
	}

	if err := c.actions.UpsertAction(ctx, action); err != nil {
		return "", err
	}
	if err := c.players.MarkActed(ctx, gameID, playerID, time.Now()); err != nil {
		return "", err
	}

	if _, err := c.phases.CheckEarlyPhaseEnd(ctx, gameID); err != nil {
		log.Errorf("Error [ActionCollector.SubmitNightAction] early end check: %s", err)
	}
	c.notifier.RefreshStatusDisplay(ctx, gameID)

	return reply, nil
}

// ResolveNight converts the night's stored actions, invokes the role-effect
// engine and applies its results. Safe to call twice: processed actions are
// excluded on read and the phase-end claim blocks a concurrent second pass.
func (c *ActionCollector) ResolveNight(ctx context.Context, gameID string) error {
	game, err := c.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	players, err := c.players.GetPlayers(ctx, gameID)
	if err != nil {
		return err
	}
	alive, err := c.players.GetAlivePlayers(ctx, gameID)
	if err != nil {
		return err
	}
	stored, err := c.actions.GetActionsForNight(ctx, gameID, game.NightNumber)
	if err != nil {
		return err
	}

	// numeric targets resolve against the full alive ordering at
	// resolution time, not submission time. Note the prompts number the
	// OTHER living players (self excluded), so the two orderings differ
	// on purpose; changing either side alone would shift every target at
	// or past the actor's own position.
	index := make(map[int]string, len(alive))
	for i, p := range alive {
		index[i+1] = p.PlayerID
	}

	nightActions := make(map[string]roles.NightAction, len(stored))
	for _, a := range stored {
		na := roles.NightAction{Action: a.ActionType}
		if a.Keyword.Valid {
			na.Keyword = a.Keyword.String
		}
		if a.TargetID.Valid {
			if n, err := strconv.Atoi(a.TargetID.String); err == nil {
				if id, ok := index[n]; ok {
					na.Target = id
				}
			}
		}
		nightActions[a.PlayerID] = na
	}

	result := roles.ResolveNight(projection(players), nightActions, game.FramedPlayers, game.DousedPlayers)

	byID := make(map[string]*models.Player, len(players))
	for _, p := range players {
		byID[p.PlayerID] = p
	}

	for _, d := range result.Deaths {
		died, err := c.players.MarkDead(ctx, gameID, d.PlayerID, d.Reason, models.PhaseNight, game.NightNumber)
		if err != nil {
			return err
		}
		if !died {
			continue
		}
		name := d.PlayerID
		if p := byID[d.PlayerID]; p != nil {
			name = p.DisplayName
		}
		desc := fmt.Sprintf("%s was found dead (%s)", name, d.Reason)
		if game.RevealRoles {
			if p := byID[d.PlayerID]; p != nil {
				if def, ok := roles.GetRoleDefinition(p.Role); ok {
					desc = fmt.Sprintf("%s the %s was found dead (%s)", name, def.Name, d.Reason)
				}
			}
		}
		if err := c.events.CreateEvent(ctx, gameID, models.PhaseNight, models.EventDeath, desc,
			map[string]string{"player_id": d.PlayerID, "reason": d.Reason}); err != nil {
			log.Errorf("Error [ActionCollector.ResolveNight] create event: %s", err)
		}
		c.notifier.Announce(game.ChannelID, desc)
	}

	for id, st := range result.Resources {
		if err := c.players.UpdateResources(ctx, gameID, id, st.Bullets, st.Vests, st.Alerts); err != nil {
			return err
		}
	}

	if err := c.games.UpdateStatusSets(ctx, gameID, result.Framed, result.Doused); err != nil {
		return err
	}

	for _, inv := range result.Investigations {
		verdict := "seems trustworthy"
		if inv.Suspicious {
			verdict = "is hiding something"
		}
		name := inv.TargetID
		if p := byID[inv.TargetID]; p != nil {
			name = p.DisplayName
		}
		c.notifier.PromptPlayer(inv.InvestigatorID, fmt.Sprintf("Your investigation: %s %s.", name, verdict))
	}

	if err := c.actions.MarkActionsProcessed(ctx, gameID, game.NightNumber); err != nil {
		return err
	}

	c.notifier.RefreshStatusDisplay(ctx, gameID)
	return nil
}
