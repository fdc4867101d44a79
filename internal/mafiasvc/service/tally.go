package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/roles"
	log "github.com/sirupsen/logrus"
)

// VoteTallyEngine collects votes during the voting phase and computes the
// plurality result at phase end.
type VoteTallyEngine struct {
	games    GameStore
	players  PlayerStore
	votes    VoteStore
	events   EventStore
	notifier Notifier
	phases   PhaseAdvancer
}

func NewVoteTallyEngine(games GameStore, players PlayerStore, votes VoteStore, events EventStore, notifier Notifier, phases PhaseAdvancer) *VoteTallyEngine {
	return &VoteTallyEngine{
		games:    games,
		players:  players,
		votes:    votes,
		events:   events,
		notifier: notifier,
		phases:   phases,
	}
}

// SubmitVote stores or overwrites the voter's vote for the current day.
// targetID is a living player's identity or the skip sentinel.
func (e *VoteTallyEngine) SubmitVote(ctx context.Context, gameID, voterID, targetID string) (string, error) {
	game, err := e.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "There is no game here.", nil
	}
	if game.Status != models.GameStatusActive || game.Phase != models.PhaseVoting {
		return "Votes can only be cast during the voting phase.", nil
	}

	voter, err := e.players.GetPlayer(ctx, gameID, voterID)
	if err != nil {
		return "", err
	}
	if voter == nil {
		return "You are not part of this game.", nil
	}
	if !voter.Alive {
		return "The dead don't vote.", nil
	}

	targetName := models.VoteSkip
	if targetID != models.VoteSkip {
		target, err := e.players.GetPlayer(ctx, gameID, targetID)
		if err != nil {
			return "", err
		}
		if target == nil || !target.Alive {
			return "That target is not a living player.", nil
		}
		targetName = target.DisplayName
	}

	vote := &models.Vote{
		GameID:    gameID,
		DayNumber: game.DayNumber,
		VoterID:   voterID,
		TargetID:  targetID,
	}
	if err := e.votes.UpsertVote(ctx, vote); err != nil {
		return "", err
	}
	if err := e.players.MarkActed(ctx, gameID, voterID, time.Now()); err != nil {
		return "", err
	}

	desc := fmt.Sprintf("%s voted to skip", voter.DisplayName)
	if targetID != models.VoteSkip {
		desc = fmt.Sprintf("%s voted for %s", voter.DisplayName, targetName)
	}
	if err := e.events.CreateEvent(ctx, gameID, models.PhaseVoting, models.EventVote, desc,
		map[string]string{"voter_id": voterID, "target_id": targetID}); err != nil {
		log.Errorf("Error [VoteTallyEngine.SubmitVote] create event: %s", err)
	}

	e.notifier.RefreshStatusDisplay(ctx, gameID)
	if _, err := e.phases.CheckEarlyPhaseEnd(ctx, gameID); err != nil {
		log.Errorf("Error [VoteTallyEngine.SubmitVote] early end check: %s", err)
	}

	return "Vote recorded: " + targetName + ".", nil
}

// DeleteVote removes the voter's current-day vote and un-marks them acted.
func (e *VoteTallyEngine) DeleteVote(ctx context.Context, gameID, voterID string) (string, error) {
	game, err := e.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "There is no game here.", nil
	}
	if game.Status != models.GameStatusActive || game.Phase != models.PhaseVoting {
		return "Votes can only be withdrawn during the voting phase.", nil
	}

	deleted, err := e.votes.DeleteVote(ctx, gameID, game.DayNumber, voterID)
	if err != nil {
		return "", err
	}
	if !deleted {
		return "You have no vote to withdraw.", nil
	}
	if err := e.players.ClearActed(ctx, gameID, voterID); err != nil {
		return "", err
	}

	e.notifier.RefreshStatusDisplay(ctx, gameID)
	return "Your vote has been withdrawn.", nil
}

// VotesSummary renders the current counts for the votes command.
func (e *VoteTallyEngine) VotesSummary(ctx context.Context, gameID string) (string, error) {
	game, err := e.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "There is no game here.", nil
	}
	if game.Phase != models.PhaseVoting {
		return "There is no vote in progress.", nil
	}

	votes, err := e.votes.GetVotesForDay(ctx, gameID, game.DayNumber)
	if err != nil {
		return "", err
	}
	if len(votes) == 0 {
		return "No votes have been cast yet.", nil
	}

	players, err := e.players.GetPlayers(ctx, gameID)
	if err != nil {
		return "", err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.PlayerID] = p.DisplayName
	}

	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.TargetID]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return counts[keys[i]] > counts[keys[j]] })

	var b strings.Builder
	fmt.Fprintf(&b, "Votes for day %d:\n", game.DayNumber)
	for _, k := range keys {
		label := "skip"
		if k != models.VoteSkip {
			label = names[k]
		}
		fmt.Fprintf(&b, "%s: %d\n", label, counts[k])
	}
	return b.String(), nil
}

// Tally computes the plurality result for the day and applies the
// elimination. The leader is whichever target first reached the maximum
// count; a later equal count forces no elimination regardless of who leads.
func (e *VoteTallyEngine) Tally(ctx context.Context, gameID string) error {
	game, err := e.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %s not found", gameID)
	}

	votes, err := e.votes.GetVotesForDay(ctx, gameID, game.DayNumber)
	if err != nil {
		return err
	}

	// processed guard: a re-run of an already-tallied day must not
	// eliminate twice
	unprocessed := votes[:0:0]
	for _, v := range votes {
		if !v.Processed {
			unprocessed = append(unprocessed, v)
		}
	}
	if len(votes) > 0 && len(unprocessed) == 0 {
		return nil
	}
	votes = unprocessed

	leader := ""
	max := 0
	tied := false

	counts := make(map[string]int, len(votes))
	var order []string // first-vote order keeps the tie semantics stable
	for _, v := range votes {
		if _, seen := counts[v.TargetID]; !seen {
			order = append(order, v.TargetID)
		}
		counts[v.TargetID]++
	}
	for _, target := range order {
		switch {
		case counts[target] > max:
			max = counts[target]
			leader = target
			tied = false
		case counts[target] == max:
			tied = true
		}
	}

	switch {
	case len(votes) == 0:
		e.noElimination(ctx, game, "no votes were cast")
	case tied:
		e.noElimination(ctx, game, "the vote ended in a tie")
	case leader == models.VoteSkip:
		e.noElimination(ctx, game, "the town voted to skip")
	default:
		if err := e.eliminate(ctx, game, leader, max); err != nil {
			return err
		}
	}

	return e.votes.MarkVotesProcessed(ctx, gameID, game.DayNumber)
}

func (e *VoteTallyEngine) noElimination(ctx context.Context, game *models.Game, reason string) {
	desc := "Nobody was eliminated: " + reason + "."
	if err := e.events.CreateEvent(ctx, game.ID, models.PhaseVoting, models.EventOther, desc, nil); err != nil {
		log.Errorf("Error [VoteTallyEngine.Tally] create event: %s", err)
	}
	e.notifier.Announce(game.ChannelID, desc)
}

func (e *VoteTallyEngine) eliminate(ctx context.Context, game *models.Game, targetID string, count int) error {
	// lynch deaths store the day counter in the night-numbered field
	died, err := e.players.MarkDead(ctx, game.ID, targetID, models.DeathReasonLynched, models.PhaseVoting, game.DayNumber)
	if err != nil {
		return err
	}
	if !died {
		return nil
	}

	target, err := e.players.GetPlayer(ctx, game.ID, targetID)
	if err != nil {
		return err
	}
	name := targetID
	desc := ""
	if target != nil {
		name = target.DisplayName
	}
	desc = fmt.Sprintf("%s was voted out with %d votes.", name, count)
	if game.RevealRoles && target != nil {
		if def, ok := roles.GetRoleDefinition(target.Role); ok {
			desc = fmt.Sprintf("%s was voted out with %d votes. They were the %s.", name, count, def.Name)
		}
	}

	if err := e.events.CreateEvent(ctx, game.ID, models.PhaseVoting, models.EventDeath, desc,
		map[string]string{"player_id": targetID, "reason": models.DeathReasonLynched}); err != nil {
		log.Errorf("Error [VoteTallyEngine.Tally] create event: %s", err)
	}
	e.notifier.Announce(game.ChannelID, desc)
	return nil
}
