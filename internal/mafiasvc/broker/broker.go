package broker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/comm"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/notify"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/service"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// CommandTopic is where the gateway publishes player commands.
const CommandTopic = "mafia.service"

const helpText = `Daily Mafia commands:
start [debug] [noreveal] — open a lobby in this channel
join — join the lobby
leave — not supported once joined
cancel — organizer cancels the game
vote <player|skip> — vote during the voting phase
unvote — withdraw your vote
votes — show current vote counts
status — show the game status
restartphase [roles] — organizer re-sends phase notifications
help — this text
At night, reply to your DM prompt with a target number or keyword.`

// Broker consumes chat commands from the gateway and drives the game
// services.
type Broker struct {
	Conn      *nats.Conn
	Games     service.GameStore
	Players   service.PlayerStore
	Scheduler *service.PhaseScheduler
	Collector *service.ActionCollector
	Tally     *service.VoteTallyEngine
	Notifier  *notify.Notifier
}

func NewBroker(nc *nats.Conn, games service.GameStore, players service.PlayerStore,
	scheduler *service.PhaseScheduler, collector *service.ActionCollector,
	tally *service.VoteTallyEngine, notifier *notify.Notifier) *Broker {
	return &Broker{
		Conn:      nc,
		Games:     games,
		Players:   players,
		Scheduler: scheduler,
		Collector: collector,
		Tally:     tally,
		Notifier:  notifier,
	}
}

// SubscribeGateway consumes command messages from the gateway topic.
func (b *Broker) SubscribeGateway(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// handleMessage routes one inbound chat message.
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.ChatMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "command":
		req := comm.CommandRequest{}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reply, ok := b.dispatchCommand(ctx, &req)
		b.PublishReply(comm.CommandReply{UserId: req.UserId, Ok: ok, Text: reply}, msg.SocketId)
	case "night-action":
		req := comm.NightActionRequest{}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error %s", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		b.handleNightAction(ctx, &req, msg.SocketId)
	default:
		log.Errorf("Error: unknown message type %s", msg.Type)
	}
}

func (b *Broker) handleNightAction(ctx context.Context, req *comm.NightActionRequest, socketID string) {
	game, err := b.Players.GetPlayerActiveGame(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [Broker.handleNightAction] %s", err)
		return
	}
	if game == nil {
		b.PublishReply(comm.CommandReply{UserId: req.UserId, Text: "You are not in a running game."}, socketID)
		return
	}

	reply, err := b.Collector.SubmitNightAction(ctx, game.ID, req.UserId, req.Text)
	if err != nil {
		log.Errorf("Error [ActionCollector.SubmitNightAction] %s", err)
		reply = "Something went wrong, try again."
	}
	b.PublishReply(comm.CommandReply{UserId: req.UserId, Ok: err == nil, Text: reply}, socketID)
}

// dispatchCommand executes one chat command and returns the single reply.
func (b *Broker) dispatchCommand(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	switch req.Command {
	case "start":
		return b.cmdStart(ctx, req)
	case "join":
		return b.cmdJoin(ctx, req)
	case "leave":
		// no removal path exists once joined; the organizer cancels instead
		return "You can't leave a game after joining. Ask the organizer to cancel.", false
	case "cancel":
		return b.cmdCancel(ctx, req)
	case "vote":
		return b.cmdVote(ctx, req)
	case "unvote":
		return b.cmdUnvote(ctx, req)
	case "votes":
		return b.cmdVotes(ctx, req)
	case "status":
		return b.cmdStatus(ctx, req)
	case "restartphase":
		return b.cmdRestartPhase(ctx, req)
	case "help":
		return helpText, true
	default:
		return "Unknown command. Try help.", false
	}
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if strings.EqualFold(a, want) {
			return true
		}
	}
	return false
}

func (b *Broker) cmdStart(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	existing, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdStart] %s", err)
		return "Something went wrong, try again.", false
	}
	if existing != nil {
		return "There is already a game in this channel.", false
	}

	debug := hasArg(req.Args, "debug")
	tier := os.Getenv("DEFAULT_GAME_TIER")
	if tier == "" {
		tier = models.TierBasic
	}

	lobbyWindow := 24 * time.Hour
	if debug {
		lobbyWindow = 5 * time.Minute
	}

	game := &models.Game{
		ID:            uuid.New().String(),
		CommunityID:   req.CommunityId,
		ChannelID:     req.ChannelId,
		OrganizerID:   req.UserId,
		Status:        models.GameStatusPending,
		Phase:         models.PhaseSetup,
		LobbyDeadline: sql.NullTime{Time: time.Now().Add(lobbyWindow), Valid: true},
		DebugMode:     debug,
		RevealRoles:   !hasArg(req.Args, "noreveal"),
		Tier:          tier,
		FramedPlayers: []string{},
		DousedPlayers: []string{},
	}
	if err := b.Games.CreateGame(ctx, game); err != nil {
		log.Errorf("Error [GameStore.CreateGame] %s", err)
		return "Something went wrong, try again.", false
	}

	b.Notifier.Announce(req.ChannelId,
		fmt.Sprintf("A Daily Mafia lobby is open! Type join to play. Needs %d players, closes %s.",
			service.MinLobbyPlayers, game.LobbyDeadline.Time.UTC().Format(time.RFC1123)))
	return "Lobby created.", true
}

func (b *Broker) cmdJoin(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdJoin] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel. Start one with start.", false
	}
	if game.Status != models.GameStatusPending {
		return "The game has already started.", false
	}

	active, err := b.Players.GetPlayerActiveGame(ctx, req.UserId)
	if err != nil {
		log.Errorf("Error [Broker.cmdJoin] %s", err)
		return "Something went wrong, try again.", false
	}
	if active != nil && active.ID != game.ID {
		return "You are already in another game.", false
	}
	if active != nil && active.ID == game.ID {
		return "You already joined this lobby.", false
	}

	if _, err := b.Players.AddPlayer(ctx, game.ID, req.UserId, req.Name); err != nil {
		log.Errorf("Error [PlayerStore.AddPlayer] %s", err)
		return "Couldn't join the lobby.", false
	}

	count, err := b.Players.CountPlayers(ctx, game.ID)
	if err != nil {
		count = 0
	}
	return fmt.Sprintf("You're in. %d players so far.", count), true
}

func (b *Broker) cmdCancel(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdCancel] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}
	if game.OrganizerID != req.UserId {
		return "Only the organizer can cancel the game.", false
	}

	if err := b.Scheduler.CancelGame(ctx, game.ID); err != nil {
		log.Errorf("Error [PhaseScheduler.CancelGame] %s", err)
		return "Something went wrong, try again.", false
	}
	return "Game cancelled.", true
}

// resolveVoteTarget accepts skip, a 1-based position in the alive list, or
// a display name.
func (b *Broker) resolveVoteTarget(ctx context.Context, gameID, arg string) (string, error) {
	if strings.EqualFold(arg, models.VoteSkip) {
		return models.VoteSkip, nil
	}

	alive, err := b.Players.GetAlivePlayers(ctx, gameID)
	if err != nil {
		return "", err
	}

	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(alive) {
			return alive[n-1].PlayerID, nil
		}
		return "", nil
	}

	for _, p := range alive {
		if strings.EqualFold(p.DisplayName, arg) {
			return p.PlayerID, nil
		}
	}
	return "", nil
}

func (b *Broker) cmdVote(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	if len(req.Args) == 0 {
		return "Vote for whom? Use vote <player|skip>.", false
	}

	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdVote] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}

	target, err := b.resolveVoteTarget(ctx, game.ID, strings.Join(req.Args, " "))
	if err != nil {
		log.Errorf("Error [Broker.cmdVote] %s", err)
		return "Something went wrong, try again.", false
	}
	if target == "" {
		return "No living player matches that target.", false
	}

	reply, err := b.Tally.SubmitVote(ctx, game.ID, req.UserId, target)
	if err != nil {
		log.Errorf("Error [VoteTallyEngine.SubmitVote] %s", err)
		return "Something went wrong, try again.", false
	}
	return reply, true
}

func (b *Broker) cmdUnvote(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdUnvote] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}

	reply, err := b.Tally.DeleteVote(ctx, game.ID, req.UserId)
	if err != nil {
		log.Errorf("Error [VoteTallyEngine.DeleteVote] %s", err)
		return "Something went wrong, try again.", false
	}
	return reply, true
}

func (b *Broker) cmdVotes(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdVotes] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}

	summary, err := b.Tally.VotesSummary(ctx, game.ID)
	if err != nil {
		log.Errorf("Error [VoteTallyEngine.VotesSummary] %s", err)
		return "Something went wrong, try again.", false
	}
	return summary, true
}

func (b *Broker) cmdStatus(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdStatus] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}

	text, err := b.Notifier.RenderStatus(ctx, game.ID)
	if err != nil {
		log.Errorf("Error [Notifier.RenderStatus] %s", err)
		return "Something went wrong, try again.", false
	}
	return text, true
}

func (b *Broker) cmdRestartPhase(ctx context.Context, req *comm.CommandRequest) (string, bool) {
	game, err := b.Games.GetOpenGameByChannel(ctx, req.ChannelId)
	if err != nil {
		log.Errorf("Error [Broker.cmdRestartPhase] %s", err)
		return "Something went wrong, try again.", false
	}
	if game == nil {
		return "There is no game in this channel.", false
	}
	if game.OrganizerID != req.UserId {
		return "Only the organizer can restart a phase.", false
	}

	if err := b.Scheduler.RestartPhase(ctx, game.ID, hasArg(req.Args, "roles")); err != nil {
		log.Errorf("Error [PhaseScheduler.RestartPhase] %s", err)
		return "Something went wrong, try again.", false
	}
	return "Phase notifications re-sent.", true
}

// PublishReply sends the command's single reply back through the gateway.
func (b *Broker) PublishReply(r comm.CommandReply, socketID string) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Errorf("Error [PublishReply] unable to marshal reply for %s", r.UserId)
		return
	}

	msg := &comm.ChatMessage{
		Type:     "command-reply",
		Data:     data,
		SocketId: socketID,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := b.Conn.Publish(notify.GatewayTopic, payload); err != nil {
		log.Errorf("Error publishing reply: %s", err)
	}
}
