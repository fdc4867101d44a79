package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/comm"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// GatewayTopic is where the chat gateway listens for outbound messages.
const GatewayTopic = "gateway.service"

// refreshCooldown is the per-game debounce window for status refreshes.
// Calls inside the window are dropped, not queued. The map is in-memory;
// losing debounce state across restarts is acceptable.
const refreshCooldown = 30 * time.Second

type GameReader interface {
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	UpdateStatusMessageID(ctx context.Context, gameID, messageID string) error
}

type PlayerReader interface {
	GetPlayers(ctx context.Context, gameID string) ([]*models.Player, error)
}

type EventReader interface {
	GetRecentEvents(ctx context.Context, gameID string, n int) ([]*models.Event, error)
}

// Notifier publishes chat-platform messages over NATS. Delivery failures
// are logged and never propagate: a broken DM must not abort a phase
// transition.
type Notifier struct {
	conn    *nats.Conn
	games   GameReader
	players PlayerReader
	events  EventReader

	mu          sync.Mutex
	lastRefresh map[string]time.Time
}

func NewNotifier(conn *nats.Conn, games GameReader, players PlayerReader, events EventReader) *Notifier {
	return &Notifier{
		conn:        conn,
		games:       games,
		players:     players,
		events:      events,
		lastRefresh: make(map[string]time.Time),
	}
}

func (n *Notifier) publish(msgType string, payload any, channelID, socketID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Error [Notifier.publish] marshal %s payload: %s", msgType, err)
		return
	}

	msg := &comm.ChatMessage{
		Type:      msgType,
		Data:      data,
		ChannelId: channelID,
		SocketId:  socketID,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error [Notifier.publish] marshal envelope: %s", err)
		return
	}

	if err := n.conn.Publish(GatewayTopic, raw); err != nil {
		log.Errorf("Error [Notifier.publish] publish %s: %s", msgType, err)
	}
}

// Announce posts a public message in a game channel.
func (n *Notifier) Announce(channelID, text string) {
	n.publish("announce", comm.Announcement{ChannelId: channelID, Text: text}, channelID, "")
}

// PromptPlayer sends a private message to one player.
func (n *Notifier) PromptPlayer(playerID, text string) {
	n.publish("player-prompt", comm.PlayerPrompt{UserId: playerID, Text: text}, "", "")
}

// CreateStatusDisplay renders and posts the pinned status panel and records
// its message id on the game.
func (n *Notifier) CreateStatusDisplay(ctx context.Context, gameID string) (string, error) {
	game, err := n.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "", fmt.Errorf("game %s not found", gameID)
	}

	messageID := uuid.New().String()
	if err := n.games.UpdateStatusMessageID(ctx, gameID, messageID); err != nil {
		return "", err
	}

	text, err := n.RenderStatus(ctx, gameID)
	if err != nil {
		return "", err
	}

	n.publish("status-display", comm.StatusDisplay{
		GameId:    gameID,
		ChannelId: game.ChannelID,
		MessageId: messageID,
		Text:      text,
	}, game.ChannelID, "")

	return messageID, nil
}

// RefreshStatusDisplay re-renders the status panel, debounced per game.
func (n *Notifier) RefreshStatusDisplay(ctx context.Context, gameID string) {
	n.mu.Lock()
	last, ok := n.lastRefresh[gameID]
	if ok && time.Since(last) < refreshCooldown {
		n.mu.Unlock()
		return
	}
	n.lastRefresh[gameID] = time.Now()
	n.mu.Unlock()

	game, err := n.games.GetGame(ctx, gameID)
	if err != nil || game == nil {
		log.Errorf("Error [Notifier.RefreshStatusDisplay] get game %s: %v", gameID, err)
		return
	}
	if game.StatusMessageID == "" {
		return // no display created yet
	}

	text, err := n.RenderStatus(ctx, gameID)
	if err != nil {
		log.Errorf("Error [Notifier.RefreshStatusDisplay] render %s: %s", gameID, err)
		return
	}

	n.publish("status-display", comm.StatusDisplay{
		GameId:    gameID,
		ChannelId: game.ChannelID,
		MessageId: game.StatusMessageID,
		Text:      text,
	}, game.ChannelID, "")
}

// RenderStatus builds the current status panel text.
func (n *Notifier) RenderStatus(ctx context.Context, gameID string) (string, error) {
	game, err := n.games.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "", fmt.Errorf("game %s not found", gameID)
	}

	players, err := n.players.GetPlayers(ctx, gameID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily Mafia — %s", game.Status)
	if game.Status == models.GameStatusActive {
		fmt.Fprintf(&b, " — %s (night %d, day %d)", game.Phase, game.NightNumber, game.DayNumber)
		if game.PhaseDeadline.Valid {
			fmt.Fprintf(&b, "\nPhase ends: %s", game.PhaseDeadline.Time.UTC().Format(time.RFC1123))
		}
	}
	if game.Status == models.GameStatusPending && game.LobbyDeadline.Valid {
		fmt.Fprintf(&b, "\nLobby closes: %s", game.LobbyDeadline.Time.UTC().Format(time.RFC1123))
	}

	b.WriteString("\n\nPlayers:\n")
	for _, p := range players {
		marker := "alive"
		if !p.Alive {
			marker = "dead"
			if game.RevealRoles && p.Role != models.RolePending {
				marker = "dead — was " + p.Role
			}
		}
		fmt.Fprintf(&b, "- %s (%s)\n", p.DisplayName, marker)
	}

	events, err := n.events.GetRecentEvents(ctx, gameID, 5)
	if err == nil && len(events) > 0 {
		b.WriteString("\nRecent events:\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "- %s\n", ev.Description)
		}
	}

	return b.String(), nil
}
