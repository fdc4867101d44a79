package broker

import (
	"encoding/json"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// ServiceTopic is where the gateway forwards player traffic to the game
// service.
const ServiceTopic = "mafia.service"

type Broker struct {
	Conn              *nats.Conn
	GetConnection     func(string) (*websocket.Conn, bool)
	GetUserSocket     func(string) (string, bool)
	GetChannelSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool),
	fncGetUserSocket func(string) (string, bool),
	fncGetChannelSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:              conn,
		GetConnection:     fncGetConnection,
		GetUserSocket:     fncGetUserSocket,
		GetChannelSockets: fncGetChannelSockets,
	}
}

// consume messages from the game service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to the game service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receives messages from the game service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.ChatMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "command-reply":
		b.sendToSocket(message.SocketId, message)
	case "player-prompt":
		b.sendToUser(message)
	case "announce", "status-display":
		b.broadcastToChannel(message)
	default:
		log.Error("Unknown message")
		return
	}
}

// sendToSocket delivers a message to one socket.
func (b *Broker) sendToSocket(socketId string, m *comm.ChatMessage) {
	if socketId == "" {
		return
	}
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Println(err)
		}
	}
}

// sendToUser delivers a direct message to the socket a player last used.
func (b *Broker) sendToUser(m *comm.ChatMessage) {
	prompt := comm.PlayerPrompt{}
	if err := json.Unmarshal(m.Data, &prompt); err != nil {
		log.Errorf("Error: malformed player prompt %s", err)
		return
	}

	socketId, ok := b.GetUserSocket(prompt.UserId)
	if !ok {
		// player is offline, the prompt stays in the channel history on
		// their next status request
		log.Infof("No socket for user %s, dropping prompt", prompt.UserId)
		return
	}
	b.sendToSocket(socketId, m)
}

// broadcastToChannel delivers a message to every socket in a channel.
func (b *Broker) broadcastToChannel(m *comm.ChatMessage) {
	sockets, ok := b.GetChannelSockets(m.ChannelId)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		b.sendToSocket(socketId, m)
	}
}
