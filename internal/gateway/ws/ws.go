package ws

import (
	"encoding/json"
	"sync"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/comm"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/gateway/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Ws struct {
	connMap    sync.Map // socketId -> *websocket.Conn
	userMap    sync.Map // userId -> socketId, for direct player prompts
	channelMap sync.Map // socketId -> channelId, for channel broadcasts
	Broker     *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage routes a message received from a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.ChatMessage) {
	switch message.Type {
	case "command":
		s.handleCommand(socketId, message)
	case "night-action":
		s.handleNightAction(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleCommand(socketId string, msg *comm.ChatMessage) {
	req := comm.CommandRequest{}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error: malformed command payload %s", err)
		return
	}

	if req.UserId == "" || req.ChannelId == "" {
		log.Error("Invalid command payload: missing user or channel")
		return
	}

	// remember where this player talks from so replies find their socket
	s.userMap.Store(req.UserId, socketId)
	s.channelMap.Store(socketId, req.ChannelId)

	msg.SocketId = socketId
	msg.ChannelId = req.ChannelId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal command for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(broker.ServiceTopic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", broker.ServiceTopic, err)
		return
	}

	log.Infof("Published command %s for user %s", req.Command, req.UserId)
}

func (s *Ws) handleNightAction(socketId string, msg *comm.ChatMessage) {
	req := comm.NightActionRequest{}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error: malformed night action payload %s", err)
		return
	}

	if req.UserId == "" {
		log.Error("Invalid night action payload: missing user")
		return
	}

	s.userMap.Store(req.UserId, socketId)

	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal night action for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(broker.ServiceTopic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", broker.ServiceTopic, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// GetUserSocket finds the socket a player last talked through.
func (s *Ws) GetUserSocket(userId string) (string, bool) {
	socketId, ok := s.userMap.Load(userId)
	if !ok {
		return "", false
	}
	return socketId.(string), true
}

// GetChannelSockets lists every socket subscribed to a channel.
func (s *Ws) GetChannelSockets(channelId string) ([]string, bool) {
	var sockets []string
	found := false

	s.channelMap.Range(func(key, value interface{}) bool {
		if value.(string) == channelId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.channelMap.Delete(socketId)

	s.userMap.Range(func(key, value interface{}) bool {
		if value.(string) == socketId {
			s.userMap.Delete(key)
			return false
		}
		return true
	})
}
