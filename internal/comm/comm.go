package comm

import (
	"encoding/json"
)

// ChatMessage is the envelope for every message crossing NATS between the
// gateway and the game service. Type selects the payload held in Data.
type ChatMessage struct {
	Type      string          `json:"type"` // e.g. "command", "announce", "player-prompt"
	Data      json.RawMessage `json:"data"`
	ChannelId string          `json:"channelid"`
	SocketId  string          `json:"socketid"`
}

// CommandRequest is a chat command issued by a player in a channel.
type CommandRequest struct {
	CommunityId string   `json:"community_id"`
	ChannelId   string   `json:"channel_id"`
	UserId      string   `json:"user_id"`
	Name        string   `json:"name"` // display name of the issuing player
	Command     string   `json:"command"`
	Args        []string `json:"args"`
}

// NightActionRequest is free text a player sent in a direct message during
// the night phase. Text is either a keyword or a 1-based target number.
type NightActionRequest struct {
	UserId string `json:"user_id"`
	Text   string `json:"text"`
}

// CommandReply is the single reply every player-initiated command receives.
type CommandReply struct {
	UserId string `json:"user_id"`
	Ok     bool   `json:"ok"`
	Text   string `json:"text"`
}

// Announcement is a public message for a game channel.
type Announcement struct {
	ChannelId string `json:"channel_id"`
	Text      string `json:"text"`
}

// PlayerPrompt is a private message for one player (role prompt, night
// action menu, warnings).
type PlayerPrompt struct {
	UserId string `json:"user_id"`
	Text   string `json:"text"`
}

// StatusDisplay is the rendered status panel pinned in the game channel.
// The gateway edits the message identified by MessageId in place.
type StatusDisplay struct {
	GameId    string `json:"game_id"`
	ChannelId string `json:"channel_id"`
	MessageId string `json:"message_id"`
	Text      string `json:"text"`
}

type ServiceHeartbeat struct {
	Id string `json:"id"` // service instance id
}
