// Package protocol defines the JSON messages exchanged with clients
// over a room's websocket channel.
package protocol

import (
	"encoding/json"

	"github.com/starfall-gg/starfall-backend/internal/engine"
)

// Client -> server message kinds.
const (
	KindJoinRoom       = "join_room"
	KindLeaveRoom      = "leave_room"
	KindSelectClass    = "select_class"
	KindReady          = "ready"
	KindStartGame      = "start_game"
	KindPerformAction  = "perform_action"
	KindForceEndGame   = "force_end_game"
	KindReturnToRoom   = "return_to_room"
	KindUpdateSettings = "update_settings"
)

// Server -> client message kinds.
const (
	KindRoomState     = "room_state"
	KindTurnStart     = "turn_start"
	KindGameEnded     = "game_ended"
	KindNewActionLogs = "new_action_logs"
	KindError         = "error"
)

// ClientMessage is the envelope for everything a client sends. Fields
// beyond Type and PlayerID are kind-specific.
type ClientMessage struct {
	Type          string           `json:"type"`
	PlayerID      string           `json:"playerId"`
	PlayerName    string           `json:"playerName,omitempty"`
	Avatar        string           `json:"avatar,omitempty"`
	SelectedClass engine.Class     `json:"selectedClass,omitempty"`
	Action        *engine.Action   `json:"action,omitempty"`
	Settings      *SettingsPatch   `json:"settings,omitempty"`
}

// SettingsPatch carries a partial settings update; nil fields are left
// untouched.
type SettingsPatch struct {
	MinPlayers        *int  `json:"minPlayers,omitempty"`
	MaxPlayers        *int  `json:"maxPlayers,omitempty"`
	Public            *bool `json:"isPublic,omitempty"`
	InitialHealth     *int  `json:"initialHealth,omitempty"`
	ClassOptionsCount *int  `json:"classOptionsCount,omitempty"`
}

// ServerMessage is the envelope for everything the server sends.
type ServerMessage struct {
	Type     string              `json:"type"`
	State    *engine.Serialized  `json:"state,omitempty"`
	Logs     []engine.ActionLog  `json:"logs,omitempty"`
	PlayerID string              `json:"playerId,omitempty"`
	Steps    int                 `json:"steps,omitempty"`
	WinnerID string              `json:"winnerId,omitempty"`
	Reason   string              `json:"reason,omitempty"`
	Message  string              `json:"message,omitempty"`
}

func RoomState(state *engine.Serialized) ServerMessage {
	return ServerMessage{Type: KindRoomState, State: state}
}

func TurnStart(playerID string, steps int) ServerMessage {
	return ServerMessage{Type: KindTurnStart, PlayerID: playerID, Steps: steps}
}

func GameEnded(winnerID, reason string) ServerMessage {
	return ServerMessage{Type: KindGameEnded, WinnerID: winnerID, Reason: reason}
}

func NewActionLogs(logs []engine.ActionLog) ServerMessage {
	return ServerMessage{Type: KindNewActionLogs, Logs: logs}
}

func Error(message string) ServerMessage {
	return ServerMessage{Type: KindError, Message: message}
}

// Encode marshals a server message, falling back to a bare error on the
// (unexpected) marshal failure so the connection never goes silent.
func (m ServerMessage) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"type":"error","message":"internal encoding error"}`)
	}
	return data
}
