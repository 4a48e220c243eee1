package api

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"bomb-arena/internal/game"
)

// Outbound event names
const (
	EventJoined       = "joined"
	EventGameEnded    = "gameEnded"
	EventError        = "error"
	EventState        = "state"
	EventLog          = "log"
	EventLeaderboard  = "leaderboard"
	EventBombPlaced   = "bombPlaced"
	EventBombExploded = "bombExploded"
	EventPlayerJoined = "playerJoined"
	EventPlayerLeft   = "playerLeft"
)

// Inbound message types on /ws/player
const (
	MsgJoin    = "join"
	MsgCommand = "command"
	MsgLeave   = "leave"
)

// Envelope wraps every outbound message
type Envelope struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// InboundMessage is sent by player connections.
// A null or missing command releases the current direction.
type InboundMessage struct {
	Type    string  `json:"type"`
	Name    string  `json:"name,omitempty"`
	Command *string `json:"command,omitempty"`
}

// JoinedPayload tells a player which color represents them
type JoinedPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// GameEndedPayload is sent to a player whose avatar was killed
type GameEndedPayload struct {
	KillerID string `json:"killerId"`
	Self     bool   `json:"self"`
}

// ErrorPayload reports a rejected request on a player connection
type ErrorPayload struct {
	Message string `json:"message"`
}

// ExplosionPayload is broadcast to views for screen shake and blast drawing
type ExplosionPayload struct {
	Bomb    game.BombSnapshot `json:"bomb" msgpack:"bomb"`
	Victims []string          `json:"victims" msgpack:"victims"`
}

// PlayerLeftPayload is broadcast when a player is removed from the arena
type PlayerLeftPayload struct {
	ID string `json:"id" msgpack:"id"`
}

// InGameRow is a currently registered player on the leaderboard
type InGameRow struct {
	Name   string `json:"name" msgpack:"name"`
	Points int    `json:"points" msgpack:"points"`
	Color  string `json:"color" msgpack:"color"`
	Died   bool   `json:"died" msgpack:"died"`
	IsAI   bool   `json:"isAi" msgpack:"isAi"`
}

// LeaderboardView holds the HIGH SCORE and IN GAME tables
type LeaderboardView struct {
	HighScores []game.ScoreRow `json:"highScores" msgpack:"highScores"`
	InGame     []InGameRow     `json:"inGame,omitempty" msgpack:"inGame,omitempty"`
}

// BuildLeaderboardView keeps only scoring high score rows and lists the
// players in snap in join order. snap may be nil.
func BuildLeaderboardView(rows []game.ScoreRow, snap *game.ArenaSnapshot) LeaderboardView {
	view := LeaderboardView{HighScores: make([]game.ScoreRow, 0, len(rows))}
	for _, r := range rows {
		if r.Points > 0 {
			view.HighScores = append(view.HighScores, r)
		}
	}

	if snap != nil {
		view.InGame = make([]InGameRow, 0, len(snap.Players))
		for _, p := range snap.Players {
			view.InGame = append(view.InGame, InGameRow{
				Name:   p.Name,
				Points: p.Points,
				Color:  p.Color,
				Died:   p.Died,
				IsAI:   p.IsAI,
			})
		}
	}
	return view
}

// encodeJSON marshals an envelope for text frames
func encodeJSON(event string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// encodeMsgpack marshals an envelope for binary frames
func encodeMsgpack(event string, data interface{}) ([]byte, error) {
	return msgpack.Marshal(Envelope{Event: event, Data: data})
}
