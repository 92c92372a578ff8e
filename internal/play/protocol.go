package play

import (
	"encoding/json"

	"github.com/polypixel/polypixel/backend-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// PointPayload carries a stroke sample in scene coordinates.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type WelcomePayload struct {
	ClientID  string          `json:"clientId"`
	PlayerID  string          `json:"playerId"`
	SessionID string          `json:"sessionId"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}

type StatePayload struct {
	Snapshot engine.Snapshot `json:"snapshot"`
	// StrokeOwner is the player drawing, if any.
	StrokeOwner string `json:"strokeOwner,omitempty"`
}

type PreviewPayload struct {
	PlayerID string         `json:"playerId"`
	Attempt  engine.Attempt `json:"attempt"`
}

type ResultPayload struct {
	PlayerID string          `json:"playerId"`
	Result   engine.Result   `json:"result"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

type EndPayload struct {
	Info         engine.GameInfo `json:"info"`
	DisplayStars int             `json:"displayStars"`
	Perfect      bool            `json:"perfect"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	// Client -> server
	TypeStrokePress   = "stroke.press"
	TypeStrokeMove    = "stroke.move"
	TypeStrokeRelease = "stroke.release"
	TypeStrokeCancel  = "stroke.cancel"
	TypeLevelRestart  = "level.restart"

	// Server -> client
	TypeWelcome    = "welcome"
	TypeLevelState = "level.state"
	TypeCutPreview = "cut.preview"
	TypeCutResult  = "cut.result"
	TypeLevelEnd   = "level.end"
	TypeError      = "error"
)

func newMessage(typ string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: typ, Payload: data}
}

func errorMessage(text string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: text})
}
