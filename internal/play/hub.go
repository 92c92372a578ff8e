package play

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/polypixel/polypixel/backend-go/internal/engine"
	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/level"
)

// LevelLoader fetches the level a new room plays.
type LevelLoader func(ctx context.Context, levelID string) (*level.Level, error)

// ScoreSaver records a finished run.
type ScoreSaver func(ctx context.Context, score Score) error

// Score is the outcome of a finished run.
type Score struct {
	LevelID   string
	PlayerID  string
	SessionID string
	Lines     int
	Parts     int
	Gap       float64
	Stars     int
}

// Room is one play session: a level, its engine and the clients watching it.
// The room lock serializes every stroke event.
type Room struct {
	mu        sync.Mutex
	sessionID string
	levelID   string
	engine    *engine.Engine
	clients   map[string]*Client // clientID -> client
	strokes   *StrokeBoard
	seq       int64
}

func NewRoom(sessionID, levelID string, eng *engine.Engine) *Room {
	return &Room{
		sessionID: sessionID,
		levelID:   levelID,
		engine:    eng,
		clients:   make(map[string]*Client),
		strokes:   NewStrokeBoard(),
	}
}

// broadcastLocked sends msg to every client but excludeClientID. The caller
// holds r.mu.
func (r *Room) broadcastLocked(msg *Message, excludeClientID string) {
	r.seq++
	msg.Seq = r.seq
	msg.SessionID = r.sessionID
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (r *Room) stateMessageLocked() *Message {
	return newMessage(TypeLevelState, StatePayload{
		Snapshot:    r.engine.Snapshot(),
		StrokeOwner: r.strokes.Owner(),
	})
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sessionID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	loadLevel  LevelLoader
	saveScore  ScoreSaver
	engineOpts []engine.Option
}

// NewHub creates a hub. saveScore may be nil when scores are not kept.
func NewHub(loadLevel LevelLoader, saveScore ScoreSaver, opts ...engine.Option) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		loadLevel:  loadLevel,
		saveScore:  saveScore,
		engineOpts: opts,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// RoomCount returns the number of live sessions.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) room(sessionID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sessionID]
	return room, ok
}

func (h *Hub) openRoom(client *Client) (*Room, error) {
	if room, ok := h.room(client.SessionID); ok {
		return room, nil
	}

	// Use a background context since this runs in the hub goroutine
	l, err := h.loadLevel(context.Background(), client.LevelID)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(h.engineOpts...)
	if err := eng.LoadLevel(l); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[client.SessionID]; ok {
		return room, nil
	}
	room := NewRoom(client.SessionID, client.LevelID, eng)
	h.rooms[client.SessionID] = room
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	room, err := h.openRoom(client)
	if err != nil {
		slog.Warn("open room", "error", err, "level", client.LevelID, "session", client.SessionID)
		client.Send(errorMessage("level unavailable"))
		close(client.send)
		return
	}

	h.mu.Lock()
	room.mu.Lock()
	if room.levelID != client.LevelID {
		room.mu.Unlock()
		h.mu.Unlock()
		client.Send(errorMessage("session plays another level"))
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		PlayerID:  client.PlayerID,
		SessionID: client.SessionID,
		Snapshot:  room.engine.Snapshot(),
	}))
	room.broadcastLocked(room.stateMessageLocked(), client.ClientID)
	room.mu.Unlock()

	slog.Info("client joined", "player", client.PlayerID, "session", client.SessionID, "level", client.LevelID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}

	room.mu.Lock()
	if room.strokes.Release(client.ClientID) {
		room.engine.Cancel()
	}
	if room.clients[client.ClientID] != client {
		room.mu.Unlock()
		h.mu.Unlock()
		return
	}
	delete(room.clients, client.ClientID)
	close(client.send)

	if len(room.clients) == 0 {
		delete(h.rooms, client.SessionID)
	} else {
		room.broadcastLocked(room.stateMessageLocked(), "")
	}
	room.mu.Unlock()
	h.mu.Unlock()

	slog.Info("client left", "player", client.PlayerID, "session", client.SessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.room(sender.SessionID)
	if !ok {
		return
	}

	var score *Score
	room.mu.Lock()
	// Clients turned away at join still run their read pump.
	if room.clients[sender.ClientID] != sender {
		room.mu.Unlock()
		return
	}
	switch msg.Type {
	case TypeStrokePress:
		h.handlePress(room, sender, msg)
	case TypeStrokeMove:
		h.handleMove(room, sender, msg)
	case TypeStrokeRelease:
		score = h.handleRelease(room, sender, msg)
	case TypeStrokeCancel:
		h.handleCancel(room, sender)
	case TypeLevelRestart:
		h.handleRestart(room, sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "player", sender.PlayerID)
	}
	room.mu.Unlock()

	if score != nil && h.saveScore != nil {
		if err := h.saveScore(context.Background(), *score); err != nil {
			slog.Error("save score", "error", err, "level", score.LevelID, "player", score.PlayerID)
		}
	}
}

func decodePoint(msg *Message) (geometry.Point, error) {
	var p PointPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return geometry.Point{}, err
	}
	return geometry.Pt(p.X, p.Y), nil
}

func (h *Hub) handlePress(room *Room, sender *Client, msg *Message) {
	p, err := decodePoint(msg)
	if err != nil {
		slog.Warn("invalid stroke payload", "error", err)
		sender.Send(errorMessage("invalid point"))
		return
	}
	if !room.strokes.Claim(sender.ClientID, sender.PlayerID) {
		sender.Send(errorMessage("another player is drawing"))
		return
	}
	if err := room.engine.Press(p); err != nil {
		room.strokes.Release(sender.ClientID)
		sender.Send(errorMessage(err.Error()))
		return
	}
	room.broadcastLocked(room.stateMessageLocked(), "")
}

func (h *Hub) handleMove(room *Room, sender *Client, msg *Message) {
	if !room.strokes.Owns(sender.ClientID) {
		return
	}
	p, err := decodePoint(msg)
	if err != nil {
		slog.Warn("invalid stroke payload", "error", err)
		return
	}
	attempt, err := room.engine.Drag(p)
	if err != nil {
		sender.Send(errorMessage(err.Error()))
		return
	}
	room.broadcastLocked(newMessage(TypeCutPreview, PreviewPayload{
		PlayerID: sender.PlayerID,
		Attempt:  attempt,
	}), "")
}

func (h *Hub) handleRelease(room *Room, sender *Client, msg *Message) *Score {
	if !room.strokes.Owns(sender.ClientID) {
		sender.Send(errorMessage(engine.ErrNoStroke.Error()))
		return nil
	}
	p, err := decodePoint(msg)
	if err != nil {
		slog.Warn("invalid stroke payload", "error", err)
		sender.Send(errorMessage("invalid point"))
		return nil
	}
	room.strokes.Release(sender.ClientID)

	res, err := room.engine.Release(p)
	if err != nil {
		sender.Send(errorMessage(err.Error()))
		return nil
	}
	room.broadcastLocked(newMessage(TypeCutResult, ResultPayload{
		PlayerID: sender.PlayerID,
		Result:   res,
		Snapshot: room.engine.Snapshot(),
	}), "")

	if !res.Info.Ended {
		return nil
	}
	room.broadcastLocked(newMessage(TypeLevelEnd, EndPayload{
		Info:         res.Info,
		DisplayStars: res.Info.DisplayStars(),
		Perfect:      res.Info.Perfect(),
	}), "")

	if sender.Anonymous {
		return nil
	}
	return &Score{
		LevelID:   room.levelID,
		PlayerID:  sender.PlayerID,
		SessionID: room.sessionID,
		Lines:     res.Info.LinesCount,
		Parts:     res.Info.PartsCount,
		Gap:       res.Info.Gap,
		Stars:     res.Info.Stars,
	}
}

func (h *Hub) handleCancel(room *Room, sender *Client) {
	if !room.strokes.Release(sender.ClientID) {
		return
	}
	room.engine.Cancel()
	room.broadcastLocked(room.stateMessageLocked(), "")
}

func (h *Hub) handleRestart(room *Room, sender *Client) {
	if err := room.engine.Restart(); err != nil {
		if errors.Is(err, engine.ErrNoLevel) {
			sender.Send(errorMessage("no level loaded"))
			return
		}
		sender.Send(errorMessage(err.Error()))
		return
	}
	room.strokes.Reset()
	slog.Info("level restarted", "session", room.sessionID, "player", sender.PlayerID)
	room.broadcastLocked(room.stateMessageLocked(), "")
}
