package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bomb-arena/internal/command"
	"bomb-arena/internal/config"
	"bomb-arena/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	maxNameLen  = 16
	defaultName = "Player"
)

// Role distinguishes controller connections from spectators
type Role string

const (
	RolePlayer Role = "player"
	RoleView   Role = "view"
)

// CommandSink accepts inbound player messages for ordered processing.
// Joins, commands and leaves of one player are applied in arrival order.
type CommandSink interface {
	Enqueue(in command.Inbound) bool
	Stats() command.QueueStats
}

// SnapshotSource provides the latest published arena snapshot
type SnapshotSource interface {
	Snapshot() *game.ArenaSnapshot
}

type frame struct {
	binary bool
	data   []byte
}

// Client is one WebSocket connection. A player client's connection id is
// also its player id.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan frame
	id     string
	role   Role
	ip     string
	binary bool
}

// Hub tracks player and view connections and fans arena events out to them.
// Every send is non-blocking so engine callbacks never wait on a socket.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	players map[string]*Client
	views   int

	register   chan *Client
	unregister chan *Client
	stopChan   chan struct{}
	stopOnce   sync.Once

	cfg      config.RelayConfig
	conns    *ConnLimiter
	origins  *OriginChecker
	upgrader websocket.Upgrader

	sink CommandSink
}

// NewHub creates a hub. Attach must be called before serving player connections.
func NewHub(cfg config.RelayConfig, origins *OriginChecker) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = config.DefaultRelay().SendBuffer
	}
	if origins == nil {
		origins = NewOriginChecker("")
	}

	h := &Hub{
		clients:    make(map[*Client]struct{}),
		players:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		cfg:        cfg,
		conns:      NewConnLimiter(cfg.MaxConnsPerIP),
		origins:    origins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Attach wires the command queue
func (h *Hub) Attach(sink CommandSink) {
	h.sink = sink
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Non-browser clients (TUI, bots) send no Origin
	if origin == "" {
		return true
	}
	if h.origins.IsAllowed(origin) {
		return true
	}

	log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
	RecordConnectionRejected("origin")
	return false
}

// Run processes registrations until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			if c.role == RolePlayer {
				h.players[c.id] = c
			} else {
				h.views++
			}
			players, views := len(h.players), h.views
			h.mu.Unlock()

			log.Printf("📱 %s connected from %s (%d players, %d views)", c.role, c.ip, players, views)
			UpdateWSConnections(string(RolePlayer), players)
			UpdateWSConnections(string(RoleView), views)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
			players, views := len(h.players), h.views
			h.mu.Unlock()

			log.Printf("📱 %s disconnected (%d players, %d views)", c.role, players, views)
			UpdateWSConnections(string(RolePlayer), players)
			UpdateWSConnections(string(RoleView), views)
		}
	}
}

// drop removes c; the caller holds h.mu
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	if c.role == RolePlayer {
		delete(h.players, c.id)
	} else {
		h.views--
	}
	h.conns.Release(c.ip)
	close(c.send)
}

// Stop disconnects every client and ends Run and the broadcast loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Counts returns the number of player and view connections
func (h *Hub) Counts() (players, views int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players), h.views
}

// BroadcastView sends an event to every view connection in its preferred encoding
func (h *Hub) BroadcastView(event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.views == 0 {
		return
	}

	var text, bin []byte
	for c := range h.clients {
		if c.role != RoleView {
			continue
		}

		var f frame
		if c.binary {
			if bin == nil {
				b, err := encodeMsgpack(event, data)
				if err != nil {
					log.Printf("⚠️ msgpack encode %s: %v", event, err)
					return
				}
				bin = b
			}
			f = frame{binary: true, data: bin}
		} else {
			if text == nil {
				b, err := encodeJSON(event, data)
				if err != nil {
					log.Printf("⚠️ json encode %s: %v", event, err)
					return
				}
				text = b
			}
			f = frame{data: text}
		}
		c.trySend(f)
	}
}

// SendToPlayer sends an event to the connection controlling playerID
func (h *Hub) SendToPlayer(playerID, event string, data interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.players[playerID]
	if !ok {
		return false
	}
	return c.sendJSON(event, data)
}

// Callbacks returns engine callbacks that feed this hub and the metrics
func (h *Hub) Callbacks() game.Callbacks {
	return game.Callbacks{
		OnJoin: func(p game.PlayerSnapshot) {
			h.BroadcastView(EventPlayerJoined, p)
		},
		OnLeave: func(playerID string) {
			h.BroadcastView(EventPlayerLeft, PlayerLeftPayload{ID: playerID})
		},
		OnKill: func(victimID, killerID string) {
			self := victimID == killerID
			RecordKill(self)
			h.SendToPlayer(victimID, EventGameEnded, GameEndedPayload{KillerID: killerID, Self: self})
		},
		OnBombPlaced: func(b game.BombSnapshot) {
			RecordBombPlaced()
			h.BroadcastView(EventBombPlaced, b)
		},
		OnBombExploded: func(b game.BombSnapshot, victims []string) {
			h.BroadcastView(EventBombExploded, ExplosionPayload{Bomb: b, Victims: victims})
		},
		OnLog: func(entry game.LogEntry) {
			h.BroadcastView(EventLog, entry)
		},
		OnLeaderboard: func(rows []game.ScoreRow) {
			h.BroadcastView(EventLeaderboard, BuildLeaderboardView(rows, nil))
		},
		OnTick: func(took time.Duration, snap *game.ArenaSnapshot) {
			RecordTick(took, snap.PlayerCount, snap.AICount, len(snap.Bombs))
		},
	}
}

// StartBroadcastLoop pushes the latest snapshot to views at fps until Stop
func (h *Hub) StartBroadcastLoop(source SnapshotSource, fps int) {
	if fps <= 0 {
		fps = config.DefaultRelay().ViewFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))

	go func() {
		defer ticker.Stop()

		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				if _, views := h.Counts(); views == 0 {
					continue
				}
				snap := source.Snapshot()
				if snap == nil || snap.Sequence == lastSeq {
					continue
				}
				lastSeq = snap.Sequence
				h.BroadcastView(EventState, snap)
			}
		}
	}()
}

// HandlePlayer upgrades a controller connection
func (h *Hub) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, RolePlayer, false)
}

// HandleView upgrades a spectator connection. ?format=msgpack selects binary frames.
func (h *Hub) HandleView(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, RoleView, r.URL.Query().Get("format") == "msgpack")
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, role Role, binary bool) {
	ip := GetClientIP(r)

	h.mu.RLock()
	total := len(h.clients)
	h.mu.RUnlock()

	if total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.conns.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.conns.Release(ip)
		return
	}

	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan frame, h.cfg.SendBuffer),
		id:     uuid.NewString(),
		role:   role,
		ip:     ip,
		binary: binary,
	}

	select {
	case h.register <- c:
	case <-h.stopChan:
		h.conns.Release(ip)
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// trySend queues f without blocking; the caller holds hub.mu
func (c *Client) trySend(f frame) bool {
	select {
	case c.send <- f:
		IncrementWSMessages()
		return true
	default:
		// Client too slow, drop message
		return false
	}
}

// sendJSON encodes and queues a text frame; the caller holds hub.mu
func (c *Client) sendJSON(event string, data interface{}) bool {
	b, err := encodeJSON(event, data)
	if err != nil {
		log.Printf("⚠️ json encode %s: %v", event, err)
		return false
	}
	return c.trySend(frame{data: b})
}

// reply sends to this client from its own read goroutine
func (c *Client) reply(event string, data interface{}) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if _, ok := c.hub.clients[c]; ok {
		c.sendJSON(event, data)
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.role == RolePlayer && c.hub.sink != nil {
			c.hub.sink.Enqueue(command.Inbound{Kind: command.KindLeave, PlayerID: c.id})
		}
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopChan:
		}
		c.conn.Close()
	}()

	if c.hub.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			return
		}

		// Views are receive-only
		if c.role != RolePlayer {
			continue
		}

		var msg InboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(EventError, ErrorPayload{Message: "invalid message"})
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg InboundMessage) {
	switch msg.Type {
	case MsgJoin:
		c.handleJoin(msg.Name)
	case MsgCommand:
		token := ""
		if msg.Command != nil {
			token = *msg.Command
		}
		c.hub.sink.Enqueue(command.Inbound{Kind: command.KindCommand, PlayerID: c.id, Token: token})
	case MsgLeave:
		c.hub.sink.Enqueue(command.Inbound{Kind: command.KindLeave, PlayerID: c.id})
	default:
		c.reply(EventError, ErrorPayload{Message: "unknown message type"})
	}
}

func (c *Client) handleJoin(name string) {
	in := command.Inbound{Kind: command.KindJoin, PlayerID: c.id, Name: SanitizeName(name), Reply: c.joinReply}
	if !c.hub.sink.Enqueue(in) {
		c.reply(EventError, ErrorPayload{Message: "server busy, try again"})
	}
}

// joinReply runs on the command worker
func (c *Client) joinReply(r command.JoinReply) {
	switch r.Result {
	case command.ArenaFull:
		c.reply(EventError, ErrorPayload{Message: "arena is full"})
	case command.Respawning:
		c.reply(EventError, ErrorPayload{Message: "still respawning, try again"})
	default:
		p := r.Player
		c.reply(EventJoined, JoinedPayload{ID: p.ID, Name: p.Name, Color: p.Color, X: p.X, Y: p.Y})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SanitizeName trims a display name to maxNameLen runes, defaulting when empty
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}
