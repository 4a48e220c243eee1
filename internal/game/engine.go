package game

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"bomb-arena/internal/config"
)

// maxStep bounds a single wall-clock step so a stalled loop cannot teleport players.
const maxStep = 250 * time.Millisecond

// Palette is the round-robin list of player colors
var Palette = []string{
	"#ff5733", // red-orange
	"#ffbd33", // yellow-orange
	"#ffff33", // yellow
	"#33ff57", // lime
	"#33ffbd", // aqua
	"#33ffff", // cyan
	"#3357ff", // blue
	"#bd33ff", // purple
	"#ff33ff", // magenta
	"#ff33bd", // pink
}

// LogEntry is a human-readable arena event, colored after the player it is about
type LogEntry struct {
	Text  string    `json:"text" msgpack:"text"`
	Color string    `json:"color" msgpack:"color"`
	Time  time.Time `json:"time" msgpack:"time"`
}

// Callbacks are invoked synchronously from inside the tick while the engine
// lock is held. They must not block or call back into the engine.
type Callbacks struct {
	OnJoin         func(p PlayerSnapshot)
	OnLeave        func(playerID string)
	OnKill         func(victimID, killerID string)
	OnBombPlaced   func(b BombSnapshot)
	OnBombExploded func(b BombSnapshot, victims []string)
	OnLog          func(entry LogEntry)
	OnLeaderboard  func(rows []ScoreRow)
	OnTick         func(took time.Duration, snap *ArenaSnapshot)
}

// EngineConfig configures a new Engine
type EngineConfig struct {
	Arena     config.ArenaConfig
	Field     *Field     // Overrides Arena.Layout when set
	Rand      *rand.Rand // Overrides Arena.Seed when set
	Callbacks Callbacks
}

// Engine is the arena simulation. It owns every player, bomb and AI controller.
// All mutation happens under mu, either inside Step or in the inbound calls.
type Engine struct {
	mu sync.Mutex

	cfg      config.ArenaConfig
	field    *Field
	bombSpec BombSpec

	players map[string]*Player
	order   []*Player // join order, used for iteration and tie-breaks
	bombs   []*Bomb
	ais     []*AIController

	leaderboard *Leaderboard
	callbacks   Callbacks
	rng         *rand.Rand

	nextBombID   uint64
	nextAINumber int
	nextColor    int
	nextSerial   uint64

	tickRate  int
	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
	doneChan  chan struct{}
	tickCount uint64

	totalKills int

	snapshots snapshotStore
	eventLog  *EventLog
}

// NewEngine creates an engine from cfg. The layout is validated here.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	arena := cfg.Arena

	field := cfg.Field
	if field == nil {
		layout := arena.Layout
		if len(layout) == 0 {
			layout = DefaultLayout
		}
		f, err := NewField(layout)
		if err != nil {
			return nil, fmt.Errorf("arena layout: %w", err)
		}
		field = f
	}

	rng := cfg.Rand
	if rng == nil {
		seed := arena.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	if arena.TickRate <= 0 {
		arena.TickRate = 60
	}
	if arena.BombFuse <= 0 {
		arena.BombFuse = DefaultBombFuse
	}
	if arena.ExplosionDecay <= 0 {
		arena.ExplosionDecay = DefaultExplosionDecay
	}
	if arena.MaxBombs <= 0 {
		arena.MaxBombs = DefaultMaxBombs
	}
	if arena.SpawnAttempts <= 0 {
		arena.SpawnAttempts = 1
	}

	e := &Engine{
		cfg:   arena,
		field: field,
		bombSpec: BombSpec{
			Radius: arena.BlastRadius,
			Fuse:   arena.BombFuse,
			Decay:  arena.ExplosionDecay,
		},
		players:      make(map[string]*Player),
		leaderboard:  NewLeaderboard(arena.LeaderboardSize),
		callbacks:    cfg.Callbacks,
		rng:          rng,
		nextAINumber: 1,
		tickRate:     arena.TickRate,
		eventLog:     NewEventLog(),
	}

	e.produceSnapshot()
	return e, nil
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	ticker, stop, done := e.ticker, e.stopChan, e.doneChan
	e.mu.Unlock()

	go func() {
		defer close(done)
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				dt := now.Sub(last)
				last = now
				if dt > maxStep {
					dt = maxStep
				}
				e.Step(dt)
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Arena engine started at %d TPS (%dx%d, %d AI)", e.tickRate, e.field.Width(), e.field.Height(), e.cfg.TargetAI)
}

// Stop stops the game loop and waits for the running tick to finish
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	done := e.doneChan
	e.mu.Unlock()

	<-done
	log.Println("🛑 Arena engine stopped")
}

// Step advances the simulation by dt and publishes a new snapshot.
func (e *Engine) Step(dt time.Duration) {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	e.doStep(dt)
	snap := e.produceSnapshot()
	e.mu.Unlock()

	if e.callbacks.OnTick != nil {
		e.callbacks.OnTick(time.Since(start), snap)
	}
}

// doStep runs one tick in the fixed order: AI decisions, players, removal of
// decayed players, bombs, removal of expired bombs, AI replenishment.
func (e *Engine) doStep(dt time.Duration) {
	for _, ai := range e.ais {
		ai.Step(e)
	}

	for _, p := range e.order {
		p.Step(dt, e)
	}

	// In-place filter keeps join order without allocating
	n := 0
	for _, p := range e.order {
		if p.IsDisposed() {
			e.forget(p, "decayed")
			continue
		}
		e.order[n] = p
		n++
	}
	clear(e.order[n:])
	e.order = e.order[:n]

	for _, b := range e.bombs {
		if b.Tick(dt) {
			e.onBombExploded(b)
		}
	}

	n = 0
	for _, b := range e.bombs {
		if b.IsExpired() {
			continue
		}
		e.bombs[n] = b
		n++
	}
	clear(e.bombs[n:])
	e.bombs = e.bombs[:n]

	for len(e.ais) < e.cfg.TargetAI {
		if e.spawnAI() == nil {
			break
		}
	}
}

// forget drops a player from the map and its AI binding. The caller fixes e.order.
func (e *Engine) forget(p *Player, reason string) {
	delete(e.players, p.ID)

	for i, ai := range e.ais {
		if ai.PlayerID == p.ID {
			e.ais = append(e.ais[:i], e.ais[i+1:]...)
			break
		}
	}

	e.eventLog.EmitSimple(EventTypePlayerLeave, e.tickCount, p.ID,
		PlayerLeavePayload{PlayerID: p.ID, Reason: reason, Points: p.Points})

	if e.callbacks.OnLeave != nil {
		e.callbacks.OnLeave(p.ID)
	}
}

// Join adds a human player, or returns the existing player registered under id.
// It returns nil when the arena is full.
func (e *Engine) Join(id, name string) *Player {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.players[id]; ok {
		return existing
	}

	if e.cfg.MaxPlayers > 0 && len(e.players) >= e.cfg.MaxPlayers {
		log.Printf("⚠️ Player limit reached (%d), rejecting: %s", e.cfg.MaxPlayers, name)
		return nil
	}

	p := e.placePlayer(id, name, false)
	e.produceSnapshot()
	return p
}

// JoinPlayer is Join returning a copy that is safe to read after the lock is released.
func (e *Engine) JoinPlayer(id, name string) (PlayerSnapshot, bool) {
	p := e.Join(id, name)
	if p == nil {
		return PlayerSnapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotPlayer(p), true
}

// spawnAI adds one AI player and binds a controller to it
func (e *Engine) spawnAI() *Player {
	if e.cfg.MaxPlayers > 0 && len(e.players) >= e.cfg.MaxPlayers {
		return nil
	}

	name := fmt.Sprintf("AI %d", e.nextAINumber)
	e.nextAINumber++

	p := e.placePlayer("ai-"+uuid.NewString(), name, true)
	e.ais = append(e.ais, NewAIController(p.ID))

	e.eventLog.EmitSimple(EventTypeAISpawn, e.tickCount, "",
		PlayerJoinPayload{PlayerID: p.ID, PlayerName: name, Color: p.Color, IsAI: true})
	return p
}

// placePlayer picks a color and a spawn cell, then registers the player.
// A cell is acceptable when it is open and outside every blast range; after
// SpawnAttempts misses the last tried cell is used anyway.
func (e *Engine) placePlayer(id, name string, isAI bool) *Player {
	color := Palette[e.nextColor%len(Palette)]
	e.nextColor++

	var at Cell
	safe := false
	for i := 0; i < e.cfg.SpawnAttempts; i++ {
		at = Cell{X: e.rng.Intn(e.field.Width()), Y: e.rng.Intn(e.field.Height())}
		if e.field.IsOpen(at) && !e.inAnyBlast(at) {
			safe = true
			break
		}
	}
	if !safe {
		log.Printf("⚠️ No safe spawn for %s after %d attempts, using (%d,%d)", name, e.cfg.SpawnAttempts, at.X, at.Y)
	}

	p := NewPlayer(id, name, color, at)
	p.IsAI = isAI
	p.SetSpeed(e.cfg.PlayerSpeed)
	if e.cfg.DeathDecay > 0 {
		p.SetDeathDecay(e.cfg.DeathDecay)
	}
	e.nextSerial++
	p.serial = e.nextSerial

	e.players[id] = p
	e.order = append(e.order, p)

	e.addLog(fmt.Sprintf("%s joined the game.", name), color)
	e.updateLeaderboard()

	e.eventLog.EmitSimple(EventTypePlayerJoin, e.tickCount, id,
		PlayerJoinPayload{PlayerID: id, PlayerName: name, SpawnX: at.X, SpawnY: at.Y, Color: color, IsAI: isAI, Safe: safe})

	if e.callbacks.OnJoin != nil {
		e.callbacks.OnJoin(snapshotPlayer(p))
	}

	if !isAI {
		log.Printf("👤 Player joined: %s (%s)", name, id)
	}
	return p
}

// Command routes a relay token to the player's queue.
//
//	"b"           bomb, jumps the queue
//	"u" "d" "l" "r" held direction, replaces the directional stream
//	"null" or ""  release, drops queued directions
//
// It returns false for unknown players and tokens.
func (e *Engine) Command(id, token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[id]
	if !ok || p.IsDied() {
		return false
	}

	if token == "" || token == "null" {
		p.ClearCommands()
		return true
	}

	cmd, ok := ParseCommand(token)
	if !ok {
		return false
	}
	if cmd == CmdBomb {
		p.PrependCommand(cmd)
	} else {
		p.SetMoveCommand(cmd)
	}
	return true
}

// Enqueue appends a single command, as a step-by-step client would.
func (e *Engine) Enqueue(id string, cmd Command) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[id]
	if !ok || p.IsDied() {
		return false
	}
	p.AddCommand(cmd)
	return true
}

// Disconnect kills and removes a player immediately, skipping the death decay.
func (e *Engine) Disconnect(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[id]
	if !ok {
		return false
	}

	p.Kill()
	for i, q := range e.order {
		if q == p {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.forget(p, "disconnect")
	e.produceSnapshot()

	log.Printf("👋 Player left: %s", p.Name)
	return true
}

// canEnter implements stepHost
func (e *Engine) canEnter(c Cell) bool {
	return e.field.IsOpen(c)
}

// requestBombPlacement implements stepHost. Placement is denied when the
// player is at the bomb limit or a bomb already occupies the cell.
func (e *Engine) requestBombPlacement(p *Player) bool {
	if p.IsDied() || p.BombsPlaced >= e.cfg.MaxBombs {
		return false
	}

	at := p.Cell()
	for _, b := range e.bombs {
		if b.X == at.X && b.Y == at.Y {
			return false
		}
	}

	e.nextBombID++
	b := NewBomb(e.nextBombID, p.ID, p.Name, at, e.field, e.bombSpec)
	b.ownerSerial = p.serial
	e.bombs = append(e.bombs, b)
	p.BombsPlaced++

	e.eventLog.EmitSimple(EventTypeBombPlaced, e.tickCount, p.ID,
		BombPayload{BombID: b.ID, OwnerID: p.ID, X: b.X, Y: b.Y, Range: b.Range})

	if e.callbacks.OnBombPlaced != nil {
		e.callbacks.OnBombPlaced(snapshotBomb(b))
	}
	return true
}

// owner resolves a bomb's owner, ignoring a different player that later
// joined under the same id.
func (e *Engine) owner(b *Bomb) *Player {
	p, ok := e.players[b.OwnerID]
	if !ok || p.serial != b.ownerSerial {
		return nil
	}
	return p
}

// onBombExploded kills every living player in range and settles the owner's
// score and bomb counter.
func (e *Engine) onBombExploded(b *Bomb) {
	owner := e.owner(b)

	var victims []string
	points := 0
	for _, p := range e.order {
		if !b.IsPlayerInRange(p) {
			continue
		}

		p.Kill()
		victims = append(victims, p.ID)
		e.totalKills++

		if p.ID != b.OwnerID {
			points++
			e.addLog(fmt.Sprintf("%s was killed by %s.", p.Name, b.OwnerName), p.Color)
			e.eventLog.EmitSimple(EventTypeKill, e.tickCount, b.OwnerID,
				KillPayload{KillerID: b.OwnerID, VictimID: p.ID, BombID: b.ID})
			log.Printf("💀 %s was killed by %s", p.Name, b.OwnerName)
		} else {
			e.addLog(fmt.Sprintf("%s killed himself.", p.Name), p.Color)
			e.eventLog.EmitSimple(EventTypeSelfKill, e.tickCount, p.ID,
				KillPayload{KillerID: p.ID, VictimID: p.ID, BombID: b.ID})
		}

		if e.callbacks.OnKill != nil {
			e.callbacks.OnKill(p.ID, b.OwnerID)
		}
	}

	if owner != nil {
		owner.Points += points
		if owner.BombsPlaced > 0 {
			owner.BombsPlaced--
		}
	}
	e.updateLeaderboard()

	e.eventLog.EmitSimple(EventTypeBombExploded, e.tickCount, "",
		BombPayload{BombID: b.ID, OwnerID: b.OwnerID, X: b.X, Y: b.Y, Range: b.Range, Victims: victims})

	if e.callbacks.OnBombExploded != nil {
		e.callbacks.OnBombExploded(snapshotBomb(b), victims)
	}
}

// inAnyBlast reports whether c lies in the blast range of any bomb on the field
func (e *Engine) inAnyBlast(c Cell) bool {
	for _, b := range e.bombs {
		if b.Covers(c) {
			return true
		}
	}
	return false
}

func (e *Engine) addLog(text, color string) {
	if e.callbacks.OnLog != nil {
		e.callbacks.OnLog(LogEntry{Text: text, Color: color, Time: time.Now()})
	}
}

// updateLeaderboard merges every current player's points into the score table
func (e *Engine) updateLeaderboard() {
	rows := make([]ScoreRow, 0, len(e.order))
	for _, p := range e.order {
		rows = append(rows, ScoreRow{Name: p.Name, Points: p.Points, Color: p.Color})
	}
	e.leaderboard.Merge(rows)

	if e.callbacks.OnLeaderboard != nil {
		e.callbacks.OnLeaderboard(e.leaderboard.Top())
	}
}

// produceSnapshot builds and publishes a fresh snapshot. Caller holds mu.
func (e *Engine) produceSnapshot() *ArenaSnapshot {
	snap := &ArenaSnapshot{
		TickNumber:  e.tickCount,
		Width:       e.field.Width(),
		Height:      e.field.Height(),
		Players:     make([]PlayerSnapshot, 0, len(e.order)),
		Bombs:       make([]BombSnapshot, 0, len(e.bombs)),
		Leaderboard: e.leaderboard.Top(),
		AICount:     len(e.ais),
		TotalKills:  e.totalKills,
	}

	for _, p := range e.order {
		snap.Players = append(snap.Players, snapshotPlayer(p))
		if !p.IsDied() {
			snap.AliveCount++
		}
	}
	for _, b := range e.bombs {
		snap.Bombs = append(snap.Bombs, snapshotBomb(b))
	}
	snap.PlayerCount = len(snap.Players)

	e.snapshots.publish(snap)
	return snap
}

// Snapshot returns the latest published snapshot. It never returns nil.
func (e *Engine) Snapshot() *ArenaSnapshot {
	return e.snapshots.load()
}

// Leaderboard returns the current high score rows
func (e *Engine) Leaderboard() []ScoreRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderboard.Top()
}

// Player returns a copy of the player registered under id
func (e *Engine) Player(id string) (PlayerSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[id]
	if !ok {
		return PlayerSnapshot{}, false
	}
	return snapshotPlayer(p), true
}

// Field returns the immutable arena field
func (e *Engine) Field() *Field {
	return e.field
}

// Config returns the effective arena configuration
func (e *Engine) Config() config.ArenaConfig {
	return e.cfg
}

// TickRate returns the loop frequency
func (e *Engine) TickRate() int {
	return e.tickRate
}

// StartEventLog begins writing the audit log to filePath
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the audit log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLogCounts returns written and dropped audit events
func (e *Engine) EventLogCounts() (written, dropped uint64) {
	return e.eventLog.Counts()
}
