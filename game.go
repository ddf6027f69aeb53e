package main

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

// maxStep caps a measured tick so a stalled loop cannot tunnel projectiles
const maxStep = 0.03

var (
	ErrSessionFull    = errors.New("session full")
	ErrPlayerNotFound = errors.New("player not found")
)

// Broadcaster is a connection the game can push messages to
type Broadcaster interface {
	Addr() string
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game holds the state for one match
type Game struct {
	mu          sync.Mutex
	id          string
	cfg         *Config
	arena       *Arena
	grid        *SpatialGrid
	bounds      Rect
	players     map[int]*Player
	pickups     []*Pickup
	projectiles *ProjectileManager
	conns       map[string]Broadcaster // addr -> player or spectator connection
	spectators  map[string]bool
	tick        uint64
	nextSpawn   int
	emptySince  time.Time
	stopOnce    sync.Once
	stop        chan struct{}
}

// NewGame creates a match on arena
func NewGame(id string, cfg *Config, arena *Arena) *Game {
	g := &Game{
		id:         id,
		cfg:        cfg,
		arena:      arena,
		grid:       arena.Index(),
		bounds:     arena.Bounds(),
		players:    make(map[int]*Player),
		conns:      make(map[string]Broadcaster),
		spectators: make(map[string]bool),
		emptySince: time.Now(),
		stop:       make(chan struct{}),
	}
	g.projectiles = NewProjectileManager(g.players, g.grid, g.damagePlayer, g, g.recipients)
	for i, spot := range arena.Pickups {
		g.pickups = append(g.pickups, NewPickup(i+1, spot.Weapon, spot.Pos))
	}
	return g
}

// Run drives the match until Stop is called
func (g *Game) Run() {
	ticker := time.NewTicker(g.cfg.TickDuration())
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := min(now.Sub(last).Seconds(), maxStep)
			last = now
			g.Step(dt)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. Safe to call more than once, and before
// Run starts.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Step advances the match by dt seconds
func (g *Game) Step(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.update(dt)
}

// AddPlayer creates a player bound to conn
func (g *Game) AddPlayer(name string, conn Broadcaster) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= g.cfg.MaxPlayers {
		return nil, ErrSessionFull
	}
	p := NewPlayer(g.freeID(), g.uniqueName(name), g.spawnPoint())
	p.Addr = conn.Addr()
	p.Weapons = NewWeaponsManager(p.ID, g.projectiles.Add, g.hudFor(p))
	g.players[p.ID] = p
	g.conns[p.Addr] = conn
	g.projectiles.Invalidate()
	g.touch()

	log.Info().Str("session", g.id).Int("player", p.ID).Str("name", p.Name).Msg("player joined")
	return p, nil
}

// freeID returns the lowest unused positive id
func (g *Game) freeID() int {
	id := 1
	for {
		if _, ok := g.players[id]; !ok {
			return id
		}
		id++
	}
}

func (g *Game) uniqueName(name string) string {
	taken := func(n string) bool {
		for _, p := range g.players {
			if p.Name == n {
				return true
			}
		}
		return false
	}
	candidate := name
	for i := 1; taken(candidate); i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	return candidate
}

// spawnPoint round-robins the arena's spawn list
func (g *Game) spawnPoint() Vec2 {
	s := g.arena.Spawns[g.nextSpawn%len(g.arena.Spawns)]
	g.nextSpawn++
	return s
}

func (g *Game) hudFor(p *Player) HUDFunc {
	return func(ev HUDEvent) {
		c, ok := g.conns[p.Addr]
		if !ok {
			return
		}
		msg := HUDMsg{Text: ev.Text, Weapon: ev.Weapon}
		if ev.HasAmmo {
			ammo := ev.Ammo
			msg.Ammo = &ammo
		}
		c.SendJSON(Envelope{T: MsgHUD, Data: msg})
	}
}

// RemovePlayer drops a player immediately
func (g *Game) RemovePlayer(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removePlayer(id, "left")
}

func (g *Game) removePlayer(id int, reason string) {
	p, ok := g.players[id]
	if !ok {
		return
	}
	delete(g.players, id)
	if !p.detached {
		delete(g.conns, p.Addr)
	}
	g.projectiles.Invalidate()
	g.touch()
	log.Info().Str("session", g.id).Int("player", id).Str("name", p.Name).Msg("player " + reason)
}

// Detach keeps a player whose connection addr dropped so it can be
// resumed within the player timeout. A stale addr is ignored.
func (g *Game) Detach(id int, addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok || p.detached || p.Addr != addr {
		return
	}
	delete(g.conns, p.Addr)
	p.detached = true
	p.idle = 0
	p.Input = ClientInput{}
	g.touch()
}

// Resume binds conn to a still present player
func (g *Game) Resume(id int, conn Broadcaster) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !p.detached {
		delete(g.conns, p.Addr)
	}
	p.Addr = conn.Addr()
	p.detached = false
	p.idle = 0
	g.conns[p.Addr] = conn
	g.touch()
	log.Info().Str("session", g.id).Int("player", id).Msg("player resumed")
	return p, nil
}

// AddSpectator subscribes conn to every broadcast without a player
func (g *Game) AddSpectator(conn Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[conn.Addr()] = conn
	g.spectators[conn.Addr()] = true
	g.touch()
}

// RemoveSpectator unsubscribes a spectator
func (g *Game) RemoveSpectator(addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.spectators[addr] {
		return
	}
	delete(g.spectators, addr)
	delete(g.conns, addr)
	g.touch()
}

// HandleInput stores the latest input of a player
func (g *Game) HandleInput(id int, in ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return
	}
	if !finite(Vec2{in.MX, in.MY}) {
		return
	}
	if in.Switch < 0 || in.Switch > numWeaponKinds {
		in.Switch = 0
	}
	p.Input = in
	p.idle = 0
}

// HasPlayer reports whether id is in the match
func (g *Game) HasPlayer(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[id]
	return ok
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// SpectatorCount returns the number of spectators
func (g *Game) SpectatorCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.spectators)
}

// EmptySince returns when the match last became empty, or the zero time
// while anyone is connected or resumable.
func (g *Game) EmptySince() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emptySince
}

func (g *Game) touch() {
	if len(g.players) == 0 && len(g.spectators) == 0 {
		if g.emptySince.IsZero() {
			g.emptySince = time.Now()
		}
		return
	}
	g.emptySince = time.Time{}
}

// update runs one tick. Players are processed in ascending id order.
func (g *Game) update(dt float64) {
	g.tick++
	timeout := g.cfg.PlayerTimeout.Seconds()

	for _, p := range sortedPlayers(g.players, true) {
		if p.detached {
			p.idle += dt
			if p.idle > timeout {
				g.removePlayer(p.ID, "timed out")
				continue
			}
		}
		if p.Dead {
			p.RespawnT -= dt
			if p.RespawnT <= 0 {
				p.Respawn(g.spawnPoint())
				g.projectiles.Invalidate()
			}
			continue
		}
		p.Update(dt, g.grid, g.bounds)
		p.Weapons.Update(dt, p)
	}

	live := sortedPlayers(g.players, false)
	for _, pk := range g.pickups {
		pk.Update(dt)
		pk.Collect(live)
	}

	g.projectiles.Update(dt)

	if g.tick%g.cfg.BroadcastEvery() == 0 {
		g.broadcastState()
	}
}

// recipients lists every connection that receives projectile records
func (g *Game) recipients() []string {
	addrs := make([]string, 0, len(g.conns))
	for addr := range g.conns {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Send implements Sender for the projectile manager
func (g *Game) Send(data []byte, addr string) {
	if c, ok := g.conns[addr]; ok {
		c.SendBinary(data)
	}
}

// broadcastState sends the player and pickup snapshot to every connection
func (g *Game) broadcastState() {
	state := GameState{
		Players: make([]PlayerState, 0, len(g.players)),
		Pickups: make([]PickupState, 0, len(g.pickups)),
		Tick:    g.tick,
	}
	for _, p := range sortedPlayers(g.players, true) {
		state.Players = append(state.Players, p.ToState())
	}
	for _, pk := range g.pickups {
		state.Pickups = append(state.Pickups, pk.ToState())
	}

	data, err := msgpack.Marshal(&Frame{T: MsgState, State: &state})
	if err != nil {
		log.Error().Err(err).Str("session", g.id).Msg("encode state")
		return
	}
	for _, c := range g.conns {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a JSON message to every connection in the match
func (g *Game) broadcastMsg(msg Envelope) {
	for _, c := range g.conns {
		c.SendJSON(msg)
	}
}
