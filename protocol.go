package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgCreate   = "create"   // create session
	MsgList     = "list"     // list sessions
	MsgSpectate = "spectate" // watch a session without a player
	MsgResume   = "resume"   // rebind to a player with a ticket
)

// Server -> Client message types
const (
	MsgState    = "state"
	MsgWelcome  = "welcome"
	MsgDeath    = "death"
	MsgKill     = "kill"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created"
	MsgError    = "error"
	MsgHUD      = "hud"
	MsgProj     = "proj" // binary frame kind for projectile records
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Frame is the msgpack binary envelope. Exactly one payload is set.
type Frame struct {
	T          string            `msgpack:"t"`
	Projectile *ProjectileRecord `msgpack:"p,omitempty"`
	State      *GameState        `msgpack:"s,omitempty"`
}

// ProjectileRecord is sent per live or just-deleted projectile every tick.
// For a resolved hitscan PosX carries the traveled distance and PosY the
// struck player id (0 for none); for pellets PosY is 1 when any pellet hit.
type ProjectileRecord struct {
	Type         ProjectileType `msgpack:"type"`
	OwnerID      int            `msgpack:"ownerId"`
	ProjectileID uint32         `msgpack:"projectileId"`
	PosX         float64        `msgpack:"posX"`
	PosY         float64        `msgpack:"posY"`
	VelX         float64        `msgpack:"velX"`
	VelY         float64        `msgpack:"velY"`
	ToDelete     bool           `msgpack:"toDelete"`
}

// ClientInput is the JSON form of the per-frame input
type ClientInput struct {
	MX     float64 `json:"mx"` // aim X (world coords)
	MY     float64 `json:"my"` // aim Y (world coords)
	Left   bool    `json:"l"`
	Right  bool    `json:"r"`
	Up     bool    `json:"u"`
	Att    bool    `json:"att"`
	Switch int     `json:"sw"` // 1-based weapon index, 0 = no switch
}

// Binary input flag bits
const (
	inputLeft  = 0x01
	inputRight = 0x02
	inputUp    = 0x04
	inputAtt   = 0x08
)

// JoinMsg is sent when a player wants to join or spectate a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// ResumeMsg carries a ticket from a previous welcome
type ResumeMsg struct {
	Ticket string `json:"ticket"`
}

// PlayerState is broadcast per player
type PlayerState struct {
	ID     int     `msgpack:"id"`
	Name   string  `msgpack:"n"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	VX     float64 `msgpack:"vx"`
	VY     float64 `msgpack:"vy"`
	HP     int     `msgpack:"hp"`
	Score  int     `msgpack:"sc"`
	Dead   bool    `msgpack:"d"`
	Weapon int     `msgpack:"w"` // 1-based index
	Ammo   int     `msgpack:"am"`
}

// PickupState is broadcast per active weapon pickup
type PickupState struct {
	ID     int     `msgpack:"id"`
	Weapon int     `msgpack:"w"` // 1-based index
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Active bool    `msgpack:"a"`
}

// GameState is the periodic player/pickup snapshot
type GameState struct {
	Players []PlayerState `msgpack:"p"`
	Pickups []PickupState `msgpack:"pk"`
	Tick    uint64        `msgpack:"tick"`
}

// WelcomeMsg is sent to a player when they join or resume
type WelcomeMsg struct {
	ID     int    `json:"id"`
	SID    string `json:"sid"`
	Ticket string `json:"ticket,omitempty"`
	Arena  string `json:"arena"`
}

// DeathMsg notifies a player they died
type DeathMsg struct {
	KillerID   int    `json:"kid"`
	KillerName string `json:"kn"`
}

// KillMsg is broadcast to everyone in the session
type KillMsg struct {
	KillerID   int    `json:"kid"`
	KillerName string `json:"kn"`
	VictimID   int    `json:"vid"`
	VictimName string `json:"vn"`
}

// HUDMsg mirrors a HUDEvent for the owning client
type HUDMsg struct {
	Text   string `json:"text,omitempty"`
	Weapon string `json:"weapon,omitempty"`
	Ammo   *int   `json:"ammo,omitempty"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Spectators int    `json:"spectators"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
