package main

import "math"

const (
	PlayerWidth    = 32.0
	PlayerHeight   = 72.0
	PlayerMaxHP    = 100
	PlayerGravity  = 2500.0 // pixels/s²
	PlayerAccel    = 500.0  // pixels/s²
	PlayerTurnMul  = 4.0    // accel multiplier when reversing on the ground
	PlayerJumpVel  = 900.0  // pixels/s
	PlayerMaxSpeed = 500.0  // horizontal run cap, pixels/s
)

// MuzzleOffset is where shots leave the player, relative to Pos
var MuzzleOffset = Vec2{16, 54}

// Player is one participant. Pos is the rectangle's min corner; the world
// is y-up.
type Player struct {
	ID       int
	Name     string
	Addr     string // connection address for Sender
	Pos      Vec2
	Vel      Vec2
	HP       int
	Score    int
	Deaths   int
	Dead     bool
	Frozen   bool
	RespawnT float64 // respawn timer remaining

	OnGround   bool
	Ascending  bool
	Descending bool
	CanJump    bool

	Input   ClientInput
	Weapons *WeaponsManager

	jumping  bool    // rising from a jump rather than knockback
	idle     float64 // seconds detached
	detached bool    // connection dropped, waiting for resume
	scratch  []Rect
}

// NewPlayer creates a live player at pos
func NewPlayer(id int, name string, pos Vec2) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		Pos:     pos,
		HP:      PlayerMaxHP,
		CanJump: true,
	}
}

// Rect returns the player's collision rectangle
func (p *Player) Rect() Rect {
	return Rect{X: p.Pos[0], Y: p.Pos[1], W: PlayerWidth, H: PlayerHeight}
}

// Airborne reports whether the player is rising or falling
func (p *Player) Airborne() bool {
	return p.Ascending || p.Descending
}

// Update runs one tick of movement and resolves it against obstacles and
// the arena bounds.
func (p *Player) Update(dt float64, obstacles ObstacleIndex, bounds Rect) {
	if p.Dead || p.Frozen {
		return
	}
	p.steer(dt)
	p.Vel[1] -= PlayerGravity * dt

	p.Pos[0] += p.Vel[0] * dt
	p.pushOut(obstacles, 0)
	p.Pos[1] += p.Vel[1] * dt
	p.OnGround = false
	p.pushOut(obstacles, 1)
	p.keepInside(bounds)

	if !finite(p.Pos) || !finite(p.Vel) {
		p.Pos = bounds.Center()
		p.Vel = Vec2{}
	}
	if p.Vel[1] <= 0 {
		p.jumping = false
	}
	p.Ascending = !p.OnGround && p.Vel[1] > 0
	p.Descending = !p.OnGround && p.Vel[1] < 0
}

func (p *Player) steer(dt float64) {
	in := p.Input
	var sign float64
	switch {
	case in.Right && !in.Left:
		sign = 1
	case in.Left && !in.Right:
		sign = -1
	}

	vx := p.Vel[0]
	if sign == 0 {
		if p.OnGround {
			// brake at the reversing rate so knockback still slides
			brake := PlayerAccel * PlayerTurnMul * dt
			if math.Abs(vx) <= brake {
				vx = 0
			} else {
				vx -= math.Copysign(brake, vx)
			}
		}
	} else {
		accel := PlayerAccel
		if math.Abs(vx) > PlayerMaxSpeed {
			accel = 0
		}
		if p.OnGround && vx*sign < 0 {
			accel *= PlayerTurnMul
		}
		vx += accel * sign * dt
		if p.OnGround && math.Abs(vx) > PlayerMaxSpeed {
			vx = math.Copysign(PlayerMaxSpeed, vx)
		}
	}
	p.Vel[0] = vx

	if in.Up && p.OnGround && p.CanJump {
		p.Vel[1] = PlayerJumpVel
		p.CanJump = false
		p.OnGround = false
		p.jumping = true
	}
	if !in.Up {
		p.CanJump = true
		// releasing jump cuts the rise short
		if p.jumping && p.Vel[1] > 0 {
			p.Vel[1] = 0
		}
		p.jumping = false
	}
}

// pushOut moves the player out of every obstacle along one axis, against
// the direction of travel.
func (p *Player) pushOut(obstacles ObstacleIndex, axis int) {
	if obstacles == nil {
		return
	}
	r := p.Rect()
	p.scratch = obstacles.Retrieve(p.scratch[:0], r)
	for _, o := range p.scratch {
		r = p.Rect()
		if !r.Overlaps(o) {
			continue
		}
		if axis == 0 {
			if p.Vel[0] > 0 {
				p.Pos[0] = o.X - PlayerWidth
			} else if p.Vel[0] < 0 {
				p.Pos[0] = o.MaxX()
			}
			p.Vel[0] = 0
			continue
		}
		if p.Vel[1] <= 0 {
			p.Pos[1] = o.MaxY()
			p.OnGround = true
		} else {
			p.Pos[1] = o.Y - PlayerHeight
		}
		p.Vel[1] = 0
	}
}

func (p *Player) keepInside(b Rect) {
	if b.W <= 0 || b.H <= 0 {
		return
	}
	if p.Pos[0] < b.X {
		p.Pos[0], p.Vel[0] = b.X, 0
	} else if p.Pos[0]+PlayerWidth > b.MaxX() {
		p.Pos[0], p.Vel[0] = b.MaxX()-PlayerWidth, 0
	}
	if p.Pos[1] < b.Y {
		p.Pos[1], p.Vel[1] = b.Y, 0
		p.OnGround = true
	} else if p.Pos[1]+PlayerHeight > b.MaxY() {
		p.Pos[1], p.Vel[1] = b.MaxY()-PlayerHeight, 0
	}
}

// Die marks the player dead and starts the respawn timer
func (p *Player) Die(respawnDelay float64) {
	p.HP = 0
	p.Dead = true
	p.Deaths++
	p.RespawnT = respawnDelay
	p.Vel = Vec2{}
	p.Input = ClientInput{}
}

// Respawn resets the player at pos with the starting loadout
func (p *Player) Respawn(pos Vec2) {
	p.Pos = pos
	p.Vel = Vec2{}
	p.HP = PlayerMaxHP
	p.Dead = false
	p.RespawnT = 0
	p.OnGround, p.Ascending, p.Descending = false, false, false
	p.CanJump = true
	p.jumping = false
	if p.Weapons != nil {
		p.Weapons.Reset()
	}
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	s := PlayerState{
		ID:    p.ID,
		Name:  p.Name,
		X:     round1(p.Pos[0]),
		Y:     round1(p.Pos[1]),
		VX:    round1(p.Vel[0]),
		VY:    round1(p.Vel[1]),
		HP:    p.HP,
		Score: p.Score,
		Dead:  p.Dead,
	}
	if p.Weapons != nil {
		s.Ammo, s.Weapon = p.Weapons.PackAmmoWeapon()
	}
	return s
}
