package main

const (
	PickupWidth  = 30.0
	PickupHeight = 20.0
)

// Pickup is a weapon lying in the arena. It goes inactive for its weapon's
// respawn delay after something was taken from it.
type Pickup struct {
	ID     int
	Rect   Rect
	Weapon *Weapon // template; never fired
}

// NewPickup places a weapon pickup of kind k with its min corner at pos
func NewPickup(id int, k WeaponKind, pos Vec2) *Pickup {
	return &Pickup{
		ID:     id,
		Rect:   Rect{X: pos[0], Y: pos[1], W: PickupWidth, H: PickupHeight},
		Weapon: NewWeapon(k, 0, nil),
	}
}

// Active reports whether the pickup can be collected
func (p *Pickup) Active() bool {
	return p.Weapon.Inactive <= 0
}

// Update ticks down the inactivity window
func (p *Pickup) Update(dt float64) {
	if p.Weapon.Inactive > 0 {
		p.Weapon.Inactive -= dt
		if p.Weapon.Inactive < 0 {
			p.Weapon.Inactive = 0
		}
	}
}

// Collect hands the pickup to the first live player, in slice order, who
// overlaps it and can use it. It returns that player or nil.
func (p *Pickup) Collect(players []*Player) *Player {
	if !p.Active() {
		return nil
	}
	for _, pl := range players {
		if pl.Dead || pl.Weapons == nil || !p.Rect.Overlaps(pl.Rect()) {
			continue
		}
		if pl.Weapons.Apply(p.Weapon) {
			return pl
		}
	}
	return nil
}

// ToState converts to protocol state
func (p *Pickup) ToState() PickupState {
	return PickupState{
		ID:     p.ID,
		Weapon: int(p.Weapon.Kind) + 1,
		X:      round1(p.Rect.X),
		Y:      round1(p.Rect.Y),
		Active: p.Active(),
	}
}
