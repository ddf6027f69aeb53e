package main

// ProjectileKind selects the hit/collision behaviour of a projectile.
type ProjectileKind int

const (
	KindKinetic ProjectileKind = iota
	KindMelee
	KindBlaster
	KindNade
	KindExplosion
)

// ProjectileType is the network/visual classification of a projectile
// record. It carries no behaviour.
type ProjectileType uint8

const (
	TypeKinetic ProjectileType = iota
	TypeMelee
	TypeBlaster
	TypeGrenade
	TypeBlasterExplosion
	TypeNadeExplosion
	TypeLightning
	TypeShotGun
)

const (
	ProjectileImmunity = 0.5  // seconds a fresh projectile ignores its owner
	GrenadeImmunity    = 0.25 // grenades arm faster
	GrenadeGravity     = 1500.0

	ExplosionHalfWidth        = 125.0
	ExplosionLifetime         = 0.05
	ExplosionMinDamage        = 10
	BlasterExplosionDamage    = 100
	BlasterExplosionKnockback = 400.0
	NadeExplosionDamage       = 110
	NadeExplosionKnockback    = 700.0

	bounceReflect  = -0.6 // velocity factor on the axis that hit
	bounceFriction = 0.9  // X factor on a floor/ceiling hit
)

// Hit is what the damage callback receives: who caused it, how much damage,
// and the velocity impulse to apply.
type Hit struct {
	Owner     int
	Damage    int
	Knockback Vec2
	Type      ProjectileType
}

// DamageFunc applies a hit to a player. Projectile and weapon code never
// touch player health or velocity directly.
type DamageFunc func(target *Player, hit Hit)

// collision is the result of one tick of collision testing.
type collision struct {
	target  *Player   // swept hit on a player
	targets []*Player // overlap kinds: everyone inside the rectangle
	normal  Vec2
	world   bool
}

// Projectile is a moving (or attached, or static) damage carrier.
type Projectile struct {
	ID        uint32
	Kind      ProjectileKind
	Type      ProjectileType
	Owner     int
	Rect      Rect
	Vel       Vec2
	Dir       Vec2 // knockback direction for direct hits
	Damage    int
	Knockback float64
	Lifetime  float64
	Immunity  float64 // owner cannot be hit while > 0
	SelfHit   bool

	offset   Vec2         // melee: from the wielder's muzzle point
	credited map[int]bool // melee/explosion: players already damaged
	dispatch DispatchFunc
	scratch  []Rect
}

func (*Projectile) dispatchable() {}

// NewProjectile creates a plain kinetic projectile centered on center.
func NewProjectile(owner int, center Vec2, w, h float64, dir Vec2, speed, lifetime float64, damage int, knockback float64, dispatch DispatchFunc) *Projectile {
	return &Projectile{
		Kind:      KindKinetic,
		Type:      TypeKinetic,
		Owner:     owner,
		Rect:      RectAround(center, w, h),
		Vel:       dir.Mul(speed),
		Dir:       dir,
		Damage:    damage,
		Knockback: knockback,
		Lifetime:  lifetime,
		Immunity:  ProjectileImmunity,
		dispatch:  dispatch,
	}
}

// NewMeleeProjectile creates the short-lived hitbox that follows its
// wielder at offset from the muzzle point. The wielder is never credited.
func NewMeleeProjectile(owner, damage int, knockback float64, wielderPos, offset, dir Vec2, dispatch DispatchFunc) *Projectile {
	p := NewProjectile(owner, wielderPos.Add(MuzzleOffset).Add(offset), MeleeSize, MeleeSize, dir, 0, MeleeLifetime, damage, knockback, dispatch)
	p.Kind = KindMelee
	p.Type = TypeMelee
	p.offset = offset
	p.credited = map[int]bool{owner: true}
	return p
}

// NewBlasterProjectile creates a fast bolt that can hit its owner once armed.
func NewBlasterProjectile(owner int, muzzle, dir Vec2, dispatch DispatchFunc) *Projectile {
	s := weaponSpecs[WeaponBlaster]
	p := NewProjectile(owner, muzzle, BlasterSize, BlasterSize, dir, BlasterSpeed, BlasterLifetime, s.damage, s.knockback, dispatch)
	p.Kind = KindBlaster
	p.Type = TypeBlaster
	p.SelfHit = true
	return p
}

// NewNadeProjectile creates a bouncing grenade. dir need not be unit length.
func NewNadeProjectile(owner int, muzzle, dir Vec2, dispatch DispatchFunc) *Projectile {
	s := weaponSpecs[WeaponGrenadeLauncher]
	p := NewProjectile(owner, muzzle, GrenadeWidth, GrenadeHeight, dir, GrenadeSpeed, GrenadeLifetime, s.damage, s.knockback, dispatch)
	p.Kind = KindNade
	p.Type = TypeGrenade
	p.Immunity = GrenadeImmunity
	p.SelfHit = true
	return p
}

// NewExplosion creates a static splash square of side 2*halfWidth.
func NewExplosion(owner int, center Vec2, halfWidth float64, damage int, knockback float64, typ ProjectileType, dispatch DispatchFunc) *Projectile {
	p := NewProjectile(owner, center, 2*halfWidth, 2*halfWidth, Vec2{}, 0, ExplosionLifetime, damage, knockback, dispatch)
	p.Kind = KindExplosion
	p.Type = typ
	p.credited = make(map[int]bool)
	return p
}

// UpdateProj advances the projectile one tick and reports a collision that
// should be resolved with onHit.
func (p *Projectile) UpdateProj(dt float64, obstacles ObstacleIndex, players []*Player) (collision, bool) {
	switch p.Kind {
	case KindMelee:
		for _, pl := range players {
			if pl.ID == p.Owner {
				p.Rect = RectAround(pl.Pos.Add(MuzzleOffset).Add(p.offset), p.Rect.W, p.Rect.H)
				break
			}
		}
		p.Lifetime -= dt
		return p.overlapping(players)
	case KindExplosion:
		p.countdown(dt)
		return p.overlapping(players)
	}
	p.countdown(dt)
	return p.collide(dt, obstacles, players)
}

func (p *Projectile) countdown(dt float64) {
	p.Lifetime -= dt
	if p.Immunity > 0 {
		p.Immunity -= dt
		if p.Immunity < 0 {
			p.Immunity = 0
		}
	}
}

func (p *Projectile) overlapping(players []*Player) (collision, bool) {
	var c collision
	for _, pl := range players {
		if p.Rect.Overlaps(pl.Rect()) {
			c.targets = append(c.targets, pl)
		}
	}
	return c, len(c.targets) > 0
}

// sweptBounds covers everything the projectile can touch this tick
func (p *Projectile) sweptBounds(dt float64) Rect {
	return p.Rect.Union(p.Rect.Moved(p.Vel.Mul(dt)))
}

// axisHits tracks the earliest contact per axis. Among players, Y wins only
// when strictly earlier than X.
type axisHits struct {
	xt, yt     float64
	xn, yn     Vec2
	xHit, yHit bool
	xIdx, yIdx int
}

func newAxisHits(dt float64) axisHits {
	return axisHits{xt: dt, yt: dt, xIdx: -1, yIdx: -1}
}

func (a *axisHits) add(normal Vec2, t float64, idx int) {
	if normal[0] != 0 && (!a.xHit || t < a.xt) {
		a.xt, a.xn, a.xHit, a.xIdx = t, normal, true, idx
	}
	if normal[1] != 0 && (!a.yHit || t < a.yt) {
		a.yt, a.yn, a.yHit, a.yIdx = t, normal, true, idx
	}
}

// winner returns the resolved normal and index, or -1 when nothing blocked.
func (a *axisHits) winner() (Vec2, int) {
	if a.yHit && a.yt < a.xt {
		return a.yn, a.yIdx
	}
	if a.xHit {
		return a.xn, a.xIdx
	}
	return Vec2{}, -1
}

// worldNormal is the obstacle-phase normal: any Y contact overrides X,
// regardless of which came first.
func (a *axisHits) worldNormal() Vec2 {
	if a.yHit {
		return a.yn
	}
	return a.xn
}

// collide runs the two-phase swept test: players first, then map
// obstacles only if no player was struck.
func (p *Projectile) collide(dt float64, obstacles ObstacleIndex, players []*Player) (collision, bool) {
	var c collision

	hits := newAxisHits(dt)
	for i, pl := range players {
		if n, t, ok := p.Rect.Sweep(p.Vel, pl.Rect(), dt); ok {
			hits.add(n, t, i)
		}
	}
	normal, idx := hits.winner()
	if idx >= 0 {
		c.target = players[idx]
		c.normal = normal
	} else if obstacles != nil {
		p.scratch = obstacles.Retrieve(p.scratch[:0], p.sweptBounds(dt))
		hits = newAxisHits(dt)
		for i, r := range p.scratch {
			if n, t, ok := p.Rect.Sweep(p.Vel, r, dt); ok {
				hits.add(n, t, i)
			}
		}
		c.normal = hits.worldNormal()
		c.world = hits.xt < dt || hits.yt < dt
	}
	return p.resolveSweep(Vec2{hits.xt, hits.yt}, c)
}

// resolveSweep moves the projectile by its velocity scaled per axis and
// filters hits on the owner.
func (p *Projectile) resolveSweep(step Vec2, c collision) (collision, bool) {
	if p.Kind == KindNade && !c.world {
		p.Vel[1] -= GrenadeGravity * step[1]
	}
	if moved := p.Rect.Moved(mulComponents(p.Vel, step)); finite(moved.Min()) {
		p.Rect = moved
	}
	if c.target == nil && !c.world {
		return c, false
	}
	if c.target != nil && c.target.ID == p.Owner && (!p.SelfHit || p.Immunity > 0) {
		return c, false
	}
	return c, true
}

// onHit resolves a collision. It returns true when the projectile is used up.
func (p *Projectile) onHit(c collision, damage DamageFunc) bool {
	switch p.Kind {
	case KindMelee:
		for _, pl := range c.targets {
			if p.credited[pl.ID] {
				continue
			}
			damage(pl, p.directHit())
			p.credited[pl.ID] = true
		}
		return false

	case KindExplosion:
		center := p.Rect.Center()
		halfWidth := p.Rect.W / 2
		for _, pl := range c.targets {
			if p.credited[pl.ID] {
				continue
			}
			away := pl.Rect().Center().Sub(center)
			var kb Vec2
			if u, ok := unitOf(away); ok {
				kb = u.Mul(p.Knockback)
			}
			damage(pl, Hit{
				Owner:     p.Owner,
				Damage:    splashDamage(p.Damage, halfWidth, away.Len()),
				Knockback: kb,
				Type:      p.Type,
			})
			p.credited[pl.ID] = true
		}
		return false

	case KindBlaster:
		expl := NewExplosion(p.Owner, p.Rect.Center(), ExplosionHalfWidth, BlasterExplosionDamage, BlasterExplosionKnockback, TypeBlasterExplosion, p.dispatch)
		if c.target != nil {
			damage(c.target, p.directHit())
			expl.credited[c.target.ID] = true
		}
		p.emit(expl)
		return true

	case KindNade:
		if c.target != nil {
			expl := p.nadeExplosion()
			damage(c.target, p.directHit())
			expl.credited[c.target.ID] = true
			p.emit(expl)
			return true
		}
		if c.normal[0] != 0 {
			p.Vel[0] *= bounceReflect
		} else {
			p.Vel[0] *= bounceFriction
			p.Vel[1] *= bounceReflect
		}
		return false
	}

	if c.target != nil {
		damage(c.target, p.directHit())
	}
	return true
}

// onRunout is called once lifetime drops below zero. Grenades detonate.
func (p *Projectile) onRunout() bool {
	if p.Kind == KindNade {
		p.emit(p.nadeExplosion())
	}
	return true
}

func (p *Projectile) nadeExplosion() *Projectile {
	return NewExplosion(p.Owner, p.Rect.Center(), ExplosionHalfWidth, NadeExplosionDamage, NadeExplosionKnockback, TypeNadeExplosion, p.dispatch)
}

func (p *Projectile) directHit() Hit {
	return Hit{Owner: p.Owner, Damage: p.Damage, Knockback: p.Dir.Mul(p.Knockback), Type: p.Type}
}

func (p *Projectile) emit(d Dispatchable) {
	if p.dispatch != nil {
		p.dispatch(d)
	}
}

// splashDamage falls off linearly from base at the center to zero at
// halfWidth, floored at ExplosionMinDamage.
func splashDamage(base int, halfWidth, dist float64) int {
	if halfWidth <= 0 {
		return ExplosionMinDamage
	}
	dmg := int((halfWidth - dist) / halfWidth * float64(base))
	if dmg < ExplosionMinDamage {
		return ExplosionMinDamage
	}
	return dmg
}

// Record converts to the wire record
func (p *Projectile) Record(toDelete bool) ProjectileRecord {
	return ProjectileRecord{
		Type:         p.Type,
		OwnerID:      p.Owner,
		ProjectileID: p.ID,
		PosX:         p.Rect.X,
		PosY:         p.Rect.Y,
		VelX:         p.Vel[0],
		VelY:         p.Vel[1],
		ToDelete:     toDelete,
	}
}
