package main

import "testing"

// hitLog records every DamageFunc call
type hitLog struct {
	targets []*Player
	hits    []Hit
}

func (h *hitLog) damage(target *Player, hit Hit) {
	h.targets = append(h.targets, target)
	h.hits = append(h.hits, hit)
}

func gridWith(rects ...Rect) *SpatialGrid {
	g := NewSpatialGrid(2000, 2000)
	for _, r := range rects {
		g.Insert(r)
	}
	return g
}

func TestSplashDamage(t *testing.T) {
	tests := []struct {
		base      int
		halfWidth float64
		dist      float64
		want      int
	}{
		{100, 125, 0, 100},
		{100, 125, 25, 80},
		{100, 125, 50, 60},
		{110, 125, 62.5, 55},
		{100, 125, 124, ExplosionMinDamage},
		{100, 125, 300, ExplosionMinDamage},
		{100, 0, 0, ExplosionMinDamage},
	}
	for _, tt := range tests {
		if got := splashDamage(tt.base, tt.halfWidth, tt.dist); got != tt.want {
			t.Errorf("splashDamage(%d, %v, %v) = %d, want %d", tt.base, tt.halfWidth, tt.dist, got, tt.want)
		}
	}
}

func TestKineticHitsPlayer(t *testing.T) {
	target := NewPlayer(2, "target", Vec2{100, 0})
	p := NewProjectile(1, Vec2{90, 36}, 10, 10, Vec2{1, 0}, BlasterSpeed, 1, 20, 50, nil)

	c, ok := p.UpdateProj(testDT, nil, []*Player{target})
	if !ok {
		t.Fatal("expected a hit")
	}
	if c.target != target {
		t.Fatalf("expected target to be struck, got %v", c.target)
	}
	// moved only up to the contact point
	if d := p.Rect.X - 85; d < 4.999 || d > 5.001 {
		t.Errorf("expected a 5px move to contact, got %f", d)
	}

	log := &hitLog{}
	if !p.onHit(c, log.damage) {
		t.Error("kinetic projectile should be used up on a hit")
	}
	if len(log.hits) != 1 || log.hits[0].Damage != 20 || log.hits[0].Knockback != (Vec2{50, 0}) {
		t.Errorf("unexpected hits %+v", log.hits)
	}
}

func TestKineticFreeFlight(t *testing.T) {
	p := NewProjectile(1, Vec2{90, 36}, 10, 10, Vec2{0, 1}, 600, 1, 20, 50, nil)
	if _, ok := p.UpdateProj(testDT, nil, nil); ok {
		t.Fatal("expected no hit in open space")
	}
	if !approx(p.Rect.Center()[1], 46) {
		t.Errorf("expected to move 10px up, got %v", p.Rect.Center())
	}
	if !approx(p.Lifetime, 1-testDT) {
		t.Errorf("expected lifetime to count down, got %f", p.Lifetime)
	}
}

func TestOwnerImmunity(t *testing.T) {
	owner := NewPlayer(1, "owner", Vec2{100, 0})

	bolt := NewBlasterProjectile(1, Vec2{90, 36}, Vec2{1, 0}, nil)
	if _, ok := bolt.UpdateProj(testDT, nil, []*Player{owner}); ok {
		t.Error("fresh bolt should pass through its owner")
	}

	armed := NewBlasterProjectile(1, Vec2{90, 36}, Vec2{1, 0}, nil)
	armed.Immunity = 0
	if c, ok := armed.UpdateProj(testDT, nil, []*Player{owner}); !ok || c.target != owner {
		t.Error("armed bolt should hit its owner")
	}

	plain := NewProjectile(1, Vec2{90, 36}, 10, 10, Vec2{1, 0}, BlasterSpeed, 1, 20, 50, nil)
	plain.Immunity = 0
	if _, ok := plain.UpdateProj(testDT, nil, []*Player{owner}); ok {
		t.Error("projectile without self-hit must never hit its owner")
	}
}

func TestImmunityCountsDown(t *testing.T) {
	tests := []struct {
		name   string
		fire   func() *Projectile
		center Vec2
		window int // ticks until armed
	}{
		{"bolt", func() *Projectile { return NewBlasterProjectile(1, Vec2{90, 36}, Vec2{1, 0}, nil) }, Vec2{90, 36}, 30},
		{"grenade", func() *Projectile { return NewNadeProjectile(1, Vec2{90, 36}, Vec2{1, 0}, nil) }, Vec2{90, 36}, 15},
	}
	for _, tt := range tests {
		owner := NewPlayer(1, "owner", Vec2{100, 0})
		p := tt.fire()
		vel := p.Vel

		hitAt := 0
		for tick := 1; tick <= tt.window+1 && hitAt == 0; tick++ {
			// hold the projectile just in front of its owner
			p.Rect = RectAround(tt.center, p.Rect.W, p.Rect.H)
			p.Vel = vel
			if c, ok := p.UpdateProj(testDT, nil, []*Player{owner}); ok {
				if c.target != owner {
					t.Fatalf("%s: unexpected target %v", tt.name, c.target)
				}
				hitAt = tick
			}
		}
		// the last tick of the window may land a hair above zero
		if hitAt == 0 {
			t.Errorf("%s: never hit its owner after the immunity window", tt.name)
		} else if hitAt < tt.window {
			t.Errorf("%s: hit its owner on tick %d, inside the %d tick window", tt.name, hitAt, tt.window)
		}
	}
}

func TestBlasterDirectHitCreditsExplosion(t *testing.T) {
	target := NewPlayer(2, "target", Vec2{100, 0})
	c := &collector{}
	bolt := NewBlasterProjectile(1, Vec2{90, 36}, Vec2{1, 0}, c.add)

	col, ok := bolt.UpdateProj(testDT, nil, []*Player{target})
	if !ok {
		t.Fatal("expected a hit")
	}
	log := &hitLog{}
	if !bolt.onHit(col, log.damage) {
		t.Error("bolt should be used up")
	}
	if len(log.hits) != 1 || log.hits[0].Damage != 110 || log.hits[0].Knockback != (Vec2{500, 0}) {
		t.Fatalf("unexpected direct hit %+v", log.hits)
	}
	if len(c.got) != 1 {
		t.Fatalf("expected an explosion, got %d dispatches", len(c.got))
	}
	expl := c.got[0].(*Projectile)
	if expl.Kind != KindExplosion || expl.Type != TypeBlasterExplosion {
		t.Fatalf("expected a blaster explosion, got %+v", expl)
	}

	// the direct target is not splashed again
	if ec, ok := expl.UpdateProj(testDT, nil, []*Player{target}); ok {
		expl.onHit(ec, log.damage)
	}
	if len(log.hits) != 1 {
		t.Errorf("target was hit %d times", len(log.hits))
	}
}

func TestExplosionSplashOnce(t *testing.T) {
	near := NewPlayer(2, "near", Vec2{84, 0}) // center (100, 36)
	far := NewPlayer(3, "far", Vec2{134, 0})  // center (150, 36)
	expl := NewExplosion(1, Vec2{100, 36}, ExplosionHalfWidth, 100, 400, TypeNadeExplosion, nil)

	log := &hitLog{}
	for i := 0; i < 2; i++ {
		if c, ok := expl.UpdateProj(testDT, nil, []*Player{near, far}); ok {
			if expl.onHit(c, log.damage) {
				t.Error("explosions end by lifetime, not on hit")
			}
		}
	}
	if len(log.hits) != 2 {
		t.Fatalf("expected one hit per player, got %d", len(log.hits))
	}
	if log.hits[0].Damage != 100 || log.hits[0].Knockback != (Vec2{}) {
		t.Errorf("centered player: %+v", log.hits[0])
	}
	if kb := log.hits[1].Knockback; log.hits[1].Damage != 60 || !approx(kb[0], 400) || kb[1] != 0 {
		t.Errorf("offset player: %+v", log.hits[1])
	}
}

func TestMeleeCreditsOncePerSwing(t *testing.T) {
	wielder := NewPlayer(1, "wielder", Vec2{0, 0})
	victim := NewPlayer(2, "victim", Vec2{60, 0})
	m := NewMeleeProjectile(1, 40, 300, wielder.Pos, Vec2{40, 0}, Vec2{1, 0}, nil)

	log := &hitLog{}
	for i := 0; i < 3; i++ {
		if c, ok := m.UpdateProj(testDT, nil, []*Player{wielder, victim}); ok {
			if m.onHit(c, log.damage) {
				t.Error("melee ends by lifetime, not on hit")
			}
		}
	}
	if len(log.hits) != 1 || log.targets[0] != victim {
		t.Fatalf("expected exactly one hit on the victim, got %d", len(log.hits))
	}
	if log.hits[0].Damage != 40 || log.hits[0].Knockback != (Vec2{300, 0}) {
		t.Errorf("unexpected melee hit %+v", log.hits[0])
	}
}

func TestMeleeFollowsWielder(t *testing.T) {
	wielder := NewPlayer(1, "wielder", Vec2{0, 0})
	m := NewMeleeProjectile(1, 40, 300, wielder.Pos, Vec2{40, 0}, Vec2{1, 0}, nil)
	wielder.Pos = Vec2{200, 100}
	m.UpdateProj(testDT, nil, []*Player{wielder})
	want := Vec2{200 + 16 + 40, 100 + 54}
	if m.Rect.Center() != want {
		t.Errorf("expected hitbox at %v, got %v", want, m.Rect.Center())
	}
}

func TestNadeBouncesOffFloor(t *testing.T) {
	floor := gridWith(Rect{X: 0, Y: 0, W: 1000, H: 10})
	n := NewNadeProjectile(1, Vec2{100, 20}, Vec2{1, 0}, nil)
	n.Vel = Vec2{300, -600}

	c, ok := n.UpdateProj(testDT, floor, nil)
	if !ok || !c.world {
		t.Fatal("expected a world hit")
	}
	if c.normal != (Vec2{0, 1}) {
		t.Errorf("expected floor normal, got %v", c.normal)
	}
	if n.onHit(c, (&hitLog{}).damage) {
		t.Error("bounce must not use the grenade up")
	}
	if !approx(n.Vel[0], 270) || !approx(n.Vel[1], 360) {
		t.Errorf("expected (270,360) after bounce, got %v", n.Vel)
	}
}

func TestNadeBouncesOffWall(t *testing.T) {
	wall := gridWith(Rect{X: 110, Y: 0, W: 20, H: 1000})
	n := NewNadeProjectile(1, Vec2{100, 200}, Vec2{1, 0}, nil)
	n.Vel = Vec2{600, 0}

	c, ok := n.UpdateProj(testDT, wall, nil)
	if !ok || c.normal != (Vec2{-1, 0}) {
		t.Fatalf("expected a wall hit, got %+v %v", c, ok)
	}
	n.onHit(c, (&hitLog{}).damage)
	if !approx(n.Vel[0], -360) {
		t.Errorf("expected vx -360, got %f", n.Vel[0])
	}
}

func TestNadeCornerTakesFloorNormal(t *testing.T) {
	// the wall is reached first, but any floor contact decides the bounce
	corner := gridWith(
		Rect{X: 20, Y: 0, W: 10, H: 100},
		Rect{X: 0, Y: 0, W: 200, H: 10},
	)
	n := NewNadeProjectile(1, Vec2{7.5, 25}, Vec2{1, 0}, nil)
	n.Vel = Vec2{600, -600}

	c, ok := n.UpdateProj(0.1, corner, nil)
	if !ok || !c.world {
		t.Fatal("expected a world hit")
	}
	if c.normal != (Vec2{0, 1}) {
		t.Fatalf("expected floor normal, got %v", c.normal)
	}
	// each axis stops at its own contact time
	if !approx(n.Rect.X, 5) || !approx(n.Rect.Y, 10) {
		t.Errorf("expected rect at (5,10), got (%f,%f)", n.Rect.X, n.Rect.Y)
	}
	n.onHit(c, (&hitLog{}).damage)
	if !approx(n.Vel[0], 540) || !approx(n.Vel[1], 360) {
		t.Errorf("expected (540,360) after bounce, got %v", n.Vel)
	}
}

func TestPlayerTieBreak(t *testing.T) {
	tests := []struct {
		name       string
		yGap       float64 // distance to the player above; the side player is 4px away
		wantY      bool
		wantNormal Vec2
	}{
		{"tie goes to x", 4, false, Vec2{-1, 0}},
		{"earlier y wins", 2, true, Vec2{0, -1}},
		{"later y loses", 6, false, Vec2{-1, 0}},
	}
	for _, tt := range tests {
		side := NewPlayer(1, "side", Vec2{9, -40})
		above := NewPlayer(2, "above", Vec2{-16, 5 + tt.yGap})
		p := NewProjectile(9, Vec2{0, 0}, 10, 10, Vec2{1, 1}, 0, 1, 10, 0, nil)
		p.Vel = Vec2{600, 600}

		c, ok := p.UpdateProj(testDT, nil, []*Player{side, above})
		if !ok {
			t.Errorf("%s: expected a hit", tt.name)
			continue
		}
		want := side
		if tt.wantY {
			want = above
		}
		if c.target != want {
			t.Errorf("%s: expected %s to be struck, got %s", tt.name, want.Name, c.target.Name)
		}
		if c.normal != tt.wantNormal {
			t.Errorf("%s: expected normal %v, got %v", tt.name, tt.wantNormal, c.normal)
		}
		// x stops at the side contact, y keeps going until its own contact
		if !approx(p.Rect.X, -1) || !approx(p.Rect.Y, -5+tt.yGap) {
			t.Errorf("%s: expected rect at (-1,%v), got (%f,%f)", tt.name, -5+tt.yGap, p.Rect.X, p.Rect.Y)
		}
	}
}

func TestNadeGravity(t *testing.T) {
	n := NewNadeProjectile(1, Vec2{500, 500}, Vec2{1, 0}, nil)
	n.UpdateProj(testDT, nil, nil)
	if !approx(n.Vel[1], -GrenadeGravity*testDT) {
		t.Errorf("expected vy %f, got %f", -GrenadeGravity*testDT, n.Vel[1])
	}
}

func TestNadeRunoutExplodes(t *testing.T) {
	c := &collector{}
	n := NewNadeProjectile(1, Vec2{500, 500}, Vec2{1, 0}, c.add)
	if !n.onRunout() {
		t.Error("runout should use the grenade up")
	}
	if len(c.got) != 1 || c.got[0].(*Projectile).Type != TypeNadeExplosion {
		t.Errorf("expected a grenade explosion, got %v", c.got)
	}

	bolt := NewBlasterProjectile(1, Vec2{}, Vec2{1, 0}, c.add)
	bolt.onRunout()
	if len(c.got) != 1 {
		t.Error("bolts fizzle without exploding")
	}
}

func TestProjectileRecord(t *testing.T) {
	p := NewProjectile(7, Vec2{10, 10}, 10, 10, Vec2{1, 0}, 100, 1, 5, 0, nil)
	p.ID = 42
	rec := p.Record(true)
	want := ProjectileRecord{Type: TypeKinetic, OwnerID: 7, ProjectileID: 42, PosX: 5, PosY: 5, VelX: 100, ToDelete: true}
	if rec != want {
		t.Errorf("got %+v, want %+v", rec, want)
	}
}
