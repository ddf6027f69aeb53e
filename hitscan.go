package main

// HitScanLine is an instantaneous ray. It is resolved the tick it is fired
// and never stored.
type HitScanLine struct {
	ID        uint32
	Owner     int
	Line      Line
	Damage    int
	Knockback float64
	Type      ProjectileType
}

func (*HitScanLine) dispatchable() {}

// NewHitScanLine creates a ray from origin toward dir.
func NewHitScanLine(owner int, origin, dir Vec2, length float64, damage int, knockback float64, typ ProjectileType) *HitScanLine {
	return &HitScanLine{
		Owner:     owner,
		Line:      NewLine(origin, dir, length),
		Damage:    damage,
		Knockback: knockback,
		Type:      typ,
	}
}

// Collide finds the nearest player the ray reaches before any obstacle.
// It returns the traveled distance and the struck player, if any. A
// degenerate ray travels nowhere.
func (h *HitScanLine) Collide(obstacles ObstacleIndex, players []*Player) (float64, *Player) {
	if h.Line.Unit == (Vec2{}) {
		return 0, nil
	}
	reach := h.Line.Length
	if obstacles != nil {
		for _, r := range obstacles.Retrieve(nil, h.Line.Bounds()) {
			if d, ok := h.Line.Intersect(r); ok && d < reach {
				reach = d
			}
		}
	}
	var hit *Player
	for _, pl := range players {
		if pl.ID == h.Owner {
			continue
		}
		if d, ok := h.Line.Intersect(pl.Rect()); ok && d < reach {
			reach = d
			hit = pl
		}
	}
	return reach, hit
}

func (h *HitScanLine) onHit(damage DamageFunc, target *Player) {
	damage(target, Hit{
		Owner:     h.Owner,
		Damage:    h.Damage,
		Knockback: h.Line.Unit.Mul(h.Knockback),
		Type:      h.Type,
	})
}

// ShotGunPellets is one trigger pull of the shotgun: several rays fanned
// around the aim direction whose hits stack per player.
type ShotGunPellets struct {
	ID        uint32
	Owner     int
	Pellets   []*HitScanLine
	Damage    int // per pellet
	Knockback float64
	Unit      Vec2 // aim direction
}

func (*ShotGunPellets) dispatchable() {}

// NewShotGunPellets fans num pellets across ShotGunSpread around dir.
func NewShotGunPellets(owner int, origin, dir Vec2, damage, num int, knockback, length float64) *ShotGunPellets {
	s := &ShotGunPellets{
		Owner:     owner,
		Damage:    damage,
		Knockback: knockback,
	}
	s.Unit, _ = unitOf(dir)
	for _, d := range spread(dir[0], dir[1], ShotGunSpread, num) {
		s.Pellets = append(s.Pellets, NewHitScanLine(owner, origin, d, length, damage, knockback, TypeShotGun))
	}
	return s
}

// pelletHits counts how many pellets struck each player, in first-hit order.
type pelletHits struct {
	players []*Player
	counts  map[int]int
}

// Collide resolves every pellet and tallies hits per player.
func (s *ShotGunPellets) Collide(obstacles ObstacleIndex, players []*Player) pelletHits {
	tally := pelletHits{counts: make(map[int]int)}
	for _, pellet := range s.Pellets {
		_, pl := pellet.Collide(obstacles, players)
		if pl == nil {
			continue
		}
		if tally.counts[pl.ID] == 0 {
			tally.players = append(tally.players, pl)
		}
		tally.counts[pl.ID]++
	}
	return tally
}

// onHit applies one combined hit per player scaled by its pellet count.
func (s *ShotGunPellets) onHit(damage DamageFunc, tally pelletHits) {
	for _, pl := range tally.players {
		n := tally.counts[pl.ID]
		damage(pl, Hit{
			Owner:     s.Owner,
			Damage:    s.Damage * n,
			Knockback: s.Unit.Mul(s.Knockback * float64(n)),
			Type:      TypeShotGun,
		})
	}
}
