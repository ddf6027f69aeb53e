package main

import (
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

//go:generate go tool mockgen -destination=mock_sender_test.go -package=main . Sender

// Sender delivers an encoded frame to one connection address. It must not
// block the tick.
type Sender interface {
	Send(data []byte, addr string)
}

// ShotGunRecoil scales the shooter's backward impulse per axis when the
// shotgun is fired in the air.
var ShotGunRecoil = Vec2{150, 300}

// ProjectileManager owns every live projectile of one match. It is driven
// from the match goroutine only.
type ProjectileManager struct {
	projs    []*Projectile
	toDelete []*Projectile
	deleted  map[*Projectile]bool
	nextID   uint32

	players    map[int]*Player
	obstacles  ObstacleIndex
	damage     DamageFunc
	sender     Sender
	recipients func() []string

	live  []*Player
	stale bool
}

// NewProjectileManager wires a manager to the match state. recipients lists
// the addresses that receive projectile records.
func NewProjectileManager(players map[int]*Player, obstacles ObstacleIndex, damage DamageFunc, sender Sender, recipients func() []string) *ProjectileManager {
	pm := &ProjectileManager{
		deleted:    make(map[*Projectile]bool),
		players:    players,
		obstacles:  obstacles,
		sender:     sender,
		recipients: recipients,
		stale:      true,
	}
	pm.damage = func(target *Player, hit Hit) {
		damage(target, hit)
		if target.Dead {
			pm.stale = true
		}
	}
	return pm
}

// Len returns the number of live projectiles
func (pm *ProjectileManager) Len() int {
	return len(pm.projs)
}

// Projectiles returns the live set. The slice must not be modified.
func (pm *ProjectileManager) Projectiles() []*Projectile {
	return pm.projs
}

// Invalidate forces the live player list to be rebuilt, e.g. after a join.
func (pm *ProjectileManager) Invalidate() {
	pm.stale = true
}

func (pm *ProjectileManager) livePlayers() []*Player {
	if pm.stale {
		pm.live = sortedPlayers(pm.players, false)
		pm.stale = false
	}
	return pm.live
}

// Add assigns the next id and routes d: projectiles join the live set,
// hitscans are resolved immediately. It is the DispatchFunc handed to
// weapons and projectiles.
func (pm *ProjectileManager) Add(d Dispatchable) {
	pm.nextID++
	switch v := d.(type) {
	case *Projectile:
		v.ID = pm.nextID
		pm.projs = append(pm.projs, v)
	case *HitScanLine:
		v.ID = pm.nextID
		pm.resolveLine(v)
	case *ShotGunPellets:
		v.ID = pm.nextID
		pm.resolvePellets(v)
	}
}

func (pm *ProjectileManager) resolveLine(line *HitScanLine) {
	dist, pl := line.Collide(pm.obstacles, pm.livePlayers())
	rec := ProjectileRecord{
		Type:         line.Type,
		OwnerID:      line.Owner,
		ProjectileID: line.ID,
		PosX:         dist,
	}
	if pl != nil {
		line.onHit(pm.damage, pl)
		rec.PosY = float64(pl.ID)
	}
	pm.send(rec)
}

func (pm *ProjectileManager) resolvePellets(s *ShotGunPellets) {
	tally := s.Collide(pm.obstacles, pm.livePlayers())
	rec := ProjectileRecord{
		Type:         TypeShotGun,
		OwnerID:      s.Owner,
		ProjectileID: s.ID,
	}
	if len(tally.players) > 0 {
		s.onHit(pm.damage, tally)
		rec.PosY = 1
	}
	if shooter, ok := pm.players[s.Owner]; ok && !shooter.Dead && shooter.Airborne() {
		pm.damage(shooter, Hit{
			Owner:     s.Owner,
			Knockback: mulComponents(s.Unit, ShotGunRecoil).Mul(-1),
			Type:      TypeShotGun,
		})
	}
	pm.send(rec)
}

// Update advances every projectile, resolves hits and runouts, drains
// deletions and then sends every survivor's state. Projectiles spawned
// during the pass (explosions) are advanced in the same tick.
func (pm *ProjectileManager) Update(dt float64) {
	for i := 0; i < len(pm.projs); i++ {
		p := pm.projs[i]
		if c, ok := p.UpdateProj(dt, pm.obstacles, pm.livePlayers()); ok {
			if p.onHit(c, pm.damage) {
				pm.markDeleted(p)
			}
		}
		if p.Lifetime < 0 && !pm.deleted[p] && p.onRunout() {
			pm.markDeleted(p)
		}
	}
	pm.drain()
	for _, p := range pm.projs {
		pm.send(p.Record(false))
	}
}

func (pm *ProjectileManager) markDeleted(p *Projectile) {
	if pm.deleted[p] {
		return
	}
	pm.deleted[p] = true
	pm.toDelete = append(pm.toDelete, p)
}

func (pm *ProjectileManager) drain() {
	if len(pm.toDelete) == 0 {
		return
	}
	kept := pm.projs[:0]
	for _, p := range pm.projs {
		if !pm.deleted[p] {
			kept = append(kept, p)
		}
	}
	clear(pm.projs[len(kept):])
	pm.projs = kept
	for _, p := range pm.toDelete {
		pm.send(p.Record(true))
		delete(pm.deleted, p)
	}
	pm.toDelete = pm.toDelete[:0]
}

// Clear drops every live projectile without sending anything
func (pm *ProjectileManager) Clear() {
	clear(pm.projs)
	pm.projs = pm.projs[:0]
	pm.toDelete = pm.toDelete[:0]
	clear(pm.deleted)
}

func (pm *ProjectileManager) send(rec ProjectileRecord) {
	if pm.sender == nil || pm.recipients == nil {
		return
	}
	data, err := msgpack.Marshal(&Frame{T: MsgProj, Projectile: &rec})
	if err != nil {
		log.Error().Err(err).Uint32("projectile", rec.ProjectileID).Msg("encode projectile record")
		return
	}
	for _, addr := range pm.recipients() {
		pm.sender.Send(data, addr)
	}
}
