package main

import "github.com/rs/zerolog/log"

// damagePlayer is the DamageFunc of a match. It applies the impulse, then
// the damage, and handles the kill. Called with g.mu held.
func (g *Game) damagePlayer(target *Player, hit Hit) {
	if target.Dead {
		return
	}
	if finite(hit.Knockback) {
		target.Vel = target.Vel.Add(hit.Knockback)
	}
	if hit.Damage <= 0 {
		return
	}
	target.HP -= hit.Damage
	if target.HP > 0 {
		return
	}
	target.Die(g.cfg.RespawnDelay.Seconds())

	killer, ok := g.players[hit.Owner]
	if !ok || killer == target {
		// suicide or a killer who already left
		target.Score--
		killer = target
	} else {
		killer.Score++
	}
	log.Debug().
		Str("session", g.id).
		Int("killer", killer.ID).
		Int("victim", target.ID).
		Uint8("type", uint8(hit.Type)).
		Msg("player killed")

	g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
		KillerID:   killer.ID,
		KillerName: killer.Name,
		VictimID:   target.ID,
		VictimName: target.Name,
	}})
	if c, ok := g.conns[target.Addr]; ok {
		c.SendJSON(Envelope{T: MsgDeath, Data: DeathMsg{
			KillerID:   killer.ID,
			KillerName: killer.Name,
		}})
	}
}
