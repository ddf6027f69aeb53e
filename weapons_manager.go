package main

import "time"

var startingWeapons = [...]WeaponKind{WeaponMelee, WeaponShotGun}

const (
	startingWeapon  = WeaponShotGun
	respawnCooldown = 300 * time.Millisecond
)

// HUDEvent is a UI notification for the owning player. Zero fields are
// unchanged.
type HUDEvent struct {
	Text    string
	Weapon  string
	Ammo    int
	HasAmmo bool
}

// HUDFunc receives HUD notifications
type HUDFunc func(HUDEvent)

// WeaponsManager is one player's inventory and active weapon.
type WeaponsManager struct {
	owner    int
	dispatch DispatchFunc
	hud      HUDFunc
	weapons  map[WeaponKind]*Weapon
	current  *Weapon
}

// NewWeaponsManager arms a player with the starting weapons. hud may be nil.
func NewWeaponsManager(owner int, dispatch DispatchFunc, hud HUDFunc) *WeaponsManager {
	wm := &WeaponsManager{owner: owner, dispatch: dispatch, hud: hud}
	wm.arm()
	return wm
}

func (wm *WeaponsManager) arm() {
	wm.weapons = make(map[WeaponKind]*Weapon, numWeaponKinds)
	for _, k := range startingWeapons {
		wm.weapons[k] = NewWeapon(k, wm.owner, wm.dispatch)
	}
	wm.current = wm.weapons[startingWeapon]
}

// Current returns the active weapon
func (wm *WeaponsManager) Current() *Weapon {
	return wm.current
}

// Weapon returns the owned weapon of kind k
func (wm *WeaponsManager) Weapon(k WeaponKind) (*Weapon, bool) {
	w, ok := wm.weapons[k]
	return w, ok
}

// Owns reports whether kind k is in the inventory
func (wm *WeaponsManager) Owns(k WeaponKind) bool {
	_, ok := wm.weapons[k]
	return ok
}

// Fire pulls the trigger of the active weapon. An empty weapon raises a
// "no ammo" HUD message.
func (wm *WeaponsManager) Fire(pos, aim Vec2) FireResult {
	r := wm.current.Fire(pos, aim)
	if r == FireNoAmmo {
		wm.notify(HUDEvent{Text: "no ammo"})
	}
	return r
}

// Update reads the player's input: fire, then switch, then cool down the
// active weapon. Dead or frozen players do nothing.
func (wm *WeaponsManager) Update(dt float64, p *Player) {
	if p.Dead || p.Frozen {
		return
	}
	if p.Input.Att {
		wm.Fire(p.Pos, Vec2{p.Input.MX, p.Input.MY})
	}
	if p.Input.Switch != 0 {
		if k, ok := WeaponKindFromIndex(p.Input.Switch); ok {
			wm.SwitchTo(k)
		}
	}
	wm.current.Update(dt)
}

// SwitchTo makes kind k active. The new weapon inherits the old weapon's
// remaining cooldown plus the switch delay. Unowned kinds are ignored.
func (wm *WeaponsManager) SwitchTo(k WeaponKind) bool {
	w, ok := wm.weapons[k]
	if !ok || w.Equal(wm.current) {
		return false
	}
	active := wm.current.Active + weaponSwitchDelay
	wm.current = w
	wm.current.Active = active
	wm.notify(HUDEvent{Weapon: w.Kind.Name(), Ammo: w.Ammo, HasAmmo: true})
	return true
}

// Reset restores the starting loadout, used on respawn.
func (wm *WeaponsManager) Reset() {
	wm.arm()
	wm.current.Active = respawnCooldown
	wm.notify(HUDEvent{Weapon: wm.current.Kind.Name(), Ammo: wm.current.Ammo, HasAmmo: true})
}

// Pickup grants a fresh weapon of kind k
func (wm *WeaponsManager) Pickup(k WeaponKind) {
	if k < 0 || k >= numWeaponKinds {
		return
	}
	wm.weapons[k] = NewWeapon(k, wm.owner, wm.dispatch)
}

// Apply transfers a world pickup into the inventory and reports whether
// anything changed.
func (wm *WeaponsManager) Apply(pickup *Weapon) bool {
	if !pickup.Apply(wm) {
		return false
	}
	if pickup.Kind == wm.current.Kind {
		wm.notify(HUDEvent{Ammo: wm.current.Ammo, HasAmmo: true})
	}
	return true
}

// PackAmmoWeapon returns the active weapon's ammo and 1-based index for
// the sync record.
func (wm *WeaponsManager) PackAmmoWeapon() (ammo, idx int) {
	return wm.current.Ammo, int(wm.current.Kind) + 1
}

// FromServer reconciles the authoritative ammo count. It only applies when
// idx names the active weapon.
func (wm *WeaponsManager) FromServer(ammo, idx int) {
	k, ok := WeaponKindFromIndex(idx)
	if !ok || k != wm.current.Kind {
		return
	}
	wm.current.Ammo = clampInt(ammo, 0, wm.current.MaxAmmo)
	wm.notify(HUDEvent{Ammo: wm.current.Ammo, HasAmmo: true})
}

// PredictAmmo applies a pickup locally before the server confirms it,
// using the same per-weapon amounts as Apply.
func (wm *WeaponsManager) PredictAmmo(k WeaponKind) {
	w, ok := wm.weapons[k]
	if !ok {
		wm.Pickup(k)
		return
	}
	w.Ammo = min(w.Ammo+w.AmmoPerPickup, w.MaxAmmo)
}

func (wm *WeaponsManager) notify(ev HUDEvent) {
	if wm.hud != nil {
		wm.hud(ev)
	}
}
