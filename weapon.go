package main

import (
	"math"
	"strconv"
	"time"
)

// WeaponKind identifies a weapon; its index is the digit in the "wN" key.
type WeaponKind int

const (
	WeaponMelee           WeaponKind = 0
	WeaponShotGun         WeaponKind = 1
	WeaponLightningGun    WeaponKind = 2
	WeaponBlaster         WeaponKind = 3
	WeaponGrenadeLauncher WeaponKind = 4

	numWeaponKinds = 5
)

// Key returns the identity key, e.g. "w3"
func (k WeaponKind) Key() string {
	return "w" + strconv.Itoa(int(k))
}

// Name returns the HUD label
func (k WeaponKind) Name() string {
	return weaponSpecs[k].name
}

// ParseWeaponKey resolves "w0".."w4". Unknown keys return ok=false.
func ParseWeaponKey(key string) (WeaponKind, bool) {
	if len(key) != 2 || key[0] != 'w' || key[1] < '0' || key[1] > '9' {
		return 0, false
	}
	k := WeaponKind(key[1] - '0')
	if k < 0 || k >= numWeaponKinds {
		return 0, false
	}
	return k, true
}

// WeaponKindFromIndex maps the 1-based wire index to a kind.
func WeaponKindFromIndex(idx int) (WeaponKind, bool) {
	k := WeaponKind(idx - 1)
	if k < 0 || k >= numWeaponKinds {
		return 0, false
	}
	return k, true
}

// Weapon tuning
const (
	WeaponRespawn      = 10.0 // seconds a collected pickup stays inactive
	MeleeReach         = 40.0
	MeleeSize          = 70.0
	MeleeLifetime      = 1.0 / 12
	BlasterSpeed       = 1600.0
	BlasterSize        = 10.0
	BlasterLifetime    = 10.0
	LightningLength    = 800.0
	ShotGunPelletCount = 6
	ShotGunSpread      = 0.1 // radians across all pellets
	ShotGunLength      = 3000.0
	GrenadeSpeed       = 900.0
	GrenadeWidth       = 15.0
	GrenadeHeight      = 10.0
	GrenadeLifetime    = 2.5
	GrenadeLoft        = 0.3 // added to the unit aim direction's Y
	weaponSwitchDelay  = 500 * time.Millisecond
)

type weaponSpec struct {
	name          string
	reload        time.Duration
	ammo          int
	maxAmmo       int
	ammoPerPickup int
	damage        int
	knockback     float64
}

// weaponSpecs is static tuning, indexed by kind. Never mutated.
var weaponSpecs = [numWeaponKinds]weaponSpec{
	WeaponMelee:           {name: "melee", reload: 400 * time.Millisecond, ammo: 1, maxAmmo: 1, damage: 40, knockback: 300},
	WeaponShotGun:         {name: "shotgun", reload: 500 * time.Millisecond, ammo: 25, maxAmmo: 50, ammoPerPickup: 25, damage: 4, knockback: 30},
	WeaponLightningGun:    {name: "lightning gun", reload: 50 * time.Millisecond, ammo: 50, maxAmmo: 50, ammoPerPickup: 25, damage: 8, knockback: 70},
	WeaponBlaster:         {name: "blaster", reload: 800 * time.Millisecond, ammo: 10, maxAmmo: 15, ammoPerPickup: 5, damage: 110, knockback: 500},
	WeaponGrenadeLauncher: {name: "grenades", reload: 600 * time.Millisecond, ammo: 10, maxAmmo: 15, ammoPerPickup: 5, damage: 120, knockback: 700},
}

// FireResult is the outcome of a trigger pull
type FireResult int

const (
	FireOK FireResult = iota
	FireCooling
	FireNoAmmo
)

func (r FireResult) String() string {
	switch r {
	case FireOK:
		return "ok"
	case FireCooling:
		return "cooling"
	case FireNoAmmo:
		return "no ammo"
	}
	return "unknown"
}

// Dispatchable is anything a weapon hands to the projectile manager:
// *Projectile, *HitScanLine or *ShotGunPellets.
type Dispatchable interface {
	dispatchable()
}

// DispatchFunc routes a freshly created projectile or hitscan.
type DispatchFunc func(Dispatchable)

// Weapon is one owned weapon, or the template behind a world pickup.
type Weapon struct {
	Kind          WeaponKind
	Owner         int
	Damage        int
	Knockback     float64
	Reload        time.Duration
	Ammo          int
	MaxAmmo       int
	AmmoPerPickup int
	Active        time.Duration // remaining cooldown
	Respawn       float64       // pickup respawn delay, seconds
	Inactive      float64       // pickup countdown, seconds

	dispatch DispatchFunc
}

// NewWeapon creates a weapon owned by owner that sends what it fires to dispatch.
func NewWeapon(kind WeaponKind, owner int, dispatch DispatchFunc) *Weapon {
	s := weaponSpecs[kind]
	return &Weapon{
		Kind:          kind,
		Owner:         owner,
		Damage:        s.damage,
		Knockback:     s.knockback,
		Reload:        s.reload,
		Ammo:          s.ammo,
		MaxAmmo:       s.maxAmmo,
		AmmoPerPickup: s.ammoPerPickup,
		Respawn:       WeaponRespawn,
		dispatch:      dispatch,
	}
}

// Key returns the identity key
func (w *Weapon) Key() string {
	return w.Kind.Key()
}

// Equal compares by identity key: two blasters are interchangeable.
func (w *Weapon) Equal(o *Weapon) bool {
	if w == nil || o == nil {
		return w == o
	}
	return w.Kind == o.Kind
}

// Ready reports whether the weapon can fire right now
func (w *Weapon) Ready() bool {
	return w.Active == 0 && w.Ammo > 0
}

// Fire pulls the trigger from pos (player min corner) toward aim. An empty
// weapon reports FireNoAmmo even while cooling down.
func (w *Weapon) Fire(pos, aim Vec2) FireResult {
	if w.Ammo <= 0 {
		return FireNoAmmo
	}
	if w.Active > 0 {
		return FireCooling
	}
	w.Active = w.Reload
	w.Ammo--
	if !w.onFire(pos, aim) {
		// nothing spawned, keep the round
		w.Ammo++
	}
	return FireOK
}

// Update advances the cooldown by dt seconds
func (w *Weapon) Update(dt float64) {
	if w.Active <= 0 {
		return
	}
	w.Active -= time.Duration(dt * float64(time.Second))
	if w.Active < 0 {
		w.Active = 0
	}
}

// Apply hands this pickup to a player's inventory: an unowned weapon is
// granted, an owned one is topped up. The pickup goes inactive only when
// something was transferred.
func (w *Weapon) Apply(wm *WeaponsManager) bool {
	owned, ok := wm.weapons[w.Kind]
	if !ok {
		wm.Pickup(w.Kind)
		w.Inactive = w.Respawn
		return true
	}
	if owned.Ammo < owned.MaxAmmo {
		owned.Ammo = min(owned.Ammo+w.AmmoPerPickup, owned.MaxAmmo)
		w.Inactive = w.Respawn
		return true
	}
	return false
}

// onFire spawns the kind-specific projectile. It returns false when the aim
// is degenerate and nothing was dispatched, in which case the round is
// handed back.
func (w *Weapon) onFire(pos, aim Vec2) bool {
	muzzle := pos.Add(MuzzleOffset)
	dr := aim.Sub(muzzle)

	switch w.Kind {
	case WeaponMelee:
		// melee has no ammo economy
		w.Ammo++
		dir, _ := unitOf(dr)
		offset := dir.Mul(math.Min(dr.Len(), MeleeReach))
		w.emit(NewMeleeProjectile(w.Owner, w.Damage, w.Knockback, pos, offset, dir, w.dispatch))
		return true

	case WeaponBlaster:
		dir, ok := unitOf(dr)
		if !ok {
			return false
		}
		w.emit(NewBlasterProjectile(w.Owner, muzzle, dir, w.dispatch))
		return true

	case WeaponLightningGun:
		if _, ok := unitOf(dr); !ok {
			return false
		}
		w.emit(NewHitScanLine(w.Owner, muzzle, dr, LightningLength, w.Damage, w.Knockback, TypeLightning))
		return true

	case WeaponShotGun:
		if _, ok := unitOf(dr); !ok {
			return false
		}
		w.emit(NewShotGunPellets(w.Owner, muzzle, dr, w.Damage, ShotGunPelletCount, w.Knockback, ShotGunLength))
		return true

	case WeaponGrenadeLauncher:
		dir, ok := unitOf(dr)
		if !ok {
			return false
		}
		w.emit(NewNadeProjectile(w.Owner, muzzle, dir.Add(Vec2{0, GrenadeLoft}), w.dispatch))
		return true
	}
	return false
}

func (w *Weapon) emit(d Dispatchable) {
	if w.dispatch != nil {
		w.dispatch(d)
	}
}

// spread returns num unit directions fanned across angle radians around
// (dx, dy). The center index uses floor division, so an even count leans
// one step toward the negative side.
func spread(dx, dy, angle float64, num int) []Vec2 {
	if num <= 0 {
		return nil
	}
	base := math.Atan2(dy, dx)
	step := angle / float64(num)
	a := num / 2
	dirs := make([]Vec2, num)
	for i := range dirs {
		theta := base + float64(i-a)*step
		dirs[i] = Vec2{math.Cos(theta), math.Sin(theta)}
	}
	return dirs
}
