package main

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Arena is a static map: bounds, solid rectangles, spawn points and weapon
// pickups.
type Arena struct {
	Name      string
	Width     float64
	Height    float64
	Obstacles []Rect
	Spawns    []Vec2
	Pickups   []PickupSpot
}

// PickupSpot places a weapon pickup. Pos is the pickup's min corner.
type PickupSpot struct {
	Weapon WeaponKind
	Pos    Vec2
}

type arenaFile struct {
	Name      string       `mapstructure:"name"`
	Width     float64      `mapstructure:"width"`
	Height    float64      `mapstructure:"height"`
	Obstacles [][4]float64 `mapstructure:"obstacles"` // x, y, w, h
	Spawns    [][2]float64 `mapstructure:"spawns"`
	Pickups   []struct {
		Weapon string     `mapstructure:"weapon"`
		Pos    [2]float64 `mapstructure:"pos"`
	} `mapstructure:"pickups"`
}

// DefaultArena is the built-in two-level map
func DefaultArena() *Arena {
	return &Arena{
		Name:   "foundry",
		Width:  2400,
		Height: 1400,
		Obstacles: []Rect{
			{X: 0, Y: 0, W: 2400, H: 40},     // floor
			{X: 0, Y: 1360, W: 2400, H: 40},  // ceiling
			{X: 0, Y: 40, W: 40, H: 1320},    // left wall
			{X: 2360, Y: 40, W: 40, H: 1320}, // right wall
			{X: 300, Y: 300, W: 500, H: 30},
			{X: 1600, Y: 300, W: 500, H: 30},
			{X: 950, Y: 550, W: 500, H: 30},
			{X: 450, Y: 850, W: 400, H: 30},
			{X: 1550, Y: 850, W: 400, H: 30},
			{X: 1150, Y: 40, W: 100, H: 180},
		},
		Spawns: []Vec2{
			{600, 930}, {1750, 930}, {200, 40}, {2150, 40}, {1150, 580},
		},
		Pickups: []PickupSpot{
			{Weapon: WeaponLightningGun, Pos: Vec2{530, 330}},
			{Weapon: WeaponBlaster, Pos: Vec2{1830, 330}},
			{Weapon: WeaponGrenadeLauncher, Pos: Vec2{1180, 580}},
			{Weapon: WeaponShotGun, Pos: Vec2{1180, 220}},
		},
	}
}

// LoadArena reads an arena from a YAML file
func LoadArena(path string) (*Arena, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read arena %s: %w", path, err)
	}
	var f arenaFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode arena %s: %w", path, err)
	}

	a := &Arena{Name: f.Name, Width: f.Width, Height: f.Height}
	for _, o := range f.Obstacles {
		a.Obstacles = append(a.Obstacles, Rect{X: o[0], Y: o[1], W: o[2], H: o[3]})
	}
	for _, s := range f.Spawns {
		a.Spawns = append(a.Spawns, Vec2{s[0], s[1]})
	}
	for _, p := range f.Pickups {
		k, ok := ParseWeaponKey(p.Weapon)
		if !ok {
			return nil, fmt.Errorf("arena %s: unknown weapon key %q", path, p.Weapon)
		}
		a.Pickups = append(a.Pickups, PickupSpot{Weapon: k, Pos: Vec2{p.Pos[0], p.Pos[1]}})
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("arena %s: %w", path, err)
	}
	return a, nil
}

// Validate checks that the arena can host a match
func (a *Arena) Validate() error {
	var errs []error
	if a.Width <= 0 || a.Height <= 0 {
		errs = append(errs, fmt.Errorf("size must be positive, got %gx%g", a.Width, a.Height))
	}
	if len(a.Spawns) == 0 {
		errs = append(errs, errors.New("no spawn points"))
	}
	for i, o := range a.Obstacles {
		if o.W <= 0 || o.H <= 0 {
			errs = append(errs, fmt.Errorf("obstacle %d has empty size", i))
		}
	}
	return errors.Join(errs...)
}

// Bounds returns the arena rectangle
func (a *Arena) Bounds() Rect {
	return Rect{W: a.Width, H: a.Height}
}

// Index builds a fresh obstacle grid. Each match needs its own since
// queries mutate the grid's dedup stamps.
func (a *Arena) Index() *SpatialGrid {
	g := NewSpatialGrid(a.Width, a.Height)
	for _, o := range a.Obstacles {
		g.Insert(o)
	}
	return g
}
