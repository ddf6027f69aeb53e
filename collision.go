package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the world vector type. The world is y-up.
type Vec2 = mgl64.Vec2

// unitOf returns v scaled to length 1, or false for a zero-length vector.
func unitOf(v Vec2) (Vec2, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}, false
	}
	return v.Mul(1 / l), true
}

// mulComponents multiplies two vectors component-wise.
func mulComponents(a, b Vec2) Vec2 {
	return Vec2{a[0] * b[0], a[1] * b[1]}
}

// Rect is an axis-aligned rectangle anchored at its min corner.
type Rect struct {
	X, Y float64
	W, H float64
}

// RectAround builds a rectangle of the given size centered on c.
func RectAround(c Vec2, w, h float64) Rect {
	return Rect{X: c[0] - w/2, Y: c[1] - h/2, W: w, H: h}
}

// Min returns the min corner.
func (r Rect) Min() Vec2 { return Vec2{r.X, r.Y} }

func (r Rect) MaxX() float64 { return r.X + r.W }

func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the middle of the rectangle
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.W/2, r.Y + r.H/2}
}

// At returns the rectangle moved so its min corner sits at p.
func (r Rect) At(p Vec2) Rect {
	r.X, r.Y = p[0], p[1]
	return r
}

// Moved returns the rectangle translated by d.
func (r Rect) Moved(d Vec2) Rect {
	r.X += d[0]
	r.Y += d[1]
	return r
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.MaxX(), o.MaxX())
	y1 := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Overlaps reports whether the interiors of r and o intersect. Touching
// edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.MaxX() && o.X < r.MaxX() && r.Y < o.MaxY() && o.Y < r.MaxY()
}

// Sweep moves r by vel over dt seconds against the static rectangle o and
// returns the contact normal and the time of impact within [0, dt).
// Rectangles that already overlap, or a zero displacement, never report a
// contact.
func (r Rect) Sweep(vel Vec2, o Rect, dt float64) (Vec2, float64, bool) {
	dx := vel[0] * dt
	dy := vel[1] * dt
	if dx == 0 && dy == 0 {
		return Vec2{}, 0, false
	}

	xEntry, xExit, ok := sweepAxis(r.X, r.MaxX(), o.X, o.MaxX(), dx)
	if !ok {
		return Vec2{}, 0, false
	}
	yEntry, yExit, ok := sweepAxis(r.Y, r.MaxY(), o.Y, o.MaxY(), dy)
	if !ok {
		return Vec2{}, 0, false
	}

	entry := math.Max(xEntry, yEntry)
	exit := math.Min(xExit, yExit)
	if entry > exit || (xEntry < 0 && yEntry < 0) || entry < 0 || entry >= 1 {
		return Vec2{}, 0, false
	}

	var normal Vec2
	if xEntry > yEntry {
		normal[0] = -math.Copysign(1, dx)
	} else {
		normal[1] = -math.Copysign(1, dy)
	}
	return normal, entry * dt, true
}

// sweepAxis returns the entry and exit fractions of the moving span
// [a0, a1] against [b0, b1] for displacement d. A zero displacement yields
// an unbounded interval when the spans overlap and ok=false otherwise.
func sweepAxis(a0, a1, b0, b1, d float64) (entry, exit float64, ok bool) {
	if d == 0 {
		if a1 <= b0 || b1 <= a0 {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	if d > 0 {
		return (b0 - a1) / d, (b1 - a0) / d, true
	}
	return (b1 - a0) / d, (b0 - a1) / d, true
}

// Line is a ray segment starting at Origin along the unit vector Unit.
type Line struct {
	Origin Vec2
	Unit   Vec2
	Length float64
}

// NewLine builds a line toward dir. A zero direction yields a line with a
// zero unit vector that never intersects anything.
func NewLine(origin, dir Vec2, length float64) Line {
	u, _ := unitOf(dir)
	return Line{Origin: origin, Unit: u, Length: length}
}

// Bounds returns the rectangle covering the whole segment.
func (l Line) Bounds() Rect {
	end := l.Origin.Add(l.Unit.Mul(l.Length))
	return Rect{X: l.Origin[0], Y: l.Origin[1]}.Union(Rect{X: end[0], Y: end[1]})
}

// Intersect returns the distance along the line at which it first enters r,
// if that happens within Length. A line starting inside r hits at 0.
func (l Line) Intersect(r Rect) (float64, bool) {
	if l.Unit == (Vec2{}) {
		return 0, false
	}
	tmin := 0.0
	tmax := l.Length
	lo := [2]float64{r.X, r.Y}
	hi := [2]float64{r.MaxX(), r.MaxY()}
	for i := 0; i < 2; i++ {
		o, d := l.Origin[i], l.Unit[i]
		if d == 0 {
			if o < lo[i] || o > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o) / d
		t2 := (hi[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
