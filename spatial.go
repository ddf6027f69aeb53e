package main

import "math"

// SpatialCellSize is ~2x the player height so a player touches at most a
// handful of cells.
const SpatialCellSize = 128.0

// ObstacleIndex answers "which static rectangles could touch this region".
// Implementations may return extra rectangles but must never miss one.
type ObstacleIndex interface {
	Retrieve(dst []Rect, region Rect) []Rect
}

// SpatialGrid is a fixed-size grid over the arena for broad-phase obstacle
// queries. Obstacles are static for the lifetime of a match.
type SpatialGrid struct {
	cols, rows int
	cells      [][]int // obstacle indices per cell
	obstacles  []Rect
	stamp      []uint32 // per-obstacle query stamp for dedup
	query      uint32
}

// NewSpatialGrid creates a grid covering a width x height world
func NewSpatialGrid(width, height float64) *SpatialGrid {
	cols := int(math.Ceil(width/SpatialCellSize)) + 1
	rows := int(math.Ceil(height/SpatialCellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: make([][]int, cols*rows),
	}
}

// cellRange returns the clamped cell span covering r
func (g *SpatialGrid) cellRange(r Rect) (minCX, minCY, maxCX, maxCY int) {
	minCX = clampInt(int(math.Floor(r.X/SpatialCellSize)), 0, g.cols-1)
	maxCX = clampInt(int(math.Floor(r.MaxX()/SpatialCellSize)), 0, g.cols-1)
	minCY = clampInt(int(math.Floor(r.Y/SpatialCellSize)), 0, g.rows-1)
	maxCY = clampInt(int(math.Floor(r.MaxY()/SpatialCellSize)), 0, g.rows-1)
	return
}

// Insert adds an obstacle to all cells overlapping its bounds
func (g *SpatialGrid) Insert(r Rect) {
	idx := len(g.obstacles)
	g.obstacles = append(g.obstacles, r)
	g.stamp = append(g.stamp, 0)
	minCX, minCY, maxCX, maxCY := g.cellRange(r)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			c := cy*g.cols + cx
			g.cells[c] = append(g.cells[c], idx)
		}
	}
}

// Len returns the number of obstacles in the grid.
func (g *SpatialGrid) Len() int {
	return len(g.obstacles)
}

// Retrieve appends every obstacle in cells touched by region to dst, each at
// most once, and returns the extended slice.
func (g *SpatialGrid) Retrieve(dst []Rect, region Rect) []Rect {
	if len(g.obstacles) == 0 {
		return dst
	}
	g.query++
	if g.query == 0 {
		// stamp wrapped; reset so stale stamps cannot match
		for i := range g.stamp {
			g.stamp[i] = 0
		}
		g.query = 1
	}
	minCX, minCY, maxCX, maxCY := g.cellRange(region)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			for _, idx := range g.cells[cy*g.cols+cx] {
				if g.stamp[idx] == g.query {
					continue
				}
				g.stamp[idx] = g.query
				dst = append(dst, g.obstacles[idx])
			}
		}
	}
	return dst
}
