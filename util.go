package main

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// finite reports whether every component of v is a real number
func finite(v Vec2) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// sortedPlayers returns the players ordered by id so collision tie-breaks
// and broadcast order are reproducible across runs.
func sortedPlayers(players map[int]*Player, includeDead bool) []*Player {
	out := make([]*Player, 0, len(players))
	for _, p := range players {
		if !includeDead && p.Dead {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// truncate trims s and cuts it to at most n runes
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
