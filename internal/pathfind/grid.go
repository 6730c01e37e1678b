// Package pathfind implements the world's only two movement primitives: a
// bounded A* search over a walkability grid, and the discrete greedy-step
// function used by server-controlled actor pursuit. Both are pure functions
// of their inputs — neither holds or mutates any shared state — so either may
// be called from the tick task or from an ingress task preparing a move
// intent.
package pathfind

// Point is an integer world-tile coordinate.
type Point struct {
	X, Y int
}

// WalkabilityProvider answers whether a world tile can be stepped onto.
// Implementations may load terrain lazily; IsWalkable must not panic on
// out-of-bounds input, it must return false.
type WalkabilityProvider interface {
	IsWalkable(p Point) bool
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// IsAdjacentCardinal reports Manhattan distance exactly 1.
func IsAdjacentCardinal(a, b Point) bool {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// ChebyshevDistance is max(|dx|, |dy|).
func ChebyshevDistance(a, b Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
