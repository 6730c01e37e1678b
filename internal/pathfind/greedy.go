package pathfind

// GreedyStep implements greedy pursuit step: the single-tile
// move that most reduces Chebyshev distance from "from" to "to", without ever
// stepping onto "to" itself and without ever stepping onto an unwalkable
// tile. Returns (next, true) on success, or (from, false) when no candidate
// tile is acceptable (the caller should treat this as "no move").
func GreedyStep(from, to Point, w WalkabilityProvider) (Point, bool) {
	if from == to {
		return from, false
	}

	stepX := sign(to.X - from.X)
	stepY := sign(to.Y - from.Y)

	try := func(p Point) (Point, bool) {
		if p == to {
			return from, false
		}
		if !w.IsWalkable(p) {
			return from, false
		}
		return p, true
	}

	if stepX != 0 && stepY != 0 {
		diag := Point{from.X + stepX, from.Y + stepY}
		if next, ok := try(diag); ok {
			return next, true
		}
	}

	dx := to.X - from.X
	if dx < 0 {
		dx = -dx
	}
	dy := to.Y - from.Y
	if dy < 0 {
		dy = -dy
	}

	// Prefer the longer axis; tie prefers Y.
	axes := [2]Point{}
	if dx > dy {
		axes[0] = Point{from.X + stepX, from.Y}
		axes[1] = Point{from.X, from.Y + stepY}
	} else {
		axes[0] = Point{from.X, from.Y + stepY}
		axes[1] = Point{from.X + stepX, from.Y}
	}

	for _, candidate := range axes {
		if candidate == from {
			continue
		}
		if next, ok := try(candidate); ok {
			return next, true
		}
	}

	return from, false
}
