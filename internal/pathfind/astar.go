package pathfind

import "container/heap"

// DefaultSearchBudget bounds how many nodes A* will expand before giving up.
// A path is returned iff one exists within that budget — unreachable goals
// (or goals behind a budget-exceeding maze) are a normal, non-error outcome.
const DefaultSearchBudget = 4096

type node struct {
	p        Point
	g        int // cost from start
	f        int // g + heuristic
	parent   *node
	heapIdx  int
}

type openSet []*node

func (o openSet) Len() int            { return len(o) }
func (o openSet) Less(i, j int) bool  { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].heapIdx = i
	o[j].heapIdx = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.heapIdx = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}

func heuristic(a, b Point) int {
	return ChebyshevDistance(a, b)
}

var neighborOffsets = [8]Point{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath runs a bounded A* search from start to goal over w, allowing
// 8-directional movement (the pathfinder itself is unconstrained; callers
// needing cardinal-only movement, e.g. for attack adjacency, check that
// separately). Returns the path including start and goal, or (nil, false) if
// no path is found within budget nodes expanded. Every consecutive pair of
// tiles in the returned path differs by at most one step in each axis.
func FindPath(start, goal Point, w WalkabilityProvider, budget int) ([]Point, bool) {
	if budget <= 0 {
		budget = DefaultSearchBudget
	}
	if start == goal {
		return []Point{start}, true
	}
	if !w.IsWalkable(goal) {
		return nil, false
	}

	open := &openSet{}
	heap.Init(open)
	start_ := &node{p: start, g: 0, f: heuristic(start, goal)}
	heap.Push(open, start_)

	bestG := map[Point]int{start: 0}

	expanded := 0
	for open.Len() > 0 {
		if expanded >= budget {
			return nil, false
		}
		expanded++

		current := heap.Pop(open).(*node)
		if current.p == goal {
			return reconstruct(current), true
		}

		for _, off := range neighborOffsets {
			np := Point{current.p.X + off.X, current.p.Y + off.Y}
			if np != goal && !w.IsWalkable(np) {
				continue
			}
			// Disallow cutting diagonally between two blocked cardinal tiles.
			if off.X != 0 && off.Y != 0 {
				if !w.IsWalkable(Point{current.p.X + off.X, current.p.Y}) &&
					!w.IsWalkable(Point{current.p.X, current.p.Y + off.Y}) {
					continue
				}
			}

			stepCost := 1
			if off.X != 0 && off.Y != 0 {
				stepCost = 2 // approximate sqrt(2) without floats, consistent ordering
			}
			g := current.g + stepCost

			if existingG, ok := bestG[np]; ok && existingG <= g {
				continue
			}
			bestG[np] = g
			n := &node{p: np, g: g, f: g + heuristic(np, goal), parent: current}
			heap.Push(open, n)
		}
	}

	return nil, false
}

func reconstruct(n *node) []Point {
	var path []Point
	for cur := n; cur != nil; cur = cur.parent {
		path = append(path, cur.p)
	}
	// reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
