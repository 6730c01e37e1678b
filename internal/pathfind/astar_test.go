package pathfind

import "testing"

func TestFindPath_StraightLine(t *testing.T) {
	path, ok := FindPath(Point{0, 0}, Point{4, 0}, allWalkable{}, 0)
	if !ok {
		t.Fatal("expected path to be found")
	}
	if path[0] != (Point{0, 0}) || path[len(path)-1] != (Point{4, 0}) {
		t.Fatalf("path endpoints wrong: %v", path)
	}
	for i := 1; i < len(path); i++ {
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			t.Fatalf("path step too large between %v and %v", path[i-1], path[i])
		}
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	blocked := blockedSet{}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				blocked[Point{dx, dy}] = true
			}
		}
	}
	_, ok := FindPath(Point{0, 0}, Point{6, 0}, blocked, 0)
	if ok {
		t.Fatal("expected no path out of a fully walled-in start")
	}
}

func TestFindPath_SameTile(t *testing.T) {
	path, ok := FindPath(Point{2, 2}, Point{2, 2}, allWalkable{}, 0)
	if !ok || len(path) != 1 {
		t.Fatalf("expected trivial single-tile path, got %v", path)
	}
}

func TestFindPath_GoalUnwalkable(t *testing.T) {
	blocked := blockedSet{Point{1, 0}: true}
	_, ok := FindPath(Point{0, 0}, Point{1, 0}, blocked, 0)
	if ok {
		t.Fatal("expected failure when goal tile is unwalkable")
	}
}

func TestFindPath_RespectsBudget(t *testing.T) {
	_, ok := FindPath(Point{0, 0}, Point{1000, 1000}, allWalkable{}, 10)
	if ok {
		t.Fatal("expected search to exhaust its budget on a far goal")
	}
}
