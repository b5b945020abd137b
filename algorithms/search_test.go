package algorithms

import (
	"testing"

	"go.viam.com/test"

	"blockpush-backend/models"
)

func assertValidPath(t *testing.T, g *Grid, path []models.Cell, start, goal models.Cell) {
	t.Helper()
	test.That(t, path, test.ShouldNotBeEmpty)
	test.That(t, path[0], test.ShouldResemble, start)
	test.That(t, path[len(path)-1], test.ShouldResemble, goal)
	test.That(t, IsContiguous(path), test.ShouldBeTrue)

	seen := map[models.Cell]bool{}
	for i, c := range path {
		test.That(t, seen[c], test.ShouldBeFalse)
		seen[c] = true
		if i > 0 {
			test.That(t, g.GetCell(c.X, c.Y), test.ShouldEqual, models.CellFree)
		}
	}
}

func TestFindPathUnweighted(t *testing.T) {
	g := NewGrid(8, 6, 1)
	pairs := [][2]models.Cell{
		{{X: 0, Y: 0}, {X: 4, Y: 3}},
		{{X: 7, Y: 5}, {X: 0, Y: 0}},
		{{X: 3, Y: 0}, {X: 3, Y: 5}},
		{{X: 6, Y: 2}, {X: 1, Y: 2}},
	}
	for _, p := range pairs {
		start, goal := p[0], p[1]
		path := FindPath(g, start, goal, SearchOptions{})
		assertValidPath(t, g, path, start, goal)
		test.That(t, len(path)-1, test.ShouldEqual, ManhattanDistance(start, goal))
	}
}

func TestFindPathStartIsGoal(t *testing.T) {
	g := NewGrid(3, 3, 1)
	start := models.Cell{X: 1, Y: 1}
	test.That(t, FindPath(g, start, start, SearchOptions{TurnPenalty: 5}), test.ShouldResemble, []models.Cell{start})
}

func TestFindPathWithObstacles(t *testing.T) {
	t.Run("detours around a wall gap", func(t *testing.T) {
		g := NewGrid(5, 5, 1)
		for y := 0; y < 4; y++ {
			g.SetCell(2, y, models.CellBlocked)
		}
		start, goal := models.Cell{X: 0, Y: 0}, models.Cell{X: 4, Y: 0}
		path := FindPath(g, start, goal, SearchOptions{})
		assertValidPath(t, g, path, start, goal)
		test.That(t, path, test.ShouldContain, models.Cell{X: 2, Y: 4})
		test.That(t, len(path)-1, test.ShouldEqual, 12)
	})

	t.Run("fully walled goal returns empty", func(t *testing.T) {
		g := NewGrid(5, 5, 1)
		for y := 0; y < 5; y++ {
			g.SetCell(2, y, models.CellBlocked)
		}
		res := Search(g, models.Cell{X: 0, Y: 0}, models.Cell{X: 4, Y: 0}, SearchOptions{TurnPenalty: 5})
		test.That(t, res.Found(), test.ShouldBeFalse)
		test.That(t, res.Path, test.ShouldBeEmpty)
		test.That(t, res.Expanded, test.ShouldBeGreaterThan, 0)
	})

	t.Run("blocked goal cell returns empty", func(t *testing.T) {
		g := NewGrid(4, 4, 1)
		g.SetCell(3, 3, models.CellBlocked)
		test.That(t, FindPath(g, models.Cell{}, models.Cell{X: 3, Y: 3}, SearchOptions{}), test.ShouldBeEmpty)
	})

	t.Run("goal outside grid returns empty", func(t *testing.T) {
		g := NewGrid(4, 4, 1)
		test.That(t, FindPath(g, models.Cell{}, models.Cell{X: 9, Y: 0}, SearchOptions{}), test.ShouldBeEmpty)
	})

	t.Run("expansion ceiling keeps the empty result contract", func(t *testing.T) {
		g := NewGrid(20, 20, 1)
		res := Search(g, models.Cell{}, models.Cell{X: 19, Y: 19}, SearchOptions{MaxExpansions: 3})
		test.That(t, res.Path, test.ShouldBeEmpty)
	})
}

// 최적성은 TurnPenalty == 0일 때만 보장된다. 회전 비용이 있으면 휴리스틱이 회전을
// 세지 못하고 셀마다 최선 g 하나만 남기므로 결과는 좋은 경로일 뿐 최적이라는 보장은 없다.
// 아래 검사는 이 격자에서 관찰되는 결정적 결과를 고정한다.
func TestTurnPenaltyPrefersFewerTurns(t *testing.T) {
	g := NewGrid(6, 6, 1)
	start, goal := models.Cell{X: 0, Y: 0}, models.Cell{X: 4, Y: 4}

	// 회전 비용 0: 최단 경로 보장
	plain := Search(g, start, goal, SearchOptions{})
	test.That(t, plain.Cost, test.ShouldAlmostEqual, float64(ManhattanDistance(start, goal)))
	test.That(t, len(plain.Path)-1, test.ShouldEqual, ManhattanDistance(start, goal))

	weighted := FindPath(g, start, goal, SearchOptions{TurnPenalty: 5})
	assertValidPath(t, g, weighted, start, goal)
	test.That(t, CountTurns(weighted), test.ShouldEqual, 1)
	test.That(t, len(weighted)-1, test.ShouldEqual, ManhattanDistance(start, goal))
	test.That(t, PathCost(weighted, SearchOptions{TurnPenalty: 5}), test.ShouldAlmostEqual, 13.0)

	// 동일 입력은 항상 같은 경로
	for i := 0; i < 5; i++ {
		test.That(t, FindPath(g, start, goal, SearchOptions{TurnPenalty: 5}), test.ShouldResemble, weighted)
	}
}

func TestBlockPathExample(t *testing.T) {
	// 10x10 빈 격자, 블록 (7,7) → (5,5), 회전 비용 5
	g := NewGrid(10, 10, 1)
	path := FindPath(g, models.Cell{X: 7, Y: 7}, models.Cell{X: 5, Y: 5}, SearchOptions{TurnPenalty: 5})
	test.That(t, path, test.ShouldResemble, []models.Cell{
		{X: 7, Y: 7}, {X: 6, Y: 7}, {X: 5, Y: 7}, {X: 5, Y: 6}, {X: 5, Y: 5},
	})
	test.That(t, CountTurns(path), test.ShouldEqual, 1)
}

func TestDirectionOf(t *testing.T) {
	c := models.Cell{X: 3, Y: 3}
	test.That(t, DirectionOf(c, models.Cell{X: 4, Y: 3}), test.ShouldEqual, DirEast)
	test.That(t, DirectionOf(c, models.Cell{X: 2, Y: 3}), test.ShouldEqual, DirWest)
	test.That(t, DirectionOf(c, models.Cell{X: 3, Y: 4}), test.ShouldEqual, DirSouth)
	test.That(t, DirectionOf(c, models.Cell{X: 3, Y: 2}), test.ShouldEqual, DirNorth)
	test.That(t, DirectionOf(c, models.Cell{X: 4, Y: 4}), test.ShouldEqual, DirNone)
	test.That(t, DirEast.Vector(), test.ShouldResemble, models.Cell{X: 1, Y: 0})
	test.That(t, DirNorth.String(), test.ShouldEqual, "north")
}
