package services

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

func newTestPlanner(t *testing.T, width, height int) *MissionPlanner {
	t.Helper()
	return NewMissionPlanner(algorithms.NewGrid(width, height, 1), DefaultPlannerOptions(), zaptest.NewLogger(t).Sugar())
}

func repeat(a models.Action, n int) []models.Action {
	out := make([]models.Action, n)
	for i := range out {
		out[i] = a
	}
	return out
}

func TestDockingCell(t *testing.T) {
	test.That(t, DockingCell(models.Cell{X: 7, Y: 7}, models.Cell{X: 6, Y: 7}), test.ShouldResemble, models.Cell{X: 8, Y: 7})
	test.That(t, DockingCell(models.Cell{X: 2, Y: 2}, models.Cell{X: 2, Y: 3}), test.ShouldResemble, models.Cell{X: 2, Y: 1})
}

func TestGenerateMissionEndToEnd(t *testing.T) {
	p := newTestPlanner(t, 10, 10)
	block := p.PlaceBlock(*models.NewBlock("crate", models.Cell{X: 7, Y: 7}))

	m := p.GenerateMission(models.MissionRequest{
		BlockID: block.ID,
		Robot:   models.Pose{Cell: models.Cell{X: 0, Y: 0}, Heading: models.HeadingEast},
		Goal:    models.Cell{X: 5, Y: 5},
	})
	test.That(t, m.Err, test.ShouldBeNil)
	test.That(t, m.Status, test.ShouldEqual, models.MissionReady)
	test.That(t, m.ID, test.ShouldNotBeEmpty)
	test.That(t, m.Start, test.ShouldResemble, models.Cell{X: 7, Y: 7})

	test.That(t, m.BlockPath, test.ShouldResemble, []models.Cell{
		{X: 7, Y: 7}, {X: 6, Y: 7}, {X: 5, Y: 7}, {X: 5, Y: 6}, {X: 5, Y: 5},
	})
	test.That(t, *m.DockingCell, test.ShouldResemble, models.Cell{X: 8, Y: 7})
	test.That(t, m.ApproachPath, test.ShouldHaveLength, 16)
	test.That(t, m.ApproachPath[len(m.ApproachPath)-1], test.ShouldResemble, models.Cell{X: 8, Y: 7})
	test.That(t, m.FinalHeading, test.ShouldEqual, models.HeadingWest)

	var want []models.Action
	want = append(want, repeat(models.ActionForward, 8)...)
	want = append(want, models.ActionTurnRight)
	want = append(want, repeat(models.ActionForward, 7)...)
	want = append(want, models.ActionTurnRight, models.ActionAlign)
	want = append(want, models.ActionPush, models.ActionPush,
		models.ActionTurnLeft, models.ActionForward, models.ActionTurnRight, models.ActionForward, models.ActionTurnRight,
		models.ActionPush, models.ActionPush)
	test.That(t, m.Actions, test.ShouldResemble, want)
	test.That(t, m.ApproachCount, test.ShouldEqual, 17)
	test.That(t, m.TransportCount, test.ShouldEqual, 9)
	test.That(t, m.Pushes(), test.ShouldEqual, 4)
	test.That(t, CountManeuvers(m.Actions[m.ApproachCount+1:]), test.ShouldEqual, 1)

	// 계획은 격자를 바꾸지 않는다
	test.That(t, p.GetCell(models.Cell{X: 7, Y: 7}), test.ShouldEqual, models.CellBlocked)
	test.That(t, strings.Count(p.Grid().String(), "#"), test.ShouldEqual, 1)
}

func TestGenerateMissionDeterministic(t *testing.T) {
	p := newTestPlanner(t, 10, 10)
	req := models.MissionRequest{
		Robot: models.Pose{Cell: models.Cell{X: 0, Y: 0}, Heading: models.HeadingEast},
		Start: models.Cell{X: 7, Y: 7},
		Goal:  models.Cell{X: 5, Y: 5},
	}
	first := p.GenerateMission(req)
	second := p.GenerateMission(req)
	test.That(t, second.Actions, test.ShouldResemble, first.Actions)
	test.That(t, second.BlockPath, test.ShouldResemble, first.BlockPath)
	test.That(t, second.ID, test.ShouldNotEqual, first.ID)

	// 블록이 등록되지 않은 경우에도 임시로 막은 셀은 원래대로 돌아온다
	test.That(t, p.GetCell(models.Cell{X: 7, Y: 7}), test.ShouldEqual, models.CellFree)
}

func TestGenerateMissionAlreadyAtGoal(t *testing.T) {
	p := newTestPlanner(t, 5, 5)
	called := false
	p.search = func(g algorithms.Occupancy, s, e models.Cell, o algorithms.SearchOptions) []models.Cell {
		called = true
		return algorithms.FindPath(g, s, e, o)
	}

	m := p.GenerateMission(models.MissionRequest{
		Robot: models.Pose{Cell: models.Cell{X: 0, Y: 0}},
		Start: models.Cell{X: 2, Y: 2},
		Goal:  models.Cell{X: 2, Y: 2},
	})
	test.That(t, m.Status, test.ShouldEqual, models.MissionAlreadyAtGoal)
	test.That(t, m.Succeeded(), test.ShouldBeTrue)
	test.That(t, m.Actions, test.ShouldBeEmpty)
	test.That(t, m.DockingCell, test.ShouldBeNil)
	test.That(t, called, test.ShouldBeFalse)
}

func TestGenerateMissionNoBlockPath(t *testing.T) {
	p := newTestPlanner(t, 10, 10)
	for _, c := range []models.Cell{{X: 4, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 6}} {
		test.That(t, p.SetCell(c, models.CellBlocked), test.ShouldBeNil)
	}

	m := p.GenerateMission(models.MissionRequest{
		Robot: models.Pose{Cell: models.Cell{X: 0, Y: 0}},
		Start: models.Cell{X: 7, Y: 7},
		Goal:  models.Cell{X: 5, Y: 5},
	})
	test.That(t, m.Status, test.ShouldEqual, models.MissionInfeasible)
	test.That(t, m.Succeeded(), test.ShouldBeFalse)
	test.That(t, m.Actions, test.ShouldBeEmpty)
	test.That(t, errors.Is(m.Err, ErrNoBlockPath), test.ShouldBeTrue)
}

func TestGenerateMissionNoApproachPath(t *testing.T) {
	p := newTestPlanner(t, 10, 10)
	// 로봇을 (0,0)에 가둔다
	test.That(t, p.SetCell(models.Cell{X: 1, Y: 0}, models.CellBlocked), test.ShouldBeNil)
	test.That(t, p.SetCell(models.Cell{X: 0, Y: 1}, models.CellBlocked), test.ShouldBeNil)

	m := p.GenerateMission(models.MissionRequest{
		Robot: models.Pose{Cell: models.Cell{X: 0, Y: 0}, Heading: models.HeadingEast},
		Start: models.Cell{X: 7, Y: 7},
		Goal:  models.Cell{X: 5, Y: 5},
	})
	test.That(t, m.Status, test.ShouldEqual, models.MissionInfeasible)
	test.That(t, m.Actions, test.ShouldBeEmpty)
	test.That(t, errors.Is(m.Err, ErrNoApproachPath), test.ShouldBeTrue)
	test.That(t, m.BlockPath, test.ShouldNotBeEmpty)
	test.That(t, p.GetCell(models.Cell{X: 7, Y: 7}), test.ShouldEqual, models.CellFree)
}

func TestGenerateMissionUnknownBlock(t *testing.T) {
	p := newTestPlanner(t, 5, 5)
	m := p.GenerateMission(models.MissionRequest{BlockID: "missing", Goal: models.Cell{X: 1, Y: 1}})
	test.That(t, m.Status, test.ShouldEqual, models.MissionInfeasible)
	test.That(t, errors.Is(m.Err, ErrBlockNotFound), test.ShouldBeTrue)
}

func TestApproachPhase(t *testing.T) {
	t.Run("already docked and facing the block", func(t *testing.T) {
		p := newTestPlanner(t, 10, 10)
		res, err := p.ApproachPhase(
			models.Pose{Cell: models.Cell{X: 8, Y: 7}, Heading: models.HeadingWest},
			models.Cell{X: 7, Y: 7}, models.Cell{X: 6, Y: 7})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Actions, test.ShouldBeEmpty)
		test.That(t, res.Path, test.ShouldResemble, []models.Cell{{X: 8, Y: 7}})
		test.That(t, res.FinalHeading, test.ShouldEqual, models.HeadingWest)
	})

	t.Run("docked but facing away turns around", func(t *testing.T) {
		p := newTestPlanner(t, 10, 10)
		res, err := p.ApproachPhase(
			models.Pose{Cell: models.Cell{X: 8, Y: 7}, Heading: models.HeadingEast},
			models.Cell{X: 7, Y: 7}, models.Cell{X: 6, Y: 7})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Actions, test.ShouldResemble, []models.Action{models.ActionTurnRight, models.ActionTurnRight})
	})

	t.Run("docking cell outside grid", func(t *testing.T) {
		p := newTestPlanner(t, 10, 10)
		_, err := p.ApproachPhase(
			models.Pose{Cell: models.Cell{X: 0, Y: 0}},
			models.Cell{X: 9, Y: 3}, models.Cell{X: 8, Y: 3})
		test.That(t, errors.Is(err, ErrNoApproachPath), test.ShouldBeTrue)
		test.That(t, p.GetCell(models.Cell{X: 9, Y: 3}), test.ShouldEqual, models.CellFree)
	})

	t.Run("restores the block cell when the search panics", func(t *testing.T) {
		p := newTestPlanner(t, 10, 10)
		p.search = func(algorithms.Occupancy, models.Cell, models.Cell, algorithms.SearchOptions) []models.Cell {
			panic("search failed")
		}
		func() {
			defer func() {
				test.That(t, recover(), test.ShouldNotBeNil)
			}()
			_, _ = p.ApproachPhase(models.Pose{}, models.Cell{X: 7, Y: 7}, models.Cell{X: 6, Y: 7})
		}()
		test.That(t, p.GetCell(models.Cell{X: 7, Y: 7}), test.ShouldEqual, models.CellFree)
	})
}

func TestCommitPush(t *testing.T) {
	p := newTestPlanner(t, 5, 5)
	b := p.PlaceBlock(*models.NewBlock("", models.Cell{X: 1, Y: 1}))
	test.That(t, b.ID, test.ShouldNotBeEmpty)
	test.That(t, p.GetCell(models.Cell{X: 1, Y: 1}), test.ShouldEqual, models.CellBlocked)

	test.That(t, p.CommitPush(b.ID, models.Cell{X: 2, Y: 1}), test.ShouldBeNil)
	test.That(t, p.GetCell(models.Cell{X: 1, Y: 1}), test.ShouldEqual, models.CellFree)
	test.That(t, p.GetCell(models.Cell{X: 2, Y: 1}), test.ShouldEqual, models.CellBlocked)

	moved, err := p.Blocks().Get(b.ID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moved.Cell(), test.ShouldResemble, models.Cell{X: 2, Y: 1})

	test.That(t, p.CommitPush(b.ID, models.Cell{X: 9, Y: 9}), test.ShouldNotBeNil)
	test.That(t, errors.Is(p.CommitPush("nope", models.Cell{X: 0, Y: 0}), ErrBlockNotFound), test.ShouldBeTrue)

	removed, err := p.RemoveBlock(b.ID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed.ID, test.ShouldEqual, b.ID)
	test.That(t, p.GetCell(models.Cell{X: 2, Y: 1}), test.ShouldEqual, models.CellFree)
}

func TestClearGridKeepsBlocks(t *testing.T) {
	p := newTestPlanner(t, 4, 4)
	p.PlaceBlock(*models.NewBlock("b1", models.Cell{X: 3, Y: 3}))
	test.That(t, p.SetCell(models.Cell{X: 0, Y: 2}, models.CellBlocked), test.ShouldBeNil)
	test.That(t, p.SetCell(models.Cell{X: 4, Y: 0}, models.CellBlocked), test.ShouldNotBeNil)

	p.ClearGrid()
	snap := p.Snapshot()
	test.That(t, snap.Rows, test.ShouldResemble, []string{"....", "....", "....", "...#"})
	test.That(t, snap.Blocks, test.ShouldHaveLength, 1)
}

func TestSetCellsAllOrNothing(t *testing.T) {
	p := newTestPlanner(t, 5, 5)
	p.PlaceBlock(*models.NewBlock("b", models.Cell{X: 2, Y: 2}))

	err := p.SetCells([]CellAssignment{
		{Cell: models.Cell{X: 0, Y: 0}, State: models.CellBlocked},
		{Cell: models.Cell{X: 9, Y: 0}, State: models.CellBlocked},
	})
	test.That(t, errors.Is(err, ErrCellOutside), test.ShouldBeTrue)
	test.That(t, p.GetCell(models.Cell{X: 0, Y: 0}), test.ShouldEqual, models.CellFree)

	err = p.SetCells([]CellAssignment{
		{Cell: models.Cell{X: 0, Y: 0}, State: models.CellBlocked},
		{Cell: models.Cell{X: 2, Y: 2}, State: models.CellFree},
	})
	test.That(t, errors.Is(err, ErrCellOccupied), test.ShouldBeTrue)
	test.That(t, p.GetCell(models.Cell{X: 0, Y: 0}), test.ShouldEqual, models.CellFree)
	test.That(t, p.GetCell(models.Cell{X: 2, Y: 2}), test.ShouldEqual, models.CellBlocked)

	err = p.SetCells([]CellAssignment{
		{Cell: models.Cell{X: 0, Y: 0}, State: models.CellBlocked},
		{Cell: models.Cell{X: 1, Y: 0}, State: models.CellUnknown},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.GetCell(models.Cell{X: 0, Y: 0}), test.ShouldEqual, models.CellBlocked)
	test.That(t, p.GetCell(models.Cell{X: 1, Y: 0}), test.ShouldEqual, models.CellUnknown)
}
