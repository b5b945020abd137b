package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"blockpush-backend/models"
)

type eventRecorder struct {
	mu       sync.Mutex
	events   []models.MissionEvent
	messages []models.WebSocketMessage
}

func (r *eventRecorder) Record(e models.MissionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) Broadcast(msg models.WebSocketMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *eventRecorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func (r *eventRecorder) lastMessage() models.WebSocketMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

var examplePose = models.Pose{Cell: models.Cell{X: 0, Y: 0}, Heading: models.HeadingEast}

func setupExample(t *testing.T) (*MissionPlanner, *models.Mission) {
	t.Helper()
	p := newTestPlanner(t, 10, 10)
	b := p.PlaceBlock(*models.NewBlock("crate", models.Cell{X: 7, Y: 7}))
	m := p.GenerateMission(models.MissionRequest{BlockID: b.ID, Robot: examplePose, Goal: models.Cell{X: 5, Y: 5}})
	test.That(t, m.Status, test.ShouldEqual, models.MissionReady)
	return p, m
}

func TestExecutorRunMissionMovesBlockToGoal(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	p, m := setupExample(t)
	sim := NewSimRobotFromPlanner(p, examplePose, logger)
	rec := &eventRecorder{}
	exec := NewExecutor(p, sim, ExecutorOptions{RobotID: "sim-1", Events: rec, Broadcast: rec.Broadcast}, logger)

	test.That(t, exec.RunMission(context.Background(), m), test.ShouldBeNil)

	block, err := p.Blocks().Get("crate")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, block.Cell(), test.ShouldResemble, models.Cell{X: 5, Y: 5})
	test.That(t, p.GetCell(models.Cell{X: 5, Y: 5}), test.ShouldEqual, models.CellBlocked)
	test.That(t, p.GetCell(models.Cell{X: 7, Y: 7}), test.ShouldEqual, models.CellFree)

	id, ok := sim.BlockAt(models.Cell{X: 5, Y: 5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, "crate")

	pose, err := sim.Pose(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, models.Pose{Cell: models.Cell{X: 5, Y: 6}, Heading: models.HeadingNorth})

	_, pushes := sim.Stats()
	test.That(t, pushes, test.ShouldEqual, 4)
	test.That(t, rec.count(models.EventPush), test.ShouldEqual, 4)
	test.That(t, rec.count(models.EventDone), test.ShouldEqual, 1)
	test.That(t, rec.lastMessage().Type, test.ShouldEqual, models.MessageTypeMissionDone)

	status := exec.Status(context.Background())
	test.That(t, status.State, test.ShouldEqual, models.RobotState(models.StateCompleted))
	test.That(t, status.Executed, test.ShouldEqual, len(m.Actions))
	test.That(t, status.Pending, test.ShouldEqual, 0)
	test.That(t, status.WorldX, test.ShouldAlmostEqual, 5.5)
	test.That(t, status.WorldY, test.ShouldAlmostEqual, 6.5)
	test.That(t, exec.Busy(), test.ShouldBeFalse)
}

func TestExecutorStopsOnRobotError(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	p, m := setupExample(t)

	// 계획기가 모르는 벽
	world := p.Grid()
	world.SetCell(4, 0, models.CellBlocked)
	sim := NewSimRobot(world, p.Blocks().List(), examplePose, logger)
	rec := &eventRecorder{}
	exec := NewExecutor(p, sim, ExecutorOptions{Events: rec, Broadcast: rec.Broadcast}, logger)

	err := exec.RunMission(context.Background(), m)
	test.That(t, errors.Is(err, ErrMoveBlocked), test.ShouldBeTrue)
	test.That(t, exec.Queue().Len(), test.ShouldEqual, 0)
	test.That(t, exec.Busy(), test.ShouldBeFalse)
	test.That(t, rec.count(models.EventAction), test.ShouldEqual, 3)
	test.That(t, rec.count(models.EventError), test.ShouldEqual, 1)
	test.That(t, rec.lastMessage().Type, test.ShouldEqual, models.MessageTypeMissionError)

	pose, _ := sim.Pose(context.Background())
	test.That(t, pose.Cell, test.ShouldResemble, models.Cell{X: 3, Y: 0})

	block, _ := p.Blocks().Get("crate")
	test.That(t, block.Cell(), test.ShouldResemble, models.Cell{X: 7, Y: 7})
}

func TestExecutorSubmit(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	p, m := setupExample(t)
	exec := NewExecutor(p, NewSimRobotFromPlanner(p, examplePose, logger), ExecutorOptions{}, logger)

	infeasible := &models.Mission{Status: models.MissionInfeasible}
	test.That(t, exec.Submit(infeasible), test.ShouldEqual, ErrMissionNotReady)
	test.That(t, exec.Submit(nil), test.ShouldEqual, ErrMissionNotReady)

	test.That(t, exec.Submit(m), test.ShouldBeNil)
	test.That(t, exec.Queue().Len(), test.ShouldEqual, len(m.Actions))
	test.That(t, errors.Is(exec.Submit(m), ErrExecutorBusy), test.ShouldBeTrue)

	exec.Cancel()
	test.That(t, exec.Busy(), test.ShouldBeFalse)
	test.That(t, exec.Queue().HasNext(), test.ShouldBeFalse)

	done := &models.Mission{ID: "noop", Status: models.MissionAlreadyAtGoal}
	test.That(t, exec.Submit(done), test.ShouldBeNil)
	test.That(t, exec.Busy(), test.ShouldBeFalse)
}

func TestExecutorRunLoop(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	p, m := setupExample(t)
	exec := NewExecutor(p, NewSimRobotFromPlanner(p, examplePose, logger), ExecutorOptions{Tick: time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- exec.Run(ctx) }()

	test.That(t, exec.Submit(m), test.ShouldBeNil)
	deadline := time.Now().Add(5 * time.Second)
	for exec.Busy() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	test.That(t, exec.Busy(), test.ShouldBeFalse)

	cancel()
	test.That(t, <-done, test.ShouldBeNil)

	block, _ := p.Blocks().Get("crate")
	test.That(t, block.Cell(), test.ShouldResemble, models.Cell{X: 5, Y: 5})
}
