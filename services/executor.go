package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blockpush-backend/models"
)

var (
	// ErrExecutorBusy - 다른 미션이 실행 중
	ErrExecutorBusy = errors.New("executor busy with another mission")
	// ErrMissionNotReady - 실행할 수 없는 미션 (계획 실패)
	ErrMissionNotReady = errors.New("mission is not executable")
)

// EventSink - 미션 이벤트 기록 대상
type EventSink interface {
	Record(event models.MissionEvent)
}

// ExecutorOptions - 실행기 설정
type ExecutorOptions struct {
	RobotID   string
	Mode      string
	Tick      time.Duration // 명령 하나당 간격 (0이면 대기 없이 연속 실행)
	Events    EventSink
	Broadcast func(models.WebSocketMessage)
}

// Executor - 명령 큐를 로봇에게 하나씩 전달
type Executor struct {
	planner *MissionPlanner
	robot   Robot
	queue   *ActionQueue
	opts    ExecutorOptions
	logger  *zap.SugaredLogger
	wake    chan struct{}

	stepMu sync.Mutex // 명령 실행 직렬화

	mu         sync.RWMutex
	current    *models.Mission
	executed   int
	state      models.RobotState
	lastPose   models.Pose
	lastUpdate time.Time
}

// NewExecutor - 실행기 생성
func NewExecutor(planner *MissionPlanner, robot Robot, opts ExecutorOptions, logger *zap.SugaredLogger) *Executor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Executor{
		planner:    planner,
		robot:      robot,
		queue:      NewActionQueue(),
		opts:       opts,
		logger:     logger,
		wake:       make(chan struct{}, 1),
		state:      models.StateIdle,
		lastUpdate: time.Now(),
	}
}

// Queue - 실행 대기 명령 큐
func (e *Executor) Queue() *ActionQueue {
	return e.queue
}

// Robot - 명령을 받는 로봇
func (e *Executor) Robot() Robot {
	return e.robot
}

// Run - 틱마다 명령 하나씩 실행 (ctx가 끝나면 반환)
func (e *Executor) Run(ctx context.Context) error {
	var tickC <-chan time.Time
	if e.opts.Tick > 0 {
		ticker := time.NewTicker(e.opts.Tick)
		defer ticker.Stop()
		tickC = ticker.C
	}

	e.logger.Infof("🚀 실행기 시작 (robot=%s, mode=%s, tick=%v)", e.opts.RobotID, e.opts.Mode, e.opts.Tick)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("🛑 실행기 중지")
			return nil
		case <-tickC:
			_, _ = e.Step(ctx)
		case <-e.wake:
			if e.opts.Tick > 0 {
				continue
			}
			for {
				more, err := e.Step(ctx)
				if !more || err != nil {
					break
				}
			}
		}
	}
}

// Submit - 미션 명령을 큐에 넣음 (Run 루프가 실행)
func (e *Executor) Submit(m *models.Mission) error {
	if m == nil || !m.Succeeded() {
		return ErrMissionNotReady
	}

	e.mu.Lock()
	if e.current != nil {
		e.mu.Unlock()
		return errors.Wrap(ErrExecutorBusy, e.current.ID)
	}
	e.current = m
	e.executed = 0
	e.state = models.StateMoving
	e.mu.Unlock()

	if tagger, ok := e.robot.(interface{ SetMission(id string) }); ok {
		tagger.SetMission(m.ID)
	}
	e.queue.Clear()
	e.queue.EnqueueMany(m.Actions)
	e.logger.Infof("📋 미션 %s 제출: %d개 명령", m.ID, len(m.Actions))

	if len(m.Actions) == 0 {
		e.finish(context.Background(), nil)
		return nil
	}

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// RunMission - 미션을 끝까지 동기 실행
func (e *Executor) RunMission(ctx context.Context, m *models.Mission) error {
	if err := e.Submit(m); err != nil {
		return err
	}
	for {
		more, err := e.Step(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Cancel - 현재 미션 중단 및 큐 비우기
func (e *Executor) Cancel() {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	e.queue.Clear()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.logger.Warnf("⏹️ 미션 %s 취소 (%d개 실행됨)", e.current.ID, e.executed)
		e.current = nil
		e.state = models.StateStopped
	}
}

// Step - 큐에서 명령 하나를 꺼내 실행
//
// 남은 명령이 있으면 true. 로봇 오류가 나면 미션을 멈추고 큐를 비운다.
func (e *Executor) Step(ctx context.Context) (bool, error) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	action, ok := e.queue.Dequeue()
	if !ok {
		return false, nil
	}

	before, err := e.robot.Pose(ctx)
	if err != nil {
		return false, e.fail(ctx, action, err)
	}
	if err := Dispatch(ctx, e.robot, action); err != nil {
		return false, e.fail(ctx, action, err)
	}
	after, err := e.robot.Pose(ctx)
	if err != nil {
		return false, e.fail(ctx, action, err)
	}

	event := e.newEvent(models.EventAction, action, after)
	if action == models.ActionForward || action == models.ActionPush {
		if pushed, err := e.commitPush(before, after); err != nil {
			return false, e.fail(ctx, action, err)
		} else if pushed != nil {
			event.EventType = models.EventPush
			event.BlockID = pushed.ID
			event.BlockX, event.BlockY = pushed.Cell().X, pushed.Cell().Y
		}
	}

	e.mu.Lock()
	e.executed++
	seq := e.executed
	e.lastPose = after
	e.lastUpdate = time.Now()
	if action == models.ActionPush {
		e.state = models.StatePushing
	} else {
		e.state = models.StateMoving
	}
	missionID := ""
	if e.current != nil {
		missionID = e.current.ID
	}
	e.mu.Unlock()

	event.Seq = seq
	e.record(event)
	e.broadcast(models.MessageTypeActionDone, models.ActionEventData{
		MissionID: missionID,
		Seq:       seq,
		Action:    action,
		Pose:      after,
		Pending:   e.queue.Len(),
	})

	if !e.queue.HasNext() {
		e.finish(ctx, nil)
		return false, nil
	}
	return true, nil
}

// commitPush - 로봇이 블록 칸으로 들어갔다면 블록을 이동 방향으로 한 칸 옮겨 반영
func (e *Executor) commitPush(before, after models.Pose) (*models.Block, error) {
	if before.Cell == after.Cell {
		return nil, nil
	}
	b, ok := e.planner.Blocks().At(after.Cell)
	if !ok {
		return nil, nil
	}
	to := after.Cell.Add(after.Cell.Sub(before.Cell))
	if err := e.planner.CommitPush(b.ID, to); err != nil {
		return nil, errors.Wrapf(err, "commit push of %s", b.ID)
	}
	moved, err := e.planner.Blocks().Get(b.ID)
	if err != nil {
		return nil, err
	}
	e.broadcast(models.MessageTypeGridUpdate, e.planner.Snapshot())
	return &moved, nil
}

func (e *Executor) fail(ctx context.Context, action models.Action, err error) error {
	e.queue.Clear()
	e.logger.Errorf("❌ 명령 %s 실행 실패: %v", action, err)
	e.finish(ctx, errors.Wrapf(err, "action %s", action.Code()))
	return err
}

// finish - 미션 종료 처리 (err가 nil이면 정상 완료)
func (e *Executor) finish(ctx context.Context, err error) {
	pose, perr := e.robot.Pose(ctx)
	if perr != nil {
		pose = e.lastPoseSafe()
	}

	e.mu.Lock()
	m := e.current
	executed := e.executed
	e.current = nil
	e.lastPose = pose
	e.lastUpdate = time.Now()
	if err != nil {
		e.state = models.StateStopped
	} else {
		e.state = models.StateCompleted
	}
	e.mu.Unlock()

	if m == nil {
		return
	}

	data := models.MissionDoneData{MissionID: m.ID, Executed: executed, Pose: pose}
	event := models.MissionEvent{
		EventType:   models.EventDone,
		MissionID:   m.ID,
		RobotID:     e.opts.RobotID,
		Seq:         executed,
		PoseX:       pose.Cell.X,
		PoseY:       pose.Cell.Y,
		PoseHeading: int(pose.Heading),
		BlockID:     m.BlockID,
	}
	if err != nil {
		data.Error = err.Error()
		event.EventType = models.EventError
		event.Message = err.Error()
		e.broadcast(models.MessageTypeMissionError, data)
	} else {
		e.logger.Infof("🏁 미션 %s 완료: %d개 명령 실행", m.ID, executed)
		e.broadcast(models.MessageTypeMissionDone, data)
	}
	e.record(event)
}

func (e *Executor) newEvent(eventType string, action models.Action, pose models.Pose) models.MissionEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()

	event := models.MissionEvent{
		EventType:   eventType,
		RobotID:     e.opts.RobotID,
		Action:      action.Code(),
		PoseX:       pose.Cell.X,
		PoseY:       pose.Cell.Y,
		PoseHeading: int(pose.Heading),
	}
	if e.current != nil {
		event.MissionID = e.current.ID
	}
	return event
}

func (e *Executor) record(event models.MissionEvent) {
	if e.opts.Events != nil {
		e.opts.Events.Record(event)
	}
}

func (e *Executor) broadcast(msgType string, data interface{}) {
	if e.opts.Broadcast == nil {
		return
	}
	e.opts.Broadcast(models.WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (e *Executor) lastPoseSafe() models.Pose {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastPose
}

// Busy - 실행 중인 미션이 있는지
func (e *Executor) Busy() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current != nil
}

// Status - 실행기 관점의 로봇 상태
func (e *Executor) Status(ctx context.Context) models.RobotStatus {
	pose, err := e.robot.Pose(ctx)
	connected := err == nil
	if err != nil {
		pose = e.lastPoseSafe()
	}

	worldX, worldY := e.planner.CellCenter(pose.Cell)

	e.mu.RLock()
	defer e.mu.RUnlock()
	status := models.RobotStatus{
		ID:         e.opts.RobotID,
		Mode:       e.opts.Mode,
		Connected:  connected,
		Pose:       pose,
		WorldX:     worldX,
		WorldY:     worldY,
		State:      e.state,
		Pending:    e.queue.Len(),
		Executed:   e.executed,
		LastUpdate: e.lastUpdate,
	}
	if e.current != nil {
		status.MissionID = e.current.ID
	}
	return status
}
