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
	// ErrRobotDisconnected - 연결된 로봇 없음
	ErrRobotDisconnected = errors.New("robot not connected")
	// ErrRobotTimeout - 제한 시간 안에 보고가 오지 않음
	ErrRobotTimeout = errors.New("robot report timeout")
)

// RobotLink - 로봇으로 메시지를 보내는 연결 (WebSocket 등)
type RobotLink interface {
	Send(msg models.WebSocketMessage) error
}

// RemoteRobot - WebSocket으로 연결된 실제 로봇
//
// 명령 하나를 보내고 같은 seq의 보고가 올 때까지 기다린다. 보고에 담긴 자세가
// 로봇의 현재 자세가 된다.
type RemoteRobot struct {
	mu        sync.Mutex
	link      RobotLink
	seq       int
	pending   map[int]chan models.RobotReportMessage
	pose      models.Pose
	hasPose   bool
	missionID string
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// NewRemoteRobot - 원격 로봇 생성 (연결 전)
func NewRemoteRobot(timeout time.Duration, logger *zap.SugaredLogger) *RemoteRobot {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteRobot{
		pending: make(map[int]chan models.RobotReportMessage),
		timeout: timeout,
		logger:  logger,
	}
}

// Attach - 로봇 연결 등록 (기존 연결은 대체)
func (r *RemoteRobot) Attach(link RobotLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.link = link
	r.logger.Info("🔌 로봇 연결됨")
}

// Detach - 연결 해제, 대기 중인 명령은 모두 실패
func (r *RemoteRobot) Detach(link RobotLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.link != link {
		return
	}
	r.link = nil
	for seq, ch := range r.pending {
		ch <- models.RobotReportMessage{Seq: seq, OK: false, Error: ErrRobotDisconnected.Error()}
		delete(r.pending, seq)
	}
	r.logger.Warn("🔌 로봇 연결 해제")
}

// Connected - 연결 여부
func (r *RemoteRobot) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.link != nil
}

// SetMission - 이후 명령에 붙일 미션 ID
func (r *RemoteRobot) SetMission(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missionID = id
}

// HandlePose - 로봇이 보낸 자세 (hello / pose 메시지)
func (r *RemoteRobot) HandlePose(pose models.Pose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pose.Heading = models.NormalizeHeading(int(pose.Heading))
	r.pose = pose
	r.hasPose = true
}

// HandleReport - 명령 수행 결과 전달
func (r *RemoteRobot) HandleReport(report models.RobotReportMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.pending[report.Seq]
	if !ok {
		r.logger.Warnf("⚠️ 알 수 없는 보고 seq=%d", report.Seq)
		return
	}
	delete(r.pending, report.Seq)
	if report.OK {
		report.Pose.Heading = models.NormalizeHeading(int(report.Pose.Heading))
		r.pose = report.Pose
		r.hasPose = true
	}
	ch <- report
}

func (r *RemoteRobot) MoveForward(ctx context.Context) error {
	return r.send(ctx, models.ActionForward)
}

func (r *RemoteRobot) MoveBackward(ctx context.Context) error {
	return r.send(ctx, models.ActionBackward)
}

func (r *RemoteRobot) TurnLeft(ctx context.Context) error {
	return r.send(ctx, models.ActionTurnLeft)
}

func (r *RemoteRobot) TurnRight(ctx context.Context) error {
	return r.send(ctx, models.ActionTurnRight)
}

func (r *RemoteRobot) Push(ctx context.Context) error {
	return r.send(ctx, models.ActionPush)
}

// Align - 정렬은 로봇 쪽에서 처리
func (r *RemoteRobot) Align(ctx context.Context) error {
	return r.send(ctx, models.ActionAlign)
}

// Pose - 마지막으로 보고된 자세
func (r *RemoteRobot) Pose(ctx context.Context) (models.Pose, error) {
	if err := ctx.Err(); err != nil {
		return models.Pose{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.link == nil {
		return r.pose, ErrRobotDisconnected
	}
	if !r.hasPose {
		return r.pose, errors.New("robot has not reported a pose")
	}
	return r.pose, nil
}

func (r *RemoteRobot) send(ctx context.Context, action models.Action) error {
	r.mu.Lock()
	link := r.link
	if link == nil {
		r.mu.Unlock()
		return ErrRobotDisconnected
	}
	r.seq++
	seq := r.seq
	ch := make(chan models.RobotReportMessage, 1)
	r.pending[seq] = ch
	cmd := models.RobotCommandMessage{
		MissionID: r.missionID,
		Seq:       seq,
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
	}
	r.mu.Unlock()

	if err := link.Send(models.WebSocketMessage{Type: models.MessageTypeAction, Data: cmd, Timestamp: cmd.Timestamp}); err != nil {
		r.forget(seq)
		return errors.Wrap(err, "send action")
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.forget(seq)
		return ctx.Err()
	case <-timer.C:
		r.forget(seq)
		return errors.Wrapf(ErrRobotTimeout, "%s seq=%d after %v", action.Code(), seq, r.timeout)
	case report := <-ch:
		if !report.OK {
			if report.Error == ErrRobotDisconnected.Error() {
				return ErrRobotDisconnected
			}
			return errors.Wrap(ErrMoveBlocked, report.Error)
		}
		return nil
	}
}

func (r *RemoteRobot) forget(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, seq)
}
