package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

// SimRobot - 격자 위에서 한 칸씩 움직이는 시뮬레이션 로봇
//
// 계획기와 별개인 자체 세계(벽 + 블록)를 가진다. 앞 칸에 블록이 있으면 그 너머 칸이
// 격자 안이고 비어 있을 때만 블록을 함께 밀고, 그렇지 않으면 움직이지 않는다.
type SimRobot struct {
	mu     sync.RWMutex
	grid   *algorithms.Grid       // 벽 + 블록 점유
	blocks map[models.Cell]string // 셀 -> block_id
	pose   models.Pose
	logger *zap.SugaredLogger

	moves  int
	pushes int
}

// NewSimRobot - 격자 복사본과 블록 목록으로 시뮬레이터 생성
func NewSimRobot(grid *algorithms.Grid, blocks []models.Block, start models.Pose, logger *zap.SugaredLogger) *SimRobot {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &SimRobot{
		grid:   grid.Clone(),
		blocks: make(map[models.Cell]string, len(blocks)),
		logger: logger,
	}
	start.Heading = models.NormalizeHeading(int(start.Heading))
	s.pose = start
	for _, b := range blocks {
		b := b
		s.blocks[b.Cell()] = b.ID
		s.grid.MarkBlock(&b)
	}
	return s
}

// Resync - 계획기의 현재 격자/블록으로 세계를 교체 (자세 유지)
func (s *SimRobot) Resync(p *MissionPlanner) {
	grid := p.Grid()
	blocks := p.Blocks().List()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	s.blocks = make(map[models.Cell]string, len(blocks))
	for _, b := range blocks {
		s.blocks[b.Cell()] = b.ID
	}
}

// SetPose - 로봇 자세 재설정
func (s *SimRobot) SetPose(pose models.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pose.Heading = models.NormalizeHeading(int(pose.Heading))
	s.pose = pose
}

// NewSimRobotFromPlanner - 계획기의 현재 세계로 시뮬레이터 생성
func NewSimRobotFromPlanner(p *MissionPlanner, start models.Pose, logger *zap.SugaredLogger) *SimRobot {
	return NewSimRobot(p.Grid(), p.Blocks().List(), start, logger)
}

func (s *SimRobot) MoveForward(ctx context.Context) error {
	return s.step(ctx, s.heading().Vector(), true)
}

// MoveBackward - 뒤로 한 칸 (블록을 끌지 않음)
func (s *SimRobot) MoveBackward(ctx context.Context) error {
	back := models.Cell{}.Sub(s.heading().Vector())
	return s.step(ctx, back, false)
}

func (s *SimRobot) TurnLeft(ctx context.Context) error {
	return s.turn(ctx, func(h models.Heading) models.Heading { return h.Left() })
}

func (s *SimRobot) TurnRight(ctx context.Context) error {
	return s.turn(ctx, func(h models.Heading) models.Heading { return h.Right() })
}

// Push - 앞으로 한 칸 밀기 (움직임은 MoveForward와 같다)
func (s *SimRobot) Push(ctx context.Context) error {
	return s.step(ctx, s.heading().Vector(), true)
}

// Align - 시뮬레이터에서는 항상 정렬된 상태
func (s *SimRobot) Align(ctx context.Context) error {
	return ctx.Err()
}

func (s *SimRobot) Pose(ctx context.Context) (models.Pose, error) {
	if err := ctx.Err(); err != nil {
		return models.Pose{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose, nil
}

// BlockAt - 셀에 있는 블록 ID
func (s *SimRobot) BlockAt(c models.Cell) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.blocks[c]
	return id, ok
}

// Stats - 이동/밀기 횟수
func (s *SimRobot) Stats() (moves, pushes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moves, s.pushes
}

// Grid - 시뮬레이션 세계 격자 복사본
func (s *SimRobot) Grid() *algorithms.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Clone()
}

func (s *SimRobot) heading() models.Heading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose.Heading
}

func (s *SimRobot) turn(ctx context.Context, rotate func(models.Heading) models.Heading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose.Heading = rotate(s.pose.Heading)
	return nil
}

// step - 한 칸 이동 (canPush면 앞의 블록을 함께 민다)
func (s *SimRobot) step(ctx context.Context, dir models.Cell, canPush bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.pose.Cell.Add(dir)
	if id, isBlock := s.blocks[next]; isBlock {
		if !canPush {
			return errors.Wrapf(ErrMoveBlocked, "block %s behind robot at %s", id, next)
		}
		beyond := next.Add(dir)
		if !s.grid.IsFree(beyond) {
			return errors.Wrapf(ErrMoveBlocked, "block %s cannot move to %s", id, beyond)
		}
		delete(s.blocks, next)
		s.blocks[beyond] = id
		s.grid.SetCell(next.X, next.Y, models.CellFree)
		s.grid.SetCell(beyond.X, beyond.Y, models.CellBlocked)
		s.pushes++
		s.logger.Debugf("📦 블록 %s 밀림: %s → %s", id, next, beyond)
	} else if !s.grid.IsFree(next) {
		return errors.Wrapf(ErrMoveBlocked, "cell %s", next)
	}

	s.pose.Cell = next
	s.moves++
	return nil
}
