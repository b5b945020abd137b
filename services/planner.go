package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

var (
	// ErrNoBlockPath - 블록을 목표까지 옮길 경로가 없음
	ErrNoBlockPath = errors.New("no block path")
	// ErrNoApproachPath - 로봇이 도킹 셀까지 갈 경로가 없음
	ErrNoApproachPath = errors.New("no approach path to docking cell")
	// ErrCellOutside - 격자 밖 셀
	ErrCellOutside = errors.New("cell outside grid")
	// ErrCellOccupied - 블록이 있는 셀
	ErrCellOccupied = errors.New("cell holds a block")
)

// PlannerOptions - 탐색 비용 설정
type PlannerOptions struct {
	BlockTurnPenalty float64 // 블록 경로 회전 비용 (옆걸음 시퀀스 비용)
	MaxExpansions    int     // 탐색 확장 상한 (0이면 무제한)
}

// DefaultPlannerOptions - 기본 설정
func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{BlockTurnPenalty: DefaultTurnPenalty}
}

// ApproachResult - 1단계(접근) 결과
type ApproachResult struct {
	Actions      []models.Action
	Path         []models.Cell
	DockingCell  models.Cell
	FinalHeading models.Heading
}

type searchFunc func(algorithms.Occupancy, models.Cell, models.Cell, algorithms.SearchOptions) []models.Cell

// MissionPlanner - 격자, 블록, 미션 계획을 소유
//
// 모든 공개 메서드는 planner 뮤텍스 안에서 실행된다. 계획 중 격자를 잠시 바꾸므로
// 같은 격자를 쓰는 다른 계획이나 갱신과 겹치면 안 된다.
type MissionPlanner struct {
	mu     sync.Mutex
	grid   *algorithms.Grid
	blocks *BlockRegistry
	opts   PlannerOptions
	logger *zap.SugaredLogger

	search searchFunc
}

// NewMissionPlanner - 계획기 생성
func NewMissionPlanner(grid *algorithms.Grid, opts PlannerOptions, logger *zap.SugaredLogger) *MissionPlanner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.BlockTurnPenalty < 0 {
		opts.BlockTurnPenalty = 0
	}
	return &MissionPlanner{
		grid:   grid,
		blocks: NewBlockRegistry(),
		opts:   opts,
		logger: logger,
		search: algorithms.FindPath,
	}
}

// Options - 현재 탐색 설정
func (p *MissionPlanner) Options() PlannerOptions {
	return p.opts
}

// Blocks - 블록 레지스트리 (읽기 전용으로 사용할 것)
func (p *MissionPlanner) Blocks() *BlockRegistry {
	return p.blocks
}

// DockingCell - 첫 밀기 방향의 반대편 셀
func DockingCell(blockCell, firstStep models.Cell) models.Cell {
	return blockCell.Sub(firstStep.Sub(blockCell))
}

// ========================================
// 미션 계획
// ========================================

// GenerateMission - 블록 미션 계획 (접근 + 정렬 + 운반)
//
// 실패해도 패닉이나 오류를 반환하지 않는다. 명령이 비어 있는 미션과 상태, 원인이 결과다.
func (p *MissionPlanner) GenerateMission(req models.MissionRequest) *models.Mission {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.BlockID != "" {
		b, err := p.blocks.Get(req.BlockID)
		if err != nil {
			return p.reject(newMission(req), err, "block not registered")
		}
		req.Start = b.Cell()
	}
	return p.generateLocked(req)
}

func newMission(req models.MissionRequest) *models.Mission {
	req.Robot.Heading = models.NormalizeHeading(int(req.Robot.Heading))
	return &models.Mission{
		ID:           uuid.New().String(),
		BlockID:      req.BlockID,
		Robot:        req.Robot,
		Start:        req.Start,
		Goal:         req.Goal,
		CreatedAt:    time.Now(),
		FinalHeading: req.Robot.Heading,
	}
}

func (p *MissionPlanner) generateLocked(req models.MissionRequest) *models.Mission {
	m := newMission(req)
	p.logger.Infof("🧭 미션 계획 시작: 블록 %s → %s, 로봇 %s", m.Start, m.Goal, m.Robot)

	if m.Start == m.Goal {
		m.Status = models.MissionAlreadyAtGoal
		m.BlockPath = []models.Cell{m.Start}
		p.logger.Infof("✅ 블록이 이미 목표 위치에 있음: %s", m.Goal)
		return m
	}

	blockPath := p.search(p.grid, m.Start, m.Goal, algorithms.SearchOptions{
		TurnPenalty:   p.opts.BlockTurnPenalty,
		MaxExpansions: p.opts.MaxExpansions,
	})
	if len(blockPath) < 2 {
		return p.reject(m, errors.Wrapf(ErrNoBlockPath, "%s → %s", m.Start, m.Goal), "no path for block")
	}
	m.BlockPath = blockPath
	p.logger.Debugf("블록 경로: %v (회전 %d회)", blockPath, algorithms.CountTurns(blockPath))

	approach, err := p.approachLocked(m.Robot, blockPath[0], blockPath[1])
	if err != nil {
		return p.reject(m, err, "robot cannot reach docking cell")
	}
	docking := approach.DockingCell
	m.DockingCell = &docking
	m.ApproachPath = approach.Path

	transport := TransportActions(blockPath)

	m.Actions = make([]models.Action, 0, len(approach.Actions)+1+len(transport))
	m.Actions = append(m.Actions, approach.Actions...)
	m.Actions = append(m.Actions, models.ActionAlign)
	m.Actions = append(m.Actions, transport...)
	m.ApproachCount = len(approach.Actions)
	m.TransportCount = len(transport)
	m.FinalHeading = approach.FinalHeading
	m.Status = models.MissionReady

	p.logger.Infof("✅ 미션 계획 완료: 접근 %d개 + 운반 %d개 명령 (옆걸음 %d회)",
		m.ApproachCount, m.TransportCount, CountManeuvers(transport))
	return m
}

func (p *MissionPlanner) reject(m *models.Mission, err error, reason string) *models.Mission {
	p.logger.Warnf("❌ 미션 계획 실패: %s (%v)", reason, err)
	m.Status = models.MissionInfeasible
	m.Reason = reason
	m.Err = err
	m.Actions = nil
	return m
}

// ========================================
// 단계별 계획
// ========================================

// BlockPath - 회전 비용을 적용한 블록 경로 (없으면 nil)
func (p *MissionPlanner) BlockPath(start, goal models.Cell) []models.Cell {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search(p.grid, start, goal, algorithms.SearchOptions{
		TurnPenalty:   p.opts.BlockTurnPenalty,
		MaxExpansions: p.opts.MaxExpansions,
	})
}

// FindPath - 임의 회전 비용으로 경로 탐색
func (p *MissionPlanner) FindPath(start, goal models.Cell, turnPenalty float64) algorithms.SearchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return algorithms.Search(p.grid, start, goal, algorithms.SearchOptions{
		TurnPenalty:   turnPenalty,
		MaxExpansions: p.opts.MaxExpansions,
	})
}

// ApproachPhase - 로봇을 도킹 셀로 보내 첫 밀기 방향을 바라보게 하는 명령
func (p *MissionPlanner) ApproachPhase(robot models.Pose, blockCell, firstStep models.Cell) (ApproachResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.approachLocked(robot, blockCell, firstStep)
}

func (p *MissionPlanner) approachLocked(robot models.Pose, blockCell, firstStep models.Cell) (ApproachResult, error) {
	docking := DockingCell(blockCell, firstStep)
	result := ApproachResult{DockingCell: docking}

	// 블록 셀은 탐색 동안만 막고, 어떤 식으로 끝나든 원래 상태로 되돌린다
	saved := p.grid.GetCell(blockCell.X, blockCell.Y)
	p.grid.SetCell(blockCell.X, blockCell.Y, models.CellBlocked)
	defer p.grid.SetCell(blockCell.X, blockCell.Y, saved)

	path := p.search(p.grid, robot.Cell, docking, algorithms.SearchOptions{MaxExpansions: p.opts.MaxExpansions})
	if len(path) == 0 {
		if robot.Cell != docking {
			return result, errors.Wrapf(ErrNoApproachPath, "%s → %s", robot.Cell, docking)
		}
		path = []models.Cell{robot.Cell}
	}

	actions, heading := PathToActions(path, robot.Heading)
	if face, ok := HeadingBetween(docking, blockCell); ok {
		actions = append(actions, TurnsBetween(heading, face)...)
		heading = face
	}

	result.Actions = actions
	result.Path = path
	result.FinalHeading = heading
	return result, nil
}

// TransportPhase - 블록 경로를 밀기 명령으로 변환
func (p *MissionPlanner) TransportPhase(blockPath []models.Cell) []models.Action {
	return TransportActions(blockPath)
}

// ========================================
// 블록 / 격자 갱신
// ========================================

// PlaceBlock - 블록을 등록하고 격자에 표시
func (p *MissionPlanner) PlaceBlock(b models.Block) models.Block {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, err := p.blocks.Get(b.ID); err == nil {
		p.grid.ClearBlock(&old)
	}
	stored := p.blocks.Add(b)
	p.grid.MarkBlock(&stored)
	p.logger.Infof("📦 블록 배치: %s at %s", stored.ID, stored.Cell())
	return stored
}

// RemoveBlock - 블록 등록 해제 및 격자에서 제거
func (p *MissionPlanner) RemoveBlock(id string) (models.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.blocks.Remove(id)
	if err != nil {
		return b, err
	}
	p.grid.ClearBlock(&b)
	return b, nil
}

// CommitPush - 실제로 밀린 블록의 위치를 반영 (블록 위치를 바꾸는 유일한 경로)
func (p *MissionPlanner) CommitPush(blockID string, to models.Cell) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.grid.IsInside(to.X, to.Y) {
		return errors.Errorf("push target %s outside grid", to)
	}
	before, after, err := p.blocks.MoveTo(blockID, to)
	if err != nil {
		return err
	}
	p.grid.ClearBlock(&before)
	p.grid.MarkBlock(&after)
	p.logger.Debugf("블록 %s 이동: %s → %s", blockID, before.Cell(), to)
	return nil
}

// SetCell - 장애물 셀 갱신
func (p *MissionPlanner) SetCell(c models.Cell, state models.CellState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.grid.IsInside(c.X, c.Y) {
		return errors.Wrapf(ErrCellOutside, "%s in %dx%d", c, p.grid.Width(), p.grid.Height())
	}
	p.grid.SetCell(c.X, c.Y, state)
	return nil
}

// CellAssignment - 셀 하나의 새 상태
type CellAssignment struct {
	Cell  models.Cell
	State models.CellState
}

// SetCells - 모든 변경을 먼저 검사한 뒤 한 번에 적용 (하나라도 잘못되면 아무것도 바꾸지 않음)
func (p *MissionPlanner) SetCells(changes []CellAssignment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range changes {
		if !p.grid.IsInside(ch.Cell.X, ch.Cell.Y) {
			return errors.Wrapf(ErrCellOutside, "%s in %dx%d", ch.Cell, p.grid.Width(), p.grid.Height())
		}
		if b, ok := p.blocks.At(ch.Cell); ok {
			return errors.Wrapf(ErrCellOccupied, "%s (%s)", ch.Cell, b.ID)
		}
	}
	for _, ch := range changes {
		p.grid.SetCell(ch.Cell.X, ch.Cell.Y, ch.State)
	}
	return nil
}

// GetCell - 셀 상태 조회
func (p *MissionPlanner) GetCell(c models.Cell) models.CellState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grid.GetCell(c.X, c.Y)
}

// WorldToCell - 미터 단위 좌표가 속한 셀
func (p *MissionPlanner) WorldToCell(x, y float64) models.Cell {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grid.WorldToGrid(x, y)
}

// CellCenter - 셀 중심의 미터 단위 좌표
func (p *MissionPlanner) CellCenter(c models.Cell) (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grid.CellCenter(c)
}

// ClearGrid - 장애물을 모두 지우고 블록만 다시 표시
func (p *MissionPlanner) ClearGrid() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.grid.Clear()
	for _, b := range p.blocks.List() {
		b := b
		p.grid.MarkBlock(&b)
	}
}

// Grid - 현재 격자의 복사본
func (p *MissionPlanner) Grid() *algorithms.Grid {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grid.Clone()
}

// Snapshot - 격자 + 블록 상태
func (p *MissionPlanner) Snapshot() models.GridSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return models.GridSnapshot{
		Width:     p.grid.Width(),
		Height:    p.grid.Height(),
		CellSize:  p.grid.CellSize(),
		Rows:      p.grid.Rows(),
		Blocks:    p.blocks.List(),
		Timestamp: time.Now().UnixMilli(),
	}
}

// Describe - 로그용 요약
func (p *MissionPlanner) Describe() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("grid %dx%d, %d blocks, turn penalty %.1f",
		p.grid.Width(), p.grid.Height(), p.blocks.Count(), p.opts.BlockTurnPenalty)
}
