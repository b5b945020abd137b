package services

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

// LoadWorld - YAML 월드 파일 읽기
func LoadWorld(path string) (*models.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read world file %s", path)
	}
	w, err := ParseWorld(data)
	if err != nil {
		return nil, errors.Wrapf(err, "world file %s", path)
	}
	return w, nil
}

// ParseWorld - YAML 바이트를 월드로 변환하고 검증
func ParseWorld(data []byte) (*models.World, error) {
	var w models.World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "parse world yaml")
	}
	if err := normalizeWorld(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// MarshalWorld - 월드를 YAML로 변환
func MarshalWorld(w *models.World) ([]byte, error) {
	return yaml.Marshal(w)
}

// normalizeWorld - 기본값 채우기, rows를 장애물로 펼치기, 범위/중복 검사
func normalizeWorld(w *models.World) error {
	if w.Width <= 0 && len(w.Rows) > 0 {
		w.Width = len(w.Rows[0])
	}
	if w.Height <= 0 && len(w.Rows) > 0 {
		w.Height = len(w.Rows)
	}
	if w.Width <= 0 || w.Height <= 0 {
		return errors.Errorf("invalid world size %dx%d", w.Width, w.Height)
	}
	if w.CellSize <= 0 {
		w.CellSize = 1
	}
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	w.Robot.Heading = models.NormalizeHeading(int(w.Robot.Heading))

	inside := func(c models.Cell) bool {
		return c.X >= 0 && c.X < w.Width && c.Y >= 0 && c.Y < w.Height
	}

	for y, row := range w.Rows {
		if y >= w.Height || len(row) > w.Width {
			return errors.Errorf("row %d does not fit %dx%d world", y, w.Width, w.Height)
		}
		for x, ch := range row {
			switch ch {
			case '#':
				w.Obstacles = append(w.Obstacles, models.Cell{X: x, Y: y})
			case '.', ' ':
			default:
				return errors.Errorf("row %d: unknown cell %q", y, ch)
			}
		}
	}
	w.Rows = nil

	walls := make(map[models.Cell]bool, len(w.Obstacles))
	for _, c := range w.Obstacles {
		if !inside(c) {
			return errors.Errorf("obstacle %s outside world", c)
		}
		walls[c] = true
	}

	ids := make(map[string]bool, len(w.Blocks))
	occupied := make(map[models.Cell]string, len(w.Blocks))
	for i := range w.Blocks {
		b := &w.Blocks[i]
		if b.ID == "" {
			b.ID = fmt.Sprintf("block-%d", i+1)
		}
		if ids[b.ID] {
			return errors.Errorf("duplicate block id %q", b.ID)
		}
		ids[b.ID] = true
		if !inside(b.Cell) || walls[b.Cell] {
			return errors.Errorf("block %s at %s is outside or on an obstacle", b.ID, b.Cell)
		}
		if other, dup := occupied[b.Cell]; dup {
			return errors.Errorf("blocks %s and %s share cell %s", other, b.ID, b.Cell)
		}
		occupied[b.Cell] = b.ID
	}

	if !inside(w.Robot.Cell) || walls[w.Robot.Cell] {
		return errors.Errorf("robot at %s is outside or on an obstacle", w.Robot.Cell)
	}
	if id, onBlock := occupied[w.Robot.Cell]; onBlock {
		return errors.Errorf("robot at %s overlaps block %s", w.Robot.Cell, id)
	}

	for i := range w.Goals {
		g := &w.Goals[i]
		if !ids[g.BlockID] {
			return errors.Errorf("goal references unknown block %q", g.BlockID)
		}
		if !inside(g.Cell) {
			return errors.Errorf("goal for %s at %s outside world", g.BlockID, g.Cell)
		}
		if g.ID == "" {
			g.ID = fmt.Sprintf("goal-%d", i+1)
		}
		if g.Status == "" {
			g.Status = models.GoalPending
		}
	}
	return nil
}

// ApplyWorld - 계획기의 격자/블록을 월드 내용으로 교체
func ApplyWorld(p *MissionPlanner, w *models.World) error {
	grid := p.Grid()
	if grid.Width() != w.Width || grid.Height() != w.Height {
		return errors.Errorf("world %dx%d does not match grid %dx%d", w.Width, w.Height, grid.Width(), grid.Height())
	}

	for _, b := range p.Blocks().List() {
		if _, err := p.RemoveBlock(b.ID); err != nil {
			return err
		}
	}
	p.ClearGrid()
	for _, c := range w.Obstacles {
		if err := p.SetCell(c, models.CellBlocked); err != nil {
			return err
		}
	}
	for _, b := range w.Blocks {
		p.PlaceBlock(*models.NewBlock(b.ID, b.Cell))
	}
	return nil
}

// NewPlannerForWorld - 월드 크기의 격자로 계획기를 만들고 월드 적용
func NewPlannerForWorld(w *models.World, opts PlannerOptions, logger *zap.SugaredLogger) (*MissionPlanner, error) {
	p := NewMissionPlanner(algorithms.NewGrid(w.Width, w.Height, w.CellSize), opts, logger)
	if err := ApplyWorld(p, w); err != nil {
		return nil, err
	}
	return p, nil
}

// ========================================
// 랜덤 월드 생성
// ========================================

// WorldGenerator - 시드 기반 랜덤 월드 생성 및 활성 월드 관리
type WorldGenerator struct {
	mu           sync.RWMutex
	active       *models.World
	generationMu sync.Mutex
	rng          *rand.Rand
}

// NewWorldGenerator - 시드가 0이면 현재 시간 사용
func NewWorldGenerator(seed int64) *WorldGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &WorldGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate - 장애물, 블록, 목표, 로봇이 겹치지 않는 랜덤 월드 생성
//
// 블록은 가장자리에서 한 칸 떨어진 셀에만 놓아 네 방향 모두 밀 수 있게 한다.
func (wg *WorldGenerator) Generate(width, height, obstacles, blocks int) (*models.World, error) {
	wg.generationMu.Lock()
	defer wg.generationMu.Unlock()

	if width < 3 || height < 3 {
		return nil, errors.Errorf("world too small: %dx%d", width, height)
	}

	free := make([]models.Cell, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			free = append(free, models.Cell{X: x, Y: y})
		}
	}
	wg.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	interior := func(c models.Cell) bool {
		return c.X > 0 && c.X < width-1 && c.Y > 0 && c.Y < height-1
	}
	take := func(pred func(models.Cell) bool) (models.Cell, bool) {
		for i, c := range free {
			if pred == nil || pred(c) {
				free = append(free[:i], free[i+1:]...)
				return c, true
			}
		}
		return models.Cell{}, false
	}

	w := &models.World{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("random-%dx%d", width, height),
		Width:     width,
		Height:    height,
		CellSize:  1,
		CreatedAt: time.Now(),
	}

	for i := 0; i < blocks; i++ {
		c, ok := take(interior)
		if !ok {
			return nil, errors.Errorf("no room for block %d", i+1)
		}
		id := fmt.Sprintf("block-%d", i+1)
		w.Blocks = append(w.Blocks, models.WorldBlock{ID: id, Cell: c})
	}
	for i := range w.Blocks {
		c, ok := take(interior)
		if !ok {
			return nil, errors.Errorf("no room for goal %d", i+1)
		}
		w.Goals = append(w.Goals, models.Goal{
			ID:      fmt.Sprintf("goal-%d", i+1),
			BlockID: w.Blocks[i].ID,
			Cell:    c,
			Status:  models.GoalPending,
		})
	}
	robot, ok := take(nil)
	if !ok {
		return nil, errors.New("no room for robot")
	}
	w.Robot = models.Pose{Cell: robot, Heading: models.Heading(wg.rng.Intn(4) * 90)}

	for i := 0; i < obstacles; i++ {
		c, ok := take(nil)
		if !ok {
			break
		}
		w.Obstacles = append(w.Obstacles, c)
	}

	wg.mu.Lock()
	wg.active = w
	wg.mu.Unlock()
	return w, nil
}

// ActiveWorld - 마지막으로 생성/설정한 월드
func (wg *WorldGenerator) ActiveWorld() *models.World {
	wg.mu.RLock()
	defer wg.mu.RUnlock()
	return wg.active
}

// SetActiveWorld - 파일에서 읽은 월드를 활성 월드로 설정
func (wg *WorldGenerator) SetActiveWorld(w *models.World) {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	wg.active = w
}

// PendingGoal - 활성 월드에서 블록의 첫 번째 미완료 목표
func (wg *WorldGenerator) PendingGoal(blockID string) (models.Goal, bool) {
	wg.mu.RLock()
	defer wg.mu.RUnlock()
	if wg.active == nil {
		return models.Goal{}, false
	}
	for _, g := range wg.active.Goals {
		if g.BlockID == blockID && g.Status != models.GoalDone {
			return g, true
		}
	}
	return models.Goal{}, false
}

// AddGoal - 활성 월드에 블록 목표 추가
func (wg *WorldGenerator) AddGoal(blockID string, c models.Cell) (*models.Goal, error) {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	if wg.active == nil {
		return nil, errors.New("no active world")
	}
	goal := models.Goal{
		ID:      uuid.New().String(),
		BlockID: blockID,
		Cell:    c,
		Status:  models.GoalPending,
	}
	wg.active.Goals = append(wg.active.Goals, goal)
	return &goal, nil
}

// SetGoalStatus - 목표 상태 변경
func (wg *WorldGenerator) SetGoalStatus(goalID, status string) error {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	if wg.active == nil {
		return errors.New("no active world")
	}
	for i := range wg.active.Goals {
		if wg.active.Goals[i].ID == goalID {
			wg.active.Goals[i].Status = status
			return nil
		}
	}
	return errors.Errorf("goal not found: %s", goalID)
}

// Clear - 활성 월드 제거
func (wg *WorldGenerator) Clear() {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	wg.active = nil
}
