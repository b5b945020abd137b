package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"blockpush-backend/models"
	"blockpush-backend/services"
)

// HandleGetGrid - 격자 + 블록 스냅샷
func (a *API) HandleGetGrid(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"grid":    a.Planner.Snapshot(),
	})
}

// HandleUpdateCells - 셀 상태 일괄 변경
func (a *API) HandleUpdateCells(c *fiber.Ctx) error {
	var updates []models.CellUpdate
	if err := c.BodyParser(&updates); err != nil {
		return fail(c, fiber.StatusBadRequest, "잘못된 요청 형식입니다")
	}

	changes := make([]services.CellAssignment, 0, len(updates))
	for _, u := range updates {
		state, err := models.ParseCellState(u.State)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		changes = append(changes, services.CellAssignment{Cell: models.Cell{X: u.X, Y: u.Y}, State: state})
	}
	if err := a.Planner.SetCells(changes); err != nil {
		if errors.Is(err, services.ErrCellOccupied) {
			return fail(c, fiber.StatusConflict, "블록이 있는 셀은 변경할 수 없습니다: "+err.Error())
		}
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	a.syncSim()
	snap := a.Planner.Snapshot()
	a.broadcast(models.MessageTypeGridUpdate, snap)
	return c.JSON(fiber.Map{
		"success": true,
		"updated": len(updates),
		"grid":    snap,
	})
}

// HandleClearGrid - 장애물 모두 제거 (블록은 유지)
func (a *API) HandleClearGrid(c *fiber.Ctx) error {
	a.Planner.ClearGrid()
	a.syncSim()
	snap := a.Planner.Snapshot()
	a.broadcast(models.MessageTypeGridUpdate, snap)
	return c.JSON(fiber.Map{
		"success": true,
		"grid":    snap,
	})
}

// ========================================
// 블록
// ========================================

// BlockRequest - 블록 추가 요청
type BlockRequest struct {
	ID   string      `json:"id"`
	Cell models.Cell `json:"cell"`
}

func (a *API) HandleListBlocks(c *fiber.Ctx) error {
	blocks := a.Planner.Blocks().List()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(blocks),
		"blocks":  blocks,
	})
}

func (a *API) HandleAddBlock(c *fiber.Ctx) error {
	var req BlockRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "잘못된 요청 형식입니다")
	}
	if !a.Planner.Grid().IsFree(req.Cell) {
		return fail(c, fiber.StatusConflict, "비어 있지 않은 셀입니다: "+req.Cell.String())
	}

	block := a.Planner.PlaceBlock(*models.NewBlock(req.ID, req.Cell))
	a.syncSim()
	a.broadcast(models.MessageTypeGridUpdate, a.Planner.Snapshot())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"block":   block,
	})
}

func (a *API) HandleGetBlock(c *fiber.Ctx) error {
	block, err := a.Planner.Blocks().Get(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{
		"success": true,
		"block":   block,
	})
}

func (a *API) HandleDeleteBlock(c *fiber.Ctx) error {
	block, err := a.Planner.RemoveBlock(c.Params("id"))
	if errors.Is(err, services.ErrBlockNotFound) {
		return fail(c, fiber.StatusNotFound, err.Error())
	} else if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	a.syncSim()
	a.broadcast(models.MessageTypeGridUpdate, a.Planner.Snapshot())
	return c.JSON(fiber.Map{
		"success": true,
		"block":   block,
	})
}

// ========================================
// 월드
// ========================================

// HandleLoadWorld - YAML 월드 본문을 현재 격자에 적용
func (a *API) HandleLoadWorld(c *fiber.Ctx) error {
	w, err := services.ParseWorld(c.Body())
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return a.applyWorld(c, w)
}

// HandleGenerateWorld - 랜덤 월드 생성 후 적용 (격자 크기는 현재와 동일)
func (a *API) HandleGenerateWorld(c *fiber.Ctx) error {
	if a.Worlds == nil {
		return fail(c, fiber.StatusServiceUnavailable, "월드 생성기가 없습니다")
	}
	grid := a.Planner.Grid()
	w, err := a.Worlds.Generate(grid.Width(), grid.Height(), queryInt(c, "obstacles", 5), queryInt(c, "blocks", 1))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return a.applyWorld(c, w)
}

// HandleGetWorld - 활성 월드 (목표 포함)
func (a *API) HandleGetWorld(c *fiber.Ctx) error {
	if a.Worlds == nil || a.Worlds.ActiveWorld() == nil {
		return fail(c, fiber.StatusNotFound, "활성 월드가 없습니다")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"world":   a.Worlds.ActiveWorld(),
	})
}

// GoalRequest - 블록 목표 추가 요청
type GoalRequest struct {
	BlockID string      `json:"block_id"`
	Cell    models.Cell `json:"cell"`
}

// HandleAddGoal - 활성 월드에 블록 목표 추가
func (a *API) HandleAddGoal(c *fiber.Ctx) error {
	if a.Worlds == nil {
		return fail(c, fiber.StatusServiceUnavailable, "월드 생성기가 없습니다")
	}
	var body GoalRequest
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "잘못된 요청 형식입니다")
	}
	if _, err := a.Planner.Blocks().Get(body.BlockID); err != nil {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	if a.Planner.GetCell(body.Cell) != models.CellFree {
		return fail(c, fiber.StatusBadRequest, "목표 셀이 비어 있지 않습니다: "+body.Cell.String())
	}
	goal, err := a.Worlds.AddGoal(body.BlockID, body.Cell)
	if err != nil {
		return fail(c, fiber.StatusConflict, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"goal":    goal,
	})
}

func (a *API) applyWorld(c *fiber.Ctx, w *models.World) error {
	if a.Executor != nil && a.Executor.Busy() {
		return fail(c, fiber.StatusConflict, "미션 실행 중에는 월드를 바꿀 수 없습니다")
	}
	if err := services.ApplyWorld(a.Planner, w); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if a.Worlds != nil {
		a.Worlds.SetActiveWorld(w)
	}
	a.syncSim()
	if a.Sim != nil {
		a.Sim.SetPose(w.Robot)
	}
	a.Logger.Infof("🗺️ 월드 적용: %s (%dx%d, 블록 %d개)", w.Name, w.Width, w.Height, len(w.Blocks))

	snap := a.Planner.Snapshot()
	a.broadcast(models.MessageTypeGridUpdate, snap)
	return c.JSON(fiber.Map{
		"success": true,
		"world":   w,
		"grid":    snap,
	})
}
