package handlers

import (
	"github.com/gofiber/fiber/v2"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

// PathfindingRequest - 현재 격자 또는 요청에 담긴 격자에서 경로 탐색
type PathfindingRequest struct {
	Start       models.Cell   `json:"start"`
	Goal        models.Cell   `json:"goal"`
	TurnPenalty *float64      `json:"turn_penalty,omitempty"` // 없으면 계획기 기본값
	MapWidth    int           `json:"map_width,omitempty"`    // 0이면 현재 격자 사용
	MapHeight   int           `json:"map_height,omitempty"`
	Obstacles   []models.Cell `json:"obstacles,omitempty"`
}

type PathfindingResponse struct {
	Success  bool          `json:"success"`
	Path     []models.Cell `json:"path,omitempty"`
	Cost     float64       `json:"cost,omitempty"`
	Turns    int           `json:"turns"`
	Expanded int           `json:"expanded"`
	Message  string        `json:"message,omitempty"`
}

func (a *API) HandlePathfinding(c *fiber.Ctx) error {
	var req PathfindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: "잘못된 요청 형식입니다",
		})
	}

	penalty := a.Planner.Options().BlockTurnPenalty
	if req.TurnPenalty != nil {
		penalty = *req.TurnPenalty
	}
	a.Logger.Debugf("📍 경로 탐색 요청: %s → %s (회전 비용 %.1f, 장애물 %d개)", req.Start, req.Goal, penalty, len(req.Obstacles))

	var result algorithms.SearchResult
	if req.MapWidth > 0 && req.MapHeight > 0 {
		grid := algorithms.NewGrid(req.MapWidth, req.MapHeight, 1)
		for _, ob := range req.Obstacles {
			grid.SetCell(ob.X, ob.Y, models.CellBlocked)
		}
		result = algorithms.Search(grid, req.Start, req.Goal, algorithms.SearchOptions{
			TurnPenalty:   penalty,
			MaxExpansions: a.Planner.Options().MaxExpansions,
		})
	} else {
		result = a.Planner.FindPath(req.Start, req.Goal, penalty)
	}

	if !result.Found() {
		a.Logger.Infof("❌ 경로를 찾을 수 없습니다: %s → %s", req.Start, req.Goal)
		return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
			Success:  false,
			Expanded: result.Expanded,
			Message:  "경로를 찾을 수 없습니다",
		})
	}

	a.Logger.Infof("✅ 경로 탐색 성공: %d개 셀", len(result.Path))
	return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
		Success:  true,
		Path:     result.Path,
		Cost:     result.Cost,
		Turns:    algorithms.CountTurns(result.Path),
		Expanded: result.Expanded,
		Message:  "경로 탐색 성공",
	})
}
