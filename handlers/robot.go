package handlers

import (
	"github.com/gofiber/fiber/v2"

	"blockpush-backend/models"
)

// HandleGetQueue - 실행 대기 명령
func (a *API) HandleGetQueue(c *fiber.Ctx) error {
	q := a.Executor.Queue()
	return c.JSON(fiber.Map{
		"success": true,
		"pending": q.Len(),
		"actions": q.Snapshot(),
		"summary": q.String(),
	})
}

// HandleClearQueue - 현재 미션 취소
func (a *API) HandleClearQueue(c *fiber.Ctx) error {
	busy := a.Executor.Busy()
	a.Executor.Cancel()
	if busy {
		a.broadcast(models.MessageTypeMissionError, models.MissionDoneData{Error: "cancelled"})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"cancelled": busy,
		"message":   "큐를 비웠습니다",
	})
}

// HandleRobotStatus - 로봇 자세와 실행 상태
func (a *API) HandleRobotStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"robot":   a.Executor.Status(c.UserContext()),
	})
}
