package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blockpush-backend/models"
	"blockpush-backend/services"
)

// MissionPlanRequest - 미션 계획 요청 (robot을 생략하면 현재 로봇 자세 사용)
type MissionPlanRequest struct {
	BlockID string       `json:"block_id"`
	Start   *models.Cell `json:"start,omitempty"` // block_id가 없을 때 블록 위치
	Goal    *models.Cell `json:"goal,omitempty"`  // 생략하면 활성 월드의 블록 목표
	Robot   *models.Pose `json:"robot,omitempty"`
	Execute bool         `json:"execute"`
}

// HandleMission - 미션 계획 (+ 실행 제출)
func (a *API) HandleMission(c *fiber.Ctx) error {
	var body MissionPlanRequest
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "잘못된 요청 형식입니다")
	}
	if body.BlockID == "" && body.Start == nil {
		return fail(c, fiber.StatusBadRequest, "block_id 또는 start가 필요합니다")
	}

	goal, goalID, ok := a.resolveGoal(body)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "goal이 필요합니다 (활성 월드에 블록 목표 없음)")
	}

	req := models.MissionRequest{BlockID: body.BlockID, Goal: goal}
	if body.Start != nil {
		req.Start = *body.Start
	}
	if body.Robot != nil {
		req.Robot = *body.Robot
	} else {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		pose, err := a.Executor.Robot().Pose(ctx)
		cancel()
		if err != nil {
			return fail(c, fiber.StatusServiceUnavailable, "로봇 자세를 알 수 없습니다: "+err.Error())
		}
		req.Robot = pose
	}

	mission := a.Planner.GenerateMission(req)
	if mission.Status == models.MissionAlreadyAtGoal && goalID != "" {
		if err := a.Worlds.SetGoalStatus(goalID, models.GoalDone); err != nil {
			a.Logger.Warnf("⚠️ 목표 상태 변경 실패: %v", err)
		}
	}
	a.recordPlanned(mission)
	a.broadcast(models.MessageTypeMission, mission)

	response := fiber.Map{
		"success": mission.Succeeded(),
		"mission": mission,
		"summary": models.JoinActions(mission.Actions),
	}
	if mission.Err != nil {
		response["message"] = mission.Err.Error()
	}

	if body.Execute && mission.Succeeded() {
		if err := a.Executor.Submit(mission); err != nil {
			if errors.Is(err, services.ErrExecutorBusy) {
				return fail(c, fiber.StatusConflict, err.Error())
			}
			return fail(c, fiber.StatusInternalServerError, err.Error())
		}
		response["submitted"] = true
	}
	return c.JSON(response)
}

// resolveGoal - 요청의 goal, 없으면 활성 월드의 미완료 목표
func (a *API) resolveGoal(body MissionPlanRequest) (models.Cell, string, bool) {
	if body.Goal != nil {
		return *body.Goal, "", true
	}
	if a.Worlds == nil || body.BlockID == "" {
		return models.Cell{}, "", false
	}
	g, ok := a.Worlds.PendingGoal(body.BlockID)
	return g.Cell, g.ID, ok
}

func (a *API) recordPlanned(m *models.Mission) {
	if a.Store.Enabled() {
		if err := a.Store.SaveMission(m); err != nil {
			a.Logger.Errorf("❌ 미션 저장 실패: %v", err)
		}
	}
	if a.Events != nil {
		a.Events.Record(models.MissionEvent{
			EventType:   models.EventPlanned,
			MissionID:   m.ID,
			RobotID:     a.RobotID,
			PoseX:       m.Robot.Cell.X,
			PoseY:       m.Robot.Cell.Y,
			PoseHeading: int(m.Robot.Heading),
			BlockID:     m.BlockID,
			BlockX:      m.Start.X,
			BlockY:      m.Start.Y,
			Message:     string(m.Status),
		})
	}
}

// HandleRecentMissions - 최근 미션 기록
func (a *API) HandleRecentMissions(c *fiber.Ctx) error {
	missions, err := a.Store.RecentMissions(queryInt(c, "limit", 20))
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(missions),
		"missions": missions,
	})
}

// HandleGetMission - 미션 기록과 실행 이벤트
func (a *API) HandleGetMission(c *fiber.Ctx) error {
	id := c.Params("id")
	record, err := a.Store.GetMission(id)
	if err != nil {
		return a.storeError(c, err)
	}
	events, err := a.Store.EventsByMission(id)
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"mission": record,
		"events":  events,
	})
}

func (a *API) storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoDatabase):
		return fail(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	a.Logger.Errorf("❌ 조회 실패: %v", err)
	return fail(c, fiber.StatusInternalServerError, "Failed to fetch records")
}
