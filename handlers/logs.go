package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (a *API) robotQuery(c *fiber.Ctx) string {
	return c.Query("robot_id", a.RobotID)
}

// HandleGetRecentLogs - 최근 이벤트 조회
func (a *API) HandleGetRecentLogs(c *fiber.Ctx) error {
	events, err := a.Store.RecentEvents(a.robotQuery(c), queryInt(c, "limit", 100))
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(events),
		"logs":    events,
	})
}

// HandleGetLogsByTimeRange - 시간 범위로 이벤트 조회
func (a *API) HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	startStr := c.Query("start") // RFC3339 format
	endStr := c.Query("end")     // RFC3339 format

	// 기본: 최근 24시간
	start := time.Now().Add(-24 * time.Hour)
	if startStr != "" {
		parsed, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid start time format (use RFC3339)")
		}
		start = parsed
	}
	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid end time format (use RFC3339)")
		}
		end = parsed
	}

	events, err := a.Store.EventsByTimeRange(a.robotQuery(c), start, end, queryInt(c, "limit", 100))
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(events),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"logs": events,
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 조회
func (a *API) HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return fail(c, fiber.StatusBadRequest, "event_type parameter is required")
	}

	events, err := a.Store.EventsByType(a.robotQuery(c), eventType, queryInt(c, "limit", 100))
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(events),
		"event_type": eventType,
		"logs":       events,
	})
}

// HandleGetLogStats - 이벤트 통계
func (a *API) HandleGetLogStats(c *fiber.Ctx) error {
	stats, err := a.Store.EventStats(a.robotQuery(c), queryInt(c, "hours", 24))
	if err != nil {
		return a.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
