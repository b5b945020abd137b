package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"blockpush-backend/models"
	"blockpush-backend/services"
)

// API - HTTP / WebSocket 핸들러가 공유하는 서비스
type API struct {
	Planner  *services.MissionPlanner
	Executor *services.Executor
	Store    *services.MissionStore
	Events   services.EventSink
	Clients  *ClientManager
	Remote   *services.RemoteRobot // ROBOT_MODE=remote 일 때만
	Sim      *services.SimRobot    // ROBOT_MODE=sim 일 때만
	Worlds   *services.WorldGenerator
	RobotID  string
	Logger   *zap.SugaredLogger
}

// Register - 라우트 등록
func (a *API) Register(app *fiber.App) {
	if a.Logger == nil {
		a.Logger = zap.NewNop().Sugar()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Block push mission server is running.")
	})

	api := app.Group("/api")
	api.Get("/health", a.HandleHealth)

	// 격자 / 블록 / 월드
	api.Get("/grid", a.HandleGetGrid)
	api.Put("/grid/cells", a.HandleUpdateCells)
	api.Delete("/grid", a.HandleClearGrid)
	api.Get("/blocks", a.HandleListBlocks)
	api.Post("/blocks", a.HandleAddBlock)
	api.Get("/blocks/:id", a.HandleGetBlock)
	api.Delete("/blocks/:id", a.HandleDeleteBlock)
	api.Get("/world", a.HandleGetWorld)
	api.Post("/world", a.HandleLoadWorld)
	api.Post("/world/goals", a.HandleAddGoal)
	api.Post("/world/generate", a.HandleGenerateWorld)

	// 계획 / 실행
	api.Post("/pathfinding", a.HandlePathfinding)
	api.Post("/mission", a.HandleMission)
	api.Get("/missions", a.HandleRecentMissions)
	api.Get("/missions/:id", a.HandleGetMission)
	api.Get("/queue", a.HandleGetQueue)
	api.Delete("/queue", a.HandleClearQueue)
	api.Get("/robot", a.HandleRobotStatus)

	// 이벤트 로그 조회
	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", a.HandleGetRecentLogs)     // 최근 이벤트
	logsAPI.Get("/range", a.HandleGetLogsByTimeRange) // 시간 범위
	logsAPI.Get("/type", a.HandleGetLogsByEventType)  // 이벤트 타입별
	logsAPI.Get("/stats", a.HandleGetLogStats)        // 통계

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/robot", websocket.New(a.HandleRobotWebSocket))
	app.Get("/websocket/web", websocket.New(a.HandleWebClientWebSocket))
}

// HandleHealth - 서버 상태
func (a *API) HandleHealth(c *fiber.Ctx) error {
	clients := map[string]int{}
	if a.Clients != nil {
		clients = a.Clients.GetClientCount()
	}
	return c.JSON(fiber.Map{
		"status":  "OK",
		"clients": clients,
		"planner": a.Planner.Describe(),
		"db":      a.Store.Enabled(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Broadcast - 웹 클라이언트에게 전송 (Executor 브로드캐스트 함수로도 사용)
func (a *API) Broadcast(msg models.WebSocketMessage) {
	if a.Clients != nil {
		a.Clients.BroadcastMessage(msg)
	}
}

func (a *API) broadcast(msgType string, data interface{}) {
	a.Broadcast(models.WebSocketMessage{Type: msgType, Data: data, Timestamp: time.Now().UnixMilli()})
}

// syncSim - 격자/블록이 바뀌면 시뮬레이터 세계도 맞춘다
func (a *API) syncSim() {
	if a.Sim != nil {
		a.Sim.Resync(a.Planner)
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// queryInt - 정수 쿼리 파라미터 (없거나 잘못되면 기본값)
func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := cast.ToIntE(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
