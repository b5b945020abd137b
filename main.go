package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blockpush-backend/algorithms"
	"blockpush-backend/handlers"
	"blockpush-backend/logging"
	"blockpush-backend/models"
	"blockpush-backend/services"
)

func main() {
	// .env 파일 로드
	envErr := godotenv.Load()

	cfg, err := services.LoadConfig()
	if err != nil {
		logging.New("server", logging.Options{}).Fatalf("❌ 설정 오류: %v", err)
	}

	logger := logging.New("server", logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		logger.Warn("⚠️  .env 파일을 찾을 수 없습니다.")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatalf("❌ 서버 종료: %v", err)
	}
}

func run(cfg *services.Config, logger *zap.SugaredLogger) (err error) {
	planner, start, err := buildPlanner(cfg, logger.Named("planner"))
	if err != nil {
		return err
	}
	logger.Infof("🧭 계획기 준비: %s", planner.Describe())

	db, err := services.OpenDatabase(cfg, logger.Named("db"))
	if err != nil {
		return err
	}
	events := services.NewEventBuffer(db, cfg.LogFlushSize, cfg.LogFlushInterval, logger.Named("events"))
	events.Start()
	defer func() {
		// 종료 시 남은 이벤트 저장 후 DB 닫기
		err = multierr.Combine(err, events.Stop(), services.CloseDatabase(db))
	}()

	clients := handlers.NewClientManager(logger.Named("ws"))
	api := &handlers.API{
		Planner: planner,
		Store:   services.NewMissionStore(db),
		Events:  events,
		Clients: clients,
		Worlds:  services.NewWorldGenerator(0),
		RobotID: cfg.RobotID,
		Logger:  logger.Named("api"),
	}

	var robot services.Robot
	switch cfg.RobotMode {
	case models.RobotModeRemote:
		api.Remote = services.NewRemoteRobot(cfg.RobotTimeout, logger.Named("remote"))
		robot = api.Remote
	default:
		api.Sim = services.NewSimRobotFromPlanner(planner, start, logger.Named("sim"))
		robot = api.Sim
	}

	api.Executor = services.NewExecutor(planner, robot, services.ExecutorOptions{
		RobotID:   cfg.RobotID,
		Mode:      cfg.RobotMode,
		Tick:      cfg.ExecTick,
		Events:    events,
		Broadcast: api.Broadcast,
	}, logger.Named("executor"))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	api.Register(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clients.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return api.Executor.Run(gctx)
	})
	g.Go(func() error {
		logger.Infof("🚀 서버 시작: http://localhost%s (robot=%s)", cfg.HTTPAddr, cfg.RobotMode)
		logger.Infof("📡 WebSocket: ws://localhost%s/websocket/web, /websocket/robot", cfg.HTTPAddr)
		return app.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 서버 종료 중...")
		return app.Shutdown()
	})
	return g.Wait()
}

// buildPlanner - 월드 파일이 있으면 그 월드로, 없으면 빈 격자로 계획기 생성
func buildPlanner(cfg *services.Config, logger *zap.SugaredLogger) (*services.MissionPlanner, models.Pose, error) {
	if cfg.WorldFile == "" {
		grid := algorithms.NewGrid(cfg.GridWidth, cfg.GridHeight, cfg.CellSize)
		if cfg.WorldWidthM > 0 && cfg.WorldHeightM > 0 {
			grid = algorithms.NewGridFromWorld(cfg.WorldWidthM, cfg.WorldHeightM, cfg.CellSize)
		}
		return services.NewMissionPlanner(grid, cfg.PlannerOptions(), logger), models.Pose{}, nil
	}

	world, err := services.LoadWorld(cfg.WorldFile)
	if err != nil {
		return nil, models.Pose{}, err
	}
	planner, err := services.NewPlannerForWorld(world, cfg.PlannerOptions(), logger)
	if err != nil {
		return nil, models.Pose{}, err
	}
	logger.Infof("🗺️ 월드 파일 로드: %s (%dx%d, 블록 %d개)", cfg.WorldFile, world.Width, world.Height, len(world.Blocks))
	return planner, world.Robot, nil
}
