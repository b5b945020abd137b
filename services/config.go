package services

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"blockpush-backend/models"
)

// Config - 서버 설정 (환경 변수 / .env)
type Config struct {
	HTTPAddr    string
	CORSOrigins string

	// 격자
	GridWidth  int
	GridHeight int
	CellSize   float64
	WorldFile  string

	// 월드 크기 (미터, 0이면 GRID_WIDTH/HEIGHT 사용)
	WorldWidthM  float64
	WorldHeightM float64

	// 계획
	TurnPenalty         float64
	MaxSearchExpansions int

	// 실행
	RobotMode    string
	RobotID      string
	ExecTick     time.Duration
	RobotTimeout time.Duration

	// 로깅
	LogLevel         string
	LogFile          string
	LogFlushSize     int
	LogFlushInterval time.Duration

	// DB
	DBDriver      string // "mysql" | "sqlite" | "none"
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	SQLitePath    string
}

// DefaultTurnPenalty - 블록 경로 탐색의 기본 회전 비용
const DefaultTurnPenalty = 5.0

// LoadConfig - 환경 변수에서 설정 읽기 (없으면 기본값)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:            envString("HTTP_ADDR", ":3000"),
		CORSOrigins:         envString("CORS_ORIGINS", "http://localhost:5173, http://localhost:3000"),
		WorldFile:           envString("WORLD_FILE", ""),
		RobotMode:           strings.ToLower(envString("ROBOT_MODE", models.RobotModeSim)),
		RobotID:             envString("ROBOT_ID", "pusher-001"),
		LogLevel:            envString("LOG_LEVEL", "info"),
		LogFile:             envString("LOG_FILE", ""),
		DBDriver:            strings.ToLower(envString("DB_DRIVER", "none")),
		MySQLHost:           envString("MYSQL_HOST", ""),
		MySQLUser:           envString("MYSQL_USER", ""),
		MySQLPassword:       envString("MYSQL_PASSWORD", ""),
		MySQLDatabase:       envString("MYSQL_DATABASE", ""),
		SQLitePath:          envString("SQLITE_PATH", "blockpush.db"),
		GridWidth:           10,
		GridHeight:          10,
		CellSize:            1,
		TurnPenalty:         DefaultTurnPenalty,
		MaxSearchExpansions: 0,
		ExecTick:            500 * time.Millisecond,
		RobotTimeout:        10 * time.Second,
		LogFlushSize:        50,
		LogFlushInterval:    10 * time.Second,
		MySQLPort:           3306,
	}

	var err error
	if cfg.GridWidth, err = envInt("GRID_WIDTH", cfg.GridWidth); err != nil {
		return nil, err
	}
	if cfg.GridHeight, err = envInt("GRID_HEIGHT", cfg.GridHeight); err != nil {
		return nil, err
	}
	if cfg.CellSize, err = envFloat("CELL_SIZE", cfg.CellSize); err != nil {
		return nil, err
	}
	if cfg.WorldWidthM, err = envFloat("WORLD_WIDTH_M", 0); err != nil {
		return nil, err
	}
	if cfg.WorldHeightM, err = envFloat("WORLD_HEIGHT_M", 0); err != nil {
		return nil, err
	}
	if cfg.TurnPenalty, err = envFloat("TURN_PENALTY", cfg.TurnPenalty); err != nil {
		return nil, err
	}
	if cfg.MaxSearchExpansions, err = envInt("MAX_SEARCH_EXPANSIONS", cfg.MaxSearchExpansions); err != nil {
		return nil, err
	}
	if cfg.ExecTick, err = envDuration("EXEC_TICK", cfg.ExecTick); err != nil {
		return nil, err
	}
	if cfg.RobotTimeout, err = envDuration("ROBOT_TIMEOUT", cfg.RobotTimeout); err != nil {
		return nil, err
	}
	if cfg.LogFlushSize, err = envInt("LOG_FLUSH_SIZE", cfg.LogFlushSize); err != nil {
		return nil, err
	}
	if cfg.LogFlushInterval, err = envDuration("LOG_FLUSH_INTERVAL", cfg.LogFlushInterval); err != nil {
		return nil, err
	}
	if cfg.MySQLPort, err = envInt("MYSQL_PORT", cfg.MySQLPort); err != nil || cfg.MySQLPort == 0 {
		cfg.MySQLPort = 3306 // 기본 포트
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate - 설정 값 검사
func (c *Config) Validate() error {
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return errors.Errorf("격자 크기는 양수여야 합니다: %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.CellSize <= 0 {
		return errors.Errorf("CELL_SIZE는 양수여야 합니다: %v", c.CellSize)
	}
	if c.TurnPenalty < 0 {
		return errors.Errorf("TURN_PENALTY는 음수일 수 없습니다: %v", c.TurnPenalty)
	}
	switch c.RobotMode {
	case models.RobotModeSim, models.RobotModeRemote:
	default:
		return errors.Errorf("알 수 없는 ROBOT_MODE: %q", c.RobotMode)
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLUser == "" || c.MySQLPassword == "" || c.MySQLDatabase == "" {
			return errors.New("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE")
		}
	case "sqlite", "none":
	default:
		return errors.Errorf("알 수 없는 DB_DRIVER: %q", c.DBDriver)
	}
	return nil
}

// PlannerOptions - 설정에서 계획기 옵션 구성
func (c *Config) PlannerOptions() PlannerOptions {
	return PlannerOptions{
		BlockTurnPenalty: c.TurnPenalty,
		MaxExpansions:    c.MaxSearchExpansions,
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := cast.ToIntE(strings.TrimSpace(v))
	if err != nil {
		return def, errors.Wrapf(err, "%s 값이 잘못되었습니다", key)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(v))
	if err != nil {
		return def, errors.Wrapf(err, "%s 값이 잘못되었습니다", key)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := cast.ToDurationE(strings.TrimSpace(v))
	if err != nil {
		return def, errors.Wrapf(err, "%s 값이 잘못되었습니다", key)
	}
	return d, nil
}
