package services

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blockpush-backend/models"
)

// ErrNoDatabase - DB_DRIVER=none 으로 실행 중
var ErrNoDatabase = errors.New("database disabled")

// MySQLDSN - MySQL 접속 문자열
func MySQLDSN(cfg *Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase)
}

// OpenDatabase - 설정의 드라이버로 DB 연결 후 마이그레이션
//
// DB_DRIVER=none 이면 (nil, nil)을 반환한다. 이 경우 미션 기록은 저장되지 않는다.
func OpenDatabase(cfg *Config, logger *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "none", "":
		logger.Info("💤 DB 비활성화 (DB_DRIVER=none)")
		return nil, nil
	case "mysql":
		dialector = mysql.Open(MySQLDSN(cfg))
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, errors.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := openWith(dialector, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "mysql":
		masked := cfg.MySQLPassword
		if len(masked) > 3 {
			masked = masked[:3]
		}
		logger.Infof("✅ MySQL 연결 및 마이그레이션 완료 (%s:%s***@%s:%d/%s)",
			cfg.MySQLUser, masked, cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase)
	case "sqlite":
		logger.Infof("✅ SQLite 연결 및 마이그레이션 완료 (%s)", cfg.SQLitePath)
	}
	return db, nil
}

// OpenSQLiteMemory - 메모리 SQLite (테스트 / CLI 시뮬레이션)
func OpenSQLiteMemory() (*gorm.DB, error) {
	return openWith(sqlite.Open("file::memory:"), false)
}

func openWith(dialector gorm.Dialector, verbose bool) (*gorm.DB, error) {
	level := gormlogger.Silent
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, errors.Wrap(err, "DB 연결 실패")
	}

	if dialector.Name() == "sqlite" {
		// 메모리 DB는 연결마다 별개이므로 하나만 사용
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "DB 핸들 조회 실패")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.MissionRecord{}, &models.MissionEvent{}); err != nil {
		return nil, errors.Wrap(err, "마이그레이션 실패")
	}
	return db, nil
}

// CloseDatabase - DB 연결 종료 (nil 허용)
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "DB 핸들 조회 실패")
	}
	return sqlDB.Close()
}
