package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"blockpush-backend/models"
)

// MissionStore - 미션 기록 / 이벤트 조회
type MissionStore struct {
	db *gorm.DB
}

// NewMissionStore - db가 nil이면 모든 호출이 ErrNoDatabase
func NewMissionStore(db *gorm.DB) *MissionStore {
	return &MissionStore{db: db}
}

// Enabled - DB 사용 여부
func (s *MissionStore) Enabled() bool {
	return s != nil && s.db != nil
}

// MissionToRecord - 계획 결과를 저장용 레코드로 변환
func MissionToRecord(m *models.Mission) models.MissionRecord {
	return models.MissionRecord{
		ID:             m.ID,
		CreatedAt:      m.CreatedAt,
		BlockID:        m.BlockID,
		Status:         string(m.Status),
		Reason:         m.Reason,
		RobotX:         m.Robot.Cell.X,
		RobotY:         m.Robot.Cell.Y,
		RobotHeading:   int(m.Robot.Heading),
		StartX:         m.Start.X,
		StartY:         m.Start.Y,
		GoalX:          m.Goal.X,
		GoalY:          m.Goal.Y,
		BlockPathLen:   len(m.BlockPath),
		ApproachCount:  m.ApproachCount,
		TransportCount: m.TransportCount,
		Actions:        strings.Join(models.ActionCodes(m.Actions), " "),
	}
}

// SaveMission - 계획 결과 저장
func (s *MissionStore) SaveMission(m *models.Mission) error {
	if !s.Enabled() {
		return ErrNoDatabase
	}
	rec := MissionToRecord(m)
	return errors.Wrap(s.db.Create(&rec).Error, "save mission")
}

// GetMission - ID로 미션 기록 조회
func (s *MissionStore) GetMission(id string) (models.MissionRecord, error) {
	var rec models.MissionRecord
	if !s.Enabled() {
		return rec, ErrNoDatabase
	}
	err := s.db.Where("id = ?", id).First(&rec).Error
	return rec, errors.Wrapf(err, "mission %s", id)
}

// RecentMissions - 최근 미션 기록
func (s *MissionStore) RecentMissions(limit int) ([]models.MissionRecord, error) {
	var recs []models.MissionRecord
	if !s.Enabled() {
		return recs, ErrNoDatabase
	}
	err := s.db.Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// EventsByMission - 미션의 이벤트 (실행 순서대로)
func (s *MissionStore) EventsByMission(missionID string) ([]models.MissionEvent, error) {
	var events []models.MissionEvent
	if !s.Enabled() {
		return events, ErrNoDatabase
	}
	err := s.db.Where("mission_id = ?", missionID).Order("id ASC").Find(&events).Error
	return events, err
}

// RecentEvents - 로봇의 최근 이벤트
func (s *MissionStore) RecentEvents(robotID string, limit int) ([]models.MissionEvent, error) {
	var events []models.MissionEvent
	if !s.Enabled() {
		return events, ErrNoDatabase
	}
	err := s.db.Where("robot_id = ?", robotID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// EventsByTimeRange - 시간 범위로 이벤트 조회
func (s *MissionStore) EventsByTimeRange(robotID string, start, end time.Time, limit int) ([]models.MissionEvent, error) {
	var events []models.MissionEvent
	if !s.Enabled() {
		return events, ErrNoDatabase
	}
	query := s.db.Where("robot_id = ? AND created_at BETWEEN ? AND ?", robotID, start, end)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC, id DESC").Find(&events).Error
	return events, err
}

// EventsByType - 이벤트 타입별 조회
func (s *MissionStore) EventsByType(robotID, eventType string, limit int) ([]models.MissionEvent, error) {
	var events []models.MissionEvent
	if !s.Enabled() {
		return events, ErrNoDatabase
	}
	err := s.db.Where("robot_id = ? AND event_type = ?", robotID, eventType).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// EventStats - 최근 N시간 이벤트 통계
func (s *MissionStore) EventStats(robotID string, hours int) (map[string]interface{}, error) {
	if !s.Enabled() {
		return nil, ErrNoDatabase
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	var total int64
	if err := s.db.Model(&models.MissionEvent{}).
		Where("robot_id = ? AND created_at >= ?", robotID, since).
		Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count events")
	}

	var eventCounts []struct {
		EventType string
		Count     int64
	}
	if err := s.db.Model(&models.MissionEvent{}).
		Select("event_type, COUNT(*) as count").
		Where("robot_id = ? AND created_at >= ?", robotID, since).
		Group("event_type").
		Scan(&eventCounts).Error; err != nil {
		return nil, errors.Wrap(err, "group events")
	}

	eventMap := make(map[string]int64)
	for _, ec := range eventCounts {
		eventMap[ec.EventType] = ec.Count
	}

	var missions int64
	if err := s.db.Model(&models.MissionRecord{}).Where("created_at >= ?", since).Count(&missions).Error; err != nil {
		return nil, errors.Wrap(err, "count missions")
	}

	return map[string]interface{}{
		"total_events": total,
		"event_counts": eventMap,
		"missions":     missions,
		"time_range":   fmt.Sprintf("Last %d hours", hours),
	}, nil
}

// ========================================
// 이벤트 버퍼 (비동기 일괄 저장)
// ========================================

// EventBuffer - 실행 이벤트를 모아서 주기적으로 DB에 저장
type EventBuffer struct {
	db        *gorm.DB
	logger    *zap.SugaredLogger
	events    []models.MissionEvent
	mu        sync.Mutex
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 간격
	stopChan  chan struct{}
	done      chan struct{}
	flushErr  error
	started   bool
	once      sync.Once
}

// NewEventBuffer - 버퍼 생성 (Start로 자동 플러시 시작)
func NewEventBuffer(db *gorm.DB, flushSize int, flushInterval time.Duration, logger *zap.SugaredLogger) *EventBuffer {
	if flushSize <= 0 {
		flushSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventBuffer{
		db:        db,
		logger:    logger,
		events:    make([]models.MissionEvent, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start - 자동 플러시 고루틴 시작
func (b *EventBuffer) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go b.autoFlush()
	b.logger.Infof("✅ 이벤트 기록 시작 (flushSize: %d, flushInterval: %v)", b.flushSize, b.flushTime)
}

func (b *EventBuffer) autoFlush() {
	defer close(b.done)
	ticker := time.NewTicker(b.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.logger.Errorf("❌ 이벤트 저장 실패: %v", err)
			}
		case <-b.stopChan:
			b.flushErr = b.Flush() // 종료 시 남은 이벤트 저장
			return
		}
	}
}

// Record - 이벤트 추가 (버퍼가 차면 즉시 플러시)
func (b *EventBuffer) Record(event models.MissionEvent) {
	if b.db == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.mu.Lock()
	b.events = append(b.events, event)
	size := len(b.events)
	b.mu.Unlock()

	if size >= b.flushSize {
		go func() {
			if err := b.Flush(); err != nil {
				b.logger.Errorf("❌ 이벤트 저장 실패: %v", err)
			}
		}()
	}
}

// Pending - 아직 저장되지 않은 이벤트 수
func (b *EventBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Flush - 버퍼의 모든 이벤트를 DB에 저장
func (b *EventBuffer) Flush() error {
	b.mu.Lock()
	if len(b.events) == 0 || b.db == nil {
		b.mu.Unlock()
		return nil
	}
	toSave := make([]models.MissionEvent, len(b.events))
	copy(toSave, b.events)
	b.events = b.events[:0]
	b.mu.Unlock()

	if err := b.db.CreateInBatches(toSave, 100).Error; err != nil {
		return errors.Wrapf(err, "save %d events", len(toSave))
	}
	b.logger.Debugf("💾 이벤트 %d개 저장 완료", len(toSave))
	return nil
}

// Stop - 자동 플러시 종료 후 남은 이벤트 저장 (Start 이전이면 바로 플러시)
func (b *EventBuffer) Stop() error {
	var err error
	b.once.Do(func() {
		b.mu.Lock()
		started := b.started
		b.mu.Unlock()
		if !started {
			err = b.Flush()
			return
		}

		close(b.stopChan)
		select {
		case <-b.done:
			err = multierr.Append(b.flushErr, b.Flush())
		case <-time.After(5 * time.Second):
			err = multierr.Append(errors.New("event buffer stop timeout"), b.Flush())
		}
		b.logger.Info("🛑 이벤트 기록 종료")
	})
	return err
}
