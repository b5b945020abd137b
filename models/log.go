package models

import (
	"time"
)

// MissionRecord - 계획된 미션 기록
type MissionRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BlockID string `gorm:"size:64;index" json:"block_id"`
	Status  string `gorm:"size:32;index" json:"status"`
	Reason  string `json:"reason"`

	// 시작/목표
	RobotX       int `json:"robot_x"`
	RobotY       int `json:"robot_y"`
	RobotHeading int `json:"robot_heading"`
	StartX       int `json:"start_x"`
	StartY       int `json:"start_y"`
	GoalX        int `json:"goal_x"`
	GoalY        int `json:"goal_y"`

	// 계획 결과
	BlockPathLen   int    `json:"block_path_len"`
	ApproachCount  int    `json:"approach_count"`
	TransportCount int    `json:"transport_count"`
	Actions        string `gorm:"type:text" json:"actions"` // "F TL F ..." 공백 구분
}

// MissionEvent - 미션 실행 중 발생한 이벤트 로그
type MissionEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	EventType string    `gorm:"size:32;index" json:"event_type"` // "planned", "action", "push", "done", "error"
	MissionID string    `gorm:"size:36;index" json:"mission_id"`
	RobotID   string    `gorm:"size:64" json:"robot_id"`

	// 명령 정보
	Seq    int    `json:"seq"`
	Action string `gorm:"size:4" json:"action"`

	// 실행 후 로봇 자세
	PoseX       int `json:"pose_x"`
	PoseY       int `json:"pose_y"`
	PoseHeading int `json:"pose_heading"`

	// 블록 정보 (push 이벤트)
	BlockID string `gorm:"size:64" json:"block_id"`
	BlockX  int    `json:"block_x"`
	BlockY  int    `json:"block_y"`

	Message string `json:"message"`
}

// 이벤트 타입 상수
const (
	EventPlanned = "planned"
	EventAction  = "action"
	EventPush    = "push"
	EventDone    = "done"
	EventError   = "error"
)
