package models

import "time"

// 로봇 실행 모드
const (
	RobotModeSim    = "sim"    // 격자 시뮬레이터
	RobotModeRemote = "remote" // WebSocket으로 연결된 실제 로봇
)

// 로봇 상태 상수
const (
	StateIdle      = "idle"      // 대기 중
	StateMoving    = "moving"    // 명령 실행 중
	StatePushing   = "pushing"   // 블록 미는 중
	StateStopped   = "stopped"   // 정지 (에러/장애물)
	StateCompleted = "completed" // 미션 완료
)

// RobotState - 로봇 상태 타입
type RobotState string

// RobotStatus - 실행기 관점의 로봇 상태
type RobotStatus struct {
	ID         string     `json:"id"`
	Mode       string     `json:"mode"`
	Connected  bool       `json:"connected"`
	Pose       Pose       `json:"pose"`
	WorldX     float64    `json:"world_x"` // 셀 중심 (미터)
	WorldY     float64    `json:"world_y"`
	State      RobotState `json:"state"`
	MissionID  string     `json:"mission_id,omitempty"`
	Pending    int        `json:"pending"`  // 큐에 남은 명령 수
	Executed   int        `json:"executed"` // 현재 미션에서 실행한 명령 수
	LastUpdate time.Time  `json:"last_update"`
}
