package models

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Robot → Server → Web
	MessageTypePose   = "pose"   // 로봇 위치/방향 보고
	MessageTypeReport = "report" // 명령 수행 결과
	MessageTypeHello  = "hello"  // 로봇 연결 시 초기 자세

	// Server → Robot
	MessageTypeAction = "action" // 단일 명령 토큰

	// Server → Web
	MessageTypeMission      = "mission"       // 미션 계획 결과
	MessageTypeActionDone   = "action_done"   // 명령 실행 완료
	MessageTypeMissionDone  = "mission_done"  // 미션 종료
	MessageTypeMissionError = "mission_error" // 실행 중 오류
	MessageTypeGridUpdate   = "grid_update"   // 격자/블록 변경
	MessageTypeSystemInfo   = "system_info"   // 시스템 정보
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// ActionEventData - 명령 실행 이벤트
type ActionEventData struct {
	MissionID string `json:"mission_id"`
	Seq       int    `json:"seq"`
	Action    Action `json:"action"`
	Pose      Pose   `json:"pose"`
	Pending   int    `json:"pending"`
}

// MissionDoneData - 미션 종료 이벤트
type MissionDoneData struct {
	MissionID string `json:"mission_id"`
	Executed  int    `json:"executed"`
	Pose      Pose   `json:"pose"`
	Error     string `json:"error,omitempty"`
}
