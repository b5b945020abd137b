package models

// GridSnapshot - 격자 전체 상태 (HTTP/WebSocket 전송용)
type GridSnapshot struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	CellSize float64  `json:"cell_size"`
	Rows     []string `json:"rows"` // "#" 막힘, "." 빈칸, "?" 미확인
	Blocks   []Block  `json:"blocks"`

	Timestamp int64 `json:"timestamp"`
}

// CellUpdate - 셀 상태 변경 요청
type CellUpdate struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	State string `json:"state"` // "free" | "blocked" | "unknown"
}

// RobotCommandMessage - 원격 로봇에게 보내는 명령
type RobotCommandMessage struct {
	MissionID string `json:"mission_id,omitempty"`
	Seq       int    `json:"seq"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// RobotReportMessage - 원격 로봇의 명령 수행 결과 보고
type RobotReportMessage struct {
	Seq   int    `json:"seq"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Pose  Pose   `json:"pose"`
}
