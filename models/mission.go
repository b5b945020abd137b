package models

import "time"

// MissionStatus - 미션 계획 결과 상태
type MissionStatus string

const (
	MissionReady         MissionStatus = "ready"           // 명령 생성 완료
	MissionAlreadyAtGoal MissionStatus = "already_at_goal" // 블록이 이미 목표에 있음 (명령 없음, 정상)
	MissionInfeasible    MissionStatus = "infeasible"      // 경로 없음 (명령 없음, 실패)
)

// Mission - 블록 이동 미션 계획 결과
type Mission struct {
	ID        string        `json:"id"`
	BlockID   string        `json:"block_id,omitempty"`
	Robot     Pose          `json:"robot"`
	Start     Cell          `json:"start"`
	Goal      Cell          `json:"goal"`
	Status    MissionStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
	CreatedAt time.Time     `json:"created_at"`

	// 경로 정보
	BlockPath    []Cell  `json:"block_path"`
	ApproachPath []Cell  `json:"approach_path"`
	DockingCell  *Cell   `json:"docking_cell,omitempty"`
	FinalHeading Heading `json:"final_heading"`

	// 명령
	Actions        []Action `json:"actions"`
	ApproachCount  int      `json:"approach_count"`
	TransportCount int      `json:"transport_count"`
}

// Succeeded - 실행할 명령이 있거나 이미 목표인 경우
func (m *Mission) Succeeded() bool {
	return m.Status == MissionReady || m.Status == MissionAlreadyAtGoal
}

// Pushes - 미션 내 PUSH 토큰 수
func (m *Mission) Pushes() int {
	n := 0
	for _, a := range m.Actions {
		if a == ActionPush {
			n++
		}
	}
	return n
}

// MissionRequest - 미션 계획 요청
type MissionRequest struct {
	BlockID string `json:"block_id,omitempty"`
	Robot   Pose   `json:"robot"`
	Start   Cell   `json:"start"`
	Goal    Cell   `json:"goal"`
}
