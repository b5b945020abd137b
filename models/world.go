package models

import "time"

// World - 격자, 장애물, 블록, 로봇 초기 자세 (YAML 월드 파일)
type World struct {
	ID        string       `json:"id" yaml:"id,omitempty"`
	Name      string       `json:"name" yaml:"name,omitempty"`
	Width     int          `json:"width" yaml:"width"`
	Height    int          `json:"height" yaml:"height"`
	CellSize  float64      `json:"cell_size" yaml:"cell_size,omitempty"`
	Rows      []string     `json:"rows,omitempty" yaml:"rows,omitempty"` // "#" 장애물, "." 빈칸
	Obstacles []Cell       `json:"obstacles" yaml:"obstacles,omitempty"`
	Blocks    []WorldBlock `json:"blocks" yaml:"blocks"`
	Robot     Pose         `json:"robot" yaml:"robot"`
	Goals     []Goal       `json:"goals" yaml:"goals,omitempty"`
	CreatedAt time.Time    `json:"created_at" yaml:"-"`
}

// WorldBlock - 월드 파일의 블록 배치
type WorldBlock struct {
	ID   string `json:"id" yaml:"id"`
	Cell Cell   `json:"cell" yaml:"cell"`
}

// Goal - 블록 목표 위치
type Goal struct {
	ID      string `json:"id" yaml:"id,omitempty"`
	BlockID string `json:"block_id" yaml:"block_id"`
	Cell    Cell   `json:"cell" yaml:"cell"`
	Status  string `json:"status" yaml:"status,omitempty"` // "pending", "done"
}

// 목표 상태
const (
	GoalPending = "pending"
	GoalDone    = "done"
)

// GoalFor - 블록의 첫 번째 목표
func (w *World) GoalFor(blockID string) (Goal, bool) {
	for _, g := range w.Goals {
		if g.BlockID == blockID {
			return g, true
		}
	}
	return Goal{}, false
}
