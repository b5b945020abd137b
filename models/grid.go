package models

import "fmt"

// CellState - 점유 격자 셀 상태
type CellState int8

const (
	CellFree    CellState = 0  // 통행 가능
	CellBlocked CellState = 1  // 장애물 또는 블록
	CellUnknown CellState = -1 // 범위 밖 / 미확인
)

func (s CellState) String() string {
	switch s {
	case CellFree:
		return "free"
	case CellBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ParseCellState - "free" / "blocked" / "unknown" 문자열 변환
func ParseCellState(s string) (CellState, error) {
	switch s {
	case "free", "0":
		return CellFree, nil
	case "blocked", "1":
		return CellBlocked, nil
	case "unknown", "-1":
		return CellUnknown, nil
	}
	return CellUnknown, fmt.Errorf("unknown cell state: %q", s)
}

// Cell - 격자 좌표 (x, y)
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add - 벡터 덧셈
func (c Cell) Add(o Cell) Cell {
	return Cell{X: c.X + o.X, Y: c.Y + o.Y}
}

// Sub - 벡터 뺄셈
func (c Cell) Sub(o Cell) Cell {
	return Cell{X: c.X - o.X, Y: c.Y - o.Y}
}

// ========================================
// 로봇 방향 (y축은 아래로 증가)
// ========================================

// Heading - 로봇 진행 방향 (도 단위, 0/90/180/270)
type Heading int

const (
	HeadingEast  Heading = 0
	HeadingSouth Heading = 90
	HeadingWest  Heading = 180
	HeadingNorth Heading = 270
)

// NormalizeHeading - 임의의 각도를 [0, 360) 범위로 정규화
func NormalizeHeading(deg int) Heading {
	d := deg % 360
	if d < 0 {
		d += 360
	}
	return Heading(d)
}

// Right - 오른쪽 90도 회전 결과
func (h Heading) Right() Heading {
	return NormalizeHeading(int(h) + 90)
}

// Left - 왼쪽 90도 회전 결과
func (h Heading) Left() Heading {
	return NormalizeHeading(int(h) - 90)
}

// Vector - 방향의 단위 벡터
func (h Heading) Vector() Cell {
	switch NormalizeHeading(int(h)) {
	case HeadingSouth:
		return Cell{X: 0, Y: 1}
	case HeadingWest:
		return Cell{X: -1, Y: 0}
	case HeadingNorth:
		return Cell{X: 0, Y: -1}
	default:
		return Cell{X: 1, Y: 0}
	}
}

func (h Heading) String() string {
	switch NormalizeHeading(int(h)) {
	case HeadingEast:
		return "east"
	case HeadingSouth:
		return "south"
	case HeadingWest:
		return "west"
	case HeadingNorth:
		return "north"
	}
	return fmt.Sprintf("%d°", int(h))
}

// Pose - 로봇의 논리적 위치 (셀 + 방향)
type Pose struct {
	Cell    Cell    `json:"cell" yaml:"cell"`
	Heading Heading `json:"heading" yaml:"heading"`
}

func (p Pose) String() string {
	return fmt.Sprintf("%s facing %s", p.Cell, p.Heading)
}
