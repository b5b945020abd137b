package models

// Block - 밀어서 옮길 직사각형 블록
type Block struct {
	ID     string  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`           // 중심 x (셀 단위)
	Y      float64 `json:"y" yaml:"y"`           // 중심 y (셀 단위)
	Width  float64 `json:"width" yaml:"width"`   // 폭
	Height float64 `json:"height" yaml:"height"` // 높이
	Angle  float64 `json:"angle" yaml:"angle"`   // 회전 (시뮬레이션 표시용)
}

// BoundingBox - 블록 경계 상자
type BoundingBox struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultBlockSize - 셀 하나에 들어가는 블록 한 변 길이 (경계 셀 중복 방지)
const DefaultBlockSize = 0.9

// NewBlock - 셀 중앙에 놓인 한 칸 크기의 블록 생성
func NewBlock(id string, c Cell) *Block {
	b := &Block{
		ID:     id,
		Width:  DefaultBlockSize,
		Height: DefaultBlockSize,
	}
	b.MoveTo(c)
	return b
}

// BoundingBox - 중심과 크기로부터 경계 상자 계산
func (b *Block) BoundingBox() BoundingBox {
	return BoundingBox{
		Left:   b.X - b.Width/2,
		Right:  b.X + b.Width/2,
		Top:    b.Y - b.Height/2,
		Bottom: b.Y + b.Height/2,
	}
}

// Cell - 블록 중심이 속한 셀 (정수 절삭)
func (b *Block) Cell() Cell {
	return Cell{X: int(b.X), Y: int(b.Y)}
}

// MoveTo - 블록 중심을 셀 중앙으로 이동
func (b *Block) MoveTo(c Cell) {
	b.X = float64(c.X) + 0.5
	b.Y = float64(c.Y) + 0.5
}
