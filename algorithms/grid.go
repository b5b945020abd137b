package algorithms

import (
	"strings"

	"blockpush-backend/models"
)

// Occupancy - 탐색에 필요한 격자 읽기 인터페이스
type Occupancy interface {
	IsInside(x, y int) bool
	GetCell(x, y int) models.CellState
}

// Grid - 결정적 2D 점유 격자
//
// 범위 밖 좌표 읽기는 CellUnknown, 쓰기는 무시한다.
// 호출자가 매번 범위를 검사할 필요가 없도록 의도적으로 관대하게 동작한다.
type Grid struct {
	width    int
	height   int
	cellSize float64
	cells    []models.CellState // y*width + x
}

// NewGrid - 모든 셀이 FREE인 격자 생성
func NewGrid(width, height int, cellSize float64) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cells:    make([]models.CellState, width*height),
	}
}

// NewGridFromWorld - 월드 크기(미터)와 셀 크기(로봇 크기)로 격자 생성 (셀 수는 절삭)
func NewGridFromWorld(worldWidth, worldHeight, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return NewGrid(int(worldWidth/cellSize), int(worldHeight/cellSize), cellSize)
}

func (g *Grid) Width() int        { return g.width }
func (g *Grid) Height() int       { return g.height }
func (g *Grid) CellSize() float64 { return g.cellSize }

// IsInside - [0,width) x [0,height) 범위 검사
func (g *Grid) IsInside(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// GetCell - 셀 상태 조회 (범위 밖은 CellUnknown)
func (g *Grid) GetCell(x, y int) models.CellState {
	if !g.IsInside(x, y) {
		return models.CellUnknown
	}
	return g.cells[y*g.width+x]
}

// SetCell - 셀 상태 변경 (범위 밖은 무시)
func (g *Grid) SetCell(x, y int, state models.CellState) {
	if !g.IsInside(x, y) {
		return
	}
	g.cells[y*g.width+x] = state
}

// IsFree - 범위 안이고 FREE인지
func (g *Grid) IsFree(c models.Cell) bool {
	return g.GetCell(c.X, c.Y) == models.CellFree
}

// BlockCells - 블록 경계 상자가 덮는 격자 셀 목록
//
// 경계 상자 모서리를 정수로 절삭해 양 끝 셀을 모두 포함한다.
// 정확한 다각형 래스터화 대신 보수적으로 겹침을 판단한다.
func (g *Grid) BlockCells(b *models.Block) []models.Cell {
	bb := b.BoundingBox()
	minX, minY := int(bb.Left), int(bb.Top)
	maxX, maxY := int(bb.Right), int(bb.Bottom)

	var cells []models.Cell
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if g.IsInside(x, y) {
				cells = append(cells, models.Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// MarkBlock - 블록이 차지하는 셀을 BLOCKED로 표시
func (g *Grid) MarkBlock(b *models.Block) {
	for _, c := range g.BlockCells(b) {
		g.SetCell(c.X, c.Y, models.CellBlocked)
	}
}

// ClearBlock - 블록이 차지하던 셀을 FREE로 되돌림
func (g *Grid) ClearBlock(b *models.Block) {
	for _, c := range g.BlockCells(b) {
		g.SetCell(c.X, c.Y, models.CellFree)
	}
}

// WorldToGrid - 월드 좌표 → 격자 좌표 (반올림이 아닌 절삭)
func (g *Grid) WorldToGrid(x, y float64) models.Cell {
	return models.Cell{X: int(x / g.cellSize), Y: int(y / g.cellSize)}
}

// GridToWorld - 격자 좌표 → 셀 좌상단 월드 좌표
func (g *Grid) GridToWorld(c models.Cell) (float64, float64) {
	return float64(c.X) * g.cellSize, float64(c.Y) * g.cellSize
}

// CellCenter - 셀 중심의 월드 좌표
func (g *Grid) CellCenter(c models.Cell) (float64, float64) {
	x, y := g.GridToWorld(c)
	return x + g.cellSize/2, y + g.cellSize/2
}

// Clear - 모든 셀을 FREE로 초기화
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = models.CellFree
	}
}

// Clone - 깊은 복사
func (g *Grid) Clone() *Grid {
	cells := make([]models.CellState, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cellSize: g.cellSize, cells: cells}
}

// Rows - 행 단위 텍스트 표현 ("#" 막힘, "." 빈칸, "?" 미확인)
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		sb.Reset()
		for x := 0; x < g.width; x++ {
			switch g.GetCell(x, y) {
			case models.CellBlocked:
				sb.WriteByte('#')
			case models.CellFree:
				sb.WriteByte('.')
			default:
				sb.WriteByte('?')
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

// String - 디버그용 격자 출력
func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}
