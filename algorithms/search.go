package algorithms

import (
	"container/heap"

	"blockpush-backend/models"
)

// Direction - 4방향 이동 방향
type Direction int8

const (
	DirNone Direction = iota
	DirEast
	DirWest
	DirSouth
	DirNorth
)

// 이웃 생성 순서 (동, 서, 남, 북). 동점 처리 결과가 이 순서에 의존한다.
var neighborOrder = [4]Direction{DirEast, DirWest, DirSouth, DirNorth}

// Vector - 방향 단위 벡터 (y축은 아래로 증가)
func (d Direction) Vector() models.Cell {
	switch d {
	case DirEast:
		return models.Cell{X: 1, Y: 0}
	case DirWest:
		return models.Cell{X: -1, Y: 0}
	case DirSouth:
		return models.Cell{X: 0, Y: 1}
	case DirNorth:
		return models.Cell{X: 0, Y: -1}
	}
	return models.Cell{}
}

func (d Direction) String() string {
	return [...]string{"none", "east", "west", "south", "north"}[d]
}

// DirectionOf - 인접한 두 셀 사이의 이동 방향 (인접하지 않으면 DirNone)
func DirectionOf(from, to models.Cell) Direction {
	switch to.Sub(from) {
	case models.Cell{X: 1, Y: 0}:
		return DirEast
	case models.Cell{X: -1, Y: 0}:
		return DirWest
	case models.Cell{X: 0, Y: 1}:
		return DirSouth
	case models.Cell{X: 0, Y: -1}:
		return DirNorth
	}
	return DirNone
}

// SearchOptions - 탐색 비용 모델
type SearchOptions struct {
	BaseCost      float64 // 한 칸 이동 비용 (0이면 1)
	TurnPenalty   float64 // 직전 이동과 방향이 다를 때 추가 비용 (0이면 일반 최단 경로)
	MaxExpansions int     // 확장 노드 상한 (0이면 무제한)
}

// SearchResult - 탐색 결과와 통계
type SearchResult struct {
	Path     []models.Cell
	Cost     float64
	Expanded int
}

// Found - 경로가 있는지
func (r SearchResult) Found() bool {
	return len(r.Path) > 0
}

// searchNode - 탐색 노드 (진입 방향을 함께 저장)
type searchNode struct {
	cell   models.Cell
	g, f   float64
	dir    Direction
	seq    int // 삽입 순서 (동점 처리)
	parent *searchNode
	index  int // for heap
}

// openHeap - f 오름차순, 동점이면 삽입 순서
type openHeap []*searchNode

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}

func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openHeap) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// FindPath - 4방향 회전 가중 최단 경로 탐색
//
// 경로를 찾지 못하면 nil을 반환한다. 오류가 아니라 정상적인 "경로 없음" 결과다.
func FindPath(grid Occupancy, start, goal models.Cell, opts SearchOptions) []models.Cell {
	return Search(grid, start, goal, opts).Path
}

// Search - FindPath와 동일하며 비용과 확장 수를 함께 반환
//
// 우선순위는 f = g + h (h = 맨해튼 거리). TurnPenalty > 0이면 h가 필요한 회전을
// 세지 못하므로 결과가 항상 전역 최적은 아니다. 최적성은 TurnPenalty == 0일 때만 보장된다.
// 셀마다 최선 g 하나만 기록하는 것도 같은 근사의 일부다.
func Search(grid Occupancy, start, goal models.Cell, opts SearchOptions) SearchResult {
	if start == goal {
		return SearchResult{Path: []models.Cell{start}}
	}
	if opts.BaseCost <= 0 {
		opts.BaseCost = 1
	}
	if opts.TurnPenalty < 0 {
		opts.TurnPenalty = 0
	}

	openSet := make(openHeap, 0, 64)
	heap.Init(&openSet)
	seq := 0
	push := func(n *searchNode) {
		n.seq = seq
		seq++
		heap.Push(&openSet, n)
	}

	gScores := map[models.Cell]float64{start: 0}
	push(&searchNode{cell: start, f: float64(ManhattanDistance(start, goal))})

	expanded := 0
	for openSet.Len() > 0 {
		current := heap.Pop(&openSet).(*searchNode)

		// 더 좋은 g로 이미 갱신된 낡은 항목
		if current.g > gScores[current.cell] {
			continue
		}

		if current.cell == goal {
			return SearchResult{Path: reconstructPath(current), Cost: current.g, Expanded: expanded}
		}

		expanded++
		if opts.MaxExpansions > 0 && expanded > opts.MaxExpansions {
			return SearchResult{Expanded: expanded}
		}

		for _, dir := range neighborOrder {
			next := current.cell.Add(dir.Vector())
			if !grid.IsInside(next.X, next.Y) || grid.GetCell(next.X, next.Y) != models.CellFree {
				continue
			}

			moveCost := opts.BaseCost
			if current.dir != DirNone && current.dir != dir {
				moveCost += opts.TurnPenalty
			}
			tentativeG := current.g + moveCost

			if existingG, ok := gScores[next]; ok && tentativeG >= existingG {
				continue
			}
			gScores[next] = tentativeG
			push(&searchNode{
				cell:   next,
				g:      tentativeG,
				f:      tentativeG + float64(ManhattanDistance(next, goal)),
				dir:    dir,
				parent: current,
			})
		}
	}

	// 경로 없음
	return SearchResult{Expanded: expanded}
}

// reconstructPath - 목표에서 부모를 따라가 시작→목표 순서로 뒤집음
func reconstructPath(n *searchNode) []models.Cell {
	var path []models.Cell
	for current := n; current != nil; current = current.parent {
		path = append(path, current.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ManhattanDistance - 맨해튼 거리
func ManhattanDistance(a, b models.Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// CountTurns - 경로에서 이동 방향이 바뀌는 횟수
func CountTurns(path []models.Cell) int {
	turns := 0
	for i := 2; i < len(path); i++ {
		if DirectionOf(path[i-2], path[i-1]) != DirectionOf(path[i-1], path[i]) {
			turns++
		}
	}
	return turns
}

// PathCost - 주어진 비용 모델로 경로 비용 계산
func PathCost(path []models.Cell, opts SearchOptions) float64 {
	if len(path) < 2 {
		return 0
	}
	if opts.BaseCost <= 0 {
		opts.BaseCost = 1
	}
	return float64(len(path)-1)*opts.BaseCost + float64(CountTurns(path))*opts.TurnPenalty
}

// IsContiguous - 연속한 셀이 정확히 한 축으로 한 칸씩 차이나는지
func IsContiguous(path []models.Cell) bool {
	for i := 1; i < len(path); i++ {
		if DirectionOf(path[i-1], path[i]) == DirNone {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
