package services

import (
	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

// TurnSense - 블록 경로가 꺾이는 방향 (화면 기준, y축 아래로 증가)
type TurnSense int

const (
	TurnStraight TurnSense = iota
	TurnLeft               // 외적 < 0 (예: 동 → 북)
	TurnRight              // 외적 > 0 (예: 동 → 남)
)

func (s TurnSense) String() string {
	return [...]string{"straight", "left", "right"}[s]
}

// maneuvers - 블록이 꺾일 때 로봇이 블록의 새 뒷면으로 한 칸 옆걸음하는 고정 시퀀스
//
// 블록 옆면에 붙은 채로는 회전할 수 없으므로 떨어져서(회전, 이동) 옆으로 돌아간 뒤
// (회전, 이동) 블록을 다시 바라본다(회전). 계산이 아닌 기하 상수다.
var maneuvers = map[TurnSense][5]models.Action{
	// 블록이 왼쪽으로 꺾임 → 로봇은 오른쪽으로 빠져서 돌아간다
	TurnLeft: {models.ActionTurnRight, models.ActionForward, models.ActionTurnLeft, models.ActionForward, models.ActionTurnLeft},
	// 블록이 오른쪽으로 꺾임 → 로봇은 왼쪽으로 빠져서 돌아간다
	TurnRight: {models.ActionTurnLeft, models.ActionForward, models.ActionTurnRight, models.ActionForward, models.ActionTurnRight},
}

// Maneuver - 꺾임 방향에 해당하는 5개 명령 (직진이면 nil)
func Maneuver(sense TurnSense) []models.Action {
	seq, ok := maneuvers[sense]
	if !ok {
		return nil
	}
	out := make([]models.Action, len(seq))
	copy(out, seq[:])
	return out
}

// TurnSenseOf - 들어오는 벡터와 나가는 벡터의 2D 외적으로 꺾임 방향 판단
func TurnSenseOf(in, out models.Cell) TurnSense {
	if in == out {
		return TurnStraight
	}
	cross := in.X*out.Y - in.Y*out.X
	if cross < 0 {
		return TurnLeft
	}
	return TurnRight
}

// HeadingBetween - 인접한 a에서 b를 향하는 방향 (인접하지 않으면 false)
func HeadingBetween(a, b models.Cell) (models.Heading, bool) {
	switch algorithms.DirectionOf(a, b) {
	case algorithms.DirEast:
		return models.HeadingEast, true
	case algorithms.DirSouth:
		return models.HeadingSouth, true
	case algorithms.DirWest:
		return models.HeadingWest, true
	case algorithms.DirNorth:
		return models.HeadingNorth, true
	}
	return models.HeadingEast, false
}

// TurnsBetween - 현재 방향에서 목표 방향으로 도는 최소 회전 명령
//
// 0° → 없음, 90° → 오른쪽 1회, 180° → 오른쪽 2회, 270° → 왼쪽 1회.
func TurnsBetween(from, to models.Heading) []models.Action {
	switch models.NormalizeHeading(int(to) - int(from)) {
	case 90:
		return []models.Action{models.ActionTurnRight}
	case 180:
		return []models.Action{models.ActionTurnRight, models.ActionTurnRight}
	case 270:
		return []models.Action{models.ActionTurnLeft}
	}
	return nil
}

// PathToActions - 경로를 회전+전진 명령으로 변환하고 최종 방향을 반환
func PathToActions(path []models.Cell, heading models.Heading) ([]models.Action, models.Heading) {
	var actions []models.Action
	current := models.NormalizeHeading(int(heading))
	for i := 1; i < len(path); i++ {
		target, ok := HeadingBetween(path[i-1], path[i])
		if !ok {
			continue // 인접하지 않은 이동은 건너뜀
		}
		actions = append(actions, TurnsBetween(current, target)...)
		current = target
		actions = append(actions, models.ActionForward)
	}
	return actions, current
}

// TransportActions - 블록 경로를 밀기 명령으로 변환
//
// 로봇은 이미 첫 밀기 방향으로 정렬되어 있다고 가정한다. 직진 구간은 PUSH 하나,
// 꺾이는 지점은 옆걸음 시퀀스 다음 PUSH 하나. 방향은 시퀀스가 스스로 맞춘다.
func TransportActions(blockPath []models.Cell) []models.Action {
	if len(blockPath) < 2 {
		return nil
	}

	actions := []models.Action{models.ActionPush}
	for i := 1; i < len(blockPath)-1; i++ {
		in := blockPath[i].Sub(blockPath[i-1])
		out := blockPath[i+1].Sub(blockPath[i])
		if sense := TurnSenseOf(in, out); sense != TurnStraight {
			actions = append(actions, Maneuver(sense)...)
		}
		actions = append(actions, models.ActionPush)
	}
	return actions
}

// CountManeuvers - 명령 목록에 포함된 옆걸음 시퀀스 수
func CountManeuvers(actions []models.Action) int {
	count := 0
	for i := 0; i+5 <= len(actions); i++ {
		for _, seq := range maneuvers {
			match := true
			for j, a := range seq {
				if actions[i+j] != a {
					match = false
					break
				}
			}
			if match {
				count++
				i += 4
				break
			}
		}
	}
	return count
}
