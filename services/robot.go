package services

import (
	"context"

	"github.com/pkg/errors"

	"blockpush-backend/models"
)

var (
	// ErrMoveBlocked - 벽, 격자 밖, 또는 밀 수 없는 블록
	ErrMoveBlocked = errors.New("move blocked")
	// ErrUnknownAction - 실행할 수 없는 명령 토큰
	ErrUnknownAction = errors.New("unknown action")
)

// Robot - 한 칸 단위 명령을 수행하는 로봇
//
// 각 메서드는 동작이 끝나거나 실패할 때까지 블록된다.
type Robot interface {
	MoveForward(ctx context.Context) error
	MoveBackward(ctx context.Context) error
	TurnLeft(ctx context.Context) error
	TurnRight(ctx context.Context) error
	Push(ctx context.Context) error
	Pose(ctx context.Context) (models.Pose, error)
}

// Aligner - ALIGN 명령을 처리할 수 있는 로봇 (선택)
type Aligner interface {
	Align(ctx context.Context) error
}

// Dispatch - 명령 토큰을 로봇 메서드로 전달
//
// ALIGN은 Aligner를 구현하지 않은 로봇에게는 아무 동작도 하지 않는다.
func Dispatch(ctx context.Context, robot Robot, action models.Action) error {
	switch action {
	case models.ActionForward:
		return robot.MoveForward(ctx)
	case models.ActionBackward:
		return robot.MoveBackward(ctx)
	case models.ActionTurnLeft:
		return robot.TurnLeft(ctx)
	case models.ActionTurnRight:
		return robot.TurnRight(ctx)
	case models.ActionPush:
		return robot.Push(ctx)
	case models.ActionAlign:
		if a, ok := robot.(Aligner); ok {
			return a.Align(ctx)
		}
		return nil
	}
	return errors.Wrapf(ErrUnknownAction, "%d", uint8(action))
}
