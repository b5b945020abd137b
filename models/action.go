package models

import (
	"fmt"
	"strings"
)

// Action - 로봇에게 전달되는 기본 명령 토큰 (파라미터 없음)
type Action uint8

const (
	ActionForward   Action = iota + 1 // F
	ActionBackward                    // B
	ActionTurnLeft                    // TL
	ActionTurnRight                   // TR
	ActionPush                        // PB
	ActionAlign                       // AB (정렬/접근 인계 신호)
)

var actionCodes = map[Action]string{
	ActionForward:   "F",
	ActionBackward:  "B",
	ActionTurnLeft:  "TL",
	ActionTurnRight: "TR",
	ActionPush:      "PB",
	ActionAlign:     "AB",
}

var actionNames = map[Action]string{
	ActionForward:   "FORWARD",
	ActionBackward:  "BACKWARD",
	ActionTurnLeft:  "TURN_LEFT",
	ActionTurnRight: "TURN_RIGHT",
	ActionPush:      "PUSH",
	ActionAlign:     "ALIGN",
}

// Code - 짧은 와이어 코드 (F, TL, ...)
func (a Action) Code() string {
	if c, ok := actionCodes[a]; ok {
		return c
	}
	return "?"
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Valid - 정의된 토큰인지 확인
func (a Action) Valid() bool {
	_, ok := actionCodes[a]
	return ok
}

// ParseAction - 코드("TL") 또는 이름("TURN_LEFT") 파싱
func ParseAction(s string) (Action, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for a, code := range actionCodes {
		if key == code || key == actionNames[a] {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action: %q", s)
}

// MarshalText - JSON/YAML에서는 코드 문자열로 직렬화
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action: %d", uint8(a))
	}
	return []byte(a.Code()), nil
}

// UnmarshalText - 코드 문자열 역직렬화
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionCodes - 명령 목록을 코드 문자열 목록으로 변환
func ActionCodes(actions []Action) []string {
	codes := make([]string, len(actions))
	for i, a := range actions {
		codes[i] = a.Code()
	}
	return codes
}

// JoinActions - "F -> TL -> F" 형태의 문자열
func JoinActions(actions []Action) string {
	return strings.Join(ActionCodes(actions), " -> ")
}
