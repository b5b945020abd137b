package services

import (
	"sync"

	"blockpush-backend/models"
)

// ActionQueue - 계획기가 채우고 실행 루프가 하나씩 꺼내는 FIFO 명령 큐
//
// 계획기(쓰기)와 실행 루프(읽기)가 다른 고루틴에서 접근하므로 하나의 뮤텍스로 보호한다.
type ActionQueue struct {
	mu      sync.Mutex
	actions []models.Action
}

// NewActionQueue - 빈 큐 생성
func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// Enqueue - 명령 하나 추가
func (q *ActionQueue) Enqueue(a models.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, a)
}

// EnqueueMany - 여러 명령을 순서대로 추가
func (q *ActionQueue) EnqueueMany(actions []models.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, actions...)
}

// HasNext - 남은 명령이 있는지
func (q *ActionQueue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions) > 0
}

// Peek - 다음 명령 조회 (제거하지 않음)
func (q *ActionQueue) Peek() (models.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.actions) == 0 {
		return 0, false
	}
	return q.actions[0], true
}

// Dequeue - 다음 명령 꺼내기 (FIFO)
func (q *ActionQueue) Dequeue() (models.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.actions) == 0 {
		return 0, false
	}
	a := q.actions[0]
	q.actions = q.actions[1:]
	if len(q.actions) == 0 {
		q.actions = nil // 뒤쪽 배열 재사용 방지
	}
	return a, true
}

// Clear - 모든 명령 제거 (다음 미션에 재사용)
func (q *ActionQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = nil
}

// Len - 남은 명령 수
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Snapshot - 남은 명령 복사본
func (q *ActionQueue) Snapshot() []models.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Action, len(q.actions))
	copy(out, q.actions)
	return out
}

// String - 큐 내용을 소비하지 않고 출력
func (q *ActionQueue) String() string {
	snapshot := q.Snapshot()
	if len(snapshot) == 0 {
		return "[Empty Queue]"
	}
	return models.JoinActions(snapshot)
}
