package services

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"blockpush-backend/models"
)

// ErrBlockNotFound - 등록되지 않은 블록 ID
var ErrBlockNotFound = errors.New("block not found")

// BlockRegistry - 블록 등록/조회/갱신
type BlockRegistry struct {
	mu     sync.RWMutex
	blocks map[string]*models.Block // block_id -> Block
}

// NewBlockRegistry - 빈 레지스트리 생성
func NewBlockRegistry() *BlockRegistry {
	return &BlockRegistry{blocks: make(map[string]*models.Block)}
}

// Add - 블록 등록
//
// ID가 비어 있으면 새 UUID를 부여한다. 같은 ID가 있으면 덮어쓴다.
// 저장되는 값은 복사본이다.
func (r *BlockRegistry) Add(b models.Block) models.Block {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Width <= 0 {
		b.Width = models.DefaultBlockSize
	}
	if b.Height <= 0 {
		b.Height = models.DefaultBlockSize
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := b
	r.blocks[b.ID] = &stored
	return stored
}

// Get - 블록 조회 (복사본)
func (r *BlockRegistry) Get(id string) (models.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.blocks[id]
	if !exists {
		return models.Block{}, errors.Wrap(ErrBlockNotFound, id)
	}
	return *b, nil
}

// MoveTo - 블록을 셀로 이동하고 이전 상태를 반환
func (r *BlockRegistry) MoveTo(id string, c models.Cell) (before, after models.Block, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.blocks[id]
	if !exists {
		return models.Block{}, models.Block{}, errors.Wrap(ErrBlockNotFound, id)
	}
	before = *b
	b.MoveTo(c)
	return before, *b, nil
}

// Remove - 블록 등록 해제
func (r *BlockRegistry) Remove(id string) (models.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.blocks[id]
	if !exists {
		return models.Block{}, errors.Wrap(ErrBlockNotFound, id)
	}
	delete(r.blocks, id)
	return *b, nil
}

// At - 셀에 중심이 있는 블록 조회
func (r *BlockRegistry) At(c models.Cell) (models.Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.blocks {
		if b.Cell() == c {
			return *b, true
		}
	}
	return models.Block{}, false
}

// List - ID 순으로 정렬된 모든 블록
func (r *BlockRegistry) List() []models.Block {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Block, 0, len(r.blocks))
	for _, b := range r.blocks {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count - 등록된 블록 수
func (r *BlockRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocks)
}
