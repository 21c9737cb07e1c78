package repo

import (
	"context"
	"sync"
	"time"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// maxMessagesPerConversation bounds in-memory history growth, mirroring
// the teacher's maxMessagesPerSession trim guard.
const maxMessagesPerConversation = 1000

// MemoryRepositories is an in-memory Repositories implementation for tests
// and local runs, grounded on the teacher's MemoryStore (mutex + map +
// defensive clone of bricks and quantas on every read/write). Messages are
// stored and returned by pointer without cloning.
type MemoryRepositories struct {
	mu       sync.RWMutex
	bricks   map[string]*models.Brick
	quantas  map[string]*models.Quanta
	messages map[string][]*models.Message
}

// NewMemoryRepositories constructs an empty in-memory repository set.
func NewMemoryRepositories() *MemoryRepositories {
	return &MemoryRepositories{
		bricks:   make(map[string]*models.Brick),
		quantas:  make(map[string]*models.Quanta),
		messages: make(map[string][]*models.Message),
	}
}

func cloneBrick(b *models.Brick) *models.Brick {
	c := *b
	return &c
}

func cloneQuanta(q *models.Quanta) *models.Quanta {
	c := *q
	return &c
}

// Bricks returns a BrickRepository view over m.
func (m *MemoryRepositories) Bricks() BrickRepository { return memoryBricks{m} }

// Quantas returns a QuantaRepository view over m.
func (m *MemoryRepositories) Quantas() QuantaRepository { return memoryQuantas{m} }

// Messages returns a MessageRepository view over m.
func (m *MemoryRepositories) Messages() MessageRepository { return memoryMessages{m} }

type memoryBricks struct{ m *MemoryRepositories }

func (r memoryBricks) Create(ctx context.Context, brick *models.Brick) error {
	if brick.ID == "" {
		brick.ID = models.NewID()
	}
	now := time.Now()
	if brick.CreatedAt.IsZero() {
		brick.CreatedAt = now
	}
	brick.UpdatedAt = now

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.bricks[brick.ID] = cloneBrick(brick)
	return nil
}

func (r memoryBricks) Get(ctx context.Context, userID, id string) (*models.Brick, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	b, ok := r.m.bricks[id]
	if !ok || (userID != "" && b.UserID != userID) {
		return nil, kinderr.New(kinderr.NotFound, "brick not found")
	}
	return cloneBrick(b), nil
}

func (r memoryBricks) Update(ctx context.Context, brick *models.Brick) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.bricks[brick.ID]
	if !ok {
		return kinderr.New(kinderr.NotFound, "brick not found")
	}
	brick.CreatedAt = existing.CreatedAt
	brick.UpdatedAt = time.Now()
	r.m.bricks[brick.ID] = cloneBrick(brick)
	return nil
}

func (r memoryBricks) Delete(ctx context.Context, userID, id string, cascade bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bricks[id]
	if !ok || (userID != "" && b.UserID != userID) {
		return kinderr.New(kinderr.NotFound, "brick not found")
	}

	hasQuantas := false
	for _, q := range r.m.quantas {
		if q.BrickID == id {
			hasQuantas = true
			break
		}
	}
	if hasQuantas && !cascade {
		return kinderr.New(kinderr.Conflict, "brick has quantas; pass cascade=true to delete them")
	}

	if cascade {
		for qid, q := range r.m.quantas {
			if q.BrickID == id {
				delete(r.m.quantas, qid)
			}
		}
	}
	delete(r.m.bricks, id)
	return nil
}

func (r memoryBricks) List(ctx context.Context, userID string, opts ListOptions) ([]*models.Brick, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*models.Brick
	for _, b := range r.m.bricks {
		if userID != "" && b.UserID != userID {
			continue
		}
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		out = append(out, cloneBrick(b))
	}
	return paginate(out, opts.Offset, opts.Limit), nil
}

func paginate(bricks []*models.Brick, offset, limit int) []*models.Brick {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(bricks) {
		return []*models.Brick{}
	}
	end := len(bricks)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return bricks[offset:end]
}

type memoryQuantas struct{ m *MemoryRepositories }

func (r memoryQuantas) Create(ctx context.Context, q *models.Quanta) error {
	if q.ID == "" {
		q.ID = models.NewID()
	}
	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.quantas[q.ID] = cloneQuanta(q)
	return nil
}

func (r memoryQuantas) Get(ctx context.Context, id string) (*models.Quanta, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	q, ok := r.m.quantas[id]
	if !ok {
		return nil, kinderr.New(kinderr.NotFound, "quanta not found")
	}
	return cloneQuanta(q), nil
}

func (r memoryQuantas) Update(ctx context.Context, q *models.Quanta) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.quantas[q.ID]
	if !ok {
		return kinderr.New(kinderr.NotFound, "quanta not found")
	}
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = time.Now()
	r.m.quantas[q.ID] = cloneQuanta(q)
	return nil
}

func (r memoryQuantas) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.quantas[id]; !ok {
		return kinderr.New(kinderr.NotFound, "quanta not found")
	}
	delete(r.m.quantas, id)
	return nil
}

func (r memoryQuantas) ListByBrick(ctx context.Context, brickID string) ([]*models.Quanta, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*models.Quanta
	for _, q := range r.m.quantas {
		if q.BrickID == brickID {
			out = append(out, cloneQuanta(q))
		}
	}
	return out, nil
}

func (r memoryQuantas) DeleteByBrick(ctx context.Context, brickID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, q := range r.m.quantas {
		if q.BrickID == brickID {
			delete(r.m.quantas, id)
		}
	}
	return nil
}

type memoryMessages struct{ m *MemoryRepositories }

func (r memoryMessages) Append(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = models.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	history := append(r.m.messages[msg.ConversationID], msg)
	if len(history) > maxMessagesPerConversation {
		history = history[len(history)-maxMessagesPerConversation:]
	}
	r.m.messages[msg.ConversationID] = history
	return nil
}

func (r memoryMessages) History(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	history := r.m.messages[conversationID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]*models.Message, len(history))
	copy(out, history)
	return out, nil
}
