package persistence

import (
	"context"
	"sync"

	"github.com/openwitness/witness-backend/internal/domain/entity"
)

// MemoryStore хранит свидетельства и свидетелей в памяти процесса.
// Наружу отдаются только копии. Порядок List совпадает с порядком вставки.
type MemoryStore struct {
	mu          sync.RWMutex
	order       []string
	testimonies map[string]*entity.Testimony
	witnesses   map[string]*entity.Witness
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		testimonies: make(map[string]*entity.Testimony),
		witnesses:   make(map[string]*entity.Witness),
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]*entity.Testimony, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Testimony, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.testimonies[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*entity.Testimony, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.testimonies[id].Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.testimonies[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.testimonies[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.testimonies[id]
	if !ok {
		return nil, nil
	}
	updated := patch.Apply(current)
	s.testimonies[id] = updated
	return updated.Clone(), nil
}

func (s *MemoryStore) GetWitness(ctx context.Context, id string) (*entity.Witness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.witnesses[id].Clone(), nil
}

func (s *MemoryStore) SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.witnesses[w.ID] = w.Clone()
	return w.Clone(), nil
}

func (s *MemoryStore) ListWitnesses(ctx context.Context) ([]*entity.Witness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Witness, 0, len(s.witnesses))
	for _, w := range s.witnesses {
		out = append(out, w.Clone())
	}
	return out, nil
}
