package persistence

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
)

// Store объединяет оба хранилища, так их реализуют все бэкенды.
type Store interface {
	repository.TestimonyStore
	repository.IdentityStore
}

// NotifyingStore после каждой успешной записи отправляет событие "data-updated".
type NotifyingStore struct {
	next     Store
	notifier repository.ChangeNotifier
}

func WithNotifications(next Store, notifier repository.ChangeNotifier) *NotifyingStore {
	return &NotifyingStore{next: next, notifier: notifier}
}

func (s *NotifyingStore) List(ctx context.Context) ([]*entity.Testimony, error) {
	return s.next.List(ctx)
}

func (s *NotifyingStore) Get(ctx context.Context, id string) (*entity.Testimony, error) {
	return s.next.Get(ctx, id)
}

func (s *NotifyingStore) Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error) {
	saved, err := s.next.Save(ctx, t)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "testimony", saved.ID)
	return saved, nil
}

func (s *NotifyingStore) Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	updated, err := s.next.Update(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.notify(ctx, "testimony", id)
	return updated, nil
}

func (s *NotifyingStore) GetWitness(ctx context.Context, id string) (*entity.Witness, error) {
	return s.next.GetWitness(ctx, id)
}

func (s *NotifyingStore) SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error) {
	saved, err := s.next.SaveWitness(ctx, w)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "witness", saved.ID)
	return saved, nil
}

func (s *NotifyingStore) ListWitnesses(ctx context.Context) ([]*entity.Witness, error) {
	return s.next.ListWitnesses(ctx)
}

func (s *NotifyingStore) notify(ctx context.Context, kind, id string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyChange(ctx, repository.ChangeEvent{Type: repository.EventDataUpdated, Entity: kind, ID: id})
}
