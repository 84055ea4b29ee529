package witness_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/usecase/witness"
	"github.com/openwitness/witness-backend/internal/verification"
)

type mockTestimonyStore struct {
	mu    sync.Mutex
	items []*entity.Testimony
}

func (m *mockTestimonyStore) List(ctx context.Context) ([]*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Testimony, len(m.items))
	for i, t := range m.items {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *mockTestimonyStore) Get(ctx context.Context, id string) (*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (m *mockTestimonyStore) Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, t.Clone())
	return t, nil
}

func (m *mockTestimonyStore) Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	return nil, nil
}

type mockIdentityStore struct {
	mu        sync.Mutex
	witnesses map[string]*entity.Witness
	saves     int
	afterGet  func(id string)
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{witnesses: make(map[string]*entity.Witness)}
}

func (m *mockIdentityStore) GetWitness(ctx context.Context, id string) (*entity.Witness, error) {
	m.mu.Lock()
	w := m.witnesses[id].Clone()
	hook := m.afterGet
	m.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return w, nil
}

func (m *mockIdentityStore) SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.witnesses[w.ID] = w.Clone()
	return w, nil
}

func (m *mockIdentityStore) ListWitnesses(ctx context.Context) ([]*entity.Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Witness
	for _, w := range m.witnesses {
		out = append(out, w.Clone())
	}
	return out, nil
}

func submitted(id, witnessID string, status valueobject.VerificationStatus, corroborations ...string) *entity.Testimony {
	return &entity.Testimony{
		ID:                 id,
		WitnessID:          witnessID,
		Category:           valueobject.CategoryGeneral,
		Timestamp:          time.Now(),
		VerificationStatus: status,
		Corroborations:     corroborations,
	}
}

func TestRecomputeReputation_CreatesWitnessLazily(t *testing.T) {
	testimonies := &mockTestimonyStore{items: []*entity.Testimony{
		submitted("t1", "w1", valueobject.VerificationVerified, "w2", "w3"),
		submitted("t2", "w1", valueobject.VerificationNew),
	}}
	identities := newMockIdentityStore()
	uc := witness.NewRecomputeReputationUseCase(testimonies, identities, keylock.New())

	w, err := uc.Execute(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 + 10 + 10 + 4
	if w.Reputation != 74 {
		t.Errorf("expected reputation 74, got %d", w.Reputation)
	}
	if w.TestimoniesSubmitted != 2 || w.VerifiedTestimonies != 1 {
		t.Errorf("unexpected counts: %+v", w)
	}
	if w.JoinedAt.IsZero() {
		t.Error("expected join instant to be set")
	}
	if _, ok := identities.witnesses["w1"]; !ok {
		t.Error("expected witness to be saved")
	}
}

func TestRecomputeReputation_OverwritesDriftedCounts(t *testing.T) {
	testimonies := &mockTestimonyStore{items: []*entity.Testimony{
		submitted("t1", "w1", valueobject.VerificationNew),
	}}
	identities := newMockIdentityStore()
	joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	identities.witnesses["w1"] = &entity.Witness{ID: "w1", Reputation: 99, TestimoniesSubmitted: 40, VerifiedTestimonies: 30, JoinedAt: joined}

	w, err := witness.NewRecomputeReputationUseCase(testimonies, identities, keylock.New()).Execute(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Reputation != 52 || w.TestimoniesSubmitted != 1 || w.VerifiedTestimonies != 0 {
		t.Errorf("expected recomputed witness, got %+v", w)
	}
	if !w.JoinedAt.Equal(joined) {
		t.Errorf("join instant must be preserved, got %v", w.JoinedAt)
	}
}

func TestRecomputeReputation_NoSubmissionsIsZero(t *testing.T) {
	identities := newMockIdentityStore()
	w, err := witness.NewRecomputeReputationUseCase(&mockTestimonyStore{}, identities, keylock.New()).Execute(context.Background(), "corroborator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Reputation != 0 {
		t.Errorf("expected 0, got %d", w.Reputation)
	}
}

func TestRecomputeReputation_ConcurrentCallsAgree(t *testing.T) {
	var items []*entity.Testimony
	for i := 0; i < 5; i++ {
		items = append(items, submitted(fmt.Sprintf("t%d", i), "w1", valueobject.VerificationNew))
	}
	identities := newMockIdentityStore()
	uc := witness.NewRecomputeReputationUseCase(&mockTestimonyStore{items: items}, identities, keylock.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Execute(context.Background(), "w1"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := identities.witnesses["w1"].Reputation; got != 60 {
		t.Errorf("expected 60, got %d", got)
	}
	if identities.saves != 20 {
		t.Errorf("expected 20 saves, got %d", identities.saves)
	}
}

func TestRecomputeAll_CoversKnownWitnessesAndSubmitters(t *testing.T) {
	testimonies := &mockTestimonyStore{items: []*entity.Testimony{
		submitted("t1", "w1", valueobject.VerificationNew),
		submitted("t2", "w2", valueobject.VerificationNew),
	}}
	identities := newMockIdentityStore()
	identities.witnesses["w3"] = entity.NewWitness("w3", time.Now())

	n, err := witness.NewRecomputeAllUseCase(testimonies, identities,
		witness.NewRecomputeReputationUseCase(testimonies, identities, keylock.New())).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 recomputed, got %d", n)
	}
	if identities.witnesses["w2"].Reputation != 52 {
		t.Errorf("expected w2 reputation 52, got %d", identities.witnesses["w2"].Reputation)
	}
}

func TestEnsureWitness_DoesNotOverwrite(t *testing.T) {
	identities := newMockIdentityStore()
	identities.witnesses["w1"] = &entity.Witness{ID: "w1", Reputation: 80}
	uc := witness.NewEnsureWitnessUseCase(identities, keylock.New())

	w, err := uc.Execute(context.Background(), "w1")
	if err != nil || w.Reputation != 80 {
		t.Fatalf("expected existing witness, got %+v, %v", w, err)
	}
	if _, err := uc.Execute(context.Background(), "w2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identities.saves != 1 {
		t.Errorf("expected exactly one save, got %d", identities.saves)
	}
}

func TestEnsureWitness_RecomputeCannotInterleave(t *testing.T) {
	testimonies := &mockTestimonyStore{items: []*entity.Testimony{
		submitted("t1", "w1", valueobject.VerificationNew),
	}}
	identities := newMockIdentityStore()
	locks := keylock.New()
	ensure := witness.NewEnsureWitnessUseCase(identities, locks)
	recompute := witness.NewRecomputeReputationUseCase(testimonies, identities, locks)

	done := make(chan error, 1)
	var once sync.Once
	identities.afterGet = func(id string) {
		// пересчёт стартует между чтением и записью в Ensure
		once.Do(func() {
			go func() {
				_, err := recompute.Execute(context.Background(), id)
				done <- err
			}()
			time.Sleep(20 * time.Millisecond)
		})
	}

	if _, err := ensure.Execute(context.Background(), "w1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected recompute error: %v", err)
	}

	final := identities.witnesses["w1"]
	if final.Reputation != 52 || final.TestimoniesSubmitted != 1 {
		t.Errorf("recomputed witness was overwritten: %+v", final)
	}
}

func TestGetProfile(t *testing.T) {
	identities := newMockIdentityStore()
	identities.witnesses["w1"] = &entity.Witness{ID: "w1", Reputation: 92, TestimoniesSubmitted: 6}
	uc := witness.NewGetProfileUseCase(identities)

	p, err := uc.Execute(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Badges) != 2 || p.Badges[0] != verification.BadgeVerified || p.Badges[1] != verification.BadgeActive {
		t.Errorf("unexpected badges: %v", p.Badges)
	}

	_, err = uc.Execute(context.Background(), "missing")
	if !apperror.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
