package testimony_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
	"github.com/openwitness/witness-backend/internal/usecase/witness"
)

type mockTestimonyStore struct {
	mu    sync.Mutex
	order []string
	items map[string]*entity.Testimony
}

func newMockTestimonyStore() *mockTestimonyStore {
	return &mockTestimonyStore{items: make(map[string]*entity.Testimony)}
}

func (m *mockTestimonyStore) List(ctx context.Context) ([]*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Testimony, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id].Clone())
	}
	return out, nil
}

func (m *mockTestimonyStore) Get(ctx context.Context, id string) (*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.items[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

func (m *mockTestimonyStore) Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.items[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (m *mockTestimonyStore) Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	m.items[id] = patch.Apply(t)
	return m.items[id].Clone(), nil
}

type mockIdentityStore struct {
	mu        sync.Mutex
	witnesses map[string]*entity.Witness
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{witnesses: make(map[string]*entity.Witness)}
}

func (m *mockIdentityStore) GetWitness(ctx context.Context, id string) (*entity.Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.witnesses[id]; ok {
		return w.Clone(), nil
	}
	return nil, nil
}

func (m *mockIdentityStore) SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.witnesses[w.ID] = w.Clone()
	return w.Clone(), nil
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

type fixture struct {
	testimonies *mockTestimonyStore
	witnesses   *mockIdentityStore

	create      *testimony.CreateTestimonyUseCase
	crossRef    *testimony.CrossReferenceUseCase
	corroborate *testimony.CorroborateUseCase
	flag        *testimony.FlagTestimonyUseCase
	view        *testimony.ViewTestimonyUseCase
	search      *testimony.SearchTestimoniesUseCase
	nearby      *testimony.NearbyTestimoniesUseCase
	timeline    *testimony.TimelineUseCase
	stats       *testimony.StatisticsUseCase
	scores      *testimony.TrustScoreUseCase
	export      *testimony.ExportTestimoniesUseCase
}

func newFixture() *fixture {
	logger.Silence()
	f := &fixture{testimonies: newMockTestimonyStore(), witnesses: newMockIdentityStore()}
	locks := keylock.New()
	witnessLocks := keylock.New()
	recompute := witness.NewRecomputeReputationUseCase(f.testimonies, f.witnesses, witnessLocks)

	f.crossRef = testimony.NewCrossReferenceUseCase(f.testimonies, f.witnesses, locks)
	f.create = testimony.NewCreateTestimonyUseCase(f.testimonies, f.crossRef, recompute)
	f.corroborate = testimony.NewCorroborateUseCase(f.testimonies, witness.NewEnsureWitnessUseCase(f.witnesses, witnessLocks), f.crossRef, recompute, locks)
	f.flag = testimony.NewFlagTestimonyUseCase(f.testimonies, locks)
	f.view = testimony.NewViewTestimonyUseCase(f.testimonies, f.witnesses, locks)
	f.search = testimony.NewSearchTestimoniesUseCase(f.testimonies)
	f.nearby = testimony.NewNearbyTestimoniesUseCase(f.testimonies)
	f.timeline = testimony.NewTimelineUseCase(f.search)
	f.stats = testimony.NewStatisticsUseCase(f.testimonies, f.witnesses)
	f.scores = testimony.NewTrustScoreUseCase(f.testimonies, f.witnesses)
	f.export = testimony.NewExportTestimoniesUseCase(f.search, f.witnesses)
	return f
}

var reportTime = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func report(witnessID string, lat, lng float64) testimony.CreateTestimonyInput {
	return testimony.CreateTestimonyInput{
		Title:       "Shelling near station",
		Description: "Heavy shelling damaged residential buildings near the railway station",
		Category:    "security",
		Location:    "Kharkiv, Saltivka",
		Lat:         ptr(lat),
		Lng:         ptr(lng),
		Country:     "Ukraine",
		WitnessID:   witnessID,
		Timestamp:   reportTime,
	}
}

func saveWithoutCoordinates(t *testing.T, f *fixture, id, witnessID string) {
	t.Helper()
	_, err := f.testimonies.Save(context.Background(), &entity.Testimony{
		ID:                 id,
		Title:              "Checkpoint closed",
		Description:        "Checkpoint closed since the morning, long queues of cars",
		Category:           valueobject.CategorySecurity,
		Timestamp:          reportTime,
		WitnessID:          witnessID,
		Corroborations:     []string{},
		VerificationStatus: valueobject.VerificationNew,
	})
	require.NoError(t, err)
}
