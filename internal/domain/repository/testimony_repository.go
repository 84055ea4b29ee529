package repository

import (
	"context"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

// TestimonyStore — коллекция свидетельств. Get и Update возвращают nil без ошибки,
// если записи нет.
type TestimonyStore interface {
	List(ctx context.Context) ([]*entity.Testimony, error)
	Get(ctx context.Context, id string) (*entity.Testimony, error)
	Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error)
	Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error)
}

type IdentityStore interface {
	GetWitness(ctx context.Context, id string) (*entity.Witness, error)
	SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error)
	ListWitnesses(ctx context.Context) ([]*entity.Witness, error)
}

// ChangeNotifier получает событие "data-updated" после каждой записи.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, event ChangeEvent)
}

const EventDataUpdated = "data-updated"

type ChangeEvent struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// TestimonyFilter — критерии поиска. Нулевые значения не ограничивают выборку.
type TestimonyFilter struct {
	Query              string
	Category           valueobject.Category
	VerificationStatus valueobject.VerificationStatus
	DateFrom           time.Time
	DateTo             time.Time
	Location           string
	Center             *valueobject.Coordinates
	RadiusKm           float64
	IncludeHidden      bool
}
