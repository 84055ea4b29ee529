package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// HideThreshold — количество жалоб, после которого свидетельство скрывается.
const HideThreshold = 3

// AnonymousName подставляется, когда автор не указал имя.
const AnonymousName = "Anónimo"

type Testimony struct {
	ID                 string
	Title              string
	Description        string
	Category           valueobject.Category
	Location           string
	Coordinates        *valueobject.Coordinates
	Country            string
	Timestamp          time.Time
	WitnessID          string
	WitnessName        string
	Media              []string
	Corroborations     []string
	VerificationStatus valueobject.VerificationStatus
	Flags              []Flag
	Hidden             bool
	Views              int

	// Source и Automated заполняются автоматическим импортом.
	Source    string
	Automated bool
}

// Flag — жалоба модерации на свидетельство.
type Flag struct {
	Reason     string
	ReporterID string
	CreatedAt  time.Time
}

type NewTestimonyParams struct {
	ID          string
	Title       string
	Description string
	Category    valueobject.Category
	Location    string
	Coordinates valueobject.Coordinates
	Country     string
	WitnessID   string
	WitnessName string
	Media       []string
	Source      string
	Automated   bool
	Timestamp   time.Time
}

func NewTestimonyID() string {
	return uuid.NewString()
}

func NewWitnessID() string {
	return "witness-" + uuid.NewString()
}

func NewTestimony(p NewTestimonyParams) (*Testimony, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "заголовок свидетельства обязателен")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание свидетельства обязательно")
	}
	if !p.Category.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная категория свидетельства")
	}
	if p.WitnessID == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "автор свидетельства обязателен")
	}
	if err := p.Coordinates.Validate(); err != nil {
		return nil, err
	}

	id := p.ID
	if id == "" {
		id = NewTestimonyID()
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	// хранилища возвращают UTC с точностью до микросекунд
	ts = ts.UTC().Truncate(time.Microsecond)
	name := p.WitnessName
	if strings.TrimSpace(name) == "" {
		name = AnonymousName
	}
	country := p.Country
	if country == "" {
		country = "Unknown"
	}
	coords := p.Coordinates

	return &Testimony{
		ID:                 id,
		Title:              p.Title,
		Description:        p.Description,
		Category:           p.Category,
		Location:           p.Location,
		Coordinates:        &coords,
		Country:            country,
		Timestamp:          ts,
		WitnessID:          p.WitnessID,
		WitnessName:        name,
		Media:              append([]string(nil), p.Media...),
		Corroborations:     []string{},
		VerificationStatus: valueobject.VerificationNew,
		Flags:              []Flag{},
		Source:             p.Source,
		Automated:          p.Automated,
	}, nil
}

// Comparable возвращает координаты, если запись пригодна для пространственно-временного сравнения.
func (t *Testimony) Comparable() (valueobject.Coordinates, error) {
	if t.Coordinates == nil {
		return valueobject.Coordinates{}, apperror.ErrInvalidCoordinates
	}
	if err := t.Coordinates.Validate(); err != nil {
		return valueobject.Coordinates{}, err
	}
	if t.Timestamp.IsZero() {
		return valueobject.Coordinates{}, apperror.ErrInvalidTimestamp
	}
	return *t.Coordinates, nil
}

func (t *Testimony) HasCorroboration(witnessID string) bool {
	for _, id := range t.Corroborations {
		if id == witnessID {
			return true
		}
	}
	return false
}

// AddCorroboration добавляет подтверждение в конец списка.
func (t *Testimony) AddCorroboration(witnessID string) error {
	if witnessID == "" {
		return apperror.New(apperror.ErrCodeValidation, "идентификатор свидетеля обязателен")
	}
	if witnessID == t.WitnessID {
		return apperror.ErrSelfCorroboration
	}
	if t.HasCorroboration(witnessID) {
		return apperror.ErrAlreadyCorroborated
	}
	t.Corroborations = append(t.Corroborations, witnessID)
	return nil
}

// MergeCorroborations добавляет новых свидетелей, пропуская дубликаты и автора.
// Возвращает количество добавленных.
func (t *Testimony) MergeCorroborations(witnessIDs []string) int {
	added := 0
	for _, id := range witnessIDs {
		if err := t.AddCorroboration(id); err == nil {
			added++
		}
	}
	return added
}

// AddFlag регистрирует жалобу. Повторные жалобы одного автора считаются отдельно.
func (t *Testimony) AddFlag(reason, reporterID string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return apperror.New(apperror.ErrCodeValidation, "причина жалобы обязательна")
	}
	t.Flags = append(t.Flags, Flag{Reason: reason, ReporterID: reporterID, CreatedAt: at})
	if len(t.Flags) >= HideThreshold {
		t.Hidden = true
	}
	return nil
}

func (t *Testimony) IsFlagged() bool {
	return len(t.Flags) > 0
}

func (t *Testimony) RecordView() {
	t.Views++
}

func (t *Testimony) IsVerified() bool {
	return t.VerificationStatus == valueobject.VerificationVerified
}

// Clone делает глубокую копию, чтобы хранилища не делили срезы с вызывающим кодом.
func (t *Testimony) Clone() *Testimony {
	if t == nil {
		return nil
	}
	c := *t
	if t.Coordinates != nil {
		coords := *t.Coordinates
		c.Coordinates = &coords
	}
	c.Media = cloneStrings(t.Media)
	c.Corroborations = cloneStrings(t.Corroborations)
	if t.Flags != nil {
		c.Flags = make([]Flag, len(t.Flags))
		copy(c.Flags, t.Flags)
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// TestimonyPatch описывает допустимые изменения после создания.
// Неизменяемые поля (id, описание, место, время, автор) в патч не входят.
type TestimonyPatch struct {
	Corroborations     *[]string
	VerificationStatus *valueobject.VerificationStatus
	Flags              *[]Flag
	Hidden             *bool
	Views              *int
}

// Apply применяет патч к копии свидетельства. Счётчик просмотров не уменьшается.
func (p TestimonyPatch) Apply(t *Testimony) *Testimony {
	out := t.Clone()
	if p.Corroborations != nil {
		out.Corroborations = cloneStrings(*p.Corroborations)
	}
	if p.VerificationStatus != nil {
		out.VerificationStatus = *p.VerificationStatus
	}
	if p.Flags != nil {
		out.Flags = make([]Flag, len(*p.Flags))
		copy(out.Flags, *p.Flags)
	}
	if p.Hidden != nil {
		out.Hidden = *p.Hidden
	}
	if p.Views != nil && *p.Views > out.Views {
		out.Views = *p.Views
	}
	return out
}

// PatchFrom собирает полный патч изменяемых полей из t.
func PatchFrom(t *Testimony) TestimonyPatch {
	corroborations := cloneStrings(t.Corroborations)
	status := t.VerificationStatus
	flags := make([]Flag, len(t.Flags))
	copy(flags, t.Flags)
	hidden := t.Hidden
	views := t.Views
	return TestimonyPatch{
		Corroborations:     &corroborations,
		VerificationStatus: &status,
		Flags:              &flags,
		Hidden:             &hidden,
		Views:              &views,
	}
}
