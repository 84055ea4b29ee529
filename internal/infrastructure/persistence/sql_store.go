package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// SQLStore хранит данные в PostgreSQL или SQLite через sqlx.
// Запросы пишутся с ? и переводятся в синтаксис драйвера через Rebind.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type testimonyRow struct {
	ID                 string          `db:"id"`
	Title              string          `db:"title"`
	Description        string          `db:"description"`
	Category           string          `db:"category"`
	Location           string          `db:"location"`
	Lat                sql.NullFloat64 `db:"lat"`
	Lng                sql.NullFloat64 `db:"lng"`
	Country            string          `db:"country"`
	CreatedAt          time.Time       `db:"created_at"`
	WitnessID          string          `db:"witness_id"`
	WitnessName        string          `db:"witness_name"`
	Media              string          `db:"media"`
	Corroborations     string          `db:"corroborations"`
	VerificationStatus string          `db:"verification_status"`
	Flags              string          `db:"flags"`
	Hidden             bool            `db:"hidden"`
	Views              int             `db:"views"`
	Source             string          `db:"source"`
	Automated          bool            `db:"automated"`
}

type flagJSON struct {
	Reason     string    `json:"reason"`
	ReporterID string    `json:"reporterId"`
	CreatedAt  time.Time `json:"timestamp"`
}

type witnessRow struct {
	ID                   string    `db:"id"`
	Reputation           int       `db:"reputation"`
	TestimoniesSubmitted int       `db:"testimonies_submitted"`
	VerifiedTestimonies  int       `db:"verified_testimonies"`
	JoinedAt             time.Time `db:"joined_at"`
}

const testimonyColumns = `id, title, description, category, location, lat, lng, country, created_at,
	witness_id, witness_name, media, corroborations, verification_status, flags, hidden, views, source, automated`

func (s *SQLStore) List(ctx context.Context) ([]*entity.Testimony, error) {
	var rows []testimonyRow
	query := `SELECT ` + testimonyColumns + ` FROM testimonies ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельства")
	}

	out := make([]*entity.Testimony, 0, len(rows))
	for _, r := range rows {
		t, err := r.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*entity.Testimony, error) {
	return getTestimony(ctx, s.db, id)
}

func getTestimony(ctx context.Context, q sqlx.ExtContext, id string) (*entity.Testimony, error) {
	var row testimonyRow
	query := q.Rebind(`SELECT ` + testimonyColumns + ` FROM testimonies WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельство")
	}
	return row.toEntity()
}

func (s *SQLStore) Save(ctx context.Context, t *entity.Testimony) (*entity.Testimony, error) {
	row, err := testimonyRowFrom(t)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO testimonies (` + testimonyColumns + `)
		VALUES (:id, :title, :description, :category, :location, :lat, :lng, :country, :created_at,
			:witness_id, :witness_name, :media, :corroborations, :verification_status, :flags, :hidden, :views, :source, :automated)
		ON CONFLICT (id) DO UPDATE SET
			corroborations = excluded.corroborations,
			verification_status = excluded.verification_status,
			flags = excluded.flags,
			hidden = excluded.hidden,
			views = excluded.views
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить свидетельство")
	}
	return t.Clone(), nil
}

// Update применяет патч в транзакции: чтение, изменение, запись изменяемых колонок.
func (s *SQLStore) Update(ctx context.Context, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать транзакцию")
	}
	defer tx.Rollback()

	current, err := getTestimony(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	updated := patch.Apply(current)
	row, err := testimonyRowFrom(updated)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE testimonies
		SET corroborations = :corroborations, verification_status = :verification_status,
		    flags = :flags, hidden = :hidden, views = :views
		WHERE id = :id
	`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить свидетельство")
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать транзакцию")
	}
	return updated, nil
}

func (s *SQLStore) GetWitness(ctx context.Context, id string) (*entity.Witness, error) {
	var row witnessRow
	query := s.db.Rebind(`SELECT id, reputation, testimonies_submitted, verified_testimonies, joined_at FROM witnesses WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетеля")
	}
	return row.toEntity(), nil
}

func (s *SQLStore) SaveWitness(ctx context.Context, w *entity.Witness) (*entity.Witness, error) {
	row := witnessRow{
		ID:                   w.ID,
		Reputation:           w.Reputation,
		TestimoniesSubmitted: w.TestimoniesSubmitted,
		VerifiedTestimonies:  w.VerifiedTestimonies,
		JoinedAt:             w.JoinedAt.UTC(),
	}
	query := `
		INSERT INTO witnesses (id, reputation, testimonies_submitted, verified_testimonies, joined_at)
		VALUES (:id, :reputation, :testimonies_submitted, :verified_testimonies, :joined_at)
		ON CONFLICT (id) DO UPDATE SET
			reputation = excluded.reputation,
			testimonies_submitted = excluded.testimonies_submitted,
			verified_testimonies = excluded.verified_testimonies
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить свидетеля")
	}
	return w.Clone(), nil
}

func (s *SQLStore) ListWitnesses(ctx context.Context) ([]*entity.Witness, error) {
	var rows []witnessRow
	query := `SELECT id, reputation, testimonies_submitted, verified_testimonies, joined_at FROM witnesses ORDER BY joined_at, id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетелей")
	}
	out := make([]*entity.Witness, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

func (r witnessRow) toEntity() *entity.Witness {
	return &entity.Witness{
		ID:                   r.ID,
		Reputation:           r.Reputation,
		TestimoniesSubmitted: r.TestimoniesSubmitted,
		VerifiedTestimonies:  r.VerifiedTestimonies,
		JoinedAt:             r.JoinedAt.UTC(),
	}
}

func testimonyRowFrom(t *entity.Testimony) (testimonyRow, error) {
	media, err := json.Marshal(t.Media)
	if err != nil {
		return testimonyRow{}, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать вложения")
	}
	corroborations, err := json.Marshal(t.Corroborations)
	if err != nil {
		return testimonyRow{}, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать подтверждения")
	}
	var flags []flagJSON
	if t.Flags != nil {
		flags = make([]flagJSON, 0, len(t.Flags))
		for _, f := range t.Flags {
			flags = append(flags, flagJSON{Reason: f.Reason, ReporterID: f.ReporterID, CreatedAt: f.CreatedAt.UTC()})
		}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return testimonyRow{}, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать жалобы")
	}

	row := testimonyRow{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Category:           string(t.Category),
		Location:           t.Location,
		Country:            t.Country,
		CreatedAt:          t.Timestamp.UTC(),
		WitnessID:          t.WitnessID,
		WitnessName:        t.WitnessName,
		Media:              string(media),
		Corroborations:     string(corroborations),
		VerificationStatus: string(t.VerificationStatus),
		Flags:              string(flagsJSON),
		Hidden:             t.Hidden,
		Views:              t.Views,
		Source:             t.Source,
		Automated:          t.Automated,
	}
	if t.Coordinates != nil {
		row.Lat = sql.NullFloat64{Float64: t.Coordinates.Lat, Valid: true}
		row.Lng = sql.NullFloat64{Float64: t.Coordinates.Lng, Valid: true}
	}
	return row, nil
}

func (r testimonyRow) toEntity() (*entity.Testimony, error) {
	t := &entity.Testimony{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		Category:           valueobject.Category(r.Category),
		Location:           r.Location,
		Country:            r.Country,
		Timestamp:          r.CreatedAt.UTC(),
		WitnessID:          r.WitnessID,
		WitnessName:        r.WitnessName,
		VerificationStatus: valueobject.VerificationStatus(r.VerificationStatus),
		Hidden:             r.Hidden,
		Views:              r.Views,
		Source:             r.Source,
		Automated:          r.Automated,
	}
	if r.Lat.Valid && r.Lng.Valid {
		t.Coordinates = &valueobject.Coordinates{Lat: r.Lat.Float64, Lng: r.Lng.Float64}
	}

	if err := json.Unmarshal([]byte(r.Media), &t.Media); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены вложения свидетельства "+r.ID)
	}
	if err := json.Unmarshal([]byte(r.Corroborations), &t.Corroborations); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены подтверждения свидетельства "+r.ID)
	}
	var flags []flagJSON
	if err := json.Unmarshal([]byte(r.Flags), &flags); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены жалобы свидетельства "+r.ID)
	}
	if flags != nil {
		t.Flags = make([]entity.Flag, 0, len(flags))
		for _, f := range flags {
			t.Flags = append(t.Flags, entity.Flag{Reason: f.Reason, ReporterID: f.ReporterID, CreatedAt: f.CreatedAt})
		}
	}
	return t, nil
}
