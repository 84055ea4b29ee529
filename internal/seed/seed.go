package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
)

// Creator — сценарий создания свидетельства.
type Creator interface {
	Execute(ctx context.Context, input testimony.CreateTestimonyInput) (*testimony.CreateTestimonyResult, error)
}

// Corroborator — сценарий ручного подтверждения.
type Corroborator interface {
	Execute(ctx context.Context, testimonyID, witnessID string) (*testimony.CrossReferenceResult, error)
}

// Result — итог загрузки демонстрационных данных.
type Result struct {
	Created        int `json:"created"`
	Skipped        int `json:"skipped"`
	Corroborations int `json:"corroborations"`
}

type sample struct {
	id             string
	title          string
	description    string
	category       string
	location       string
	lat, lng       float64
	witnessID      string
	witnessName    string
	hoursAgo       int
	corroborations []string
}

var samples = []sample{
	{
		id:             "sample-001",
		title:          "Distribución de ayuda humanitaria",
		description:    "Llegó un convoy de ayuda humanitaria con alimentos y medicinas. Distribución organizada por voluntarios.",
		category:       "humanitarian",
		location:       "Valencia, España",
		lat:            39.4699,
		lng:            -0.3763,
		witnessID:      "witness-001",
		witnessName:    "María G.",
		hoursAgo:       2,
		corroborations: []string{"witness-002", "witness-003"},
	},
	{
		id:             "sample-002",
		title:          "Daños severos en carreteras",
		description:    "Carretera principal bloqueada por escombros. Equipos de rescate trabajando.",
		category:       "infrastructure",
		location:       "Paiporta, Valencia",
		lat:            39.4267,
		lng:            -0.4167,
		witnessID:      "witness-004",
		hoursAgo:       5,
		corroborations: []string{"witness-005"},
	},
	{
		id:             "sample-003",
		title:          "Centro médico temporal operativo",
		description:    "Establecido en el polideportivo municipal. Se necesitan más suministros médicos.",
		category:       "medical",
		location:       "Catarroja, Valencia",
		lat:            39.4000,
		lng:            -0.4000,
		witnessID:      "witness-006",
		witnessName:    "Dr. Carlos R.",
		hoursAgo:       8,
		corroborations: []string{"witness-007"},
	},
	{
		id:          "sample-004",
		title:       "Evacuación de familias",
		description: "Evacuación preventiva en zonas bajas por riesgo de inundación.",
		category:    "displacement",
		location:    "Torrent, Valencia",
		lat:         39.4370,
		lng:         -0.4664,
		witnessID:   "witness-010",
		hoursAgo:    12,
	},
	{
		id:             "sample-005",
		title:          "Búsqueda y rescate en curso",
		description:    "Operaciones activas con perros de búsqueda en edificios colapsados.",
		category:       "security",
		location:       "Massanassa, Valencia",
		lat:            39.4100,
		lng:            -0.4100,
		witnessID:      "witness-017",
		witnessName:    "Bombero Voluntario",
		hoursAgo:       30,
		corroborations: []string{"witness-018"},
	},
}

// Service загружает демонстрационные свидетельства через обычный сценарий
// создания, поэтому статусы и репутация выводятся, а не задаются.
type Service struct {
	testimonies repository.TestimonyStore
	create      Creator
	corroborate Corroborator
	now         func() time.Time
	log         *logrus.Entry
}

func NewService(testimonies repository.TestimonyStore, create Creator, corroborate Corroborator) *Service {
	return &Service{
		testimonies: testimonies,
		create:      create,
		corroborate: corroborate,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Component("seed"),
	}
}

// SeedData добавляет отсутствующие демонстрационные записи. Повторный вызов
// пропускает уже загруженные.
func (s *Service) SeedData(ctx context.Context) (Result, error) {
	var res Result
	now := s.now()

	for _, smp := range samples {
		existing, err := s.testimonies.Get(ctx, smp.id)
		if err != nil {
			return res, fmt.Errorf("seed service: failed to check %s: %w", smp.id, err)
		}
		if existing != nil {
			res.Skipped++
			continue
		}

		lat, lng := smp.lat, smp.lng
		if _, err := s.create.Execute(ctx, testimony.CreateTestimonyInput{
			ID:          smp.id,
			Title:       smp.title,
			Description: smp.description,
			Category:    smp.category,
			Location:    smp.location,
			Lat:         &lat,
			Lng:         &lng,
			Country:     "España",
			WitnessID:   smp.witnessID,
			WitnessName: smp.witnessName,
			Timestamp:   now.Add(-time.Duration(smp.hoursAgo) * time.Hour),
		}); err != nil {
			return res, fmt.Errorf("seed service: failed to create %s: %w", smp.id, err)
		}
		res.Created++

		for _, witnessID := range smp.corroborations {
			if _, err := s.corroborate.Execute(ctx, smp.id, witnessID); err != nil {
				return res, fmt.Errorf("seed service: failed to corroborate %s: %w", smp.id, err)
			}
			res.Corroborations++
		}
	}

	s.log.WithFields(logrus.Fields{
		"created": res.Created,
		"skipped": res.Skipped,
	}).Info("Демонстрационные данные загружены")
	return res, nil
}
