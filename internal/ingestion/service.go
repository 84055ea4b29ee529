package ingestion

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
	"github.com/openwitness/witness-backend/internal/validation"
)

// DefaultWitnessID — идентичность, от имени которой публикуются сводки.
const DefaultWitnessID = "OW_AI_NEWS"

// TestimonyCreator — сценарий создания свидетельства.
type TestimonyCreator interface {
	Execute(ctx context.Context, input testimony.CreateTestimonyInput) (*testimony.CreateTestimonyResult, error)
}

// Report — итог одного прохода по источникам.
type Report struct {
	Fetched  int
	Created  int
	Skipped  int
	Failures int
}

// Service переносит записи внешних лент в свидетельства.
type Service struct {
	sources     []Source
	testimonies repository.TestimonyStore
	create      TestimonyCreator
	limiter     *rate.Limiter
	witnessID   string
	log         *logrus.Entry
}

type Option func(*Service)

// WithLimiter задаёт темп обращений к источникам и созданий.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithWitnessID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.witnessID = id
		}
	}
}

func NewService(sources []Source, testimonies repository.TestimonyStore, create TestimonyCreator, opts ...Option) *Service {
	s := &Service{
		sources:     sources,
		testimonies: testimonies,
		create:      create,
		limiter:     rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		witnessID:   DefaultWitnessID,
		log:         logger.Component("ingestion"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce опрашивает все источники. Ошибка одного источника не останавливает остальные.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	for _, src := range s.sources {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("rate limiter: %w", err)
		}

		items, err := src.Fetch(ctx)
		if err != nil {
			report.Failures++
			s.log.WithError(err).WithField("source", src.Name()).Warn("Источник недоступен")
			continue
		}
		report.Fetched += len(items)

		for _, item := range items {
			created, err := s.ingest(ctx, item)
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				report.Failures++
				s.log.WithError(err).WithFields(logrus.Fields{
					"source": item.Source,
					"item":   item.ID,
				}).Warn("Запись не импортирована")
				continue
			}
			if created {
				report.Created++
			} else {
				report.Skipped++
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"fetched":  report.Fetched,
		"created":  report.Created,
		"skipped":  report.Skipped,
		"failures": report.Failures,
	}).Info("Импорт сводок завершён")
	return report, nil
}

func (s *Service) ingest(ctx context.Context, item Item) (bool, error) {
	if utf8.RuneCountInString(item.Title) < validation.MinTestimonyTitleLength {
		return false, nil
	}
	country, coords, ok := ResolveCountry(item.Tags, item.Title)
	if !ok {
		return false, nil
	}

	existing, err := s.testimonies.Get(ctx, item.ID)
	if err != nil {
		return false, fmt.Errorf("ingestion: проверка %s: %w", item.ID, err)
	}
	if existing != nil {
		return false, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}

	lat, lng := coords.Lat, coords.Lng
	_, err = s.create.Execute(ctx, testimony.CreateTestimonyInput{
		ID:          item.ID,
		Title:       truncate(item.Title, validation.MaxTestimonyTitleLength),
		Description: describe(item),
		Category:    string(InferCategory(item.Title)),
		Location:    country,
		Lat:         &lat,
		Lng:         &lng,
		Country:     country,
		WitnessID:   s.witnessID,
		WitnessName: item.Source,
		Source:      item.Source,
		Automated:   true,
		Timestamp:   item.Published,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// describe собирает описание нужной длины, даже если лента его не дала.
func describe(item Item) string {
	text := item.Summary
	if utf8.RuneCountInString(text) < validation.MinTestimonyDescriptionLength {
		text = fmt.Sprintf("%s. Fuente: %s", item.Title, item.Source)
		if item.Link != "" {
			text += " " + item.Link
		}
	}
	for utf8.RuneCountInString(text) < validation.MinTestimonyDescriptionLength {
		text += " (reporte automatizado)"
	}
	return truncate(text, validation.MaxTestimonyDescriptionLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
