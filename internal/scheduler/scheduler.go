package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/openwitness/witness-backend/internal/goroutine"
	"github.com/openwitness/witness-backend/internal/logger"
)

// Job — периодическая задача обслуживания.
type Job func(ctx context.Context) error

// ErrJobRunning возвращает Trigger, если задача уже выполняется.
var ErrJobRunning = errors.New("scheduler: задача уже выполняется")

// Manager запускает задачи по cron-расписанию. Паника в задаче логируется и не
// останавливает планировщик. Одна задача не выполняется параллельно сама с собой,
// ни по расписанию, ни через Trigger.
type Manager struct {
	cron    *cron.Cron
	log     *logrus.Entry
	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	active  map[string]bool
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

func NewManager() *Manager {
	log := logger.Component("scheduler")
	cl := cronLogger{log}
	return &Manager{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		log:     log,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		active:  make(map[string]bool),
		ctx:     context.Background(),
	}
}

// Add регистрирует задачу. schedule — стандартное cron-выражение или @every <duration>.
func (m *Manager) Add(name, schedule string, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("scheduler: задача %q уже зарегистрирована", name)
	}
	id, err := m.cron.AddFunc(schedule, func() { m.run(name) })
	if err != nil {
		return fmt.Errorf("scheduler: некорректное расписание %q для %s: %w", schedule, name, err)
	}
	m.jobs[name] = job
	m.entries[name] = id
	return nil
}

// Start запускает планировщик. Задачи получают ctx, который отменяется в Stop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("scheduler: уже запущен")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.cron.Start()
	m.log.WithField("jobs", len(m.jobs)).Info("Планировщик запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения выполняющихся задач.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	<-m.cron.Stop().Done()
	m.log.Info("Планировщик остановлен")
}

// Trigger выполняет задачу немедленно в текущей горутине.
// Если задача уже идёт, возвращает ErrJobRunning.
func (m *Manager) Trigger(name string) error {
	m.mu.Lock()
	_, ok := m.jobs[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: задача %q не найдена", name)
	}
	if !m.run(name) {
		return ErrJobRunning
	}
	return nil
}

// Next возвращает время следующего запуска задачи.
func (m *Manager) Next(name string) (time.Time, bool) {
	m.mu.Lock()
	id, ok := m.entries[name]
	m.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return m.cron.Entry(id).Next, true
}

// run возвращает false, если предыдущий запуск задачи ещё не завершён.
func (m *Manager) run(name string) bool {
	m.mu.Lock()
	log := m.log.WithField("job", name)
	if m.active[name] {
		m.mu.Unlock()
		log.Debug("Задача уже выполняется, запуск пропущен")
		return false
	}
	m.active[name] = true
	job := m.jobs[name]
	ctx := m.ctx
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.active, name)
		m.mu.Unlock()
	}()

	started := time.Now()
	ok := goroutine.Recover(func() {
		if err := job(ctx); err != nil {
			log.WithError(err).Error("Задача завершилась с ошибкой")
			return
		}
		log.WithField("duration", time.Since(started).String()).Debug("Задача выполнена")
	})
	if !ok {
		log.Error("Задача прервана паникой")
	}
	return true
}

// cronLogger направляет журнал cron в logrus.
type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
