package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/openwitness/witness-backend/internal/logger"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go rh.Run(fn)
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go rh.Run(func() { fn(ctx) })
}

// Run выполняет fn в текущей горутине и гасит panic.
// Возвращает true, если fn завершилась без panic.
func (rh *RecoveryHandler) Run(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rh.logger.Errorf("Panic in goroutine: %v\nStack trace:\n%s", r, debug.Stack())
			ok = false
		}
	}()
	fn()
	return true
}

// logrusLogger пишет в общий логгер, читая logger.Log в момент вызова.
type logrusLogger struct{}

func (logrusLogger) Errorf(format string, args ...interface{}) {
	logger.Component("goroutine").Errorf(format, args...)
}

// DefaultRecoveryHandler - глобальный обработчик, пишущий в logrus
var DefaultRecoveryHandler = NewRecoveryHandler(logrusLogger{})

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}

// Recover выполняет fn синхронно, гася panic. Используется для задач планировщика.
func Recover(fn func()) bool {
	return DefaultRecoveryHandler.Run(fn)
}
