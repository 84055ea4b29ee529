package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log — общий логгер процесса. До Init пишет текстом на уровне info.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
// В production используется JSON, иначе текст с полными отметками времени.
func Init(level, env string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	SetTextFormatter()
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Component возвращает запись с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Silence отключает вывод, используется в тестах.
func Silence() {
	Log.SetOutput(io.Discard)
}
