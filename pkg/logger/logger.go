package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceName добавляется в каждую запись лога
const ServiceName = "incident_alerts"

// serviceHook проставляет поле service во все записи
type serviceHook struct {
	name string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service_name"]; !ok {
		entry.Data["service_name"] = h.name
	}
	return nil
}

func New(logLevel string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	log.SetOutput(os.Stdout)
	log.AddHook(serviceHook{name: ServiceName})

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)
	return log
}
