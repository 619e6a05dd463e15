package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger создает JSON-логгер; неизвестный уровень означает INFO
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if out != nil {
		logger.SetOutput(out)
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}
