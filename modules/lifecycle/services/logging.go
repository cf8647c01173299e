package services

import (
	"github.com/sirupsen/logrus"
)

func logWithFields(logger *logrus.Entry, level logrus.Level, msg string, fields logrus.Fields) {
	if logger == nil {
		return
	}
	logger.WithFields(fields).Log(level, msg)
}
