package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide production logger. The instance is passed by
// reference everywhere; nothing reads a package-level logger.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}
