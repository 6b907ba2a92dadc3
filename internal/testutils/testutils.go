package testutils

import (
	"testing"

	"github.com/engagelively/sdtp/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// NewTestLogging creates a new logging instance for testing purposes.
//
// The logger uses zaptest to integrate with the testing.T instance, allowing log output to be
// captured and displayed in test results. The logging level is set to Debug to provide detailed
// output during tests.
func NewTestLogging(t *testing.T) *logging.Logging {
	return logging.NewLoggingWithFactory(
		"testing",
		zap.DebugLevel,
		nil,
		func(level zap.AtomicLevel) zapcore.Core {
			return zaptest.NewLogger(t, zaptest.Level(level.Level())).Core()
		},
	)
}
