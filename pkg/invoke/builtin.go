package invoke

import (
	"time"

	"github.com/charmbracelet/log"
)

// LoggingInterceptor logs every intercepted invocation with its
// duration and outcome.
type LoggingInterceptor struct {
	logger *log.Logger
}

// NewLoggingInterceptor creates a logging interceptor.
func NewLoggingInterceptor(logger *log.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

// Invoke implements Interceptor.
func (i *LoggingInterceptor) Invoke(ic *Context) (any, error) {
	start := time.Now()
	i.logger.Debug("invoking", "method", ic.Method())

	result, err := ic.Proceed()
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("invocation failed",
			"method", ic.Method(),
			"duration", duration,
			"error", err)
	} else {
		i.logger.Debug("invocation completed",
			"method", ic.Method(),
			"duration", duration)
	}
	return result, err
}

// Name implements Interceptor.
func (i *LoggingInterceptor) Name() string { return "LoggingInterceptor" }

// TimingInterceptor records the duration of each invocation in the
// invocation data under the "elapsed" key.
type TimingInterceptor struct{}

// NewTimingInterceptor creates a timing interceptor.
func NewTimingInterceptor() *TimingInterceptor {
	return &TimingInterceptor{}
}

// Invoke implements Interceptor.
func (i *TimingInterceptor) Invoke(ic *Context) (any, error) {
	start := time.Now()
	result, err := ic.Proceed()
	ic.Data()["elapsed"] = time.Since(start)
	return result, err
}

// Name implements Interceptor.
func (i *TimingInterceptor) Name() string { return "TimingInterceptor" }
