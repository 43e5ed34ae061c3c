package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "storefront-core"

var (
	mu       sync.RWMutex
	log      *zap.Logger
	lazyInit sync.Once
)

// New builds the logger for env. A non-empty level ("debug", "warn", ...)
// overrides the environment's default; "test" logs nothing.
func New(env, level string) (*zap.Logger, error) {
	if env == "test" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}

	return cfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// Init installs the process logger. It panics on a bad level so a
// misconfigured server never starts silently.
func Init(env, level string) {
	l, err := New(env, level)
	if err != nil {
		panic(err)
	}
	Replace(l)
}

// Replace swaps the process logger and returns a func restoring the old one.
func Replace(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := log
	log = l
	mu.Unlock()
	return func() { Replace(prev) }
}

// L returns the process logger, building it from APP_ENV and LOG_LEVEL on
// first use.
func L() *zap.Logger {
	lazyInit.Do(func() {
		mu.RLock()
		ready := log != nil
		mu.RUnlock()
		if !ready {
			Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Sync() {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}
