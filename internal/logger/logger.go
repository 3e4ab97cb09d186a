// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	mu    sync.Mutex
	once  sync.Once
)

// Init builds the global logger for env. "production" logs JSON at info level;
// anything else logs to the console at debug level.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		if env == "production" {
			base, err = zap.NewProduction()
		} else {
			base, err = zap.NewDevelopment()
		}
		if err != nil {
			base = zap.NewNop()
		}

		mu.Lock()
		sugar = base.Sugar().With("service", "fintrack")
		mu.Unlock()
	})
}

// Get returns the global sugared logger, initializing a development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	mu.Lock()
	l := sugar
	mu.Unlock()
	if l != nil {
		return l
	}
	Init("development")
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.SugaredLogger) func() {
	mu.Lock()
	prev := sugar
	sugar = l
	mu.Unlock()
	return func() {
		mu.Lock()
		sugar = prev
		mu.Unlock()
	}
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.Lock()
	l := sugar
	mu.Unlock()
	if l != nil {
		_ = l.Sync()
	}
}
