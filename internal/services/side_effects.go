package services

import (
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
)

// sideEffects runs work that follows a successful write. Failures are logged
// and counted but never reach the caller, whose write has already committed.
type sideEffects struct {
	metrics *metrics.Metrics
}

func (e sideEffects) run(effect, userID string, fn func() error) {
	if err := fn(); err != nil {
		logger.Get().Errorw("side effect failed",
			"effect", effect,
			"user_id", userID,
			"error", err,
		)
		e.metrics.SideEffectFailed(effect)
	}
}
