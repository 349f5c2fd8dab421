package engine

import (
	"errors"
	"log/slog"
)

var (
	// The bot lacks the platform permission (or role hierarchy position) for an action
	ErrPermissionDenied = errors.New("permission denied")
	// Target is already gone (member left, message deleted, etc)
	ErrNotFound = errors.New("not found")
	// Network failure, rate-limit, or platform-side error. Not retried.
	ErrTransient = errors.New("transient platform error")
)

// Short label for an error, used in logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrPermissionDenied):
		return "permission"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unexpected"
	}
}

// Single translation point for failed mitigation actions. Anticipated kinds are logged and swallowed; anything else is logged at error level and counted so it shows up in monitoring.
func logActionError(logger *slog.Logger, action string, err error) {
	kind := ErrorKind(err)
	actionErrorCount.WithLabelValues(action, kind).Inc()
	switch kind {
	case "permission":
		logger.Warn("missing permission for moderation action", "action", action, "err", err)
	case "not-found":
		logger.Info("moderation action target already gone", "action", action, "err", err)
	case "transient":
		logger.Warn("moderation action abandoned", "action", action, "err", err)
	default:
		logger.Error("unexpected moderation action failure", "action", action, "err", err)
	}
}

// Records the outcome of a single side-effecting call.
func recordAction(logger *slog.Logger, action string, err error) {
	if err != nil {
		logActionError(logger, action, err)
		return
	}
	actionCount.WithLabelValues(action).Inc()
}
