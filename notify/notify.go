// Package notify delivers user-visible notices: the error banners and
// status lines a chat surface shows when a reply cannot be produced.
package notify

import (
	"log/slog"

	"github.com/fabwinter/Sydneykids/pkg/logging"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier receives user-visible notifications. Implementations decide
// how to surface them: a banner, a toast, a terminal line.
type Notifier interface {
	Notify(level Level, text string)
}

// Func adapts a plain function to the Notifier interface.
type Func func(level Level, text string)

// Notify implements Notifier.
func (f Func) Notify(level Level, text string) {
	f(level, text)
}

// LogNotifier writes notifications to the structured log. It is the
// default when nothing else is wired.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.WithComponent("notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(level Level, text string) {
	switch level {
	case LevelError:
		n.logger.Error(text)
	case LevelWarn:
		n.logger.Warn(text)
	default:
		n.logger.Info(text)
	}
}
