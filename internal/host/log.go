package host

import (
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/logging"
)

// LogNotifier writes one log line per notification. Message bodies are
// logged at debug level only.
type LogNotifier struct {
	log *logging.Logger
}

// NewLogNotifier creates a LogNotifier under the "host" subsystem.
func NewLogNotifier(log *logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.Sub("host")}
}

var _ domain.Notifier = (*LogNotifier)(nil)

func (l *LogNotifier) Error(ic *domain.ConnectionContext, reason string) {
	l.log.Error().Str("account", ic.AccountID).Str("reason", reason).Msg("bridge error")
}

func (l *LogNotifier) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	l.log.Info().Str("account", ic.AccountID).Bool("allowReconnect", allowReconnect).Msg("disconnected")
}

func (l *LogNotifier) Connected(ic *domain.ConnectionContext) {
	l.log.Info().Str("account", ic.AccountID).Msg("connected")
}

func (l *LogNotifier) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	l.log.Debug().Str("account", ic.AccountID).Str("buddy", name).Str("group", group).Msg("buddy added")
}

func (l *LogNotifier) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	l.log.Debug().Str("account", ic.AccountID).Str("buddy", name).Str("group", group).Msg("buddy removed")
}

func (l *LogNotifier) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	l.log.Info().Str("account", ic.AccountID).Str("from", name).Msg("message received")
	l.log.Debug().Str("account", ic.AccountID).Str("from", name).Str("body", message).Msg("message body")
}
