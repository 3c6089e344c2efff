package subscriber

import (
	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/chat"
	"github.com/hongjun500/linechat/internal/observe"
	"github.com/hongjun500/linechat/pkg/logger"
)

// RegisterAll attaches every built-in subscriber to bus.
func RegisterAll(bus *chat.Bus, log *zap.Logger) {
	RegisterMetrics(bus)
	RegisterAudit(bus, log)
}

// RegisterMetrics keeps the Prometheus counters in step with the event
// stream.
func RegisterMetrics(bus *chat.Bus) {
	bus.Subscribe(chat.EventMessage, func(e chat.Event) {
		observe.IncMessage()
	})
	bus.Subscribe(chat.EventUserRenamed, func(e chat.Event) {
		observe.IncCommand("rename")
	})
	bus.Subscribe(chat.EventUserLeft, func(e chat.Event) {
		ue := e.(*chat.UserEvent)
		if ue.Reason == chat.ReasonQuit {
			observe.IncCommand("disconnect")
		}
		observe.IncDisconnect(string(ue.Reason))
	})
}

// RegisterAudit writes one structured entry per lifecycle event under the
// "audit" logger name.
func RegisterAudit(bus *chat.Bus, log *zap.Logger) {
	l := logger.Or(log).Named("audit")
	bus.Subscribe(chat.EventUserJoined, func(e chat.Event) {
		ue := e.(*chat.UserEvent)
		l.Info("joined", zap.Time("when", ue.When), zap.String("client", ue.ID), zap.String("name", ue.Name))
	})
	bus.Subscribe(chat.EventUserRenamed, func(e chat.Event) {
		re := e.(*chat.RenameEvent)
		l.Info("renamed", zap.Time("when", re.When), zap.String("client", re.ID), zap.String("from", re.From), zap.String("to", re.To))
	})
	bus.Subscribe(chat.EventUserLeft, func(e chat.Event) {
		ue := e.(*chat.UserEvent)
		l.Info("left", zap.Time("when", ue.When), zap.String("client", ue.ID), zap.String("name", ue.Name), zap.String("reason", string(ue.Reason)))
	})
}
