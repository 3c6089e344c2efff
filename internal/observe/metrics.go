package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	onlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Number of registered clients",
	})

	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total accepted connections by transport",
		},
		[]string{"transport"}, // tcp|websocket
	)

	messagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total chat payloads broadcast",
	})

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Total per-recipient broadcast writes by result",
		},
		[]string{"result"}, // ok|failed
	)

	disconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_disconnects_total",
			Help: "Total disconnects by reason",
		},
		[]string{"reason"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Total control commands by name",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(
		onlineUsers,
		connectionsTotal,
		messagesTotal,
		deliveriesTotal,
		disconnectsTotal,
		commandsTotal,
	)
}

func AddOnline(delta float64)        { onlineUsers.Add(delta) }
func IncConnection(transport string) { connectionsTotal.WithLabelValues(transport).Inc() }
func IncMessage()                    { messagesTotal.Inc() }
func IncDisconnect(reason string)    { disconnectsTotal.WithLabelValues(reason).Inc() }
func IncCommand(name string)         { commandsTotal.WithLabelValues(name).Inc() }

func AddDeliveries(ok, failed int) {
	if ok > 0 {
		deliveriesTotal.WithLabelValues("ok").Add(float64(ok))
	}
	if failed > 0 {
		deliveriesTotal.WithLabelValues("failed").Add(float64(failed))
	}
}
