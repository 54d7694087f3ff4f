package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	socketConnectionsTotal  *prometheus.CounterVec
	socketConnectionsActive prometheus.Gauge
	usersOnline             prometheus.Gauge
	channelJoinsTotal       *prometheus.CounterVec
	inboundEventsTotal      *prometheus.CounterVec
	messagesSentTotal       *prometheus.CounterVec
	notificationsPublished  *prometheus.CounterVec
	eventsDroppedTotal      *prometheus.CounterVec
	busEventsTotal          *prometheus.CounterVec
	sseClientsActive        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the realtime relay.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		socketConnectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_connections_total",
			Help: "Socket handshakes by outcome.",
		}, []string{"outcome"})

		socketConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections_active",
			Help: "Currently open socket connections on this node.",
		})

		usersOnline = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_users_online",
			Help: "Distinct users with at least one live connection on this node.",
		})

		channelJoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_channel_joins_total",
			Help: "Channel joins by channel kind.",
		}, []string{"kind"})

		inboundEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_inbound_events_total",
			Help: "Inbound socket events by type and outcome.",
		}, []string{"type", "outcome"})

		messagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Chat messages persisted and relayed, by message type.",
		}, []string{"type"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications persisted, by type.",
		}, []string{"type"})

		eventsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Outbound events dropped because a connection queue was full, by event type.",
		}, []string{"type"})

		busEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_bus_events_total",
			Help: "Cross-node bus traffic by transport and direction.",
		}, []string{"transport", "direction"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notifications_sse_clients_active",
			Help: "Open notification event streams.",
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			socketConnectionsTotal, socketConnectionsActive, usersOnline,
			channelJoinsTotal, inboundEventsTotal, messagesSentTotal,
			notificationsPublished, eventsDroppedTotal, busEventsTotal, sseClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

func SocketConnections() *prometheus.CounterVec {
	RegisterMetrics()
	return socketConnectionsTotal
}

func SocketConnectionsActive() prometheus.Gauge {
	RegisterMetrics()
	return socketConnectionsActive
}

func UsersOnline() prometheus.Gauge {
	RegisterMetrics()
	return usersOnline
}

func ChannelJoins() *prometheus.CounterVec {
	RegisterMetrics()
	return channelJoinsTotal
}

func InboundEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return inboundEventsTotal
}

func MessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesSentTotal
}

func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

func EventsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsDroppedTotal
}

func BusEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return busEventsTotal
}

func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
