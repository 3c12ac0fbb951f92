package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voteroom"

// Collector records room and session activity in Prometheus.
type Collector struct {
	roomsOpen    prometheus.Gauge
	sessions     prometheus.Gauge
	broadcasts   *prometheus.CounterVec
	requests     *prometheus.CounterVec
	resultPushes prometheus.Counter
}

// NewCollector registers the voteroom metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		roomsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_open",
			Help:      "Number of open vote rooms.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_connected",
			Help:      "Number of connected sessions.",
		}),
		broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Room broadcasts by notification kind or command type.",
		}, []string{"kind"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Handled requests and commands by type and result code.",
		}, []string{"type", "code"}),
		resultPushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_pushes_total",
			Help:      "Vote results pushed to rooms.",
		}),
	}
}

func (c *Collector) RoomOpened()          { c.roomsOpen.Inc() }
func (c *Collector) RoomClosed()          { c.roomsOpen.Dec() }
func (c *Collector) SessionConnected()    { c.sessions.Inc() }
func (c *Collector) SessionDisconnected() { c.sessions.Dec() }
func (c *Collector) ResultPushed()        { c.resultPushes.Inc() }

func (c *Collector) Broadcast(kind string) {
	c.broadcasts.WithLabelValues(kind).Inc()
}

// Request counts a handled message. An empty code is reported as "OK".
func (c *Collector) Request(msgType, code string) {
	if code == "" {
		code = "OK"
	}
	c.requests.WithLabelValues(msgType, code).Inc()
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RoomOpened()            {}
func (NoOp) RoomClosed()            {}
func (NoOp) SessionConnected()      {}
func (NoOp) SessionDisconnected()   {}
func (NoOp) Broadcast(string)       {}
func (NoOp) Request(string, string) {}
func (NoOp) ResultPushed()          {}
