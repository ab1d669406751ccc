package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersCreated        prometheus.Counter
	OrdersRejected       *prometheus.CounterVec
	StatusUpdates        *prometheus.CounterVec
	StoreFaults          *prometheus.CounterVec
	ReceiptsRendered     prometheus.Counter
	ReceiptRenderSeconds prometheus.Histogram
	Commands             *prometheus.CounterVec
	ConversationsStarted prometheus.Counter
	ConversationsClosed  *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	UpdatesDropped       prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipts_orders_created_total"})
	ordersRejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_orders_rejected_total"}, []string{"reason"})
	statusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_status_updates_total"}, []string{"status"})
	storeFaults := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_store_faults_total"}, []string{"operation"})
	receiptsRendered := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipts_documents_rendered_total"})
	renderSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipts_document_render_seconds",
		Buckets: prometheus.DefBuckets,
	})
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_bot_commands_total"}, []string{"command"})
	started := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipts_conversations_started_total"})
	closed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_conversations_closed_total"}, []string{"outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{Name: "receipts_active_sessions"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipts_bot_updates_dropped_total"})

	r.MustRegister(
		ordersCreated, ordersRejected, statusUpdates, storeFaults,
		receiptsRendered, renderSeconds, commands, started, closed, sessions, dropped,
	)

	return &Registry{
		reg:                  r,
		OrdersCreated:        ordersCreated,
		OrdersRejected:       ordersRejected,
		StatusUpdates:        statusUpdates,
		StoreFaults:          storeFaults,
		ReceiptsRendered:     receiptsRendered,
		ReceiptRenderSeconds: renderSeconds,
		Commands:             commands,
		ConversationsStarted: started,
		ConversationsClosed:  closed,
		ActiveSessions:       sessions,
		UpdatesDropped:       dropped,
	}
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
