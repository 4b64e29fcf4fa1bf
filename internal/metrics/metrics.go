package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg              *prometheus.Registry
	WebhooksReceived *prometheus.CounterVec // topic, result
	OrdersIngested   prometheus.Counter
	VouchersServed   prometheus.Counter
	VouchersPushed   *prometheus.CounterVec // result
	Reclassified     prometheus.Counter
	ShopifyLatency   *prometheus.HistogramVec // operation
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tally_webhooks_received_total"}, []string{"topic", "result"})
	ingested := prometheus.NewCounter(prometheus.CounterOpts{Name: "tally_orders_ingested_total"})
	served := prometheus.NewCounter(prometheus.CounterOpts{Name: "tally_vouchers_served_total"})
	pushed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tally_vouchers_pushed_total"}, []string{"result"})
	reclassified := prometheus.NewCounter(prometheus.CounterOpts{Name: "tally_orders_reclassified_total"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_shopify_request_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	r.MustRegister(webhooks, ingested, served, pushed, reclassified, latency)
	return &Registry{
		reg:              r,
		WebhooksReceived: webhooks,
		OrdersIngested:   ingested,
		VouchersServed:   served,
		VouchersPushed:   pushed,
		Reclassified:     reclassified,
		ShopifyLatency:   latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
