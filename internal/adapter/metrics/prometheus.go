package metrics

import (
	"net/http"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "custodial_ledger"

// Prometheus implements ports.Metrics.
type Prometheus struct {
	gatherer   prometheus.Gatherer
	operations *prometheus.CounterVec
	credited   *prometheus.CounterVec
	cycle      prometheus.Histogram
	wallets    prometheus.Gauge
	failures   prometheus.Counter
}

// NewPrometheus registers the ledger collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	p := &Prometheus{
		gatherer: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Settlement operations by outcome.",
		}, []string{"operation", "outcome"}),
		credited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credited_amount_total",
			Help:      "Token amount credited to balances, by journal kind.",
		}, []string{"kind"}),
		cycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_cycle_seconds",
			Help:      "Duration of reconciliation cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		wallets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconciliation_wallets",
			Help:      "Wallets visited by the last reconciliation cycle.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_wallet_failures_total",
			Help:      "Wallets whose reconciliation failed.",
		}),
	}
	reg.MustRegister(p.operations, p.credited, p.cycle, p.wallets, p.failures)
	return p
}

func (p *Prometheus) ObserveOperation(op string, outcome string) {
	p.operations.WithLabelValues(op, outcome).Inc()
}

func (p *Prometheus) ObserveCredit(kind domain.EntryKind, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	p.credited.WithLabelValues(string(kind)).Add(amount.InexactFloat64())
}

func (p *Prometheus) ObserveCycle(duration time.Duration, wallets int, failures int) {
	p.cycle.Observe(duration.Seconds())
	p.wallets.Set(float64(wallets))
	p.failures.Add(float64(failures))
}

// Handler serves the registry in the exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Noop discards observations.
type Noop struct{}

func (Noop) ObserveOperation(string, string)                 {}
func (Noop) ObserveCredit(domain.EntryKind, decimal.Decimal) {}
func (Noop) ObserveCycle(time.Duration, int, int)            {}
