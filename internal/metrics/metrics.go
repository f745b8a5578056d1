package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	tradesTotal   *prometheus.CounterVec
	ordersTotal   *prometheus.CounterVec
	barsProcessed prometheus.Counter
	batchActive   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtesting_runs_total",
				Help: "Total number of backtest runs",
			},
			[]string{"strategy", "status"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backtesting_run_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),

		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtesting_trades_total",
				Help: "Total number of simulated trades",
			},
			[]string{"strategy", "outcome"},
		),

		ordersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtesting_orders_total",
				Help: "Total number of simulated orders by terminal status",
			},
			[]string{"strategy", "status"},
		),

		barsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtesting_bars_processed_total",
				Help: "Total number of bars walked by the engine",
			},
		),

		batchActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backtesting_batch_runs_active",
				Help: "Number of batch runs currently executing",
			},
		),
	}

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.ordersTotal)
	reg.MustRegister(r.barsProcessed)
	reg.MustRegister(r.batchActive)

	return r
}

// RecordRun records a completed backtest run.
func (r *Registry) RecordRun(strategy, status string, duration float64) {
	r.runsTotal.WithLabelValues(strategy, status).Inc()
	r.runDuration.Observe(duration)
}

// RecordTrades records the win/loss split of a run's trade ledger.
func (r *Registry) RecordTrades(strategy string, wins, losses int) {
	r.tradesTotal.WithLabelValues(strategy, "win").Add(float64(wins))
	r.tradesTotal.WithLabelValues(strategy, "loss").Add(float64(losses))
}

// RecordOrders records how many orders reached each terminal status.
func (r *Registry) RecordOrders(strategy string, submitted, rejected, expired int) {
	r.ordersTotal.WithLabelValues(strategy, "submitted").Add(float64(submitted))
	r.ordersTotal.WithLabelValues(strategy, "rejected").Add(float64(rejected))
	r.ordersTotal.WithLabelValues(strategy, "expired").Add(float64(expired))
}

// AddBarsProcessed adds to the processed-bar counter.
func (r *Registry) AddBarsProcessed(n int) {
	r.barsProcessed.Add(float64(n))
}

// BatchInc increments the active batch-run gauge.
func (r *Registry) BatchInc() {
	r.batchActive.Inc()
}

// BatchDec decrements the active batch-run gauge.
func (r *Registry) BatchDec() {
	r.batchActive.Dec()
}
