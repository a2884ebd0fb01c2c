package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpDurationHistogram    *prometheus.HistogramVec
	ledgerInconsistencyCount prometheus.Counter
	idempotencyCounter       *prometheus.CounterVec
	depositsExpiredCounter   prometheus.Counter
	tradesCompletedCounter   prometheus.Counter
	poolExhaustedCounter     *prometheus.CounterVec
	workerRunCounter         *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerInconsistencyCount = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_inconsistencies_total",
			Help: "Expiring deposits whose amount exceeded the locked balance",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		depositsExpiredCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deposits_expired_total",
			Help: "Deposits released by the expiry reaper",
		})

		tradesCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trades_completed_total",
			Help: "Copy trades completed and credited",
		})

		poolExhaustedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_pool_exhausted_total",
			Help: "Lease requests denied because every address was taken",
		}, []string{"network"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerInconsistencyCount,
			idempotencyCounter,
			depositsExpiredCounter,
			tradesCompletedCounter,
			poolExhaustedCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerInconsistency() {
	if ledgerInconsistencyCount == nil {
		return
	}
	ledgerInconsistencyCount.Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func AddDepositsExpired(n int) {
	if depositsExpiredCounter == nil || n <= 0 {
		return
	}
	depositsExpiredCounter.Add(float64(n))
}

func IncrementTradesCompleted() {
	if tradesCompletedCounter == nil {
		return
	}
	tradesCompletedCounter.Inc()
}

func IncrementPoolExhausted(network string) {
	if poolExhaustedCounter == nil {
		return
	}
	poolExhaustedCounter.WithLabelValues(network).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
