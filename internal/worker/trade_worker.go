package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/service"
)

// TradeWorker advances pending copy trades: it refreshes displayed profit and
// completes trades past their duration. Completion is claimed per trade row,
// so concurrent instances cannot double-credit.
type TradeWorker struct {
	tradeService *service.TradeService
	tickInterval time.Duration
	stopCh       chan struct{}
}

// NewTradeWorker creates a new TradeWorker instance.
func NewTradeWorker(tradeSvc *service.TradeService) *TradeWorker {
	return &TradeWorker{
		tradeService: tradeSvc,
		tickInterval: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// WithTickInterval sets the tick interval for the worker.
func (w *TradeWorker) WithTickInterval(interval time.Duration) *TradeWorker {
	w.tickInterval = interval
	return w
}

// Start begins the background worker.
// It runs in a loop until Stop is called or the context is canceled.
func (w *TradeWorker) Start(ctx context.Context) {
	log.Printf("[TradeWorker] Starting with tick interval: %v", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[TradeWorker] Context canceled, stopping...")
			return
		case <-w.stopCh:
			log.Println("[TradeWorker] Stop signal received, stopping...")
			return
		case <-ticker.C:
			if err := w.tradeService.Tick(ctx); err != nil {
				observability.IncrementWorkerRun("trade", "error")
				log.Printf("[TradeWorker] Error ticking trades: %v", err)
				continue
			}
			observability.IncrementWorkerRun("trade", "ok")
		}
	}
}

// Stop signals the worker to stop.
func (w *TradeWorker) Stop() {
	close(w.stopCh)
}

// TickOnce runs a single tick immediately.
// Useful for testing or manual triggering.
func (w *TradeWorker) TickOnce(ctx context.Context) error {
	return w.tradeService.Tick(ctx)
}

// Run starts the worker and returns a function that can be called to stop it.
// This is useful for starting the worker in a goroutine.
func (w *TradeWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// String returns a string representation of the worker.
func (w *TradeWorker) String() string {
	return fmt.Sprintf("TradeWorker(interval=%v)", w.tickInterval)
}
