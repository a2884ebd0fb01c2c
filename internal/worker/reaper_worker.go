package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/service"
)

// ReaperWorker releases expired deposits in the background. It polls at
// regular intervals; each pass claims deposits under their row lock, so
// concurrent instances are safe.
type ReaperWorker struct {
	depositService *service.DepositService
	pollInterval   time.Duration
	stopCh         chan struct{}
}

// NewReaperWorker creates a new ReaperWorker instance.
func NewReaperWorker(depositSvc *service.DepositService) *ReaperWorker {
	return &ReaperWorker{
		depositService: depositSvc,
		pollInterval:   time.Minute,
		stopCh:         make(chan struct{}),
	}
}

// WithPollInterval sets the poll interval for the worker.
func (w *ReaperWorker) WithPollInterval(interval time.Duration) *ReaperWorker {
	w.pollInterval = interval
	return w
}

// Start begins the background worker.
// It runs in a loop until Stop is called or the context is canceled.
func (w *ReaperWorker) Start(ctx context.Context) {
	log.Printf("[ReaperWorker] Starting with poll interval: %v", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReaperWorker] Context canceled, stopping...")
			return
		case <-w.stopCh:
			log.Println("[ReaperWorker] Stop signal received, stopping...")
			return
		case <-ticker.C:
			w.reapOnce(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *ReaperWorker) Stop() {
	close(w.stopCh)
}

func (w *ReaperWorker) reapOnce(ctx context.Context) {
	reaped, err := w.depositService.ReapExpired(ctx)
	if err != nil {
		observability.IncrementWorkerRun("reaper", "error")
		log.Printf("[ReaperWorker] Error reaping expired deposits: %v", err)
		return
	}
	observability.IncrementWorkerRun("reaper", "ok")
	observability.AddDepositsExpired(reaped)
	if reaped > 0 {
		log.Printf("[ReaperWorker] Released %d expired deposits", reaped)
	}
}

// ReapOnce runs a single reaper pass immediately.
// Useful for testing or manual triggering.
func (w *ReaperWorker) ReapOnce(ctx context.Context) (int, error) {
	return w.depositService.ReapExpired(ctx)
}

// Run starts the worker and returns a function that can be called to stop it.
// This is useful for starting the worker in a goroutine.
func (w *ReaperWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// String returns a string representation of the worker.
func (w *ReaperWorker) String() string {
	return fmt.Sprintf("ReaperWorker(interval=%v)", w.pollInterval)
}
