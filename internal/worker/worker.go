// Package worker contains the background worker that periodically scans the
// ticket table for overdue open tickets and emails the authority a digest.
// The worker runs independently of HTTP request handling.
package worker

import (
	"context"
	"sync"
	"time"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
)

// Status represents the current state of the worker
type Status struct {
	IsRunning     bool      `json:"is_running"`
	LastRunStart  time.Time `json:"last_run_start"`
	LastRunFinish time.Time `json:"last_run_finish"`
	LastRunError  string    `json:"last_run_error,omitempty"`
	LastOverdue   int       `json:"last_overdue"`
	NextRun       time.Time `json:"next_run"`
}

// Worker scans for overdue tickets on an interval and on manual trigger.
type Worker struct {
	ticketService serviceinterfaces.TicketService
	emailService  serviceinterfaces.EmailService
	instance      string
	cfg           *config.Config
	logger        *observability.Logger

	mu            sync.RWMutex
	status        Status
	manualTrigger chan bool

	// Time function for testing - defaults to time.Now
	timeNow func() time.Time
}

// NewWorker creates a worker over the given services.
func NewWorker(ticketService serviceinterfaces.TicketService, emailService serviceinterfaces.EmailService, instance string, cfg *config.Config, logger *observability.Logger) *Worker {
	return &Worker{
		ticketService: ticketService,
		emailService:  emailService,
		instance:      instance,
		cfg:           cfg,
		logger:        logger,
		manualTrigger: make(chan bool, 1),
		timeNow:       time.Now,
	}
}

// Start runs the scan loop until ctx is cancelled. One scan runs immediately
// on startup so a restart never delays overdue detection by a full interval.
func (w *Worker) Start(ctx context.Context) {
	interval := w.cfg.Triage.ScanInterval.Std()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.mu.Lock()
	w.status.IsRunning = true
	w.mu.Unlock()

	w.logger.Info(ctx, "Worker started", map[string]interface{}{
		"instance": w.instance,
		"interval": interval.String(),
	})

	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Worker shutting down", map[string]interface{}{
				"instance": w.instance,
			})
			w.mu.Lock()
			w.status.IsRunning = false
			w.mu.Unlock()
			return

		case <-ticker.C:
			w.run(ctx)

		case <-w.manualTrigger:
			w.logger.Info(ctx, "Worker triggered manually", map[string]interface{}{
				"instance": w.instance,
			})
			w.run(ctx)
		}
	}
}

// TriggerScan requests an immediate scan. It never blocks; if a trigger is
// already pending the request is dropped.
func (w *Worker) TriggerScan() bool {
	select {
	case w.manualTrigger <- true:
		return true
	default:
		return false
	}
}

// GetStatus returns a snapshot of the worker status.
func (w *Worker) GetStatus() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// run performs a single overdue scan.
func (w *Worker) run(ctx context.Context) {
	ctx, span := observability.TraceWorkerFunction(ctx, "overdue_scan")
	defer span.End()

	start := w.timeNow()
	w.mu.Lock()
	w.status.LastRunStart = start
	w.status.LastRunError = ""
	w.mu.Unlock()

	overdue, err := w.scanOverdue(ctx)

	w.mu.Lock()
	w.status.LastRunFinish = w.timeNow()
	w.status.NextRun = start.Add(w.cfg.Triage.ScanInterval.Std())
	if err != nil {
		w.status.LastRunError = err.Error()
	} else {
		w.status.LastOverdue = len(overdue)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error(ctx, "Overdue scan failed", err, map[string]interface{}{
			"instance": w.instance,
		})
		return
	}

	w.logger.Info(ctx, "Overdue scan finished", map[string]interface{}{
		"instance": w.instance,
		"overdue":  len(overdue),
	})
}

// scanOverdue lists the overdue tickets and sends the digest when there are
// any. Digest failures are reported but do not fail the scan itself.
func (w *Worker) scanOverdue(ctx context.Context) ([]models.Ticket, error) {
	view, err := w.ticketService.ListForTriage(ctx)
	if err != nil {
		return nil, err
	}

	if len(view.Overdue) > 0 && w.emailService.IsEnabled() {
		if err := w.emailService.SendOverdueDigest(ctx, view.Overdue); err != nil {
			w.logger.Error(ctx, "Failed to send overdue digest", err, map[string]interface{}{
				"instance": w.instance,
				"overdue":  len(view.Overdue),
			})
		}
	}
	return view.Overdue, nil
}
