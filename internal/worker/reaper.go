// Package worker runs the background jobs of the reservation system.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/rajeet-04/railway/internal/service"
)

// ReaperConfig controls the expired-hold reaper.
type ReaperConfig struct {
	Interval  time.Duration // how often to scan for expired holds
	BatchSize int           // max holds expired per scan
}

// DefaultReaperConfig returns the reaper settings used when nothing is
// configured: scan every 5 seconds, at most 100 holds per scan.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Interval:  5 * time.Second,
		BatchSize: 100,
	}
}

// Reaper periodically expires stale seat holds so their seats return
// to the available pool even when clients never release them.
type Reaper struct {
	svc *service.ReservationService
	cfg ReaperConfig
}

// NewReaper wires a Reaper around the reservation service.
func NewReaper(svc *service.ReservationService, cfg ReaperConfig) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReaperConfig().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReaperConfig().BatchSize
	}
	return &Reaper{svc: svc, cfg: cfg}
}

// RunOnce performs a single reap pass.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	return r.svc.ReapExpiredHolds(ctx, r.cfg.BatchSize)
}

// Start launches the background reap loop.  The returned channel stops
// the loop when closed; cancelling ctx stops it as well.
func (r *Reaper) Start(ctx context.Context) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				reaped, err := r.RunOnce(ctx)
				if err != nil {
					log.Printf("reaper: scan failed: %v", err)
					continue
				}
				if reaped > 0 {
					log.Printf("reaper: expired %d hold(s)", reaped)
				}
			case <-stopCh:
				log.Println("reaper stopped")
				return
			case <-ctx.Done():
				log.Println("reaper stopped (context done)")
				return
			}
		}
	}()

	log.Printf("reaper started with interval %v", r.cfg.Interval)
	return stopCh
}
