// Package scheduler renders the plot periodically from inside the service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/sizetracker/internal/plotter"
)

var log = logging.Logger("scheduler")

type Plotter interface {
	RenderPlot(ctx context.Context) (*plotter.PlotResult, error)
}

type Scheduler struct {
	plotter  Plotter
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(p Plotter, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("plot interval must be positive, got %s", interval)
	}
	return &Scheduler{
		plotter:  p,
		interval: interval,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start blocks, rendering one plot per tick, until ctx is done or Stop is
// called. Failures are logged and the next tick proceeds as usual.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Infof("Scheduler started with interval: %v", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopping due to context cancellation")
			return
		case <-s.stopCh:
			log.Info("Scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.plotter.RenderPlot(ctx)
	if err != nil {
		log.Errorf("Scheduled plot error: %v", err)
		return
	}
	log.Debugw("scheduled plot", "outcome", res.Outcome, "location", res.Location)
}
