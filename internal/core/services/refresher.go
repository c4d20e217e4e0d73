package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// IndexRefresher refreshes a search index on a fixed interval so long-lived
// sessions pick up catalogue changes written by other processes.
type IndexRefresher struct {
	search   driving.SearchService
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	runs    int
}

// NewIndexRefresher creates a refresher for search.
func NewIndexRefresher(search driving.SearchService, interval time.Duration) *IndexRefresher {
	return &IndexRefresher{
		search:   search,
		interval: interval,
	}
}

// Start runs the refresh loop. It blocks until Stop is called or ctx is
// done. Starting a running refresher is a no-op.
func (r *IndexRefresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive, got %s", domain.ErrInvalidInput, r.interval)
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	stopCh, done := r.stopCh, r.done
	r.mu.Unlock()

	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (r *IndexRefresher) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done := r.done
	r.mu.Unlock()

	<-done
	return nil
}

// Runs returns the number of refreshes that rebuilt the index.
func (r *IndexRefresher) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *IndexRefresher) refresh(ctx context.Context) {
	rebuilt, err := r.search.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("refresher: %v", err)
		}
		return
	}
	if !rebuilt {
		logger.Debug("refresher: throttled")
		return
	}

	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	logger.Debug("refresher: %d records", r.search.Stats().Records)
}
