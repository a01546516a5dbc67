package datasync

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/wedplan/internal/logger"
)

// Refresher reloads collections. *Controller and *Syncer satisfy it.
type Refresher interface {
	Refetch(ctx context.Context, kinds ...Kind) error
}

// AutoRefresh periodically reloads everything and coalesces bursts of
// refresh requests after mutations into one reload.
type AutoRefresh struct {
	target       Refresher
	debounceTime time.Duration
	pollInterval time.Duration
	pending      bool
	mu           sync.Mutex
	stopCh       chan struct{}
	stopOnce     sync.Once
	onRefresh    func(error) // called after every background reload
}

// NewAutoRefresh starts polling target every pollInterval. A zero interval
// disables polling; TriggerRefresh still works.
func NewAutoRefresh(target Refresher, pollInterval, debounceTime time.Duration) *AutoRefresh {
	a := &AutoRefresh{
		target:       target,
		debounceTime: debounceTime,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}

	if pollInterval > 0 {
		go a.pollLoop()
	}

	return a
}

// SetOnRefresh sets a callback run after each background reload
func (a *AutoRefresh) SetOnRefresh(callback func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRefresh = callback
}

func (a *AutoRefresh) pollLoop() {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.refresh()
		case <-a.stopCh:
			return
		}
	}
}

func (a *AutoRefresh) refresh() {
	err := a.target.Refetch(context.Background())
	if err != nil {
		logger.Debug("Background refresh failed", logger.F("error", err))
	}

	a.mu.Lock()
	callback := a.onRefresh
	a.mu.Unlock()

	if callback != nil {
		callback(err)
	}
}

// TriggerRefresh schedules a reload after the debounce period. Calls made
// while one is pending are folded into it.
func (a *AutoRefresh) TriggerRefresh() {
	a.mu.Lock()
	if !a.pending {
		a.pending = true
		go a.debouncedRefresh()
	}
	a.mu.Unlock()
}

func (a *AutoRefresh) debouncedRefresh() {
	timer := time.NewTimer(a.debounceTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		a.mu.Lock()
		if !a.pending {
			a.mu.Unlock()
			return
		}
		a.pending = false
		a.mu.Unlock()
		a.refresh()
	case <-a.stopCh:
		return
	}
}

// RefreshNowIfPending runs a scheduled reload immediately.
func (a *AutoRefresh) RefreshNowIfPending(ctx context.Context) error {
	a.mu.Lock()
	isPending := a.pending
	a.pending = false
	a.mu.Unlock()

	if !isPending {
		return nil
	}
	return a.target.Refetch(ctx)
}

// IsPending reports whether a reload is scheduled.
func (a *AutoRefresh) IsPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Stop ends polling and drops any scheduled reload.
func (a *AutoRefresh) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}
