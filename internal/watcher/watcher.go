package watcher

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// OrderSource lists the ids of all known orders. The order repository
// satisfies this.
type OrderSource interface {
	ListOrderIDs(ctx context.Context) ([]int, error)
}

// ViewedStore persists which orders an admin has already looked at, so the
// unread badge survives restarts.
type ViewedStore interface {
	IsViewed(ctx context.Context, orderID int) (bool, error)
	MarkViewed(ctx context.Context, orderID int) error
}

// Watcher polls the order list on a fixed interval and tracks newly appeared
// orders that have not been viewed yet. It is the server-side counterpart of
// the dashboard's polling loop: start it when the orders view becomes
// visible, stop it when the tab hides.
type Watcher struct {
	source   OrderSource
	viewed   ViewedStore
	interval time.Duration

	mu      sync.Mutex
	known   map[int]struct{}
	unseen  map[int]struct{}
	seeded  bool
	cancel  context.CancelFunc
	running bool
}

func New(source OrderSource, viewed ViewedStore, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{
		source:   source,
		viewed:   viewed,
		interval: interval,
		known:    make(map[int]struct{}),
		unseen:   make(map[int]struct{}),
	}
}

// Start launches the polling loop. Calling Start on a running watcher is a
// no-op, so visibility events can call it freely.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	go w.loop(ctx)
	logger.Info().Msgf("Order watcher started, polling every %s", w.interval)
}

// Stop halts polling. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.cancel()
	w.running = false
	logger.Info().Msg("Order watcher stopped")
}

func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Unread returns the count of newly discovered orders not yet marked viewed.
func (w *Watcher) Unread() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.unseen)
}

// MarkViewed records that an order was looked at, both in the persistent
// store and against the in-memory badge counter.
func (w *Watcher) MarkViewed(ctx context.Context, orderID int) error {
	if err := w.viewed.MarkViewed(ctx, orderID); err != nil {
		return err
	}
	w.mu.Lock()
	delete(w.unseen, orderID)
	w.mu.Unlock()
	return nil
}

// Poll fetches the current order id list and folds newly appeared ids into
// the badge counter. The first poll only seeds the baseline. A stale result
// arriving after a newer one simply re-applies ids already known
// (last-write-wins; the next cycle reconciles).
func (w *Watcher) Poll(ctx context.Context) error {
	ids, err := w.source.ListOrderIDs(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	seeded := w.seeded
	fresh := make([]int, 0)
	for _, id := range ids {
		if _, ok := w.known[id]; !ok {
			w.known[id] = struct{}{}
			fresh = append(fresh, id)
		}
	}
	w.seeded = true
	w.mu.Unlock()

	if !seeded {
		return nil
	}

	for _, id := range fresh {
		viewed, err := w.viewed.IsViewed(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msgf("Error checking viewed state for order %d", id)
			continue
		}
		if viewed {
			continue
		}
		w.mu.Lock()
		w.unseen[id] = struct{}{}
		w.mu.Unlock()
		logger.Info().Msgf("New order %d discovered", id)
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.Poll(ctx); err != nil {
		logger.Error().Err(err).Msg("Error polling orders")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				logger.Error().Err(err).Msg("Error polling orders")
			}
		}
	}
}
