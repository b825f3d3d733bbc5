package memstore

import (
	"context"
	"sort"
	"sync"
)

// accountLocks hands out one exclusive lock per account id. Locks are
// channels so that waiting honors context cancellation.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]chan struct{})}
}

func (l *accountLocks) get(id string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[id] = ch
	}

	return ch
}

// acquire locks ids in lexicographic order and returns them sorted and
// deduplicated. On cancellation the locks taken so far are released.
func (l *accountLocks) acquire(ctx context.Context, ids []string) ([]string, error) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}

	sort.Strings(sorted)

	for i, id := range sorted {
		select {
		case l.get(id) <- struct{}{}:
		case <-ctx.Done():
			l.release(sorted[:i])
			return nil, ctx.Err()
		}
	}

	return sorted, nil
}

func (l *accountLocks) release(ids []string) {
	for i := len(ids) - 1; i >= 0; i-- {
		<-l.get(ids[i])
	}
}
