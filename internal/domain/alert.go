package domain

import (
	"sync"

	"github.com/google/uuid"
)

// UnreadAlert is anything the alert board can hold.
type UnreadAlert interface {
	AlertID() uuid.UUID
	AlertSeverity() Severity
}

// CountCritical counts alerts whose severity is exactly critical.
func CountCritical[T UnreadAlert](alerts []T) int {
	n := 0
	for _, a := range alerts {
		if a.AlertSeverity() == SeverityCritical {
			n++
		}
	}
	return n
}

// AlertBoard keeps the unread alert list together with its critical badge
// count. The two always change under the same lock.
//
// Reloads are tagged with an epoch: Begin hands out a new epoch and Commit
// only applies a result whose epoch is still the latest one handed out, so a
// slow fetch can never overwrite a newer one.
type AlertBoard[T UnreadAlert] struct {
	mu       sync.RWMutex
	items    []T
	critical int
	epoch    uint64
	loaded   bool
}

// Begin starts a reload and returns its epoch.
func (b *AlertBoard[T]) Begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.epoch++
	return b.epoch
}

// Commit replaces the list if epoch is current. It reports whether the
// result was applied.
func (b *AlertBoard[T]) Commit(epoch uint64, items []T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if epoch != b.epoch {
		return false
	}
	b.items = append([]T(nil), items...)
	b.critical = CountCritical(items)
	b.loaded = true
	return true
}

// MarkRead drops id from the unread list. The critical count is decremented
// from the severity of the entry as it was before removal. It reports whether
// id was present.
func (b *AlertBoard[T]) MarkRead(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.items {
		if a.AlertID() != id {
			continue
		}
		if a.AlertSeverity() == SeverityCritical {
			b.critical--
		}
		b.items = append(b.items[:i:i], b.items[i+1:]...)
		return true
	}
	return false
}

// MarkManyRead drops every listed id from the board and returns how many
// were present. Entries that arrived after ids was taken stay unread.
func (b *AlertBoard[T]) MarkManyRead(ids []uuid.UUID) int {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.items[:0:0]
	removed := 0
	for _, a := range b.items {
		if _, ok := want[a.AlertID()]; !ok {
			kept = append(kept, a)
			continue
		}
		if a.AlertSeverity() == SeverityCritical {
			b.critical--
		}
		removed++
	}
	b.items = kept
	return removed
}

// Snapshot returns a copy of the unread list and the critical count.
// loaded is false until the first successful Commit.
func (b *AlertBoard[T]) Snapshot() (items []T, critical int, loaded bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]T(nil), b.items...), b.critical, b.loaded
}
