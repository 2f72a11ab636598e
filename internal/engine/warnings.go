package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/buildsense/ieqengine/internal/domain"
)

// warningCollector gathers deferred warnings from concurrent room pipelines.
// Warnings surface once per run as a grouped digest, never as inline logs.
type warningCollector struct {
	mu     sync.Mutex
	events []domain.EmptyFilterEvent
}

func (w *warningCollector) add(events []domain.EmptyFilterEvent) {
	if len(events) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, events...)
}

func (w *warningCollector) digest() WarningsDigest {
	w.mu.Lock()
	defer w.mu.Unlock()

	events := append([]domain.EmptyFilterEvent(nil), w.events...)
	sort.Slice(events, func(i, j int) bool {
		if events[i].RoomID != events[j].RoomID {
			return events[i].RoomID < events[j].RoomID
		}
		return events[i].TestID < events[j].TestID
	})
	return WarningsDigest{EmptyFilterEvents: events}
}

// WarningsDigest is the run-end summary of deferred warnings.
type WarningsDigest struct {
	EmptyFilterEvents []domain.EmptyFilterEvent `json:"empty_filter_events,omitempty"`
}

// Empty reports whether there is nothing to surface.
func (d WarningsDigest) Empty() bool { return len(d.EmptyFilterEvents) == 0 }

// Grouped returns one human-readable line per (filter, period, test)
// combination with the number of affected rooms, sorted for stable output.
func (d WarningsDigest) Grouped() []string {
	type key struct{ filter, period, test string }
	rooms := map[key]int{}
	for _, e := range d.EmptyFilterEvents {
		rooms[key{e.FilterID, e.PeriodID, e.TestID}]++
	}

	keys := make([]key, 0, len(rooms))
	for k := range rooms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].test != keys[j].test {
			return keys[i].test < keys[j].test
		}
		if keys[i].filter != keys[j].filter {
			return keys[i].filter < keys[j].filter
		}
		return keys[i].period < keys[j].period
	})

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("test %s (filter %s, period %s): no in-scope data in %d room(s)",
			k.test, k.filter, k.period, rooms[k]))
	}
	return out
}
