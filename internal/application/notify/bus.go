// Package notify implements the in-session notification bus: short-lived,
// auto-expiring user-facing messages keyed by a monotonic id.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/notification"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// Listener observes every change to the visible notification list.
type Listener func([]notification.Notification)

// Bus manages visible notifications. Auto-removal is a timer armed at
// creation; manual removal cancels the timer so an already-gone id is never
// removed twice.
type Bus struct {
	mu         sync.Mutex
	items      map[notification.ID]notification.Notification
	timers     map[notification.ID]*time.Timer
	listeners  []Listener
	defaultTTL time.Duration
	lastID     notification.ID
	logger     *logger.Logger
	now        func() time.Time
}

// NewBus creates a notification bus. defaultTTL <= 0 falls back to the
// domain default of 5s.
func NewBus(defaultTTL time.Duration, log *logger.Logger) *Bus {
	if defaultTTL <= 0 {
		defaultTTL = notification.DefaultTTL
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bus{
		items:      make(map[notification.ID]notification.Notification),
		timers:     make(map[notification.ID]*time.Timer),
		defaultTTL: defaultTTL,
		logger:     log.With(logger.Component("notify")),
		now:        time.Now,
	}
}

// Subscribe registers a listener for list changes.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Add creates a notification and returns its id. duration == 0 makes it
// sticky: it is never auto-removed. duration < 0 uses the default TTL.
func (b *Bus) Add(message string, kind notification.Kind, duration time.Duration) notification.ID {
	if !kind.IsValid() {
		kind = notification.KindInfo
	}
	if duration < 0 {
		duration = b.defaultTTL
	}

	b.mu.Lock()
	now := b.now()
	id := notification.ID(now.UnixNano())
	// Two adds within one clock tick must still get distinct, ordered ids.
	if id <= b.lastID {
		id = b.lastID + 1
	}
	b.lastID = id

	n := notification.Notification{
		ID:        id,
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
	}
	if duration > 0 {
		n.ExpiresAt = now.Add(duration)
		b.timers[id] = time.AfterFunc(duration, func() { b.Remove(id) })
	}
	b.items[id] = n
	b.mu.Unlock()

	b.notifyListeners()
	return id
}

// Remove dismisses a notification. Removing an unknown or already-expired
// id is a no-op. Cancels the auto-expiry timer if one is pending.
func (b *Bus) Remove(id notification.ID) {
	b.mu.Lock()
	_, ok := b.items[id]
	if ok {
		delete(b.items, id)
		if timer, hasTimer := b.timers[id]; hasTimer {
			timer.Stop()
			delete(b.timers, id)
		}
	}
	b.mu.Unlock()

	if ok {
		b.notifyListeners()
	}
}

// List returns visible notifications in creation order (ids are monotonic).
func (b *Bus) List() []notification.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Len returns the number of visible notifications.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Close cancels all pending expiry timers.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, timer := range b.timers {
		timer.Stop()
		delete(b.timers, id)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVENIENCE CONSTRUCTORS (the syncer.Notifier / ingest.Notifier surface)
// ══════════════════════════════════════════════════════════════════════════════

// Success adds a success notification with the default TTL.
func (b *Bus) Success(message string) { b.Add(message, notification.KindSuccess, b.defaultTTL) }

// Error adds an error notification with the default TTL.
func (b *Bus) Error(message string) { b.Add(message, notification.KindError, b.defaultTTL) }

// Warning adds a warning notification with the default TTL.
func (b *Bus) Warning(message string) { b.Add(message, notification.KindWarning, b.defaultTTL) }

// Info adds an info notification with the default TTL.
func (b *Bus) Info(message string) { b.Add(message, notification.KindInfo, b.defaultTTL) }

func (b *Bus) snapshotLocked() []notification.Notification {
	out := make([]notification.Notification, 0, len(b.items))
	for _, n := range b.items {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Bus) notifyListeners() {
	b.mu.Lock()
	listeners := append([]Listener(nil), b.listeners...)
	snapshot := b.snapshotLocked()
	b.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
