// Package notification contains the domain model for short-lived,
// user-facing messages. Notifications are display-layer feedback (upload
// results, sync failures), not the outbound guardian alerts - those go
// through the tracker API's dispatch endpoint.
package notification

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID identifies a notification. IDs are time-based and monotonically
// distinguishable so the display list has a stable order; no two live
// notifications ever share an ID.
type ID int64

// IsValid checks that the ID was issued by the bus.
func (id ID) IsValid() bool {
	return id > 0
}

// Kind is the visual/semantic category of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	default:
		return false
	}
}

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one visible message. A zero ExpiresAt means the
// notification is sticky and only goes away on explicit dismissal.
type Notification struct {
	ID        ID        `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Sticky reports whether the notification never auto-expires.
func (n Notification) Sticky() bool {
	return n.ExpiresAt.IsZero()
}

// ExpiredAt reports whether the notification should be gone at time t.
func (n Notification) ExpiredAt(t time.Time) bool {
	return !n.Sticky() && !t.Before(n.ExpiresAt)
}
