package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/internal/domain/notification"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

func TestAdd_IDsAreMonotonic(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()

	var ids []notification.ID
	for i := 0; i < 10; i++ {
		ids = append(ids, bus.Add("m", notification.KindInfo, 0))
	}

	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "ids must be strictly increasing")
	}

	list := bus.List()
	require.Len(t, list, 10)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i].ID, list[i-1].ID, "display order is stable")
	}
}

func TestAdd_ZeroDurationIsSticky(t *testing.T) {
	bus := NewBus(20*time.Millisecond, logger.Discard())
	defer bus.Close()

	id := bus.Add("sticky", notification.KindWarning, 0)

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, 1, bus.Len(), "duration 0 is never auto-removed")

	bus.Remove(id)
	assert.Equal(t, 0, bus.Len())
}

func TestAdd_AutoExpiry(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()

	bus.Add("short lived", notification.KindSuccess, 30*time.Millisecond)
	require.Equal(t, 1, bus.Len())

	assert.Eventually(t, func() bool { return bus.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRemove_CancelsExpiryTimer(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()

	id := bus.Add("dismiss me", notification.KindError, 30*time.Millisecond)
	bus.Remove(id)
	assert.Equal(t, 0, bus.Len())

	// A new notification created after the dismissal must not be clobbered
	// by the old timer firing on a recycled id.
	id2 := bus.Add("survivor", notification.KindInfo, 0)
	assert.Greater(t, id2, id)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, bus.Len())
}

func TestRemove_UnknownIDIsNoOp(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()
	bus.Remove(notification.ID(12345))
	assert.Equal(t, 0, bus.Len())
}

func TestNegativeDurationUsesDefaultTTL(t *testing.T) {
	bus := NewBus(30*time.Millisecond, logger.Discard())
	defer bus.Close()

	bus.Error("boom") // convenience methods use the default TTL
	require.Equal(t, 1, bus.Len())
	assert.Eventually(t, func() bool { return bus.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubscribe_ObservesChanges(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()

	var last []notification.Notification
	bus.Subscribe(func(list []notification.Notification) { last = list })

	id := bus.Add("hello", notification.KindInfo, 0)
	require.Len(t, last, 1)
	assert.Equal(t, "hello", last[0].Message)

	bus.Remove(id)
	assert.Len(t, last, 0)
}

func TestInvalidKindFallsBackToInfo(t *testing.T) {
	bus := NewBus(time.Minute, logger.Discard())
	defer bus.Close()

	bus.Add("x", notification.Kind("sparkle"), 0)
	list := bus.List()
	require.Len(t, list, 1)
	assert.Equal(t, notification.KindInfo, list[0].Kind)
}
