package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got any
	_, err := b.Subscribe("input.key", func(e Event) error {
		got = e.Data()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, b.Publish(NewEvent("input.key", "tester", 123)))
	assert.Equal(t, 123, got)

	require.NoError(t, b.Publish(NewEvent("other", "tester", nil)))
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, err := b.Subscribe("ev", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	e1, e2 := errors.New("first"), errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.Publish(NewEvent("x", "src", nil))
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)

	err = b.PublishBatch(NewEvent("x", "src", nil), NewEvent("y", "src", nil))
	assert.ErrorIs(t, err, e1)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("ev", func(Event) error { count++; return nil })
	require.NoError(t, err)

	_ = b.Publish(NewEvent("ev", "src", nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Unsubscribe(nil))
	_ = b.Publish(NewEvent("ev", "src", nil))

	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
	assert.Zero(t, b.GetMetrics().SubscribersActive)
}

func TestNilHandlerRejected(t *testing.T) {
	_, err := New().Subscribe("ev", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestObserverAndMetrics(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	_, _ = b.Subscribe("e", func(Event) error { return boom })

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	_ = b.Publish(NewEvent("e", "s", nil))

	m := b.GetMetrics()
	assert.Equal(t, uint64(2), m.Published)
	assert.Equal(t, uint64(2), m.DeliveredHandlers)
	assert.Equal(t, uint64(2), m.Errors)
	assert.Equal(t, 2, obs.deliveredCount)
	assert.ErrorIs(t, obs.lastErr, boom)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Equal(t, 2, obs.deliveredCount)
}
