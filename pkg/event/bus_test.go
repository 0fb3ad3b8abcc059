package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus[Mouse]()
	var got []string
	bus.Subscribe(func(m Mouse) { got = append(got, "first:"+m.Action.String()) })
	bus.Subscribe(func(m Mouse) { got = append(got, "second:"+m.Action.String()) })

	bus.Publish(Mouse{Action: MouseDown})
	bus.Publish(Mouse{Action: MouseUp})

	assert.Equal(t, []string{"first:down", "second:down", "first:up", "second:up"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus[Key]()
	calls := 0
	unsubscribe := bus.Subscribe(func(Key) { calls++ })
	assert.Equal(t, 1, bus.Len())

	bus.Publish(Key{Name: KeyEscape})
	unsubscribe()
	unsubscribe()
	bus.Publish(Key{Name: KeyEscape})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_SubscribeDuringPublish(t *testing.T) {
	bus := NewBus[Selection]()
	late := 0
	bus.Subscribe(func(Selection) {
		bus.Subscribe(func(Selection) { late++ })
	})

	bus.Publish(Selection{})
	assert.Equal(t, 0, late, "new subscribers only see the next publish")

	bus.Publish(Selection{})
	assert.Equal(t, 1, late)
}
