package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockdesk/pkg/event"
)

func TestFireReachesListenersInOrder(t *testing.T) {
	bus := event.NewBus()
	var got []string
	bus.Listen(event.CacheInvalidated, func(p interface{}) { got = append(got, "a:"+p.(string)) })
	bus.Listen(event.CacheInvalidated, func(p interface{}) { got = append(got, "b:"+p.(string)) })
	bus.Listen(event.StockMutated, func(interface{}) { got = append(got, "wrong") })

	bus.Fire(event.CacheInvalidated, "products:page:1")
	assert.Equal(t, []string{"a:products:page:1", "b:products:page:1"}, got)
}

func TestUnlisten(t *testing.T) {
	bus := event.NewBus()
	calls := 0
	stop := bus.Listen(event.ProductCreated, func(interface{}) { calls++ })

	bus.Fire(event.ProductCreated, nil)
	stop()
	stop()
	bus.Fire(event.ProductCreated, nil)
	assert.Equal(t, 1, calls)
}
