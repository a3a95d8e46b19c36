package controllers

import (
	"time"

	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
	"github.com/shashiranjanraj/stockdesk/pkg/sse"
)

// streamed maps bus events onto the SSE event names the console listens to.
var streamed = map[string]string{
	event.CacheInvalidated: "cache",
	event.Navigated:        "navigate",
	notification.Sent:      "notification",
	event.ProductCreated:   "product",
	event.StockMutated:     "stock",
}

type EventController struct {
	bus       *event.Bus
	heartbeat time.Duration
}

// Stream handles GET /events: cache invalidations, navigation requests and
// notifications are pushed to the browser as they happen.
func (ec *EventController) Stream(c *ctx.Context) {
	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}

	log := c.Log()
	events := make(chan sse.Event, 64)
	for busName, sseName := range streamed {
		sseName := sseName
		unlisten := ec.bus.Listen(busName, func(p interface{}) {
			if !sse.Offer(events, sse.Event{Name: sseName, Data: p}) {
				log.Warn("events: client too slow, event dropped", "event", sseName)
			}
		})
		defer unlisten()
	}

	heartbeat := ec.heartbeat
	if heartbeat == 0 {
		heartbeat = 15 * time.Second
	}
	if err := stream.Pump(c.Context(), events, heartbeat); err != nil {
		log.Debug("events: stream closed", "error", err)
	}
}
