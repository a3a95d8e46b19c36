package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/sse"
)

func TestPumpForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	stream := sse.New(rec, req)
	require.NotNil(t, stream)

	events := make(chan sse.Event, 2)
	require.True(t, sse.Offer(events, sse.Event{Name: "cache", Data: map[string]string{"key": "products:"}}))
	require.True(t, sse.Offer(events, sse.Event{Name: "done", Data: nil}))

	close(events)
	require.NoError(t, stream.Pump(ctx, events, 0))
	assert.False(t, stream.IsClosed())
	cancel()

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: cache\ndata: {\"key\":\"products:\"}\n\n")
	assert.True(t, stream.IsClosed())
}

func TestOfferDropsWhenFull(t *testing.T) {
	events := make(chan sse.Event, 1)
	assert.True(t, sse.Offer(events, sse.Event{Name: "a"}))
	assert.False(t, sse.Offer(events, sse.Event{Name: "b"}))
}
