// Package sse streams Server-Sent Events to the console's browser tab.
//
//	stream := sse.New(w, r)
//	if stream == nil {
//	    return // 500 already sent
//	}
//	events := make(chan sse.Event, 16)
//	unlisten := bus.Listen(event.CacheInvalidated, func(p any) {
//	    sse.Offer(events, sse.Event{Name: "cache", Data: p})
//	})
//	defer unlisten()
//	stream.Pump(r.Context(), events, 15*time.Second)
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one named message.
type Event struct {
	Name string
	Data any
}

// Stream is an open SSE connection to one client. Its methods may be called
// from several goroutines.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher

	mu     sync.Mutex
	closed bool
}

// New sets the event-stream headers. It returns nil, after writing a 500,
// when w cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes a named event with a JSON-encoded payload.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload))
}

// Comment writes an SSE comment, used as a keepalive.
func (s *Stream) Comment(msg string) error {
	return s.write(": " + msg + "\n\n")
}

func (s *Stream) write(frame string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.r.Context().Err() != nil {
		s.closed = true
		return context.Canceled
	}
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		s.closed = true
		return fmt.Errorf("sse: write: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// IsClosed reports whether the client has gone away.
func (s *Stream) IsClosed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r.Context().Err() != nil {
		s.closed = true
	}
	return s.closed
}

// Pump forwards events until ctx is done, events is closed or a write fails,
// sending a keepalive comment every heartbeat (0 disables it).
func (s *Stream) Pump(ctx context.Context, events <-chan Event, heartbeat time.Duration) error {
	var tick <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(ev.Name, ev.Data); err != nil {
				return err
			}
		case <-tick:
			if err := s.Comment("ping"); err != nil {
				return err
			}
		}
	}
}

// Offer queues ev without blocking; a slow client loses events rather than
// stalling the publisher. It reports whether ev was queued.
func Offer(events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
		return false
	}
}
