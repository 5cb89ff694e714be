package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one entry in the ordered pipeline event stream. Terminal marks the
// single run-completion event a pipeline emits.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Component string    `json:"component,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Source    string    `json:"source,omitempty"`
	ItemID    int64     `json:"item_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Terminal  bool      `json:"terminal,omitempty"`
}

// EventHub stores recent pipeline events and wakes waiters when new events
// arrive. It is the only channel through which the pipeline reports progress
// to its caller.
type EventHub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
}

// NewEventHub constructs a bounded in-memory event buffer.
func NewEventHub(capacity int) *EventHub {
	if capacity <= 0 {
		capacity = 512
	}
	h := &EventHub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends a new event to the hub, assigning its sequence number.
func (h *EventHub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns all events with sequence greater than since. When wait is
// true, Fetch blocks until at least one event is available or the context
// ends.
func (h *EventHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (h *EventHub) Tail(limit int) ([]Event, uint64) {
	if h == nil {
		return nil, 0
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	start := len(h.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(h.buffer)-start)
	copy(out, h.buffer[start:])
	return out, h.nextSeq
}

func (h *EventHub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	var out []Event
	for _, evt := range h.buffer {
		if evt.Sequence <= since {
			continue
		}
		out = append(out, evt)
		if len(out) == limit {
			break
		}
	}
	next := since
	if len(out) > 0 {
		next = out[len(out)-1].Sequence
	} else if h.nextSeq > since {
		next = h.nextSeq
	}
	return out, next
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// hubHandler converts slog records into hub events so component loggers feed
// the caller-facing stream automatically.
type hubHandler struct {
	hub   *EventHub
	level slog.Level
	attrs []slog.Attr
}

// NewHubHandler returns a slog handler publishing records into hub at or above
// the given level.
func NewHubHandler(hub *EventHub, level slog.Level) slog.Handler {
	return &hubHandler{hub: hub, level: level}
}

func (h *hubHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.hub != nil && level >= h.level
}

func (h *hubHandler) Handle(_ context.Context, record slog.Record) error {
	evt := Event{
		Timestamp: record.Time,
		Level:     LevelLabel(record.Level),
		Message:   record.Message,
	}
	assign := func(attr slog.Attr) {
		switch attr.Key {
		case FieldComponent:
			evt.Component = attr.Value.Resolve().String()
		case FieldStage:
			evt.Stage = attr.Value.Resolve().String()
		case FieldSource:
			evt.Source = attr.Value.Resolve().String()
		case FieldRunID:
			evt.RunID = attr.Value.Resolve().String()
		case FieldItemID:
			if attr.Value.Kind() == slog.KindInt64 {
				evt.ItemID = attr.Value.Int64()
			}
		}
	}
	for _, attr := range h.attrs {
		assign(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		assign(attr)
		return true
	})
	h.hub.Publish(evt)
	return nil
}

func (h *hubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &hubHandler{hub: h.hub, level: h.level}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return clone
}

func (h *hubHandler) WithGroup(string) slog.Handler {
	return h
}

type fanoutHandler struct {
	handlers []slog.Handler
}

// TeeHandler duplicates log records to every provided handler.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return NoopHandler{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &fanoutHandler{handlers: filtered}
}

// TeeLogger duplicates log output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(TeeHandler(handlers...))
	}
	all := append([]slog.Handler{base.Handler()}, handlers...)
	return slog.New(TeeHandler(all...))
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < len(h.handlers)-1 {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
