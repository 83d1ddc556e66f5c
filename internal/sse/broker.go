// Package sse implements a Server-Sent Events broker for live document updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types published for document source changes.
const (
	TypeDocCreated        = "doc.created"
	TypeDocUpdated        = "doc.updated"
	TypeDocDeleted        = "doc.deleted"
	TypeNavigationUpdated = "navigation.updated"
)

var docTypes = map[string]string{
	"created": TypeDocCreated,
	"updated": TypeDocUpdated,
	"deleted": TypeDocDeleted,
}

// DocEvent is the payload of doc.* events.
type DocEvent struct {
	Key  string `json:"key"`
	Href string `json:"href"`
	Path string `json:"path"`
}

type docEventReq struct {
	kind string
	doc  DocEvent
}

// Option configures a Broker.
type Option func(*Broker)

// WithCoalesce holds doc events for d and delivers one event per document
// key. Editors often emit create and several writes for one save.
func WithCoalesce(d time.Duration) Option {
	return func(b *Broker) { b.coalesce = d }
}

// WithKeepAlive writes an SSE comment to idle clients every d.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) { b.keepAlive = d }
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, pending doc events and the navigation throttle timestamp). Public
// methods communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	navMin    time.Duration
	coalesce  time.Duration
	keepAlive time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	docEventCh    chan docEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. navigation.updated events follow doc
// creations and deletions, at most once per navThrottle.
func NewBroker(navThrottle time.Duration, opts ...Option) *Broker {
	if navThrottle <= 0 {
		navThrottle = 2 * time.Second
	}

	b := &Broker{
		navMin:        navThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		docEventCh:    make(chan docEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event.Type, payload), nil
}

// merge folds a newer change into a pending one for the same key. A created
// source stays created through later writes.
func merge(prev, next string) string {
	if prev == "created" && next == "updated" {
		return prev
	}
	return next
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastNav time.Time

	pending := make(map[string]docEventReq)
	var order []string
	var flushC <-chan time.Time

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	flush := func() {
		structural := false
		for _, key := range order {
			req := pending[key]
			broadcast(Event{Type: docTypes[req.kind], Data: req.doc})
			if req.kind != "updated" {
				structural = true
			}
		}
		clear(pending)
		order = order[:0]
		flushC = nil

		if now := time.Now(); structural && now.Sub(lastNav) >= b.navMin {
			lastNav = now
			broadcast(Event{Type: TypeNavigationUpdated, Data: map[string]string{}})
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.docEventCh:
			if _, ok := docTypes[req.kind]; !ok {
				continue
			}
			key := req.doc.Key
			if prev, ok := pending[key]; ok {
				req.kind = merge(prev.kind, req.kind)
			} else {
				order = append(order, key)
			}
			pending[key] = req

			if b.coalesce <= 0 {
				flush()
			} else if flushC == nil {
				flushC = time.After(b.coalesce)
			}

		case <-flushC:
			flush()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
// Doc events still waiting for their coalesce window are dropped.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocEvent publishes a document change of kind "created", "updated"
// or "deleted". Other kinds are dropped.
func (b *Broker) PublishDocEvent(kind string, doc DocEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.docEventCh <- docEventReq{kind: kind, doc: doc}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var ping <-chan time.Time
	if b.keepAlive > 0 {
		t := time.NewTicker(b.keepAlive)
		defer t.Stop()
		ping = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
