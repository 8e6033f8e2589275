// Package diag persists the last-API-event diagnostic slot. Recording is
// asynchronous and lossy on overload: it must never block or fail a request
// that is being resolved.
package diag

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
)

const (
	slotKey       = "lastApiEvent"
	channelBuffer = 64
)

// Recorder writes APIEvents to the single diagnostic slot through a buffered
// channel and one background worker. Events are dropped, not queued
// unboundedly, when the worker falls behind.
type Recorder struct {
	ch    chan domain.APIEvent
	flush chan chan struct{}
	kv    ports.KV
	log   zerolog.Logger
}

// NewRecorder creates a Recorder over kv. Call Start before recording.
func NewRecorder(kv ports.KV, log zerolog.Logger) *Recorder {
	return &Recorder{
		ch:    make(chan domain.APIEvent, channelBuffer),
		flush: make(chan chan struct{}),
		kv:    kv,
		log:   log,
	}
}

// Start launches the worker goroutine. The worker stops when ctx is
// cancelled; events recorded after that are dropped silently.
func (r *Recorder) Start(ctx context.Context) {
	go r.run(ctx)
}

// Record stores evt as the latest diagnostic event. Non-blocking: if the
// buffer is full the event is dropped and counted only in logs.
func (r *Recorder) Record(evt domain.APIEvent) {
	select {
	case r.ch <- evt:
	default:
		r.log.Debug().Str("url", evt.URL).Msg("diagnostic buffer full, dropping event")
	}
}

// Last returns the persisted diagnostic event, if any. Used by the
// user-triggered diagnostic export.
func (r *Recorder) Last() (domain.APIEvent, bool) {
	raw, ok := r.kv.Get(slotKey)
	if !ok {
		return domain.APIEvent{}, false
	}
	var evt domain.APIEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		r.log.Debug().Err(err).Msg("diagnostic slot unreadable")
		return domain.APIEvent{}, false
	}
	return evt, true
}

// Flush blocks until every event recorded before the call has been written,
// or ctx expires. Intended for tests and for teardown.
func (r *Recorder) Flush(ctx context.Context) {
	done := make(chan struct{})
	select {
	case r.flush <- done:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-r.ch:
			r.write(evt)
		case done := <-r.flush:
			r.drain()
			close(done)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case evt := <-r.ch:
			r.write(evt)
		default:
			return
		}
	}
}

func (r *Recorder) write(evt domain.APIEvent) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := r.kv.Set(slotKey, string(raw)); err != nil {
		r.log.Debug().Err(err).Msg("persisting diagnostic event")
	}
}
