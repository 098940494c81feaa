package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) OnEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *eventSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func testClient(attempts int, obs Observer) *HTTPClient {
	return NewHTTPClient(ClientConfig{
		Attempts:       attempts,
		AttemptTimeout: 2 * time.Second,
		BackoffUnit:    time.Nanosecond,
		Observer:       obs,
	})
}

func TestHTTPClient_Get(t *testing.T) {
	t.Run("Retries Transient Failures Then Succeeds", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				dropConnection(w)
				return
			}
			w.Write([]byte(`[1,2,3]`))
		}))
		defer srv.Close()

		sink := &eventSink{}
		body, err := testClient(3, sink).Get(context.Background(), srv.URL)
		assert.NoError(t, err)
		assert.Equal(t, `[1,2,3]`, string(body))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

		events := sink.all()
		assert.Len(t, events, 2)
		for i, e := range events {
			assert.Equal(t, StageFetch, e.Stage)
			assert.Equal(t, OutcomeRetry, e.Outcome)
			assert.Equal(t, i+1, e.Attempt)
		}
	})

	t.Run("Does Not Retry On HTTP Status", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}))
		defer srv.Close()

		sink := &eventSink{}
		_, err := testClient(3, sink).Get(context.Background(), srv.URL)
		assert.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "status errors must not be retried")

		var se *StatusError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadRequest, se.Status)
		assert.Equal(t, int64(-1121), se.Code)
		assert.Equal(t, "Invalid symbol.", se.Msg)

		events := sink.all()
		assert.Len(t, events, 1)
		assert.Equal(t, OutcomeFailed, events[0].Outcome)
	})

	t.Run("Returns Last Error After Exhaustion", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			dropConnection(w)
		}))
		defer srv.Close()

		sink := &eventSink{}
		_, err := testClient(3, sink).Get(context.Background(), srv.URL)
		assert.Error(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

		events := sink.all()
		assert.Len(t, events, 3)
		assert.Equal(t, OutcomeRetry, events[0].Outcome)
		assert.Equal(t, OutcomeRetry, events[1].Outcome)
		assert.Equal(t, OutcomeFailed, events[2].Outcome)
		assert.Equal(t, 3, events[2].Attempt)
	})

	t.Run("Honors Context Cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dropConnection(w)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testClient(3, NopObserver()).Get(ctx, srv.URL)
		assert.Error(t, err)
	})

	t.Run("Status Error Without JSON Body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream exploded"))
		}))
		defer srv.Close()

		_, err := testClient(1, NopObserver()).Get(context.Background(), srv.URL)
		var se *StatusError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadGateway, se.Status)
		assert.Empty(t, se.Msg)
	})
}

func TestLinearBackoff(t *testing.T) {
	lb := &linearBackoff{unit: time.Second}
	assert.Equal(t, time.Second, lb.NextBackOff())
	assert.Equal(t, 2*time.Second, lb.NextBackOff())
	assert.Equal(t, 3*time.Second, lb.NextBackOff())
	lb.Reset()
	assert.Equal(t, time.Second, lb.NextBackOff())
}
