package router

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"game-line/internal/config"
	"game-line/internal/line/event"
	"game-line/internal/metrics"
	customerrors "game-line/pkg/errors"
)

type stubHandler struct {
	mu     sync.Mutex
	called []event.Type
	fn     func(ev event.InboundEvent) error
}

func (s *stubHandler) handle(ev event.InboundEvent) error {
	s.mu.Lock()
	s.called = append(s.called, ev.Type)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(ev)
	}
	return nil
}

func (s *stubHandler) HandleMessage(_ context.Context, ev event.InboundEvent) error  { return s.handle(ev) }
func (s *stubHandler) HandleFollow(_ context.Context, ev event.InboundEvent) error   { return s.handle(ev) }
func (s *stubHandler) HandleUnfollow(_ context.Context, ev event.InboundEvent) error { return s.handle(ev) }
func (s *stubHandler) HandlePostback(_ context.Context, ev event.InboundEvent) error { return s.handle(ev) }

func newTestRouter(concurrency int, h EventHandler) (*Router, *metrics.Metrics) {
	cfg := config.NewTestConfig()
	cfg.EventConcurrency = concurrency
	m := metrics.New(prometheus.NewRegistry())
	return New(cfg, h, m), m
}

func Test_Router_Route(t *testing.T) {
	tests := []struct {
		name   string
		evType event.Type
		expErr error
	}{
		{name: "Happy path - Message", evType: event.TypeMessage},
		{name: "Happy path - Follow", evType: event.TypeFollow},
		{name: "Happy path - Unfollow", evType: event.TypeUnfollow},
		{name: "Happy path - Postback", evType: event.TypePostback},
		{name: "Sad path - Unsupported", evType: "beacon", expErr: ErrUnsupportedEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &stubHandler{}
			r, _ := newTestRouter(1, h)

			err := r.Route(t.Context(), event.InboundEvent{Type: tt.evType})
			if tt.expErr != nil {
				require.ErrorIs(t, err, tt.expErr)
				assert.Empty(t, h.called)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []event.Type{tt.evType}, h.called)
		})
	}
}

func Test_Router_RouteAll(t *testing.T) {
	h := &stubHandler{
		fn: func(ev event.InboundEvent) error {
			switch ev.Source.UserId {
			case "fail":
				return &customerrors.UpstreamError{Service: "game-server", StatusCode: http.StatusBadGateway}
			case "multi":
				return multierr.Combine(
					&customerrors.UpstreamError{Service: "game-server", StatusCode: http.StatusInternalServerError},
					&customerrors.UpstreamError{Service: "line", StatusCode: http.StatusBadRequest},
				)
			case "panic":
				panic("handler blew up")
			}
			return nil
		},
	}
	r, m := newTestRouter(1, h)

	events := []event.InboundEvent{
		{Type: event.TypeMessage, Source: event.Source{UserId: "panic"}},
		{Type: event.TypeMessage, Source: event.Source{UserId: "fail"}},
		{Type: event.TypeFollow, Source: event.Source{UserId: "multi"}},
		{Type: "beacon", Source: event.Source{UserId: "ok"}},
		{Type: event.TypeMessage, Source: event.Source{UserId: "ok"}},
	}
	r.RouteAll(t.Context(), events)

	assert.Len(t, h.called, 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("message", metrics.StatusPanic)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("message", metrics.StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("message", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("follow", metrics.StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("beacon", metrics.StatusIgnored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrorsTotal.WithLabelValues("game-server", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrorsTotal.WithLabelValues("game-server", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrorsTotal.WithLabelValues("line", "400")))
}

func Test_Router_RouteAll_Concurrency(t *testing.T) {
	const limit = 2
	var inFlight, maxInFlight atomic.Int32
	h := &stubHandler{
		fn: func(event.InboundEvent) error {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return errors.New("failure does not stop siblings")
		},
	}
	r, _ := newTestRouter(limit, h)

	events := make([]event.InboundEvent, 8)
	for i := range events {
		events[i] = event.InboundEvent{Type: event.TypeMessage}
	}
	r.RouteAll(t.Context(), events)

	assert.Len(t, h.called, len(events))
	assert.LessOrEqual(t, maxInFlight.Load(), int32(limit))
}

func Test_Router_RouteAll_Empty(t *testing.T) {
	h := &stubHandler{}
	r, _ := newTestRouter(4, h)

	r.RouteAll(t.Context(), nil)
	assert.Empty(t, h.called)
}
