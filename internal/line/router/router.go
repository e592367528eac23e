package router

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"game-line/internal/config"
	"game-line/internal/line/event"
	"game-line/internal/metrics"
	customerrors "game-line/pkg/errors"
)

const loggerName = "event-router"

type EventHandler interface {
	HandleMessage(ctx context.Context, ev event.InboundEvent) error
	HandleFollow(ctx context.Context, ev event.InboundEvent) error
	HandleUnfollow(ctx context.Context, ev event.InboundEvent) error
	HandlePostback(ctx context.Context, ev event.InboundEvent) error
}

// ErrUnsupportedEvent is returned by Route for event types without a handler.
var ErrUnsupportedEvent = errors.New("unsupported event type")

type Router struct {
	logger      *zap.Logger
	handler     EventHandler
	metrics     *metrics.Metrics
	concurrency int
}

func New(cfg *config.Config, handler EventHandler, m *metrics.Metrics) *Router {
	concurrency := cfg.EventConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Router{
		logger:      cfg.Logger.Named(loggerName),
		handler:     handler,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Route dispatches one event to the handler for its type.
func (r *Router) Route(ctx context.Context, ev event.InboundEvent) error {
	switch ev.Type {
	case event.TypeMessage:
		return r.handler.HandleMessage(ctx, ev)
	case event.TypeFollow:
		return r.handler.HandleFollow(ctx, ev)
	case event.TypeUnfollow:
		return r.handler.HandleUnfollow(ctx, ev)
	case event.TypePostback:
		return r.handler.HandlePostback(ctx, ev)
	default:
		return ErrUnsupportedEvent
	}
}

// RouteAll attempts every event and waits for all of them. Failures are
// logged and counted but never surface to the caller.
func (r *Router) RouteAll(ctx context.Context, events []event.InboundEvent) {
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, ev := range events {
		g.Go(func() error {
			r.routeSafe(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Router) routeSafe(ctx context.Context, ev event.InboundEvent) {
	start := time.Now()
	logger := r.logger.With(zap.String("event_type", string(ev.Type)), zap.String("user_id", ev.Source.UserId))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while handling event", zap.Any("panic", rec))
			r.metrics.RecordEvent(string(ev.Type), metrics.StatusPanic, time.Since(start))
		}
	}()

	err := r.Route(ctx, ev)
	switch {
	case err == nil:
		r.metrics.RecordEvent(string(ev.Type), metrics.StatusSuccess, time.Since(start))
	case errors.Is(err, ErrUnsupportedEvent):
		logger.Debug("dropping unsupported event")
		r.metrics.RecordEvent(string(ev.Type), metrics.StatusIgnored, time.Since(start))
	default:
		r.logFailure(logger, err)
		r.metrics.RecordEvent(string(ev.Type), metrics.StatusError, time.Since(start))
	}
}

func (r *Router) logFailure(logger *zap.Logger, err error) {
	for _, e := range multierr.Errors(err) {
		if upErr, ok := customerrors.AsUpstream(e); ok {
			r.metrics.RecordUpstreamError(upErr.Service, upErr.StatusCode)
			logger.Error(
				"upstream call failed",
				zap.String("upstream", upErr.Service),
				zap.Int("status_code", upErr.StatusCode),
				zap.Error(e),
			)
			continue
		}
		logger.Warn("could not handle event", zap.Error(e))
	}
}
