package lambda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"game-line/internal/config"
	"game-line/internal/gameserver"
	"game-line/internal/line/event"
	"game-line/internal/line/handler"
	"game-line/internal/line/router"
	"game-line/internal/metrics"
	customerrors "game-line/pkg/errors"
	"game-line/pkg/line"
)

const loggerName = "webhook"

var (
	okResponse = line.JSONResponse(http.StatusOK, line.OKResponse)

	emptyBodyResponse    = line.ErrorResponse(http.StatusBadRequest, "Request body is empty")
	invalidJsonResponse  = line.ErrorResponse(http.StatusBadRequest, "Invalid JSON in request body")
	invalidBodyResponse  = line.ErrorResponse(http.StatusBadRequest, "Request body is not valid base64")
	unauthorizedResponse = line.ErrorResponse(http.StatusUnauthorized, "Invalid signature")
)

type EventRouter interface {
	RouteAll(ctx context.Context, events []event.InboundEvent)
}

type Handler struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	cfgErr        error
	channelSecret string
	timeout       time.Duration

	router EventRouter
}

// New builds the webhook handler with real LINE and Game Server clients.
// An invalid config does not fail construction; every request is answered
// with 500 instead.
func New(cfg *config.Config, m *metrics.Metrics) *Handler {
	if err := cfg.Validate(); err != nil {
		return newHandler(cfg, m, err)
	}

	lineClient, err := line.New(cfg.ChannelToken, cfg.LineEndpoint, cfg.HandlerTimeout)
	if err != nil {
		return newHandler(cfg, m, err)
	}
	gameClient := gameserver.New(cfg.GameServerEndpoint, cfg.HandlerTimeout)

	return NewWithClients(cfg, m, gameClient, lineClient)
}

func NewWithClients(cfg *config.Config, m *metrics.Metrics, gameClient gameserver.ClientIFace, lineClient line.ClientIFace) *Handler {
	h := newHandler(cfg, m, cfg.Validate())
	h.router = router.New(cfg, handler.New(cfg, gameClient, lineClient), m)
	return h
}

func newHandler(cfg *config.Config, m *metrics.Metrics, err error) *Handler {
	return &Handler{
		logger:        cfg.Logger.Named(loggerName),
		metrics:       m,
		cfgErr:        err,
		channelSecret: cfg.ChannelSecret,
		timeout:       cfg.HandlerTimeout,
	}
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (rsp events.APIGatewayV2HTTPResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while handling webhook", zap.Any("panic", rec))
			rsp = line.JSONResponse(http.StatusInternalServerError, line.ErrorBody{
				Error:   "Internal server error",
				Message: fmt.Sprint(rec),
			})
		}
		h.metrics.RecordWebhook(rsp.StatusCode)
	}()

	return h.handle(ctx, req)
}

func (h *Handler) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	if h.cfgErr != nil {
		h.logger.Error("webhook is not configured", zap.Error(h.cfgErr))
		return configErrorResponse(h.cfgErr)
	}

	if req.Body == "" {
		return emptyBodyResponse
	}
	body, err := line.RequestBody(req)
	if err != nil {
		h.logger.Warn("could not decode request body", zap.Error(err))
		return invalidBodyResponse
	}

	// Verify request signature against the raw body
	signature := line.GetHeader(req.Headers, line.SignatureHeader)
	if !line.Authenticate(body, signature, h.channelSecret) {
		h.logger.Warn("rejecting webhook", zap.Error(customerrors.ErrInvalidSignature))
		return unauthorizedResponse
	}

	batch, err := event.DecodeBatch(body)
	if err != nil {
		if errors.Is(err, customerrors.ErrEmptyBody) {
			return emptyBodyResponse
		}
		h.logger.Warn("could not parse webhook body", zap.Error(err))
		return invalidJsonResponse
	}

	for _, invalid := range batch.Invalid {
		h.logger.Warn("skipping malformed event", zap.Int("index", invalid.Index), zap.Error(invalid.Err))
	}

	h.logger.Info("webhook received", zap.Int("events", len(batch.Events)), zap.Int("malformed", len(batch.Invalid)))

	routeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	h.router.RouteAll(routeCtx, batch.Events)

	return okResponse
}

func configErrorResponse(err error) events.APIGatewayV2HTTPResponse {
	var missingErr customerrors.MissingEnvErr
	if errors.As(err, &missingErr) {
		return line.JSONResponse(http.StatusInternalServerError, line.ErrorBody{
			Error:   "Server configuration error",
			Message: missingErr.Error(),
		})
	}
	return line.JSONResponse(http.StatusInternalServerError, line.ErrorBody{Error: "Internal server error"})
}
