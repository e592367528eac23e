package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"game-line/internal/config"
	"game-line/internal/metrics"
	customerrors "game-line/pkg/errors"
	"game-line/pkg/line"
)

const loggerName = "push"

var (
	missingFieldsResponse = line.ErrorResponse(http.StatusBadRequest, "userId and messages are required in request body")
	invalidJsonResponse   = line.ErrorResponse(http.StatusBadRequest, "Invalid JSON in request body")
	invalidBodyResponse   = line.ErrorResponse(http.StatusBadRequest, "Request body is not valid base64")
)

// Request is the body accepted by the push entry point. Messages are LINE
// message objects and are forwarded as given.
type Request struct {
	UserId   string            `json:"userId"`
	Messages []json.RawMessage `json:"messages"`
}

type Handler struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	cfgErr     error
	lineClient line.ClientIFace
}

func New(cfg *config.Config, m *metrics.Metrics) *Handler {
	if err := cfg.ValidatePush(); err != nil {
		return &Handler{logger: cfg.Logger.Named(loggerName), metrics: m, cfgErr: err}
	}

	lineClient, err := line.New(cfg.ChannelToken, cfg.LineEndpoint, cfg.HandlerTimeout)
	if err != nil {
		return &Handler{logger: cfg.Logger.Named(loggerName), metrics: m, cfgErr: err}
	}
	return NewWithClient(cfg, m, lineClient)
}

func NewWithClient(cfg *config.Config, m *metrics.Metrics, lineClient line.ClientIFace) *Handler {
	return &Handler{
		logger:     cfg.Logger.Named(loggerName),
		metrics:    m,
		cfgErr:     cfg.ValidatePush(),
		lineClient: lineClient,
	}
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	rsp := h.handle(ctx, req)
	h.metrics.RecordPush(rsp.StatusCode)
	return rsp
}

func (h *Handler) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	if h.cfgErr != nil {
		h.logger.Error("push is not configured", zap.Error(h.cfgErr))
		return line.JSONResponse(http.StatusInternalServerError, line.ErrorBody{
			Error:   "Server configuration error",
			Message: h.cfgErr.Error(),
		})
	}

	body, err := line.RequestBody(req)
	if err != nil {
		return invalidBodyResponse
	}

	var pushReq Request
	if len(body) > 0 {
		if err := json.Unmarshal(body, &pushReq); err != nil {
			h.logger.Warn("could not parse push request", zap.Error(err))
			return invalidJsonResponse
		}
	}
	if pushReq.UserId == "" || len(pushReq.Messages) == 0 {
		return missingFieldsResponse
	}

	messages, err := pushReq.messages()
	if err != nil {
		return line.ErrorResponse(http.StatusBadRequest, err.Error())
	}

	logger := h.logger.With(zap.String("user_id", pushReq.UserId))
	if err := h.lineClient.Push(ctx, pushReq.UserId, messages); err != nil {
		return h.upstreamErrorResponse(logger, err)
	}

	logger.Info("message pushed", zap.Int("messages", len(messages)))
	return line.JSONResponse(http.StatusOK, nil)
}

// messages decodes each entry into its typed SDK message. Field level
// validation is left to LINE, whose rejection is passed back to the caller.
func (r Request) messages() ([]messaging_api.MessageInterface, error) {
	messages := make([]messaging_api.MessageInterface, len(r.Messages))
	for i, raw := range r.Messages {
		msg, err := messaging_api.UnmarshalMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if unknown, ok := msg.(messaging_api.UnknownMessage); ok {
			return nil, fmt.Errorf("message %d: unsupported message type [%s]", i, unknown.Type)
		}
		messages[i] = msg
	}
	return messages, nil
}

func (h *Handler) upstreamErrorResponse(logger *zap.Logger, err error) events.APIGatewayV2HTTPResponse {
	upErr, ok := customerrors.AsUpstream(err)
	if !ok || upErr.StatusCode == 0 {
		logger.Error("push failed", zap.Error(err))
		return line.JSONResponse(http.StatusInternalServerError, line.ErrorBody{
			Error:   "Internal server error",
			Message: err.Error(),
		})
	}

	h.metrics.RecordUpstreamError(upErr.Service, upErr.StatusCode)
	logger.Error("LINE rejected push", zap.Int("status_code", upErr.StatusCode), zap.Error(err))
	return line.JSONResponse(upErr.StatusCode, line.ErrorBody{
		Error:   "Failed to send LINE message",
		Details: upErr.Message,
	})
}
