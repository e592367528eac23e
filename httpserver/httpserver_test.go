package httpserver

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-line/internal/config"
	"game-line/internal/metrics"
)

type recordingHandler struct {
	got events.APIGatewayV2HTTPRequest
	rsp events.APIGatewayV2HTTPResponse
}

func (h *recordingHandler) Handle(_ context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	h.got = req
	return h.rsp
}

func newTestServer(t *testing.T, webhookHandler, pushHandler APIGatewayHandler) (*httptest.Server, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	s := NewWithHandlers(config.NewTestConfig(), registry, webhookHandler, pushHandler)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, registry
}

func Test_Server_Webhook(t *testing.T) {
	webhookHandler := &recordingHandler{rsp: events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"message":"OK"}`,
	}}
	srv, _ := newTestServer(t, webhookHandler, &recordingHandler{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+WebhookEndpoint+"?x=1", strings.NewReader(`{"events":[]}`))
	require.NoError(t, err)
	req.Header.Set("X-Line-Signature", "abc")

	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()
	body, _ := io.ReadAll(rsp.Body)

	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "application/json", rsp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"message":"OK"}`, string(body))

	got := webhookHandler.got
	assert.Equal(t, `{"events":[]}`, got.Body)
	assert.Equal(t, "abc", got.Headers["x-line-signature"])
	assert.Equal(t, WebhookEndpoint, got.RawPath)
	assert.Equal(t, "x=1", got.RawQueryString)
	assert.Equal(t, http.MethodPost, got.RequestContext.HTTP.Method)
}

func Test_Server_Push(t *testing.T) {
	pushHandler := &recordingHandler{rsp: events.APIGatewayV2HTTPResponse{
		StatusCode:      http.StatusBadRequest,
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"error":"bad"}`)),
		IsBase64Encoded: true,
	}}
	srv, _ := newTestServer(t, &recordingHandler{}, pushHandler)

	rsp, err := http.Post(srv.URL+PushEndpoint, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer rsp.Body.Close()
	body, _ := io.ReadAll(rsp.Body)

	assert.Equal(t, http.StatusBadRequest, rsp.StatusCode)
	assert.Equal(t, `{"error":"bad"}`, string(body))
	assert.Equal(t, `{}`, pushHandler.got.Body)
}

func Test_Server_HealthAndMetrics(t *testing.T) {
	srv, registry := newTestServer(t, &recordingHandler{}, &recordingHandler{})
	m := metrics.New(registry)
	m.RecordWebhook(http.StatusOK)

	rsp, err := http.Get(srv.URL + HealthEndpoint)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusOK, rsp.StatusCode)

	rsp, err = http.Get(srv.URL + MetricsEndpoint)
	require.NoError(t, err)
	defer rsp.Body.Close()
	body, _ := io.ReadAll(rsp.Body)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Contains(t, string(body), `game_line_webhook_requests_total{code="200"} 1`)

	rsp, err = http.Get(srv.URL + WebhookEndpoint)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
}

func Test_Server_Run(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Port = "0"
	s := NewWithHandlers(cfg, prometheus.NewRegistry(), &recordingHandler{}, &recordingHandler{})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
