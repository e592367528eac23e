package httpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"game-line/internal/config"
	webhook "game-line/internal/line/lambda"
	"game-line/internal/line/push"
	"game-line/internal/metrics"
)

const (
	loggerName = "http-server"

	WebhookEndpoint = "/webhook"
	PushEndpoint    = "/push"
	MetricsEndpoint = "/metrics"
	HealthEndpoint  = "/healthz"

	shutdownTimeout = 10 * time.Second
)

// APIGatewayHandler is implemented by the Lambda handlers the server fronts.
type APIGatewayHandler interface {
	Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse
}

// Server runs the Lambda handlers behind a plain HTTP listener for local use.
type Server struct {
	logger *zap.Logger
	port   string
	engine *gin.Engine
}

func New(cfg *config.Config) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	return NewWithHandlers(cfg, registry, webhook.New(cfg, m), push.New(cfg, m))
}

func NewWithHandlers(cfg *config.Config, gatherer prometheus.Gatherer, webhookHandler, pushHandler APIGatewayHandler) *Server {
	s := &Server{
		logger: cfg.Logger.Named(loggerName),
		port:   cfg.Port,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())

	engine.POST(WebhookEndpoint, s.wrap(webhookHandler))
	engine.POST(PushEndpoint, s.wrap(pushHandler))
	engine.GET(MetricsEndpoint, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	engine.GET(HealthEndpoint, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine = engine

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("port", s.port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// wrap converts an HTTP request into the API Gateway event the Lambda receives.
func (s *Server) wrap(h APIGatewayHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.logger.Warn("could not read request body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body"})
			return
		}

		rsp := h.Handle(c.Request.Context(), ToAPIGatewayRequest(c.Request, body))
		writeResponse(c, rsp)
	}
}

// ToAPIGatewayRequest builds an HTTP API (v2) event. Header names are lower
// cased the way API Gateway delivers them.
func ToAPIGatewayRequest(r *http.Request, body []byte) events.APIGatewayV2HTTPRequest {
	headers := make(map[string]string, len(r.Header))
	for name, vals := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(vals, ",")
	}

	return events.APIGatewayV2HTTPRequest{
		Version:        "2.0",
		RawPath:        r.URL.Path,
		RawQueryString: r.URL.RawQuery,
		Headers:        headers,
		Body:           string(body),
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}
}

func writeResponse(c *gin.Context, rsp events.APIGatewayV2HTTPResponse) {
	for name, val := range rsp.Headers {
		c.Header(name, val)
	}

	body := []byte(rsp.Body)
	if rsp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(rsp.Body)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	c.Status(rsp.StatusCode)
	if len(body) > 0 {
		c.Writer.Write(body)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == MetricsEndpoint || c.Request.URL.Path == HealthEndpoint {
			return
		}
		s.logger.Info(
			"request handled",
			zap.String("http_method", c.Request.Method),
			zap.String("http_path", c.Request.URL.Path),
			zap.Int("http_status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
