package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"game-line/internal/config"
	"game-line/internal/line/push"
)

var handler *push.Handler

func main() {
	cfg := config.New()
	defer cfg.Logger.Sync()

	if err := cfg.Load(context.Background()); err != nil {
		cfg.Logger.Fatal("could not load config", zap.Error(err))
	}

	handler = push.New(cfg, nil)
	lambda.Start(HandleRequest)
}

func HandleRequest(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return handler.Handle(ctx, event), nil
}
