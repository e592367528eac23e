package config

import (
	"time"

	"go.uber.org/zap"

	"game-line/pkg/aws/secrets"
)

// Mock config values
const (
	MockChannelSecret      = "mock-channel-secret"
	MockChannelToken       = "mock-channel-token"
	MockGameServerEndpoint = "http://game-server.invalid"
)

func NewTestConfig() *Config {
	return &Config{
		Logger: NewTestLogger(),
		Settings: Settings{
			ChannelSecret:      MockChannelSecret,
			ChannelToken:       MockChannelToken,
			GameServerEndpoint: MockGameServerEndpoint,
			HandlerTimeout:     5 * time.Second,
			EventConcurrency:   1,
			FollowReplyPolicy:  FollowReplyAlways,
			LogLevel:           "debug",
			Port:               "8080",
		},
		level: zap.NewAtomicLevel(),
	}
}

func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// WithSecretsClient swaps the secrets client used by Load.
func (c *Config) WithSecretsClient(client secrets.ClientIFace) *Config {
	c.secretsClient = client
	return c
}
