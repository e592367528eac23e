package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"game-line/pkg/aws/secrets"
	customerrors "game-line/pkg/errors"
)

const (
	EnvChannelSecret      = "LINE_CHANNEL_SECRET"
	EnvChannelSecretId    = "LINE_CHANNEL_SECRET_ID"
	EnvChannelToken       = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvChannelTokenId     = "LINE_CHANNEL_ACCESS_TOKEN_ID"
	EnvLineEndpoint       = "LINE_API_ENDPOINT"
	EnvGameServerEndpoint = "GAME_SERVER_ENDPOINT"
	EnvHandlerTimeout     = "HANDLER_TIMEOUT"
	EnvEventConcurrency   = "EVENT_CONCURRENCY"
	EnvFollowReplyPolicy  = "FOLLOW_REPLY_POLICY"
	EnvLogLevel           = "LOG_LEVEL"
	EnvPort               = "PORT"
)

// FollowReplyPolicy decides whether a failed registration suppresses the
// welcome reply of a follow event.
type FollowReplyPolicy string

const (
	FollowReplyAlways              FollowReplyPolicy = "always"
	FollowReplyRequireRegistration FollowReplyPolicy = "require_registration"
)

type Config struct {
	Logger *zap.Logger
	Settings

	level         zap.AtomicLevel
	secretsClient secrets.ClientIFace
}

type Settings struct {
	ChannelSecret      string `env:"LINE_CHANNEL_SECRET"`
	ChannelSecretId    string `env:"LINE_CHANNEL_SECRET_ID"`
	ChannelToken       string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	ChannelTokenId     string `env:"LINE_CHANNEL_ACCESS_TOKEN_ID"`
	LineEndpoint       string `env:"LINE_API_ENDPOINT"`
	GameServerEndpoint string `env:"GAME_SERVER_ENDPOINT"`

	HandlerTimeout    time.Duration     `env:"HANDLER_TIMEOUT" envDefault:"30s"`
	EventConcurrency  int               `env:"EVENT_CONCURRENCY" envDefault:"4"`
	FollowReplyPolicy FollowReplyPolicy `env:"FOLLOW_REPLY_POLICY" envDefault:"always"`
	LogLevel          string            `env:"LOG_LEVEL" envDefault:"info"`
	Port              string            `env:"PORT" envDefault:"8080"`
}

func New() *Config {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &Config{
		Logger:        NewLogger(level),
		level:         level,
		secretsClient: secrets.New(),
	}
}

func NewLogger(level zap.AtomicLevel) *zap.Logger {
	logCfg := zap.NewProductionConfig()
	logCfg.Level = level
	logCfg.DisableStacktrace = true
	logger, _ := logCfg.Build()
	return logger
}

// LoadDotEnv copies the given files (.env by default) into the environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads the environment and resolves secrets stored in AWS Secrets
// Manager. Required values are checked separately by Validate and
// ValidatePush since each entry point needs a different set.
func (c *Config) Load(ctx context.Context) error {
	if err := env.Parse(&c.Settings); err != nil {
		return err
	}

	if err := c.level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: [%s]", c.LogLevel)
	}

	if err := c.validateSettings(); err != nil {
		return err
	}

	return c.resolveSecrets(ctx)
}

// Validate reports values missing for the webhook and out of range settings.
func (c *Config) Validate() error {
	if c.ChannelSecret == "" || c.ChannelToken == "" || c.GameServerEndpoint == "" {
		return customerrors.MissingEnvErr{EnvMap: map[string]string{
			EnvChannelSecret:      c.ChannelSecret,
			EnvChannelToken:       c.ChannelToken,
			EnvGameServerEndpoint: c.GameServerEndpoint,
		}}
	}
	return c.validateSettings()
}

// ValidatePush reports values missing for the push entry point.
func (c *Config) ValidatePush() error {
	if c.ChannelToken == "" {
		return customerrors.MissingEnvErr{EnvMap: map[string]string{
			EnvChannelToken: c.ChannelToken,
		}}
	}
	return nil
}

func (c *Config) validateSettings() error {
	switch c.FollowReplyPolicy {
	case FollowReplyAlways, FollowReplyRequireRegistration:
	default:
		return fmt.Errorf("unsupported follow reply policy: [%s]", c.FollowReplyPolicy)
	}

	if c.EventConcurrency < 1 {
		return fmt.Errorf("event concurrency must be at least 1: [%d]", c.EventConcurrency)
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("handler timeout must be positive: [%s]", c.HandlerTimeout)
	}

	return nil
}

func (c *Config) resolveSecrets(ctx context.Context) error {
	// Plain env values take precedence over secret ids
	targets := map[string]*string{}
	if c.ChannelSecret == "" && c.ChannelSecretId != "" {
		targets[c.ChannelSecretId] = &c.ChannelSecret
	}
	if c.ChannelToken == "" && c.ChannelTokenId != "" {
		targets[c.ChannelTokenId] = &c.ChannelToken
	}
	if len(targets) == 0 {
		return nil
	}

	if err := c.secretsClient.Connect(); err != nil {
		return err
	}

	var multiErr error
	for secretId, dest := range targets {
		val, err := c.secretsClient.GetSecret(ctx, secretId)
		if err != nil {
			multiErr = multierr.Append(multiErr, fmt.Errorf("could not resolve secret %s: %w", secretId, err))
			continue
		}
		*dest = val
	}
	return multiErr
}
