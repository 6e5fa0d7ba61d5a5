package redisbridge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	wfcontext "github.com/vnykmshr/wakeflow/pkg/common/context"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
)

// Config configures a Bridge. The tagged fields can be loaded from the
// environment with LoadConfig.
type Config struct {
	// Name labels the bridge in logs and metrics.
	Name string `env:"BRIDGE_NAME" envDefault:"redis"`

	// RedisURL is used by Connect, e.g. "redis://:password@localhost:6379/0".
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Channels are the Redis channels Relay subscribes to.
	Channels []string `env:"BRIDGE_CHANNELS" envSeparator:"," envDefault:"wakeflow"`

	// ConnectTimeout bounds the initial Ping in Connect.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`

	// PublishTimeout bounds each PUBLISH issued by Publish and Forward.
	PublishTimeout time.Duration `env:"BRIDGE_PUBLISH_TIMEOUT" envDefault:"5s"`

	// Logger receives bridge logs. Nil uses slog.Default().
	Logger *slog.Logger `env:"-"`

	// Metrics counts relayed messages and errors. Nil disables metrics.
	Metrics *metrics.Registry `env:"-"`
}

// DefaultConfig returns the configuration LoadConfig produces with an empty
// environment.
func DefaultConfig() Config {
	return Config{
		Name:           "redis",
		RedisURL:       "redis://localhost:6379/0",
		Channels:       []string{"wakeflow"},
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 5 * time.Second,
		Logger:         slog.Default(),
	}
}

// LoadConfig reads a Config from the environment, loading a .env file from
// the working directory first if there is one. Variables already set in the
// environment take precedence over the file.
func LoadConfig() (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(wferrors.ErrInvalidConfiguration, err)
	}
	cfg.Logger = slog.Default()
	return cfg, cfg.Validate()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("redisbridge", "Name", c.Name); err != nil {
		return err
	}
	if len(c.Channels) == 0 {
		return wferrors.NewValidationError("redisbridge", "Channels", c.Channels, "cannot be empty").
			WithHint("set BRIDGE_CHANNELS to a comma separated list")
	}
	for _, ch := range c.Channels {
		if err := validation.ValidateNotEmpty("redisbridge", "Channels", ch); err != nil {
			return err
		}
	}
	if err := validation.ValidatePositiveDuration("redisbridge", "ConnectTimeout", c.ConnectTimeout); err != nil {
		return err
	}
	return validation.ValidatePositiveDuration("redisbridge", "PublishTimeout", c.PublishTimeout)
}

// Connect opens a client for cfg.RedisURL and pings it.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, wferrors.NewOperationError("redisbridge", "Connect", err).WithContext("invalid REDIS_URL")
	}

	ctx, cancel := wfcontext.WithTimeoutOrCancel(ctx, cfg.ConnectTimeout)
	defer cancel()

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wferrors.NewOperationError("redisbridge", "Connect", err).WithContext("addr=" + opts.Addr)
	}
	return client, nil
}
