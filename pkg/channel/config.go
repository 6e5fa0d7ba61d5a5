package channel

import (
	"log/slog"

	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
)

// Config holds optional instrumentation shared by every channel kind.
type Config struct {
	// Name identifies the channel in logs and metric labels.
	Name string

	// Logger receives Debug-level lifecycle events. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics records channel activity. Nil disables metrics.
	Metrics *metrics.Registry
}

// DefaultConfig returns a configuration with no metrics and the default logger.
func DefaultConfig() Config {
	return Config{
		Name:   "unnamed",
		Logger: slog.Default(),
	}
}

// Validate checks the configuration. Constructors fill in defaults instead
// of failing, so Validate is for callers that build a Config from input.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("channel", "Name", c.Name); err != nil {
		return err
	}
	if c.Logger == nil {
		return wferrors.NewValidationError("channel", "Logger", nil, "cannot be nil").
			WithHint("use slog.Default()")
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	return c
}
