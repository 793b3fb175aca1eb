package midi

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/leandrodaf/midirx/internal/logger"
	"github.com/leandrodaf/midirx/sdk/contracts"
)

const (
	envLogLevel   = "MIDIRX_LOG_LEVEL"
	envRetryDelay = "MIDIRX_RETRY_DELAY"
)

// applyDefaultOptions sets default values for ReceiverOptions if not explicitly provided.
// Environment variables override both defaults and options.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ReceiverOptions.
//
// Returns:
//   - contracts.ReceiverOptions: The finalized options with defaults applied.
//   - error: An error if an environment override is malformed.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ReceiverOptions, error) {
	options := &contracts.ReceiverOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if err := applyEnvOverrides(options); err != nil {
		return contracts.ReceiverOptions{}, err
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.RetryDelay <= 0 {
		options.RetryDelay = contracts.DefaultRetryDelay
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midirx"}
	}
	if options.FatalHandler == nil {
		log := options.Logger
		options.FatalHandler = func(msg string, err error) {
			log.Fatal(msg, log.Field().Error("error", err))
		}
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	return *options, nil
}

func applyEnvOverrides(options *contracts.ReceiverOptions) error {
	if value := strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel))); value != "" {
		level, ok := contracts.ParseLogLevel(value)
		if !ok {
			return fmt.Errorf("%s: unsupported log level %q", envLogLevel, value)
		}
		options.LogLevel = level
	}
	if value := strings.TrimSpace(os.Getenv(envRetryDelay)); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", envRetryDelay, err)
		}
		options.RetryDelay = d
	}
	return nil
}
