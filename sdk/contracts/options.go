package contracts

import "time"

// DefaultRetryDelay is how long OpenAll waits before re-enumerating when no device opened.
const DefaultRetryDelay = 20 * time.Millisecond

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// FatalHandler is invoked for failures the receiver cannot recover from.
type FatalHandler func(msg string, err error)

// ReceiverOptions defines the configuration options for the MIDI receiver.
type ReceiverOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	Driver         Driver          // Device driver; chosen by operating system when nil.
	RetryDelay     time.Duration   // Delay before the single enumeration retry.
	FatalHandler   FatalHandler    // Called on teardown failures and dispatch crashes.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ReceiverOptions.
type Option func(*ReceiverOptions)

// WithLogger sets the logger for the MIDI receiver.
func WithLogger(l Logger) Option {
	return func(opts *ReceiverOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI receiver.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ReceiverOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs log output to a file.
func WithLogFile(path string) Option {
	return func(opts *ReceiverOptions) {
		opts.LogFilePath = path
	}
}

// WithDriver overrides the platform driver.
func WithDriver(d Driver) Option {
	return func(opts *ReceiverOptions) {
		opts.Driver = d
	}
}

// WithRetryDelay sets the delay before the enumeration retry.
func WithRetryDelay(d time.Duration) Option {
	return func(opts *ReceiverOptions) {
		opts.RetryDelay = d
	}
}

// WithFatalHandler replaces the default fatal handler, which logs at fatal level and exits.
func WithFatalHandler(h FatalHandler) Option {
	return func(opts *ReceiverOptions) {
		opts.FatalHandler = h
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI receiver.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ReceiverOptions) {
		opts.CoreMIDIConfig = &config
	}
}
