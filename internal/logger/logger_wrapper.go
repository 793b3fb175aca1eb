package logger

import (
	"os"
	"sync"
	"time"

	"github.com/leandrodaf/midirx/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of zap.
type ZapLogger struct {
	sink *sink
	name string
}

// sink is shared by a logger and every logger derived from it with Named.
type sink struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zap.AtomicLevel
	opts   []zap.Option
	closer func()
}

// NewZapLogger creates a logger writing JSON entries to stderr.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level)
	return newZapLogger(core, level)
}

// NewZapLoggerWithCore creates a logger on an existing core. Used by tests with zaptest/observer.
func NewZapLoggerWithCore(core zapcore.Core, opts ...zap.Option) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return newZapLogger(&leveledCore{Core: core, level: level}, level, opts...)
}

func newZapLogger(core zapcore.Core, level zap.AtomicLevel, opts ...zap.Option) *ZapLogger {
	opts = append([]zap.Option{zap.AddCaller(), zap.AddCallerSkip(2)}, opts...)
	return &ZapLogger{sink: &sink{
		logger: zap.New(core, opts...),
		level:  level,
		opts:   opts,
	}}
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// Named returns a logger that tags every entry with the component name.
func (z *ZapLogger) Named(component string) contracts.Logger {
	name := component
	if z.name != "" {
		name = z.name + "." + component
	}
	return &ZapLogger{sink: z.sink, name: name}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.sink.level.SetLevel(zapcore.Level(level))
}

// SetDestination switches output between stderr and a file. The level is preserved.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	var (
		ws     zapcore.WriteSyncer
		closer func()
	)
	switch dest {
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			z.Error("File log destination requires a path")
			return
		}
		out, closeOut, err := zap.Open(filePath[0])
		if err != nil {
			z.Error("Failed to open log file", z.Field().String("path", filePath[0]), z.Field().Error("error", err))
			return
		}
		ws, closer = out, closeOut
	default:
		ws = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(newEncoder(), ws, z.sink.level)

	z.sink.mu.Lock()
	prevCloser := z.sink.closer
	_ = z.sink.logger.Sync()
	z.sink.logger = zap.New(core, z.sink.opts...)
	z.sink.closer = closer
	z.sink.mu.Unlock()

	if prevCloser != nil {
		prevCloser()
	}
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.sink.mu.RLock()
	defer z.sink.mu.RUnlock()
	return z.sink.logger.Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.sink.level.Enabled(level) {
		return
	}

	z.sink.mu.RLock()
	l := z.sink.logger
	z.sink.mu.RUnlock()

	if z.name != "" {
		l = l.Named(z.name)
	}
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.set {
			out = append(out, f.field)
		}
	}
	return out
}

// leveledCore applies the logger's atomic level on top of a caller-supplied core.
type leveledCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

func (c *leveledCore) With(fields []zap.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

func (c *leveledCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
	set   bool
}

func wrap(f zap.Field) contracts.Field {
	return zapField{field: f, set: true}
}

func (zapField) Bool(key string, val bool) contracts.Field       { return wrap(zap.Bool(key, val)) }
func (zapField) Int(key string, val int) contracts.Field         { return wrap(zap.Int(key, val)) }
func (zapField) Float64(key string, val float64) contracts.Field { return wrap(zap.Float64(key, val)) }
func (zapField) String(key string, val string) contracts.Field   { return wrap(zap.String(key, val)) }
func (zapField) Time(key string, val time.Time) contracts.Field  { return wrap(zap.Time(key, val)) }
func (zapField) Int64(key string, val int64) contracts.Field     { return wrap(zap.Int64(key, val)) }
func (zapField) Error(key string, val error) contracts.Field     { return wrap(zap.NamedError(key, val)) }
func (zapField) Uint64(key string, val uint64) contracts.Field   { return wrap(zap.Uint64(key, val)) }
func (zapField) Uint16(key string, val uint16) contracts.Field   { return wrap(zap.Uint16(key, val)) }
func (zapField) Uint8(key string, val uint8) contracts.Field     { return wrap(zap.Uint8(key, val)) }

func (zapField) Duration(key string, val time.Duration) contracts.Field {
	return wrap(zap.Duration(key, val))
}
