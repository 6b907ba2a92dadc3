package logging

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	CONSOLE = "console"
	JSON    = "json"
)

// Config defines the logging configuration of the daemon.
type Config struct {
	// Level is the default logging level of every logger.
	Level zapcore.Level `yaml:"level" default:"info"`
	// Output is either "console" or "json".
	Output string `yaml:"output" default:"console"`
	// Options overrides the level of single named child loggers, e.g. "dispatch: debug".
	Options map[string]zapcore.Level `yaml:"options"`
}

// Validate checks the output format. Levels are checked when they are decoded.
func (c *Config) Validate() error {
	switch c.Output {
	case CONSOLE, JSON:
		return nil
	default:
		return errors.Errorf("invalid logging output %q, must be %q or %q", c.Output, CONSOLE, JSON)
	}
}

// Logging hands out named child loggers that share one sink.
type Logging struct {
	name        string
	logger      *zap.SugaredLogger
	level       zapcore.Level
	options     map[string]zapcore.Level
	coreFactory func(zap.AtomicLevel) zapcore.Core

	mu       sync.Mutex
	children map[string]*zap.SugaredLogger
}

// NewLogging returns a Logging writing to stderr in the configured output format.
func NewLogging(name string, c Config) (*Logging, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var newEncoder func() zapcore.Encoder
	if c.Output == JSON {
		newEncoder = func() zapcore.Encoder { return zapcore.NewJSONEncoder(encoderConfig) }
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		newEncoder = func() zapcore.Encoder { return zapcore.NewConsoleEncoder(encoderConfig) }
	}

	sink := zapcore.Lock(os.Stderr)

	return NewLoggingWithFactory(name, c.Level, c.Options, func(level zap.AtomicLevel) zapcore.Core {
		return zapcore.NewCore(newEncoder(), sink, level)
	}), nil
}

// NewLoggingWithFactory returns a Logging whose loggers write to the cores built by factory.
func NewLoggingWithFactory(
	name string, level zapcore.Level, options map[string]zapcore.Level, factory func(zap.AtomicLevel) zapcore.Core,
) *Logging {
	return &Logging{
		name:        name,
		logger:      zap.New(factory(zap.NewAtomicLevelAt(level))).Named(name).Sugar(),
		level:       level,
		options:     options,
		coreFactory: factory,
		children:    make(map[string]*zap.SugaredLogger),
	}
}

// GetLogger returns the root logger.
func (l *Logging) GetLogger() *zap.SugaredLogger {
	return l.logger
}

// GetChildLogger returns the logger with the given name, honoring its level option.
func (l *Logging) GetChildLogger(name string) *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if logger, ok := l.children[name]; ok {
		return logger
	}

	level := l.level
	if lvl, ok := l.options[name]; ok {
		level = lvl
	}

	logger := zap.New(l.coreFactory(zap.NewAtomicLevelAt(level))).Named(l.name).Named(name).Sugar()
	l.children[name] = logger

	return logger
}

// Sync flushes every logger handed out so far.
func (l *Logging) Sync() {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.logger.Sync()
	for _, logger := range l.children {
		_ = logger.Sync()
	}
}
