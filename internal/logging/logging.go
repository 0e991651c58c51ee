// Package logging builds the process-wide zap logger. When a GELF address is
// configured every entry is also shipped to Graylog over UDP.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/gelf"
)

const serviceName = "grove"

// New returns a logger for cfg and a cleanup func that flushes it.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	cleanup := func() {}

	if cfg.GelfAddr != "" {
		w, err := gelf.New(cfg.GelfAddr, serviceName)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: gelf: %w", err)
		}
		core = zapcore.NewTee(core, NewGelfCore(w, level))
		cleanup = func() { w.Close() }
	}

	logger := zap.New(core, zap.AddCaller()).With(zap.String("service", serviceName))
	undo := zap.RedirectStdLog(logger)
	return logger, func() {
		_ = logger.Sync()
		undo()
		cleanup()
	}, nil
}

// GelfCore is a zapcore.Core that forwards entries as GELF messages.
type GelfCore struct {
	zapcore.LevelEnabler
	w      *gelf.Writer
	fields []zapcore.Field
}

// NewGelfCore wraps w as a zap core enabled at level and above.
func NewGelfCore(w *gelf.Writer, level zapcore.LevelEnabler) *GelfCore {
	return &GelfCore{LevelEnabler: level, w: w}
}

func (c *GelfCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *GelfCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *GelfCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if ent.LoggerName != "" {
		enc.Fields["logger"] = ent.LoggerName
	}
	if ent.Caller.Defined {
		enc.Fields["caller"] = ent.Caller.TrimmedPath()
	}
	return c.w.Send(gelf.Message{
		Short:     ent.Message,
		Level:     severity(ent.Level),
		Timestamp: ent.Time,
		Extra:     enc.Fields,
	})
}

func (c *GelfCore) Sync() error { return nil }

func severity(l zapcore.Level) int {
	switch {
	case l >= zapcore.DPanicLevel:
		return gelf.LevelCritical
	case l == zapcore.ErrorLevel:
		return gelf.LevelError
	case l == zapcore.WarnLevel:
		return gelf.LevelWarning
	case l == zapcore.DebugLevel:
		return gelf.LevelDebug
	}
	return gelf.LevelInformational
}
