// Package logging builds the diagnostic logger. User-facing warnings are
// printed directly to stderr; this logger carries debug detail such as
// per-entry filter decisions.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // empty means stderr
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q; must be debug, info, warn or error", s)
	}
}

func buildEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// New returns a logger and a flush func that also closes the log file.
// stderr is used when cfg.File is empty; a file is rotated at 10 MB keeping
// three backups.
func New(cfg Config, stderr io.Writer) (*zap.Logger, func(), error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Format {
	case "", "console", "json":
	default:
		return nil, nil, fmt.Errorf("invalid log format %q; must be console or json", cfg.Format)
	}

	var (
		ws   zapcore.WriteSyncer
		file *lumberjack.Logger
	)
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 3,
			Compress:   false,
		}
		ws = zapcore.AddSync(file)
	} else {
		if stderr == nil {
			stderr = os.Stderr
		}
		ws = zapcore.AddSync(stderr)
	}

	core := zapcore.NewCore(buildEncoder(cfg.Format), ws, level)
	logger := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)).Named("localfilter")
	return logger, func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}, nil
}
