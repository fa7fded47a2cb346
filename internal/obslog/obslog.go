package obslog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger on stderr so converted output and shell
// pipelines on stdout stay clean.
func New(level string) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), ParseLevel(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}
