package logging

import (
	"os"
	"path/filepath"

	"dockyard/internal/platform/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process logger. Defaults to a no-op so packages can log before
// Init (and so tests do not need a logger at all).
var L = zap.NewNop()

// Init tees log output to stdout and to the configured log file. The file
// is what the raw-log endpoint serves back to operators.
func Init() error {
	if err := os.MkdirAll(config.AppConfig.LogDir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(config.AppConfig.LogDir, config.AppConfig.LogFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel),
	)

	L = zap.New(core)
	return nil
}

// Sync flushes buffered log entries, for use at shutdown.
func Sync() {
	_ = L.Sync()
}
