package pgnstream

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the single log sink shared by the whole pipeline. One
// line per event with timestamp, severity and message, appended to the
// log file; verbose and debug modes additionally mirror events to stderr.
// The returned close function releases the log file handle.
func newLogger(mode DebugMode, logPath string) (*zap.Logger, func(), error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.Join(errors.New("failed to create log directory"), err)
		}
	}

	fileSink, closeSink, err := zap.Open(logPath)
	if err != nil {
		return nil, nil, errors.Join(errors.New("failed to open log file"), err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	var cores []zapcore.Core
	switch mode {
	case DebugModeSilent:
		cores = append(cores, zapcore.NewCore(encoder, fileSink, zapcore.ErrorLevel))
	case DebugModeVerbose:
		cores = append(cores,
			zapcore.NewCore(encoder, fileSink, zapcore.InfoLevel),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.InfoLevel))
	case DebugModeDebug:
		cores = append(cores,
			zapcore.NewCore(encoder, fileSink, zapcore.DebugLevel),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), closeSink, nil
}
