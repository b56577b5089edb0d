package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a logger writing level+ logs to stdout and, as JSON lines, to a
// size-rotated file at path. Close the returned io.Closer once the logger is done.
func NewFileLogger(name, path string, level zapcore.Level) (Logger, io.Closer) {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 3,
		Compress:   true,
	}
	consoleCfg := NewLoggerConfig().EncoderConfig
	fileCfg := consoleCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), level),
	)
	return &impl{zap.New(core).Sugar().Named(name)}, file
}
