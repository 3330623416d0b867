// Package logger собирает zap.Logger для CLI и фоновых компонентов.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingAuto    = "auto"
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Config содержит настройки логгера.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // auto, console или json
	OutputPath string // Пусто или "stderr" - stderr, иначе путь к файлу
}

// New создает zap.Logger по конфигурации.
// stdout занят выводом команд, поэтому логи по умолчанию идут в stderr.
// В режиме auto терминал получает цветной console-вывод, файл или pipe - JSON.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out, err := openOutput(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	encoding := resolveEncoding(cfg.Encoding, out)
	core := zapcore.NewCore(newEncoder(encoding, isTerminal(out)), zapcore.Lock(out), level)

	return zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zapcore.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// openOutput открывает файл на все время жизни процесса, как и zap.Config.Build.
func openOutput(path string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(path) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %s: %w", path, err)
	}
	return f, nil
}

func resolveEncoding(encoding string, out zapcore.WriteSyncer) string {
	switch strings.ToLower(encoding) {
	case EncodingConsole:
		return EncodingConsole
	case EncodingJSON:
		return EncodingJSON
	}
	if isTerminal(out) {
		return EncodingConsole
	}
	return EncodingJSON
}

func newEncoder(encoding string, color bool) zapcore.Encoder {
	if encoding == EncodingJSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func isTerminal(out zapcore.WriteSyncer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
