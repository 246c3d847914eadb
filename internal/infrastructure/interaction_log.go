package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rawg-mcp-server/internal/domain"
)

// FileInteractionLog appends one JSON line per tool call to a file.
// The file is opened in append mode and never read back or rotated.
type FileInteractionLog struct {
	logger *zap.Logger
	file   *os.File
}

// NewFileInteractionLog opens (or creates) the log at path, creating parent
// directories as needed.
func NewFileInteractionLog(path string) (*FileInteractionLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create interaction log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open interaction log: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "event"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(file)),
		zapcore.InfoLevel,
	)

	return &FileInteractionLog{
		logger: zap.New(core),
		file:   file,
	}, nil
}

// Record writes record as a single line. Safe for concurrent use.
func (l *FileInteractionLog) Record(record domain.InteractionRecord) {
	writeInteraction(l.logger, record)
}

// writeInteraction logs the full record: failures at warn with the error,
// successes at info with the result.
func writeInteraction(logger *zap.Logger, record domain.InteractionRecord) {
	fields := []zap.Field{
		zap.String("request_id", record.RequestID),
		zap.Time("started_at", record.Timestamp),
		zap.String("method", record.Method),
		zap.String("tool", record.Tool),
		zap.Any("arguments", record.Arguments),
		zap.Duration("duration", record.Duration),
	}

	if record.Error != "" {
		fields = append(fields,
			zap.String("error_kind", string(record.ErrorKind)),
			zap.String("error", record.Error),
		)
		logger.Warn("tool_call", fields...)
		return
	}

	fields = append(fields, zap.Any("result", record.Result))
	logger.Info("tool_call", fields...)
}

// Close flushes and closes the file.
func (l *FileInteractionLog) Close() error {
	_ = l.logger.Sync()
	return l.file.Close()
}

// LogInteractionLog writes interaction records to an operational logger
// instead of a file. Used when no interaction log path is configured.
type LogInteractionLog struct {
	logger *zap.Logger
}

// NewLogInteractionLog creates a LogInteractionLog.
func NewLogInteractionLog(logger *zap.Logger) *LogInteractionLog {
	return &LogInteractionLog{logger: logger.Named("interaction")}
}

// Record logs the same fields FileInteractionLog writes.
func (l *LogInteractionLog) Record(record domain.InteractionRecord) {
	writeInteraction(l.logger, record)
}

// Close is a no-op; the operational logger is synced by its owner.
func (l *LogInteractionLog) Close() error { return nil }

var (
	_ domain.InteractionLogger = (*FileInteractionLog)(nil)
	_ domain.InteractionLogger = (*LogInteractionLog)(nil)
)
