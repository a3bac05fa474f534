package file

import (
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements LoggerInstance by writing JSON lines to a size
// rotated log file.
type FileLogger struct {
	logger *log.Logger
	out    *lumberjack.Logger
}

// FileLoggerParams contains configuration for creating a FileLogger.
// Zero values fall back to 100 MB files, 5 backups and 28 days retention.
type FileLoggerParams struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Debug      bool
}

func NewFileLogger(params FileLoggerParams) *FileLogger {
	out := &lumberjack.Logger{
		Filename:   params.Path,
		MaxSize:    orDefault(params.MaxSizeMB, 100),
		MaxBackups: orDefault(params.MaxBackups, 5),
		MaxAge:     orDefault(params.MaxAgeDays, 28),
		Compress:   params.Compress,
	}

	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       log.JSONFormatter,
	})

	return &FileLogger{logger: logger, out: out}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (f *FileLogger) Log(message string, keyvals ...any) {
	f.logger.Print(message, keyvals...)
}

func (f *FileLogger) Info(message string, keyvals ...any) {
	f.logger.Info(message, keyvals...)
}

func (f *FileLogger) Warn(message string, keyvals ...any) {
	f.logger.Warn(message, keyvals...)
}

func (f *FileLogger) Error(message string, keyvals ...any) {
	f.logger.Error(message, keyvals...)
}

func (f *FileLogger) Debug(message string, keyvals ...any) {
	f.logger.Debug(message, keyvals...)
}

// Fatal writes the message and closes the file. It does not exit, the
// console backend registered after it does.
func (f *FileLogger) Fatal(message string, keyvals ...any) {
	f.logger.Error(message, append(keyvals, "fatal", true)...)
	_ = f.out.Close()
}

// Close flushes and closes the underlying log file.
func (f *FileLogger) Close() error {
	return f.out.Close()
}
