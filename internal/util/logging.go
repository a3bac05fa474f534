package util

import (
	"github.com/necronomicon/backend/pkg/logger"
	"github.com/necronomicon/backend/pkg/logger/console"
	"github.com/necronomicon/backend/pkg/logger/file"
)

// SetupLogger installs the console backend and, when LOG_FILE is set, a
// rotating file backend. The file backend comes first because the console
// backend exits on Fatal.
func SetupLogger(prefix string) {
	debug := GetEnvBool("DEBUG", false)

	var backends []logger.LoggerInstance
	if path := GetEnv("LOG_FILE"); path != "" {
		backends = append(backends, file.NewFileLogger(file.FileLoggerParams{
			Path:       path,
			MaxSizeMB:  GetEnvInt("LOG_FILE_MAX_MB", 100),
			MaxBackups: GetEnvInt("LOG_FILE_BACKUPS", 5),
			Compress:   GetEnvBool("LOG_FILE_COMPRESS", false),
			Debug:      debug,
		}))
	}
	backends = append(backends, console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Format: GetEnvString("LOG_FORMAT", "text"),
		Prefix: prefix,
	}))

	logger.Init(backends...)
}
