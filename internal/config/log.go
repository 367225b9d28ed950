package config

import "strings"

// LogConfig controls the process logger.  Format is "text" for coloured
// console output or "json".
type LogConfig struct {
	Level  string
	Format string
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(envStr("LOG_LEVEL", "info")),
		Format: strings.ToLower(envStr("LOG_FORMAT", "text")),
	}
}
