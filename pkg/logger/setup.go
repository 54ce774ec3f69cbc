package logger

var defaultLogger = NewLogger(DefaultConfig())

// SetupDefault replaces the process default logger returned by FromContext
// when a context carries no logger of its own.
func SetupDefault(level string, json, source bool) Logger {
	l := NewLogger(&Config{
		Level:      LogLevel(level),
		JSON:       json,
		AddSource:  source,
		TimeFormat: "15:04:05",
	})
	defaultLogger = l
	return l
}
