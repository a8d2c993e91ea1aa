package sttp

// Logger is the logging interface used by PendingRequest and HTTPTransport.
// It is out of the box compatible with `log.Log` in `apex/log`.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...interface{})

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...interface{})
}

// DiscardLogger is the default logger that discards its input.
var DiscardLogger Logger = logDiscarder{}

type logDiscarder struct{}

func (logDiscarder) Debugf(format string, v ...interface{}) {}

func (logDiscarder) Warnf(format string, v ...interface{}) {}

func validLoggerOrDefault(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return DiscardLogger
}
