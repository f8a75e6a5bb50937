package logging

// NullLogger discards everything. It is the default logger for
// components that were not given one.
type NullLogger struct{}

// NewNullLogger creates a NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Info discards the message.
func (n *NullLogger) Info(string, ...Field) {}

// Warn discards the message.
func (n *NullLogger) Warn(string, ...Field) {}

// Error discards the message.
func (n *NullLogger) Error(string, ...Field) {}

// Debug discards the message.
func (n *NullLogger) Debug(string, ...Field) {}

// WithFields returns the same NullLogger.
func (n *NullLogger) WithFields(...Field) Logger { return n }

// Close is a no-op.
func (n *NullLogger) Close() error { return nil }
