// Package logging provides a minimal logging interface and adapters for the
// chat front-ends.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the runner, the web server and the remote service adapter use. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - ChatLogger with contextual cloning helpers and remote call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(svc, func(o *runner.Options) { o.Logger = logger })
//
// Arguments after the message are slog style key/value pairs.
package logging
