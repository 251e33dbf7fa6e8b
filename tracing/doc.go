// Package tracing wraps OpenTelemetry so that puppet steps and scheduled
// items can be traced without the rest of the runtime importing otel. When no
// provider is installed every span is a no-op.
package tracing
