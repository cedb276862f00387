// Package observability builds the process logger and the HTTP metrics
// collectors exposed on /metrics.
package observability
