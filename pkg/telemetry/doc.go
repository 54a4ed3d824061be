// Package telemetry wires OpenTelemetry exporters and meters for the WHOIS
// parser.
//
// It centralises trace provider setup, exposes the parse instruments the core
// records into, and bridges those instruments to a Prometheus registry so the
// HTTP server can serve them from /metrics.
package telemetry
