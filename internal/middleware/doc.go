// Package middleware provides HTTP middleware for the photowall server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded label cardinality
//   - Response compression (gzip) for text and JSON payloads
package middleware
