// Package server provides the HTTP server that hosts the display surface.
//
// This package is internal to SensorBoard and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded page with the "readings" element at "/"
//   - Snapshot API: JSON at "/api/surface"
//   - Server-Sent Events: live surface writes at "/api/sse"
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
