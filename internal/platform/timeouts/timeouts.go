// Package timeouts defines shared timeout constants used across the
// dashboard service. Centralizing these values keeps the durations
// discoverable and prevents drift between entry points.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Upload caps the time allowed to parse and validate a replacement
// indicator workbook.
const Upload = 30 * time.Second
