// Package server exposes the transcript feed, metrics and health over HTTP.
package server

import "time"

// Server configuration constants
const (
	// Window for /api/transcripts when no seconds parameter is given.
	DefaultRecentSeconds = 300
	MaxRecentSeconds     = 24 * 60 * 60

	// Per-client deadline for a broadcast write; slow clients miss the message.
	BroadcastWriteTimeout = 5 * time.Second

	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 5 * time.Second
)
