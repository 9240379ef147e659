package simulate

import "time"

// Defaults applied by normalize.
const (
	DefaultRounds        = 5
	DefaultLikesPerRound = 3
	DefaultLimit         = 8
	DefaultTimeout       = 10 * time.Second
	DefaultHealthPath    = "/healthz"
)

const (
	reportFilePermission = 0o600
	userIDHeader         = "user-id"
)
