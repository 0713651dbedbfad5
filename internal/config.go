package internal

import (
	"time"
)

// Config holds the server environment. Defaults are tuned for a local
// single-node deployment; the token secret has no safe default and must be
// provided.
type Config struct {
	Host                string        `env:"HOST,default=0.0.0.0"`
	Port                int           `env:"PORT,default=12345"`
	LogLevel            string        `env:"LOG_LEVEL,default=INFO"`
	CredentialsFilepath string        `env:"CREDENTIALS_FILEPATH,default=users.txt"`
	HashScheme          string        `env:"HASH_SCHEME,default=sha256"`
	AuthTokenSecret     string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration   time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	TimelineLimit        int           `env:"TIMELINE_LIMIT,default=200"`
	ColorConsole         bool          `env:"COLOR_CONSOLE,default=true"`
}
