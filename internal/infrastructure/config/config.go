package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string `env:"PORT,          default=8600"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	JWTSecret    string `env:"JWT_SECRET"`
	SessionToken string `env:"SESSION_TOKEN"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Presence PresenceConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fittrack"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// PresenceConfig holds the presence tunables. None is correctness-critical;
// the defaults match the reference deployment.
type PresenceConfig struct {
	PublishInterval     time.Duration `env:"PRESENCE_PUBLISH_INTERVAL,     default=5m"`
	MovementThresholdM  float64       `env:"PRESENCE_MOVEMENT_THRESHOLD_M, default=70"`
	LivenessWindow      time.Duration `env:"PRESENCE_LIVENESS_WINDOW,      default=5m"`
	ReapInterval        time.Duration `env:"PRESENCE_REAP_INTERVAL,        default=90s"`
	PeerRefreshInterval time.Duration `env:"PRESENCE_PEER_REFRESH_INTERVAL, default=10m"`
	ConnectTimeout      time.Duration `env:"PRESENCE_CONNECT_TIMEOUT,      default=10s"`
	Workers             int           `env:"PRESENCE_WORKERS,              default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
