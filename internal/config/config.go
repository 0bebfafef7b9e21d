package config

import (
	"log"
	"math"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Running localy or not
	Debug bool `env:"DEBUG" envDefault:"false"`
	// Build absolute page addresses with https regardless of the inbound scheme
	ForceHTTPS bool `env:"FORCE_HTTPS" envDefault:"false"`

	// Page addresses
	DefaultCategory string `env:"DEFAULT_CATEGORY" envDefault:"p"`
	DefaultSlug     string `env:"DEFAULT_SLUG" envDefault:"strona"`
	TokenLength     int    `env:"TOKEN_LENGTH" envDefault:"10"`
	TokenAttempts   int    `env:"TOKEN_ATTEMPTS" envDefault:"5"`

	// Gemini settings
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiRPM      int64  `env:"GEMINI_RPM" envDefault:"10"`
	GeminiRPD      int64  `env:"GEMINI_RPD" envDefault:"250"`
	GeminiTimezone string `env:"GEMINI_TIMEZONE" envDefault:"America/Los_Angeles"`

	// S3 (source documents, covers)
	S3Region          string `env:"AWS_REGION" envDefault:"eu-central-1"`
	S3BucketName      string `env:"S3_BUCKET_NAME"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// Redis
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTimeout  time.Duration `env:"CACHE_TIMEOUT" envDefault:"3600s"`

	// Postgres
	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	DBDatabase string `env:"POSTGRES_DB"`
	DBUsername string `env:"POSTGRES_USER"`
	DBPassword string `env:"POSTGRES_PASSWORD"`
	DBSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"prefer"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"4"`

	// Local app host and port
	Host string `env:"HOST" envDefault:"localhost"`
	Port int    `env:"PORT" envDefault:"5000"`
}

// New creates new config object
func New() *Config {

	// Parse the config from the environment
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse the config; %v", err)
	}

	numCPU := runtime.NumCPU()
	if numCPU > math.MaxInt32 || numCPU < math.MinInt32 {
		log.Fatalf("failed to get proper CPU cores count: %d", numCPU)
	}

	// Cap the DBMaxConns to the number of cores
	cfg.DBMaxConns = max(cfg.DBMaxConns, int32(numCPU))

	// Tokens shorter than this make collisions likely
	cfg.TokenLength = max(cfg.TokenLength, 8)
	cfg.TokenAttempts = max(cfg.TokenAttempts, 1)

	return &cfg
}
