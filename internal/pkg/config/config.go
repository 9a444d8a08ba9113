package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Booking   BookingConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// BookingConfig is the settings provider read by the availability engine.
type BookingConfig struct {
	MinimumAdvanceBookingHours int    `envconfig:"MINIMUM_ADVANCE_BOOKING_HOURS" default:"2"`
	CancellationPolicyHours    int    `envconfig:"CANCELLATION_POLICY_HOURS" default:"24"`
	DefaultSlotDurationMinutes int    `envconfig:"DEFAULT_SLOT_DURATION_MINUTES" default:"30"`
	DefaultMaxCapacity         int    `envconfig:"DEFAULT_MAX_CAPACITY" default:"1"`
	MaxSummaryDays             int    `envconfig:"MAX_SUMMARY_DAYS" default:"93"`
	TimeZone                   string `envconfig:"BOOKING_TIMEZONE" default:"UTC"`
	Store                      string `envconfig:"BOOKING_STORE" default:"postgres"`
}

type CacheConfig struct {
	Driver string        `envconfig:"CACHE_DRIVER" default:"memory"`
	TTL    time.Duration `envconfig:"CACHE_TTL" default:"60s"`
	Prefix string        `envconfig:"CACHE_PREFIX" default:"booking"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type QueueConfig struct {
	Driver    string        `envconfig:"QUEUE_DRIVER" default:"outbox"`
	PollEvery time.Duration `envconfig:"OUTBOX_POLL_EVERY" default:"2s"`
	BatchSize int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
}

type KafkaConfig struct {
	Brokers string `envconfig:"KAFKA_BROKERS" default:""`
	Topic   string `envconfig:"KAFKA_TOPIC" default:"booking.jobs.v1"`
}

type RateLimitConfig struct {
	Driver   string        `envconfig:"RATE_LIMIT_DRIVER" default:"memory"`
	Limit    int           `envconfig:"RATE_LIMIT_BOOKINGS" default:"10"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	FailOpen bool          `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`
}

type TracingConfig struct {
	Enabled      bool    `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName  string  `envconfig:"OTEL_SERVICE_NAME" default:"booking-engine"`
	OTLPEndpoint string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	SampleRatio  float64 `envconfig:"OTEL_SAMPLING_RATIO" default:"1"`
}

var (
	ErrInvalidSlotDuration = errors.New("DEFAULT_SLOT_DURATION_MINUTES must be positive")
	ErrInvalidCapacity     = errors.New("DEFAULT_MAX_CAPACITY must be at least 1")
	ErrInvalidPolicyHours  = errors.New("booking policy hours cannot be negative")
	ErrInvalidSummaryRange = errors.New("MAX_SUMMARY_DAYS must be positive")
)

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// Validate rejects settings the engine cannot run with.
func (c BookingConfig) Validate() error {
	if c.DefaultSlotDurationMinutes <= 0 {
		return ErrInvalidSlotDuration
	}
	if c.DefaultMaxCapacity < 1 {
		return ErrInvalidCapacity
	}
	if c.MinimumAdvanceBookingHours < 0 || c.CancellationPolicyHours < 0 {
		return ErrInvalidPolicyHours
	}
	if c.MaxSummaryDays <= 0 {
		return ErrInvalidSummaryRange
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c BookingConfig) MinimumAdvance() time.Duration {
	return time.Duration(c.MinimumAdvanceBookingHours) * time.Hour
}

func (c BookingConfig) CancellationWindow() time.Duration {
	return time.Duration(c.CancellationPolicyHours) * time.Hour
}

func LoadConfig() (Config, error) {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Booking.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid booking config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 20,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Booking: BookingConfig{
			MinimumAdvanceBookingHours: 2,
			CancellationPolicyHours:    24,
			DefaultSlotDurationMinutes: 30,
			DefaultMaxCapacity:         1,
			MaxSummaryDays:             93,
			TimeZone:                   "UTC",
			Store:                      "postgres",
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    time.Minute,
			Prefix: "booking-test",
		},
		Queue: QueueConfig{
			Driver: "log",
		},
		RateLimit: RateLimitConfig{
			Driver:   "memory",
			Limit:    1000,
			Window:   time.Minute,
			FailOpen: true,
		},
	}
}
