// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
    "errors"
    "fmt"
    "io/fs"
    "net"
    "time"

    "github.com/ilyakaznacheev/cleanenv"
    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; defaults make a bare `go run` usable against a
// local catalog API.
type Config struct {
    Env  string `env:"APP_ENV" env-default:"dev"`
    Port string `env:"APP_PORT" env-default:"8081"`

    // APIBaseURL is the catalog API every page reads from.
    APIBaseURL string        `env:"API_BASE_URL" env-default:"http://localhost:8080/api"`
    APITimeout time.Duration `env:"API_TIMEOUT" env-default:"15s"`

    Session   SessionConfig
    Checkout  CheckoutConfig
    DB        DBConfig
    Redis     RedisConfig
    Cache     CacheConfig
    RateLimit RateLimitConfig
    AMQP      AMQPConfig
    Log       LogConfig
    OMDb      OMDbConfig
}

// SessionConfig controls the browser session cookie and per-session state.
type SessionConfig struct {
    Secret     string        `env:"SESSION_SECRET" env-default:"dev-secret-change-me"`
    CookieName string        `env:"SESSION_COOKIE" env-default:"sf_session"`
    TTL        time.Duration `env:"SESSION_TTL" env-default:"720h"`
    Secure     bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
    // StateTTL bounds session storage (listing snapshots) and idle
    // upstream cookie jars.
    StateTTL time.Duration `env:"SESSION_STATE_TTL" env-default:"24h"`
    // AuthRequired sends signed-out visitors to /login for every page but
    // the login page itself.
    AuthRequired bool `env:"AUTH_REQUIRED" env-default:"false"`
}

// CheckoutConfig controls payment submission.
type CheckoutConfig struct {
    CustomerID int `env:"CHECKOUT_CUSTOMER_ID" env-default:"1"`
}

// DBConfig locates the MySQL database backing durable storage.  An empty
// Host keeps durable storage in memory.
type DBConfig struct {
    User  string `env:"DB_USER" env-default:"root"`
    Pass  string `env:"DB_PASS"`
    Host  string `env:"DB_HOST"`
    Port  string `env:"DB_PORT" env-default:"3306"`
    Name  string `env:"DB_NAME" env-default:"storefront"`
    Table string `env:"DB_KV_TABLE" env-default:"kv_store"`
}

// Enabled reports whether a database was configured.
func (d DBConfig) Enabled() bool { return d.Host != "" }

// Addr is host:port.
func (d DBConfig) Addr() string { return net.JoinHostPort(d.Host, d.Port) }

// AMQPConfig locates RabbitMQ.  An empty URL disables order events.
type AMQPConfig struct {
    URL         string `env:"RABBITMQ_URL"`
    OrdersQueue string `env:"ORDERS_QUEUE" env-default:"order.placed"`
    // OrdersLog is where the built-in consumer appends order records.
    OrdersLog   string `env:"ORDERS_LOG" env-default:"logs/orders.log"`
    RunConsumer bool   `env:"ORDERS_CONSUMER" env-default:"true"`
}

// LogConfig controls the application logger.
type LogConfig struct {
    Level      string `env:"LOG_LEVEL" env-default:"info"`
    File       string `env:"LOG_FILE"`
    MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" env-default:"50"`
    MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"5"`
    MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// OMDbConfig enables poster lookups.  An empty key disables them.
type OMDbConfig struct {
    APIKey  string        `env:"OMDB_API_KEY"`
    BaseURL string        `env:"OMDB_BASE_URL" env-default:"https://www.omdbapi.com/"`
    TTL     time.Duration `env:"OMDB_CACHE_TTL" env-default:"168h"`
}

// Load reads .env (if any) and the environment into a Config.
func Load() (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return Config{}, fmt.Errorf("read .env: %w", err)
    }
    var cfg Config
    if err := cleanenv.ReadEnv(&cfg); err != nil {
        return Config{}, fmt.Errorf("read env: %w", err)
    }
    cfg.Cache.normalize()
    cfg.RateLimit.normalize()
    return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() Config {
    cfg, err := Load()
    if err != nil {
        panic(err)
    }
    return cfg
}
