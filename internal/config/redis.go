package config

// Redis backs session storage, the cross-instance signal relay, HTTP
// response caching, login rate limiting and the poster cache.  If the
// server cannot be reached at startup, NewRedisClient returns nil and
// callers degrade to their in-process fallbacks.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis connection.  Addr is used when Host is
// empty.
type RedisConfig struct {
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT" env-default:"6379"`
    Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" env-default:"0"`
    TLS      bool   `env:"REDIS_TLS" env-default:"false"`
    Disabled bool   `env:"REDIS_DISABLED" env-default:"false"`
    // Channel carries cart and auth signals between storefront instances.
    Channel string `env:"REDIS_SIGNAL_CHANNEL" env-default:"storefront:signals"`
    Prefix  string `env:"REDIS_SESSION_PREFIX" env-default:"sess"`
}

func (r RedisConfig) address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    return r.Addr
}

// NewRedisClient connects and pings with a short timeout.  It returns nil
// when Redis is disabled or unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    if cfg.Disabled {
        return nil
    }
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.address(),
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
