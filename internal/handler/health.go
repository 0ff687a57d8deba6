package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // status codes
    "time"

    "github.com/labstack/echo/v4"    // web framework
    "github.com/redis/go-redis/v9"   // optional session store
)

// Health reports liveness plus the state of the optional backing stores.
// Redis and MySQL are both optional, so a failed ping degrades the status
// instead of failing the check; load balancers only look at the 200.
type Health struct {
    Redis *redis.Client // may be nil
    DB    *sql.DB       // may be nil
}

// Check answers GET /healthz.
func (h Health) Check(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    out := echo.Map{"status": "ok"}
    if h.Redis != nil {
        out["redis"] = probe(h.Redis.Ping(ctx).Err())
    }
    if h.DB != nil {
        out["mysql"] = probe(h.DB.PingContext(ctx))
    }
    for _, k := range []string{"redis", "mysql"} {
        if v, ok := out[k]; ok && v != "ok" {
            out["status"] = "degraded"
        }
    }
    return c.JSON(http.StatusOK, out)
}

func probe(err error) string {
    if err != nil {
        return err.Error()
    }
    return "ok"
}
