package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts requests and observes latency per route.  reg may be
// nil, in which case nothing is recorded.
func HTTPMetrics(reg prometheus.Registerer) echo.MiddlewareFunc {
    if reg == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    requests := prometheus.NewCounterVec(prometheus.CounterOpts{
        Name: "storefront_http_requests_total",
        Help: "Storefront HTTP requests by route, method and status.",
    }, []string{"route", "method", "status"})
    latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "storefront_http_request_duration_seconds",
        Help:    "Storefront HTTP request latency by route.",
        Buckets: prometheus.DefBuckets,
    }, []string{"route"})
    reg.MustRegister(requests, latency)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            status := c.Response().Status
            if he, ok := err.(*echo.HTTPError); ok {
                status = he.Code
            }
            requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
            latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
