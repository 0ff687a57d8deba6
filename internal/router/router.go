package router // package router defines how HTTP routes are registered for the storefront

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-storefront/internal/config"
	"github.com/iliyamo/movie-storefront/internal/handler"
	"github.com/iliyamo/movie-storefront/internal/middleware"
)

// Deps is everything the routes need.
type Deps struct {
	Cfg        config.Config
	Logger     *slog.Logger
	Storefront *handler.Storefront
	Health     handler.Health
	Redis      *redis.Client // may be nil
	Registry   *prometheus.Registry
}

// noRedirectRecord lists path prefixes that are never remembered as the
// page to return to after login.
var noRedirectRecord = []string{"/login", "/logout", "/events", "/api/", "/healthz", "/metrics"}

// openPaths are served to signed-out visitors even when login is required.
var openPaths = []string{"/login", "/healthz", "/metrics", "/events"}

// RegisterRoutes installs the global middleware chain and every route.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.HTTPMetrics(d.Registry))

	// Operational endpoints carry no session.
	e.GET("/healthz", d.Health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	sf := d.Storefront
	site := e.Group("",
		middleware.Session(middleware.SessionOptions{
			Secret:     d.Cfg.Session.Secret,
			CookieName: d.Cfg.Session.CookieName,
			TTL:        d.Cfg.Session.TTL,
			Secure:     d.Cfg.Session.Secure,
		}),
		middleware.RememberPath(sf.Sessions.SetRedirect, noRedirectRecord...),
		middleware.RequireLogin(d.Cfg.Session.AuthRequired, sf.IsLoggedIn, openPaths...),
	)

	RegisterAuth(site, sf, d)
	RegisterPages(site, sf)
	RegisterCart(site, sf)
	RegisterAPI(site, sf, d)
}

// RegisterAuth registers the login form and logout.  Login attempts are
// rate limited per client and session.
func RegisterAuth(g *echo.Group, sf *handler.Storefront, d Deps) {
	g.GET("/login", sf.LoginForm)
	g.POST("/login", sf.Login, middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis))
	g.POST("/logout", sf.Logout)
}

// RegisterPages registers the browsing pages, the payment flow and the
// event stream.
func RegisterPages(g *echo.Group, sf *handler.Storefront) {
	g.GET("/", sf.Root)
	g.GET("/movies", sf.Movies)
	g.GET("/movies/search", sf.Search)
	g.GET("/movies/:id", sf.Movie)
	g.GET("/stars/:id", sf.Star)
	g.GET("/genres", sf.Stub("Genres"))
	g.GET("/stars", sf.Stub("Stars"))
	g.GET("/payment", sf.Payment)
	g.POST("/payment", sf.Pay)
	g.GET("/events", sf.Events)
}
