package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-storefront/internal/handler"
	"github.com/iliyamo/movie-storefront/internal/middleware"
)

// RegisterAPI registers the JSON endpoints under /api.  The browse lists
// are shared by every visitor and go through the response cache; the cart
// summary is per session and never cached.
func RegisterAPI(g *echo.Group, sf *handler.Storefront, d Deps) {
	api := g.Group("/api")
	api.GET("/cart", sf.CartJSON)

	cached := api.Group("", middleware.NewRedisCache(d.Cfg.Cache, d.Redis))
	cached.GET("/movies", sf.TopMovies)
	cached.GET("/genres", sf.Genres)
	cached.GET("/title-initials", sf.TitleInitials)
}
