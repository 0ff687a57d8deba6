package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-storefront/internal/handler"
)

// RegisterCart registers the shopping cart page and its form actions.  Each
// action redirects back to a page, so the browser never resubmits on
// reload.
func RegisterCart(g *echo.Group, sf *handler.Storefront) {
	g.GET("/shopping-cart", sf.Cart)
	g.POST("/shopping-cart", sf.AddToCart)
	g.POST("/shopping-cart/:id/increase", sf.IncreaseItem)
	g.POST("/shopping-cart/:id/decrease", sf.DecreaseItem)
	g.POST("/shopping-cart/:id/remove", sf.RemoveItem)
}
