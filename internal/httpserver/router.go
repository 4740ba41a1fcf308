package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/handlers"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
)

type Deps struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Categories *handlers.CategoryHandler
	Products   *handlers.ProductHandler
	Cart       *handlers.CartHandler
	Orders     *handlers.OrderHandler
	Search     *handlers.SearchHandler
	Gate       *mwauth.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me, d.Gate.RequireUser)

	products := api.Group("/products")
	products.GET("", d.Products.ListProducts)
	if d.Search != nil {
		products.GET("/search", d.Search.SearchProducts)
	}
	products.GET("/:id", d.Products.GetProduct)
	products.POST("", d.Products.CreateProduct, d.Gate.RequireAdmin)
	products.PUT("/:id", d.Products.UpdateProduct, d.Gate.RequireAdmin)
	products.DELETE("/:id", d.Products.DeleteProduct, d.Gate.RequireAdmin)

	categories := api.Group("/categories")
	categories.GET("", d.Categories.ListCategories)
	categories.GET("/:id", d.Categories.GetCategory)
	categories.POST("", d.Categories.CreateCategory, d.Gate.RequireAdmin)
	categories.PUT("/:id", d.Categories.UpdateCategory, d.Gate.RequireAdmin)
	categories.DELETE("/:id", d.Categories.DeleteCategory, d.Gate.RequireAdmin)

	cart := api.Group("/cart", d.Gate.RequireUser)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddItem)
	cart.PUT("/:productId", d.Cart.UpdateItem)
	cart.DELETE("/:productId", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.ClearCart)

	orders := api.Group("/orders", d.Gate.RequireUser)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/myorders", d.Orders.MyOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("", d.Orders.ListAllOrders, d.Gate.RequireAdmin)
	orders.PUT("/:id/status", d.Orders.UpdateStatus, d.Gate.RequireAdmin)
	orders.PUT("/:id/cancel", d.Orders.CancelOrder)

	users := api.Group("/users")
	users.PUT("/me", d.Users.UpdateMe, d.Gate.RequireUser)
	users.GET("", d.Users.ListUsers, d.Gate.RequireAdmin)
	users.DELETE("/:id", d.Users.DeleteUser, d.Gate.RequireAdmin)
}
