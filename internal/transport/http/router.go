package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/shophub/backend/internal/handlers"
	orderhdl "github.com/shophub/backend/internal/handlers/order"
	authmw "github.com/shophub/backend/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	UserHandler    *handlers.UserHandler
	SearchHandler  *handlers.SearchHandler
	OrderHandler   *orderhdl.OrderHandler
	CartHandler    *orderhdl.CartHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	login := authmw.RequireLogin(d.JWTSecret)
	admin := authmw.AdminOnly()

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/profile", d.AuthHandler.Profile, login)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, login, admin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, login, admin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, login, admin)

	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.Search)
	}

	users := api.Group("/users")
	users.POST("/address", d.UserHandler.SaveAddress, login)
	users.GET("/addresses", d.UserHandler.ListAddresses, login)
	users.GET("", d.UserHandler.ListUsers, login, admin)

	orders := api.Group("/orders", login)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/myorders", d.OrderHandler.MyOrders)
	orders.GET("", d.OrderHandler.ListOrders, admin)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/confirm", d.OrderHandler.ConfirmOrder, admin)
	orders.PUT("/:id/deliver", d.OrderHandler.DeliverOrder, admin)
	orders.PUT("/:id/cancel", d.OrderHandler.CancelOrder)

	cart := api.Group("/cart", login)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:productId", d.CartHandler.UpdateCartItem)
	cart.DELETE("/:productId", d.CartHandler.RemoveFromCart)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
