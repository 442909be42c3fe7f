package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-grocery/controllers"
	"go-grocery/middleware"
	"go-grocery/utils"
)

// Controllers groups the handlers served by the API.
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
	Admin    *controllers.AdminController
	Health   http.HandlerFunc
}

// RegisterRoutes sets up all the routes for the application under /api.
// Literal paths are registered before their {id} siblings.
func RegisterRoutes(router *mux.Router, tokens *utils.TokenManager, c Controllers) {
	auth := middleware.AuthMiddleware(tokens)
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth(middleware.AdminMiddleware(h)) }

	api := router.PathPrefix("/api").Subrouter()

	api.Handle("/health", c.Health).Methods(http.MethodGet)

	// Auth routes
	api.HandleFunc("/auth/register", c.Users.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", c.Users.Login).Methods(http.MethodPost)
	api.Handle("/auth/profile", authed(c.Users.GetProfile)).Methods(http.MethodGet)
	api.Handle("/auth/profile", authed(c.Users.UpdateProfile)).Methods(http.MethodPut)

	// Product routes
	api.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/categories", c.Products.GetCategories).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	api.Handle("/products", admin(c.Products.CreateProduct)).Methods(http.MethodPost)
	api.Handle("/products/{id}", admin(c.Products.UpdateProduct)).Methods(http.MethodPut)
	api.Handle("/products/{id}", admin(c.Products.DeleteProduct)).Methods(http.MethodDelete)

	// Cart routes
	api.Handle("/cart", authed(c.Carts.GetCart)).Methods(http.MethodGet)
	api.Handle("/cart", authed(c.Carts.ClearCart)).Methods(http.MethodDelete)
	api.Handle("/cart/items", authed(c.Carts.AddToCart)).Methods(http.MethodPost)
	api.Handle("/cart/items/{productId}", authed(c.Carts.UpdateCartItem)).Methods(http.MethodPut)
	api.Handle("/cart/items/{productId}", authed(c.Carts.RemoveFromCart)).Methods(http.MethodDelete)

	// Order routes
	api.Handle("/orders", authed(c.Orders.CreateOrder)).Methods(http.MethodPost)
	api.Handle("/orders", admin(c.Orders.GetOrders)).Methods(http.MethodGet)
	api.Handle("/orders/myorders", authed(c.Orders.GetMyOrders)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", authed(c.Orders.GetOrderByID)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/pay", authed(c.Orders.UpdateOrderToPaid)).Methods(http.MethodPut)
	api.Handle("/orders/{id}/deliver", admin(c.Orders.UpdateOrderToDelivered)).Methods(http.MethodPut)
	api.Handle("/orders/{id}/status", admin(c.Orders.UpdateOrderStatus)).Methods(http.MethodPut)

	// Admin routes
	api.Handle("/admin/stats", admin(c.Admin.GetStats)).Methods(http.MethodGet)
	api.Handle("/admin/users", admin(c.Admin.GetUsers)).Methods(http.MethodGet)
	api.Handle("/admin/users/{id}", admin(c.Admin.DeleteUser)).Methods(http.MethodDelete)
	api.Handle("/admin/orders", admin(c.Admin.GetRecentOrders)).Methods(http.MethodGet)
}
