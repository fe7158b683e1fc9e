package routes

import (
	"pfw-commerce/controllers"
	"pfw-commerce/middleware"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, userController *controllers.UserController, productController *controllers.ProductController, cartController *controllers.CartController, orderController *controllers.OrderController) {
	// Public routes
	router.HandleFunc("/register", userController.Register).Methods("POST")
	router.HandleFunc("/login", userController.Login).Methods("POST")
	router.HandleFunc("/verify", userController.VerifyEmail).Methods("GET")

	// Catalog browsing
	router.HandleFunc("/products", productController.GetProducts).Methods("GET")
	router.HandleFunc("/products/trending", productController.GetTrending).Methods("GET")
	router.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")
	router.HandleFunc("/categories", productController.GetCategories).Methods("GET")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/profile", userController.GetProfile).Methods("GET")

	// Cart routes
	protected.HandleFunc("/add-to-cart", cartController.AddToCart).Methods("POST")
	protected.HandleFunc("/cart", cartController.GetCart).Methods("GET")
	protected.HandleFunc("/update-cart-item/{item_id}", cartController.UpdateCartItem).Methods("POST")
	protected.HandleFunc("/remove-from-cart/{item_id}", cartController.RemoveFromCart).Methods("DELETE")
	protected.HandleFunc("/clear-cart", cartController.ClearCart).Methods("DELETE")

	// Order routes
	protected.HandleFunc("/create-order", orderController.CreateOrder).Methods("POST")
	protected.HandleFunc("/my-orders", orderController.GetMyOrders).Methods("GET")
	protected.HandleFunc("/order/{order_id}", orderController.GetOrderDetail).Methods("GET")

	// Admin routes
	admin := router.PathPrefix("/").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/products", productController.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", productController.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", productController.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/variants", productController.CreateVariant).Methods("POST")
	admin.HandleFunc("/order/{order_id}/status", orderController.UpdateOrderStatus).Methods("PUT")
}
