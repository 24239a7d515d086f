package http

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the storefront API on r. Callers add global
// middleware (request ids, logging, recovery, timeouts) before calling it.
func RegisterRoutes(r chi.Router, carts *CartHandler, products *ProductHandler) {
	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(DeviceMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Patch("/items/{id}", carts.UpdateQuantity)
			r.Delete("/items/{id}", carts.RemoveItem)
			r.Post("/checkout", carts.Checkout)
		})

		r.Get("/collections", products.ListCollections)
		r.Get("/collections/{slug}", products.GetCollection)
		r.Get("/products", products.ListProducts)
		r.Get("/products/{slug}", products.GetProduct)
		r.Post("/products/{slug}/buy-now", products.BuyNow)
	})
}
