package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mcastro/storefront/pkg/metrics"
)

func NewRouter(h *HTTPHandler, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", m.Instrument("get_cart", h.GetCart))
		r.Post("/cart/items", m.Instrument("add_cart_item", h.AddCartItem))
		r.Put("/cart/items/{productID}", m.Instrument("update_cart_item", h.UpdateCartItem))
		r.Delete("/cart/items/{productID}", m.Instrument("remove_cart_item", h.RemoveCartItem))

		r.Post("/checkout", m.Instrument("checkout", h.Checkout))

		r.Get("/inventory/{productID}", m.Instrument("get_stock", h.GetStockLevel))
		r.Post("/inventory/{productID}/restock", m.Instrument("restock", h.Restock))
	})

	return r
}
