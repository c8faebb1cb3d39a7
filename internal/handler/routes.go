package handler

import "github.com/go-chi/chi/v5"

// Routes mount under /api/v1/users.
func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/by-email/{email}", h.GetByEmail)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/deactivate", h.Deactivate)
}

// Routes mount under /api/v1/products.
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/by-sku/{sku}", h.GetBySKU)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/stock", h.AdjustStock)
	r.Get("/{id}/stock-movements", h.StockMovements)
	r.Post("/{id}/discontinue", h.Discontinue)
}

// Routes mount under /api/v1/orders.
func (h *OrderHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/events", h.Events)
}
