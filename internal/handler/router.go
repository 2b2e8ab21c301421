package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/checkout-sim/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware симулятора кассы.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Post("/api/games", h.CreateGame)

	r.Route("/api/game", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/", h.GetSnapshot)
		r.Get("/events", h.GetEvents)
		r.Get("/receipts", h.GetReceipts)
		r.Get("/mistakes", h.GetMistakes)

		r.Post("/scan", h.Scan)
		r.Post("/scan-flat", h.ScanFlat)
		r.Post("/barcode", h.SwapBarcode)
		r.Post("/brand", h.SwapBrand)
		r.Delete("/brand", h.CancelBrandSwap)

		r.Post("/change/deposit", h.DepositChange)
		r.Post("/change/withdraw", h.WithdrawChange)

		r.Post("/checkout", h.Checkout)
		r.Post("/fraud-mode", h.ToggleFraudMode)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
