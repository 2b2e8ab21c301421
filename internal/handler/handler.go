// Package handler содержит HTTP-обработчики API симулятора кассы.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/checkout-sim/internal/game"
	"github.com/mmeshcher/checkout-sim/internal/middleware"
	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/service"
)

// Service определяет контракт управления играми, используемый HTTP-обработчиками.
type Service interface {
	CreateGame(ctx context.Context) (string, error)
	Snapshot(ctx context.Context, id string) (game.Snapshot, error)
	Events(ctx context.Context, id string) ([]game.Event, error)
	Receipts(ctx context.Context, id string) ([]model.Receipt, error)
	Mistakes(ctx context.Context, id string) ([]model.Mistake, error)
	Scan(ctx context.Context, id, instanceID string) (game.Outcome, error)
	ScanFlat(ctx context.Context, id string, value int64) (game.Outcome, error)
	SwapBarcode(ctx context.Context, id, instanceID string, label model.BarcodeLabel) (game.Outcome, error)
	SwapBrand(ctx context.Context, id, instanceID string, target model.BrandGrade) (game.Outcome, error)
	CancelBrandSwap(ctx context.Context, id string) (game.Outcome, error)
	Deposit(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error)
	Withdraw(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error)
	Checkout(ctx context.Context, id string) (game.Outcome, error)
	ToggleFraudMode(ctx context.Context, id string) (game.Outcome, error)
}

// Handler реализует HTTP-обработчики API симулятора кассы.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type createGameResponse struct {
	ID string `json:"id"`
}

// CreateGame запускает новую игру и выдаёт cookie для неё.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.CreateGame(r.Context())
	if err != nil {
		h.writeError(w, "create game error", "", err)
		return
	}

	h.authMiddleware.SetGameCookie(w, id)
	h.writeJSON(w, http.StatusCreated, createGameResponse{ID: id})
}

// GetSnapshot возвращает состояние текущей игры.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "get snapshot error", gameID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// GetEvents забирает накопленные события игры.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	events, err := h.service.Events(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "get events error", gameID, err)
		return
	}

	if len(events) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

// GetReceipts возвращает чеки завершённых продаж.
func (h *Handler) GetReceipts(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	receipts, err := h.service.Receipts(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "get receipts error", gameID, err)
		return
	}

	if len(receipts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, receipts)
}

// GetMistakes возвращает журнал ошибок игрока.
func (h *Handler) GetMistakes(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	mistakes, err := h.service.Mistakes(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "get mistakes error", gameID, err)
		return
	}

	if len(mistakes) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, mistakes)
}

type scanRequest struct {
	InstanceID string `json:"instance_id"`
}

// Scan пробивает единицу товара.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstanceID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	out, err := h.service.Scan(r.Context(), gameID, req.InstanceID)
	h.writeOutcome(w, "scan error", gameID, out, err)
}

type scanFlatRequest struct {
	Value int64 `json:"value"`
}

// ScanFlat пробивает наклейку с фиксированной суммой.
func (h *Handler) ScanFlat(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	var req scanFlatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	out, err := h.service.ScanFlat(r.Context(), gameID, req.Value)
	h.writeOutcome(w, "scan flat error", gameID, out, err)
}

type barcodeRequest struct {
	InstanceID string `json:"instance_id"`
	Barcode    string `json:"barcode"`
	Price      int64  `json:"price,omitempty"`
}

// SwapBarcode переклеивает ценник. Без цены берётся наклейка из инвентаря.
func (h *Handler) SwapBarcode(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	var req barcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstanceID == "" || req.Barcode == "" || req.Price < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	label := model.BarcodeLabel{ID: req.Barcode, Price: req.Price}
	out, err := h.service.SwapBarcode(r.Context(), gameID, req.InstanceID, label)
	h.writeOutcome(w, "swap barcode error", gameID, out, err)
}

type brandRequest struct {
	InstanceID string            `json:"instance_id"`
	Brand      *model.BrandGrade `json:"brand"`
}

// SwapBrand взводит подмену марки.
func (h *Handler) SwapBrand(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	var req brandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstanceID == "" || req.Brand == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	out, err := h.service.SwapBrand(r.Context(), gameID, req.InstanceID, *req.Brand)
	h.writeOutcome(w, "swap brand error", gameID, out, err)
}

// CancelBrandSwap отменяет взведённую подмену марки.
func (h *Handler) CancelBrandSwap(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	out, err := h.service.CancelBrandSwap(r.Context(), gameID)
	h.writeOutcome(w, "cancel brand swap error", gameID, out, err)
}

type changeRequest struct {
	Amount int64 `json:"amount"`
	Fake   bool  `json:"fake"`
}

func decodeChange(w http.ResponseWriter, r *http.Request) (changeRequest, bool) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// DepositChange кладёт деньги в лоток сдачи.
func (h *Handler) DepositChange(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}
	req, ok := decodeChange(w, r)
	if !ok {
		return
	}

	out, err := h.service.Deposit(r.Context(), gameID, req.Amount, req.Fake)
	h.writeOutcome(w, "deposit change error", gameID, out, err)
}

// WithdrawChange забирает деньги из лотка сдачи.
func (h *Handler) WithdrawChange(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}
	req, ok := decodeChange(w, r)
	if !ok {
		return
	}

	out, err := h.service.Withdraw(r.Context(), gameID, req.Amount, req.Fake)
	h.writeOutcome(w, "withdraw change error", gameID, out, err)
}

// Checkout продвигает оплату.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	out, err := h.service.Checkout(r.Context(), gameID)
	h.writeOutcome(w, "checkout error", gameID, out, err)
}

// ToggleFraudMode переключает режим махинаций.
func (h *Handler) ToggleFraudMode(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameFromRequest(w, r)
	if !ok {
		return
	}

	out, err := h.service.ToggleFraudMode(r.Context(), gameID)
	h.writeOutcome(w, "toggle fraud mode error", gameID, out, err)
}

func gameFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	gameID, ok := middleware.GetGameIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return "", false
	}
	return gameID, true
}

// writeOutcome отвечает результатом намерения: отклонённое намерение - 409.
func (h *Handler) writeOutcome(w http.ResponseWriter, msg, gameID string, out game.Outcome, err error) {
	if err != nil {
		h.writeError(w, msg, gameID, err)
		return
	}

	status := http.StatusOK
	if out.Status == game.NotAllowed {
		status = http.StatusConflict
	}
	h.writeJSON(w, status, out)
}

func (h *Handler) writeError(w http.ResponseWriter, msg, gameID string, err error) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrServiceClosed):
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled):
		// клиент ушёл
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("gameID", gameID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}
