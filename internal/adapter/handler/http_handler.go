package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/core/service"
	"github.com/mcastro/storefront/pkg/metrics"
)

// userIDHeader carries the authenticated user's identity, resolved by
// the auth layer in front of this service.
const userIDHeader = "X-User-ID"

type HTTPHandler struct {
	carts     *service.CartService
	checkout  *service.CheckoutService
	inventory *service.InventoryService
	metrics   *metrics.ServerMetrics
}

func NewHTTPHandler(
	carts *service.CartService,
	checkout *service.CheckoutService,
	inventory *service.InventoryService,
	m *metrics.ServerMetrics,
) *HTTPHandler {
	return &HTTPHandler{
		carts:     carts,
		checkout:  checkout,
		inventory: inventory,
		metrics:   m,
	}
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

type cartItemResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type cartResponse struct {
	ID      string             `json:"id"`
	OwnerID string             `json:"owner_id"`
	Items   []cartItemResponse `json:"items"`
}

type checkoutResponse struct {
	Status string             `json:"status"`
	CartID string             `json:"cart_id"`
	Items  []cartItemResponse `json:"items"`
}

type stockResponse struct {
	ProductID int64 `json:"product_id"`
	Available int   `json:"available"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	result, err := h.checkout.Checkout(r.Context(), userID)
	if err != nil {
		h.metrics.ObserveCheckout(checkoutOutcome(err))
		h.writeDomainError(w, err)
		return
	}

	h.metrics.ObserveCheckout("success")
	items := make([]cartItemResponse, 0, len(result.Lines))
	for _, line := range result.Lines {
		items = append(items, cartItemResponse{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	writeJSON(w, http.StatusOK, checkoutResponse{
		Status: "completed",
		CartID: result.CartID,
		Items:  items,
	})
}

func (h *HTTPHandler) GetStockLevel(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	available, err := h.inventory.GetStock(r.Context(), productID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ProductID: productID, Available: available})
}

func (h *HTTPHandler) Restock(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	available, err := h.inventory.Restock(r.Context(), productID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ProductID: productID, Available: available})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id_required", userIDHeader+" header is required")
		return "", false
	}
	return userID, true
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "productID must be an integer")
		return 0, false
	}
	return productID, true
}

func (h *HTTPHandler) writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.StockError
	productID := int64(0)
	if errors.As(err, &stockErr) {
		productID = stockErr.ProductID
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeErrorProduct(w, http.StatusBadRequest, "invalid_quantity", err.Error(), productID)
	case errors.Is(err, domain.ErrLineNotFound):
		writeErrorProduct(w, http.StatusNotFound, "line_not_found", err.Error(), productID)
	case errors.Is(err, domain.ErrProductNotFound):
		writeErrorProduct(w, http.StatusNotFound, "product_not_found", err.Error(), productID)
	case errors.Is(err, domain.ErrEmptyCart):
		writeErrorProduct(w, http.StatusConflict, "empty_cart", err.Error(), productID)
	case errors.Is(err, domain.ErrInsufficientStock):
		writeErrorProduct(w, http.StatusConflict, "insufficient_stock", err.Error(), productID)
	case errors.Is(err, domain.ErrTransientContention):
		writeErrorProduct(w, http.StatusServiceUnavailable, "contention", "temporarily contended, retry", productID)
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrTransientContention):
		return "contention"
	default:
		return "error"
	}
}

func mapCart(cart *domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Lines))
	for _, line := range cart.SortedLines() {
		items = append(items, cartItemResponse{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return cartResponse{ID: cart.ID, OwnerID: cart.OwnerID, Items: items}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeErrorProduct(w http.ResponseWriter, status int, code, message string, productID int64) {
	writeJSON(w, status, errorResponse{Error: code, Message: message, ProductID: productID})
}
