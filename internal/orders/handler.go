package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lvlup/bookstore/internal/api"
	"github.com/lvlup/bookstore/internal/domain"
)

const defaultPageSize = 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteValidationError(w, r, map[string]any{"body": "invalid request body"})
		return
	}

	view, err := h.service.PlaceOrder(r.Context(), p.Email, req.ShippingAddress)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, view)
}

func (h *Handler) HandleGetMyOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		api.WriteValidationError(w, r, map[string]any{"orderId": "must be a numeric id"})
		return
	}

	view, err := h.service.GetUserOrder(r.Context(), orderID, p.Email)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}

func (h *Handler) HandleListMyOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	page, size, status, ok := h.listParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListUserOrders(r.Context(), p.Email, status, page, size)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	page, size, status, ok := h.listParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListAllOrders(r.Context(), status, page, size)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		api.WriteValidationError(w, r, map[string]any{"orderId": "must be a numeric id"})
		return
	}

	newStatus, err := domain.ParseOrderStatus(r.URL.Query().Get("newStatus"))
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	view, err := h.service.UpdateOrderStatus(r.Context(), orderID, newStatus)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}

func (h *Handler) listParams(w http.ResponseWriter, r *http.Request) (page, size int, status *domain.OrderStatus, ok bool) {
	query := r.URL.Query()

	page = 0
	if raw := query.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.WriteValidationError(w, r, map[string]any{"page": "must be an integer"})
			return 0, 0, nil, false
		}
		page = parsed
	}

	size = defaultPageSize
	if raw := query.Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.WriteValidationError(w, r, map[string]any{"size": "must be an integer"})
			return 0, 0, nil, false
		}
		size = parsed
	}

	if raw := query.Get("status"); raw != "" {
		parsed, err := domain.ParseOrderStatus(raw)
		if err != nil {
			api.WriteError(w, r, h.logger, err)
			return 0, 0, nil, false
		}
		status = &parsed
	}

	return page, size, status, true
}
