package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lvlup/bookstore/internal/api"
)

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

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	view, err := h.service.GetUserCart(r.Context(), p.Email)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}

type addItemRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteValidationError(w, r, map[string]any{"body": "invalid request body"})
		return
	}
	if req.BookID <= 0 {
		api.WriteValidationError(w, r, map[string]any{"bookId": "must be a positive id"})
		return
	}
	if req.Quantity < 1 {
		api.WriteValidationError(w, r, map[string]any{"quantity": "must be at least 1"})
		return
	}

	view, err := h.service.AddItem(r.Context(), p.Email, req.BookID, req.Quantity)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		api.WriteValidationError(w, r, map[string]any{"itemId": "must be a numeric id"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteValidationError(w, r, map[string]any{"body": "invalid request body"})
		return
	}
	if req.Quantity < 1 {
		api.WriteValidationError(w, r, map[string]any{"quantity": "must be at least 1"})
		return
	}

	view, err := h.service.UpdateItemQuantity(r.Context(), p.Email, itemID, req.Quantity)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	p, _ := api.PrincipalFrom(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		api.WriteValidationError(w, r, map[string]any{"itemId": "must be a numeric id"})
		return
	}

	view, err := h.service.RemoveItem(r.Context(), p.Email, itemID)
	if err != nil {
		api.WriteError(w, r, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, view)
}
