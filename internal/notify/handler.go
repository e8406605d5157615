package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lvlup/bookstore/internal/domain"
)

// Handler consumes order placed events and records a confirmation
// notification for the customer. Stock and order state are already
// settled by the placement transaction, so this worker only notifies.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	if event.OrderNumber == "" || event.UserEmail == "" {
		return fmt.Errorf("order placed event missing identifiers: %s", string(payload))
	}

	// There is no mail service to hand off to; the confirmation is
	// recorded in the log stream.
	h.logger.Info("order confirmation notification",
		"order_number", event.OrderNumber,
		"user", event.UserEmail,
		"total", event.TotalAmount.String(),
		"items", len(event.Items),
	)

	return nil
}
