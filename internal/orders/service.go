package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lvlup/bookstore/internal/cart"
	"github.com/lvlup/bookstore/internal/catalog"
	"github.com/lvlup/bookstore/internal/domain"
	"github.com/lvlup/bookstore/internal/storage"
)

const (
	maxShippingAddressLen  = 500
	maxOrderNumberAttempts = 3
)

// CartStore is the slice of the cart repository the placement path needs.
type CartStore interface {
	FindCartByUser(ctx context.Context, q storage.Querier, userEmail string) (*domain.ShoppingCart, error)
	ListItemsWithBooks(ctx context.Context, q storage.Querier, cartID int64) ([]cart.ItemWithBook, error)
	ClearCart(ctx context.Context, q storage.Querier, cartID int64) error
}

// EventPublisher emits domain events after a placement commits. May be
// nil-valued in wiring (no brokers configured); publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// stockInvalidator is implemented by cache-backed book stores. Cached
// entries must only be dropped once the placement transaction committed,
// so invalidation lives here rather than in the decrement itself.
type stockInvalidator interface {
	Invalidate(ctx context.Context, id int64)
}

type ItemView struct {
	ID              int64           `json:"id"`
	Book            *domain.Book    `json:"book"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type OrderView struct {
	ID              int64              `json:"id"`
	OrderNumber     string             `json:"orderNumber"`
	UserEmail       string             `json:"userEmail"`
	Items           []ItemView         `json:"items"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	Status          domain.OrderStatus `json:"status"`
	ShippingAddress string             `json:"shippingAddress"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type Page struct {
	Data          []OrderView `json:"data"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int64       `json:"totalPages"`
	CurrentPage   int         `json:"currentPage"`
	PageSize      int         `json:"pageSize"`
}

// Service is the order placement orchestrator. Placement validates the
// cart against a snapshot, then performs every write inside one
// transaction with the per-book conditional decrement as the final
// authority, so concurrent orders for the last unit cannot both commit.
type Service struct {
	db        *sql.DB
	orders    *Repository
	carts     CartStore
	books     catalog.BookStore
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(db *sql.DB, orders *Repository, carts CartStore, books catalog.BookStore, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		orders:    orders,
		carts:     carts,
		books:     books,
		publisher: publisher,
		logger:    logger,
	}
}

type orderLine struct {
	book     *domain.Book
	quantity int
	price    decimal.Decimal
}

func (s *Service) PlaceOrder(ctx context.Context, userEmail, shippingAddress string) (*OrderView, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping address is required", domain.ErrValidation)
	}
	if len(shippingAddress) > maxShippingAddressLen {
		return nil, fmt.Errorf("%w: shipping address exceeds %d characters", domain.ErrValidation, maxShippingAddressLen)
	}

	userCart, err := s.carts.FindCartByUser(ctx, s.db, userEmail)
	if err != nil {
		return nil, err
	}
	if userCart == nil {
		return nil, fmt.Errorf("%w: cannot create order without a cart", domain.ErrEmptyCart)
	}

	lines, total, err := s.validateCart(ctx, userCart.ID)
	if err != nil {
		return nil, err
	}

	// An order number collision aborts the whole transaction (postgres
	// refuses further statements after a unique violation), so the retry
	// restarts the placement with a fresh number.
	var order *domain.Order
	for attempt := 0; ; attempt++ {
		order, err = s.placeOnce(ctx, userEmail, shippingAddress, userCart.ID, lines, total)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateResource) || attempt+1 >= maxOrderNumberAttempts {
			return nil, err
		}
		s.logger.Warn("order number collision, retrying placement", "user", userEmail, "attempt", attempt+1)
	}

	s.logger.Info("order placed", "order_number", order.OrderNumber, "user", userEmail, "total", total.String())
	s.publishPlaced(ctx, order, lines)

	return s.assembleView(ctx, order)
}

// placeOnce performs every placement write in a single transaction. The
// conditional decrement is the final authority: the validation snapshot
// may already be stale, and a failed decrement aborts everything via the
// deferred rollback.
func (s *Service) placeOnce(ctx context.Context, userEmail, shippingAddress string, cartID int64, lines []orderLine, total decimal.Decimal) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order := &domain.Order{
		UserEmail:       userEmail,
		OrderNumber:     newOrderNumber(time.Now()),
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}
	if err := s.orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	for _, line := range lines {
		item := &domain.OrderItem{
			OrderID:         order.ID,
			BookID:          line.book.ID,
			Quantity:        line.quantity,
			PriceAtPurchase: line.price,
		}
		if err := s.orders.SaveLineItem(ctx, tx, item); err != nil {
			return nil, err
		}

		ok, err := s.books.DecrementStock(ctx, tx, line.book.ID, line.quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: failed to deduct stock for book %d, concurrent stock issue",
				domain.ErrInsufficientStock, line.book.ID)
		}
	}

	if err := s.carts.ClearCart(ctx, tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if inv, ok := s.books.(stockInvalidator); ok {
		for _, line := range lines {
			inv.Invalidate(ctx, line.book.ID)
		}
	}

	return order, nil
}

// validateCart loads the cart snapshot and checks every line. A missing
// book fails the whole placement: unlike the cart read path, which purges
// dead references from display, at order time the user committed to buy
// these exact items.
func (s *Service) validateCart(ctx context.Context, cartID int64) ([]orderLine, decimal.Decimal, error) {
	entries, err := s.carts.ListItemsWithBooks(ctx, s.db, cartID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if len(entries) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: cannot create order from empty cart", domain.ErrEmptyCart)
	}

	lines := make([]orderLine, 0, len(entries))
	total := decimal.Zero
	for _, entry := range entries {
		if entry.Book == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: book with id %d", domain.ErrNotFound, entry.Item.BookID)
		}
		if entry.Book.Stock < entry.Item.Quantity {
			return nil, decimal.Zero, fmt.Errorf("%w for book %q: available %d, required %d",
				domain.ErrInsufficientStock, entry.Book.Title, entry.Book.Stock, entry.Item.Quantity)
		}

		lines = append(lines, orderLine{
			book:     entry.Book,
			quantity: entry.Item.Quantity,
			price:    entry.Book.Price,
		})
		total = total.Add(entry.Book.Price.Mul(decimal.NewFromInt(int64(entry.Item.Quantity))))
	}

	return lines, total, nil
}

func (s *Service) publishPlaced(ctx context.Context, order *domain.Order, lines []orderLine) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserEmail:   order.UserEmail,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.CreatedAt,
	}
	for _, line := range lines {
		event.Items = append(event.Items, domain.OrderPlacedItem{
			BookID:          line.book.ID,
			Quantity:        line.quantity,
			PriceAtPurchase: line.price,
		})
	}

	if err := s.publisher.Publish(ctx, order.OrderNumber, event); err != nil {
		s.logger.Error("failed to publish order placed event", "error", err, "order_number", order.OrderNumber)
	}
}

// GetUserOrder distinguishes absent (not found) from owned-by-someone-else
// (authorization failure).
func (s *Service) GetUserOrder(ctx context.Context, orderID int64, userEmail string) (*OrderView, error) {
	order, err := s.orders.FindByIDForUser(ctx, s.db, orderID, userEmail)
	if err != nil {
		return nil, err
	}
	if order == nil {
		other, err := s.orders.FindByID(ctx, s.db, orderID)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, fmt.Errorf("%w: you don't have permission to view this order", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: order with id %d", domain.ErrNotFound, orderID)
	}
	return s.assembleView(ctx, order)
}

func (s *Service) ListUserOrders(ctx context.Context, userEmail string, status *domain.OrderStatus, page, size int) (*Page, error) {
	page, size = clampPage(page), clampPageSize(size)

	list, err := s.orders.ListForUser(ctx, s.db, userEmail, status, page, size)
	if err != nil {
		return nil, err
	}
	count, err := s.orders.CountForUser(ctx, s.db, userEmail, status)
	if err != nil {
		return nil, err
	}

	return s.assemblePage(ctx, list, count, page, size)
}

func (s *Service) ListAllOrders(ctx context.Context, status *domain.OrderStatus, page, size int) (*Page, error) {
	page, size = clampPage(page), clampPageSize(size)

	list, err := s.orders.ListAll(ctx, s.db, status, page, size)
	if err != nil {
		return nil, err
	}
	count, err := s.orders.CountAll(ctx, s.db, status)
	if err != nil {
		return nil, err
	}

	return s.assemblePage(ctx, list, count, page, size)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus domain.OrderStatus) (*OrderView, error) {
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order with id %d", domain.ErrNotFound, orderID)
	}

	if err := domain.ValidateTransition(order.Status, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdateStatus(ctx, s.db, orderID, newStatus)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: order with id %d", domain.ErrNotFound, orderID)
	}

	s.logger.Info("order status updated", "order_id", orderID, "from", order.Status, "to", newStatus)
	return s.assembleView(ctx, updated)
}

func (s *Service) assembleView(ctx context.Context, order *domain.Order) (*OrderView, error) {
	lines, err := s.orders.ListLineItemsWithBooks(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	return buildView(order, lines), nil
}

func (s *Service) assemblePage(ctx context.Context, list []domain.Order, count int64, page, size int) (*Page, error) {
	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	grouped, err := s.orders.ListLineItemsForOrders(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(list))
	for i := range list {
		views = append(views, *buildView(&list[i], grouped[list[i].ID]))
	}

	return &Page{
		Data:          views,
		TotalElements: count,
		TotalPages:    totalPages(count, size),
		CurrentPage:   page,
		PageSize:      size,
	}, nil
}

func buildView(order *domain.Order, lines []LineWithBook) *OrderView {
	view := &OrderView{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserEmail:       order.UserEmail,
		Items:           []ItemView{},
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}

	for _, line := range lines {
		view.Items = append(view.Items, ItemView{
			ID:              line.Item.ID,
			Book:            line.Book,
			Quantity:        line.Item.Quantity,
			PriceAtPurchase: line.Item.PriceAtPurchase,
			Subtotal:        line.Item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(line.Item.Quantity))),
		})
	}

	return view
}

func clampPage(page int) int {
	return max(0, page)
}

func clampPageSize(size int) int {
	return min(max(1, size), 100)
}

func totalPages(totalElements int64, size int) int64 {
	if totalElements == 0 {
		return 0
	}
	return (totalElements + int64(size) - 1) / int64(size)
}
