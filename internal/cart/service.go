package cart

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lvlup/bookstore/internal/catalog"
	"github.com/lvlup/bookstore/internal/domain"
)

// ItemView is a cart line joined with its live book; Subtotal uses the
// current catalog price, which is only frozen later, at order placement.
type ItemView struct {
	ID             int64           `json:"id"`
	Book           *domain.Book    `json:"book"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"availableStock"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type View struct {
	ID          int64           `json:"id"`
	Items       []ItemView      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type Service struct {
	db     *sql.DB
	carts  *Repository
	books  catalog.BookStore
	logger *slog.Logger
}

func NewService(db *sql.DB, carts *Repository, books catalog.BookStore, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		carts:  carts,
		books:  books,
		logger: logger,
	}
}

// GetOrCreateCart is idempotent: first access for a user creates an empty
// cart. The unique constraint on user_email backstops the create race.
func (s *Service) GetOrCreateCart(ctx context.Context, userEmail string) (*domain.ShoppingCart, error) {
	cart, err := s.carts.FindCartByUser(ctx, s.db, userEmail)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart, err = s.carts.CreateCart(ctx, s.db, userEmail)
	if err != nil {
		// Lost the create race; the other writer's cart is ours too.
		if existing, findErr := s.carts.FindCartByUser(ctx, s.db, userEmail); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, nil
}

// GetUserCart returns the cart view, deleting any line whose book no
// longer exists so the cart stays consistent with the live catalog.
func (s *Service) GetUserCart(ctx context.Context, userEmail string) (*View, error) {
	cart, err := s.GetOrCreateCart(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.buildViewAndPurge(ctx, cart)
}

// AddItem upserts on (cart, book): an existing line grows by quantity.
// Stock is pre-checked against the combined quantity for early feedback;
// the order-time conditional decrement stays authoritative.
func (s *Service) AddItem(ctx context.Context, userEmail string, bookID int64, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	book, err := s.books.GetBook(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateCart(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.FindItemByBook(ctx, s.db, cart.ID, bookID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if book.Stock < newQuantity {
			return nil, fmt.Errorf("%w for book %q: available %d, in cart %d, requested to add %d",
				domain.ErrInsufficientStock, book.Title, book.Stock, existing.Quantity, quantity)
		}
		if err := s.carts.UpdateItemQuantity(ctx, s.db, existing.ID, newQuantity); err != nil {
			return nil, err
		}
		s.logger.Info("cart item quantity increased", "cart_id", cart.ID, "book_id", bookID, "quantity", newQuantity)
	} else {
		if book.Stock < quantity {
			return nil, fmt.Errorf("%w for book %q: available %d, requested %d",
				domain.ErrInsufficientStock, book.Title, book.Stock, quantity)
		}
		if _, err := s.carts.InsertItem(ctx, s.db, cart.ID, bookID, quantity); err != nil {
			return nil, err
		}
		s.logger.Info("cart item added", "cart_id", cart.ID, "book_id", bookID, "quantity", quantity)
	}

	return s.buildViewAndPurge(ctx, cart)
}

// UpdateItemQuantity replaces a line's quantity after an ownership check:
// an item id belonging to another user's cart is an authorization failure,
// not a not-found.
func (s *Service) UpdateItemQuantity(ctx context.Context, userEmail string, itemID int64, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	cart, item, err := s.findOwnedItem(ctx, userEmail, itemID)
	if err != nil {
		return nil, err
	}

	book, err := s.books.GetBook(ctx, s.db, item.BookID)
	if err != nil {
		return nil, err
	}

	if book.Stock < quantity {
		return nil, fmt.Errorf("%w for book %q: available %d, requested %d",
			domain.ErrInsufficientStock, book.Title, book.Stock, quantity)
	}

	if err := s.carts.UpdateItemQuantity(ctx, s.db, itemID, quantity); err != nil {
		return nil, err
	}

	return s.buildViewAndPurge(ctx, cart)
}

func (s *Service) RemoveItem(ctx context.Context, userEmail string, itemID int64) (*View, error) {
	cart, item, err := s.findOwnedItem(ctx, userEmail, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteItem(ctx, s.db, item.ID); err != nil {
		return nil, err
	}
	s.logger.Info("cart item removed", "cart_id", cart.ID, "item_id", itemID)

	return s.buildViewAndPurge(ctx, cart)
}

func (s *Service) findOwnedItem(ctx context.Context, userEmail string, itemID int64) (*domain.ShoppingCart, *domain.CartItem, error) {
	cart, err := s.carts.FindCartByUser(ctx, s.db, userEmail)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, fmt.Errorf("%w: shopping cart for user %s", domain.ErrNotFound, userEmail)
	}

	item, err := s.carts.FindItemByID(ctx, s.db, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, fmt.Errorf("%w: cart item with id %d", domain.ErrNotFound, itemID)
	}
	if item.CartID != cart.ID {
		return nil, nil, fmt.Errorf("%w: cart item %d does not belong to your cart", domain.ErrUnauthorized, itemID)
	}

	return cart, item, nil
}

func (s *Service) buildViewAndPurge(ctx context.Context, cart *domain.ShoppingCart) (*View, error) {
	entries, err := s.carts.ListItemsWithBooks(ctx, s.db, cart.ID)
	if err != nil {
		return nil, err
	}

	view := &View{ID: cart.ID, Items: []ItemView{}, TotalAmount: decimal.Zero}
	for _, entry := range entries {
		if entry.Book == nil {
			s.logger.Warn("purging cart item for missing book",
				"cart_id", cart.ID, "item_id", entry.Item.ID, "book_id", entry.Item.BookID)
			if err := s.carts.DeleteItem(ctx, s.db, entry.Item.ID); err != nil {
				return nil, err
			}
			continue
		}

		subtotal := entry.Book.Price.Mul(decimal.NewFromInt(int64(entry.Item.Quantity)))
		view.Items = append(view.Items, ItemView{
			ID:             entry.Item.ID,
			Book:           entry.Book,
			Quantity:       entry.Item.Quantity,
			AvailableStock: entry.Book.Stock,
			Subtotal:       subtotal,
		})
		view.TotalItems += entry.Item.Quantity
		view.TotalAmount = view.TotalAmount.Add(subtotal)
	}

	return view, nil
}
