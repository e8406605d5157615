package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lvlup/bookstore/internal/domain"
	"github.com/lvlup/bookstore/internal/storage"
)

// ItemWithBook pairs a cart row with its referenced book. Book is nil when
// the referent was deleted or soft-deleted; the service purges such rows.
type ItemWithBook struct {
	Item domain.CartItem
	Book *domain.Book
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) FindCartByUser(ctx context.Context, q storage.Querier, userEmail string) (*domain.ShoppingCart, error) {
	cart := &domain.ShoppingCart{}
	err := q.QueryRowContext(ctx, `
		SELECT id, user_email, created_at, updated_at
		FROM shopping_carts
		WHERE user_email = $1
	`, userEmail).Scan(&cart.ID, &cart.UserEmail, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *Repository) CreateCart(ctx context.Context, q storage.Querier, userEmail string) (*domain.ShoppingCart, error) {
	cart := &domain.ShoppingCart{UserEmail: userEmail}
	err := q.QueryRowContext(ctx, `
		INSERT INTO shopping_carts (user_email, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userEmail).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ListItemsWithBooks left-joins books so rows whose book vanished are
// reported with a nil book instead of being dropped by the query.
func (r *Repository) ListItemsWithBooks(ctx context.Context, q storage.Querier, cartID int64) ([]ItemWithBook, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			ci.id, ci.cart_id, ci.book_id, ci.quantity, ci.created_at, ci.updated_at,
			b.id, b.title, b.author, COALESCE(b.description, ''), b.price, b.stock,
			b.category_id, COALESCE(b.cover_image_url, ''), b.deleted, b.created_at, b.updated_at
		FROM shopping_carts_items ci
		LEFT JOIN books b ON ci.book_id = b.id AND NOT b.deleted
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ItemWithBook
	for rows.Next() {
		var entry ItemWithBook
		var bookID sql.NullInt64
		var title, author, description, coverImageURL sql.NullString
		var price sql.NullString
		var stock sql.NullInt64
		var categoryID sql.NullInt64
		var deleted sql.NullBool
		var bookCreatedAt, bookUpdatedAt sql.NullTime

		if err := rows.Scan(
			&entry.Item.ID, &entry.Item.CartID, &entry.Item.BookID,
			&entry.Item.Quantity, &entry.Item.CreatedAt, &entry.Item.UpdatedAt,
			&bookID, &title, &author, &description, &price, &stock,
			&categoryID, &coverImageURL, &deleted, &bookCreatedAt, &bookUpdatedAt,
		); err != nil {
			return nil, err
		}

		if bookID.Valid {
			book := &domain.Book{
				ID:            bookID.Int64,
				Title:         title.String,
				Author:        author.String,
				Description:   description.String,
				Stock:         int(stock.Int64),
				CategoryID:    categoryID.Int64,
				CoverImageURL: coverImageURL.String,
				Deleted:       deleted.Bool,
				CreatedAt:     bookCreatedAt.Time,
				UpdatedAt:     bookUpdatedAt.Time,
			}
			if err := book.Price.Scan(price.String); err != nil {
				return nil, err
			}
			entry.Book = book
		}

		items = append(items, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Repository) FindItemByID(ctx context.Context, q storage.Querier, itemID int64) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := q.QueryRowContext(ctx, `
		SELECT id, cart_id, book_id, quantity, created_at, updated_at
		FROM shopping_carts_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.CartID, &item.BookID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) FindItemByBook(ctx context.Context, q storage.Querier, cartID, bookID int64) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := q.QueryRowContext(ctx, `
		SELECT id, cart_id, book_id, quantity, created_at, updated_at
		FROM shopping_carts_items
		WHERE cart_id = $1 AND book_id = $2
	`, cartID, bookID).Scan(&item.ID, &item.CartID, &item.BookID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) InsertItem(ctx context.Context, q storage.Querier, cartID, bookID int64, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{CartID: cartID, BookID: bookID, Quantity: quantity}
	err := q.QueryRowContext(ctx, `
		INSERT INTO shopping_carts_items (cart_id, book_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, cartID, bookID, quantity).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) UpdateItemQuantity(ctx context.Context, q storage.Querier, itemID int64, quantity int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE shopping_carts_items
		SET quantity = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, quantity)
	return err
}

func (r *Repository) DeleteItem(ctx context.Context, q storage.Querier, itemID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM shopping_carts_items
		WHERE id = $1
	`, itemID)
	return err
}

func (r *Repository) ClearCart(ctx context.Context, q storage.Querier, cartID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM shopping_carts_items
		WHERE cart_id = $1
	`, cartID)
	return err
}
