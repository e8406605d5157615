package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lvlup/bookstore/internal/domain"
	"github.com/lvlup/bookstore/internal/storage"
)

// BookStore is the stock ledger contract consumed by the cart and order
// services. Implemented by Repository and by CachedBooks.
type BookStore interface {
	// GetBook returns a purchasable book. Soft-deleted books are reported
	// as not found.
	GetBook(ctx context.Context, q storage.Querier, id int64) (*domain.Book, error)
	// DecrementStock subtracts quantity as a single conditional update and
	// reports whether a row was affected. This is the sole mutator of
	// stock and the only concurrency-safety primitive on the order path.
	DecrementStock(ctx context.Context, q storage.Querier, id int64, quantity int) (bool, error)
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

const bookColumns = `id, title, author, COALESCE(description, ''), price, stock, category_id, COALESCE(cover_image_url, ''), deleted, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (*domain.Book, error) {
	book := &domain.Book{}
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.Description,
		&book.Price, &book.Stock, &book.CategoryID, &book.CoverImageURL,
		&book.Deleted, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *Repository) GetBook(ctx context.Context, q storage.Querier, id int64) (*domain.Book, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = $1 AND NOT deleted
	`, id)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: book with id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DecrementStock evaluates the stock condition inside the database so two
// concurrent orders for the last unit cannot both succeed. The caller
// passes its transaction as q to make a failed line roll back the whole
// placement.
func (r *Repository) DecrementStock(ctx context.Context, q storage.Querier, id int64, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx, `
		UPDATE books
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2 AND NOT deleted
	`, id, quantity)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
