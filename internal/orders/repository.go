package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/lvlup/bookstore/internal/domain"
	"github.com/lvlup/bookstore/internal/storage"
)

// LineWithBook pairs an order line with its referenced book. The book may
// be soft-deleted (it is kept for historical orders) or, in the extreme,
// gone entirely, in which case Book is nil.
type LineWithBook struct {
	Item domain.OrderItem
	Book *domain.Book
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

const orderColumns = `id, user_email, order_number, total_amount, status, shipping_address, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID, &order.UserEmail, &order.OrderNumber, &order.TotalAmount,
		&order.Status, &order.ShippingAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create inserts the order and fills in the server-assigned id and
// timestamps. A duplicate order number surfaces as ErrDuplicateResource
// so the caller can regenerate and retry.
func (r *Repository) Create(ctx context.Context, q storage.Querier, order *domain.Order) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (user_email, order_number, total_amount, status, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, order.UserEmail, order.OrderNumber, order.TotalAmount, order.Status, order.ShippingAddress).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrDuplicateResource
	}
	return err
}

func (r *Repository) FindByID(ctx context.Context, q storage.Querier, id int64) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return order, err
}

// FindByIDForUser is the ownership-scoped lookup: an order belonging to a
// different user is reported as absent.
func (r *Repository) FindByIDForUser(ctx context.Context, q storage.Querier, id int64, userEmail string) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND user_email = $2
	`, id, userEmail))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return order, err
}

func (r *Repository) ListForUser(ctx context.Context, q storage.Querier, userEmail string, status *domain.OrderStatus, page, size int) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_email = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userEmail, statusArg(status), size, page*size)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *Repository) CountForUser(ctx context.Context, q storage.Querier, userEmail string, status *domain.OrderStatus) (int64, error) {
	var count int64
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE user_email = $1 AND ($2::text IS NULL OR status = $2)
	`, userEmail, statusArg(status)).Scan(&count)
	return count, err
}

func (r *Repository) ListAll(ctx context.Context, q storage.Querier, status *domain.OrderStatus, page, size int) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE $1::text IS NULL OR status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, statusArg(status), size, page*size)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *Repository) CountAll(ctx context.Context, q storage.Querier, status *domain.OrderStatus) (int64, error) {
	var count int64
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE $1::text IS NULL OR status = $1
	`, statusArg(status)).Scan(&count)
	return count, err
}

// UpdateStatus writes status and updated_at unconditionally; transition
// legality is the caller's job. Returns nil when the order is absent.
func (r *Repository) UpdateStatus(ctx context.Context, q storage.Querier, id int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return order, err
}

func (r *Repository) SaveLineItem(ctx context.Context, q storage.Querier, item *domain.OrderItem) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, book_id, quantity, price_at_purchase, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, item.OrderID, item.BookID, item.Quantity, item.PriceAtPurchase).
		Scan(&item.ID, &item.CreatedAt)
}

func (r *Repository) ListLineItemsWithBooks(ctx context.Context, q storage.Querier, orderID int64) ([]LineWithBook, error) {
	grouped, err := r.ListLineItemsForOrders(ctx, q, []int64{orderID})
	if err != nil {
		return nil, err
	}
	return grouped[orderID], nil
}

// ListLineItemsForOrders batch-loads the lines of a whole page of orders
// in one query, grouped by order id.
func (r *Repository) ListLineItemsForOrders(ctx context.Context, q storage.Querier, orderIDs []int64) (map[int64][]LineWithBook, error) {
	grouped := make(map[int64][]LineWithBook, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT
			oi.id, oi.order_id, oi.book_id, oi.quantity, oi.price_at_purchase, oi.created_at,
			b.id, b.title, b.author, COALESCE(b.description, ''), b.price, b.stock,
			b.category_id, COALESCE(b.cover_image_url, ''), b.deleted, b.created_at, b.updated_at
		FROM order_items oi
		LEFT JOIN books b ON oi.book_id = b.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line LineWithBook
		var bookID sql.NullInt64
		var title, author, description, coverImageURL sql.NullString
		var price sql.NullString
		var stock, categoryID sql.NullInt64
		var deleted sql.NullBool
		var bookCreatedAt, bookUpdatedAt sql.NullTime

		if err := rows.Scan(
			&line.Item.ID, &line.Item.OrderID, &line.Item.BookID,
			&line.Item.Quantity, &line.Item.PriceAtPurchase, &line.Item.CreatedAt,
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
			line.Book = book
		}

		grouped[line.Item.OrderID] = append(grouped[line.Item.OrderID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grouped, nil
}

func statusArg(status *domain.OrderStatus) any {
	if status == nil {
		return nil
	}
	return string(*status)
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
