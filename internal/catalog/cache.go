package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lvlup/bookstore/internal/domain"
	"github.com/lvlup/bookstore/internal/storage"
)

// CachedBooks is a cache-aside wrapper around the book repository. Reads
// try redis first; every stock write deletes the cached entry. Cache
// failures degrade to the database and are logged, never surfaced.
type CachedBooks struct {
	repo   *Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedBooks(repo *Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedBooks {
	return &CachedBooks{
		repo:   repo,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ BookStore = (*CachedBooks)(nil)

func bookKey(id int64) string {
	return fmt.Sprintf("books:%d", id)
}

func (c *CachedBooks) GetBook(ctx context.Context, q storage.Querier, id int64) (*domain.Book, error) {
	key := bookKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		book := &domain.Book{}
		if err := json.Unmarshal(data, book); err == nil {
			return book, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key)
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("book cache read failed", "error", err, "key", key)
	}

	book, err := c.repo.GetBook(ctx, q, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(book); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("book cache write failed", "error", err, "key", key)
		}
	}

	return book, nil
}

// DecrementStock delegates to the repository without touching the cache.
// The decrement runs inside the caller's transaction; deleting the key
// here would let a concurrent read re-fill the cache with pre-commit
// stock. The caller invalidates after its transaction commits.
func (c *CachedBooks) DecrementStock(ctx context.Context, q storage.Querier, id int64, quantity int) (bool, error) {
	return c.repo.DecrementStock(ctx, q, id, quantity)
}

// Invalidate drops the cached entry; the next read refills it from the
// database.
func (c *CachedBooks) Invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, bookKey(id)).Err(); err != nil {
		c.logger.Warn("book cache invalidation failed", "error", err, "book_id", id)
	}
}
