package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
)

var cartLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrSizeRequired = errors.New("please select a size")
	ErrBadCartIndex = errors.New("cart item not found")
)

const cartTTL = 7 * 24 * time.Hour

// CartService keeps one cart per session in redis so the cart survives a
// page reload and is visible across tabs.
type CartService struct {
	rdb         *redis.Client
	productRepo repository.ProductRepository
}

func NewCartService(rdb *redis.Client, productRepo repository.ProductRepository) *CartService {
	return &CartService{rdb: rdb, productRepo: productRepo}
}

func cartKey(sid string) string {
	return fmt.Sprintf("cart:%s", sid)
}

// Load returns the cart for a session, empty when none exists yet.
func (s *CartService) Load(ctx context.Context, sid string) ([]entity.CartItem, error) {
	raw, err := s.rdb.Get(ctx, cartKey(sid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []entity.CartItem{}, nil
		}
		return nil, err
	}

	var items []entity.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		cartLogger.Error().Err(err).Msgf("Error unmarshalling cart for session %s", sid)
		return nil, err
	}
	return items, nil
}

// AddItem resolves the unit price from the catalog and merges the item into
// the cart. Products sold in size variants require a size selection.
// Returns the updated total item count.
func (s *CartService) AddItem(ctx context.Context, sid, name, size string) (int, error) {
	product, err := s.productRepo.GetProductByName(ctx, name)
	if err != nil {
		cartLogger.Error().Err(err).Msgf("Error looking up product %q", name)
		return 0, err
	}

	if product.HasSizes() && size == "" {
		return 0, ErrSizeRequired
	}
	price, ok := product.PriceFor(size)
	if !ok {
		return 0, ErrSizeRequired
	}

	items, err := s.Load(ctx, sid)
	if err != nil {
		return 0, err
	}

	items = entity.MergeItem(items, entity.CartItem{
		Name:      name,
		Size:      size,
		UnitPrice: price,
		Quantity:  1,
	})

	if err := s.save(ctx, sid, items); err != nil {
		return 0, err
	}
	return entity.ItemCount(items), nil
}

// ChangeQuantity adjusts the line at index by delta; a quantity dropping to
// zero or below removes the line. Returns the updated item count.
func (s *CartService) ChangeQuantity(ctx context.Context, sid string, index, delta int) (int, error) {
	items, err := s.Load(ctx, sid)
	if err != nil {
		return 0, err
	}

	items, ok := entity.AdjustQuantity(items, index, delta)
	if !ok {
		return 0, ErrBadCartIndex
	}

	if err := s.save(ctx, sid, items); err != nil {
		return 0, err
	}
	return entity.ItemCount(items), nil
}

// RemoveItem drops the line at index. An emptied cart reports a count of
// exactly zero.
func (s *CartService) RemoveItem(ctx context.Context, sid string, index int) (int, error) {
	items, err := s.Load(ctx, sid)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(items) {
		return 0, ErrBadCartIndex
	}

	items = entity.RemoveAt(items, index)
	if err := s.save(ctx, sid, items); err != nil {
		return 0, err
	}
	return entity.ItemCount(items), nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, sid string) error {
	return s.save(ctx, sid, []entity.CartItem{})
}

// Totals derives subtotal, delivery fee and total for the session's cart.
func (s *CartService) Totals(ctx context.Context, sid string, orderType entity.OrderType) (entity.CartTotals, error) {
	items, err := s.Load(ctx, sid)
	if err != nil {
		return entity.CartTotals{}, err
	}
	return entity.ComputeTotals(items, orderType), nil
}

func (s *CartService) save(ctx context.Context, sid string, items []entity.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	err = s.rdb.Set(ctx, cartKey(sid), raw, cartTTL).Err()
	if err != nil {
		cartLogger.Error().Err(err).Msgf("Error saving cart for session %s", sid)
	}
	return err
}
