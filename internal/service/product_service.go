package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
)

var productLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrOutOfStock     = errors.New("product out of stock")
	ErrInvalidProduct = errors.New("invalid product")
)

var defaultImages = map[string]string{
	"desserts":   "/static/orders_menupics/default_dessert.png",
	"spuds":      "/static/orders_menupics/default_spud.png",
	"pasta":      "/static/orders_menupics/default_pasta.png",
	"wrap":       "/static/orders_menupics/default_wrap.png",
	"appetizers": "/static/orders_menupics/default_appetizer.png",
}

const defaultImage = "/static/orders_menupics/default_food.png"

type ProductService struct {
	productRepo repository.ProductRepository
	rdb         *redis.Client
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repository.ProductRepository, rdb *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, rdb: rdb}
}

// ValidateProduct applies the admin form rules: name and category required,
// whole-peso price of at least 1, non-negative stock.
func ValidateProduct(p *entity.Product) []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Product name is required")
	}
	if p.Price < 1 {
		errs = append(errs, "Valid price is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, "Category is required")
	}
	if p.Stock < 0 {
		errs = append(errs, "Valid stock quantity is required")
	}
	for size, price := range p.SizeOptions {
		if strings.TrimSpace(size) == "" || price < 1 {
			errs = append(errs, "Valid size prices are required")
			break
		}
	}
	return errs
}

// DefaultImageForCategory falls back to a stock picture when no image was
// uploaded for a product.
func DefaultImageForCategory(category string) string {
	if img, ok := defaultImages[category]; ok {
		return img
	}
	return defaultImage
}

func (p *ProductService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		productLogger.Error().Err(err).Msg("Error getting products")
		return nil, err
	}
	return products, nil
}

// GetProductsByCategory groups the catalog for the admin page.
func (p *ProductService) GetProductsByCategory(ctx context.Context) (map[string][]entity.Product, error) {
	products, err := p.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]entity.Product)
	for _, product := range products {
		grouped[product.Category] = append(grouped[product.Category], product)
	}
	return grouped, nil
}

func (p *ProductService) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if errs := ValidateProduct(product); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(errs, "; "))
	}
	if product.Image == "" {
		product.Image = DefaultImageForCategory(product.Category)
	}

	created, err := p.productRepo.CreateProduct(ctx, product)
	if err != nil {
		productLogger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	p.writeCache(ctx, created)
	return created, nil
}

func (p *ProductService) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if errs := ValidateProduct(product); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(errs, "; "))
	}

	// Keep the existing image when the update carries none.
	if product.Image == "" {
		existing, err := p.productRepo.GetProductByID(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.Image = existing.Image
	}

	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		productLogger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		return nil, err
	}
	p.writeCache(ctx, updated)
	return updated, nil
}

func (p *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := p.productRepo.DeleteProduct(ctx, id); err != nil {
		productLogger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}
	if os.Getenv("ENV") != "test" {
		p.rdb.Del(ctx, productCacheKey(id))
	}
	return nil
}

// GetProductStock retrieves the stock for a product, cache first.
func (p *ProductService) GetProductStock(ctx context.Context, productID int) (int, error) {
	if product := p.readCache(ctx, productID); product != nil {
		return product.Stock, nil
	}

	product, err := p.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		productLogger.Error().Err(err).Msgf("Error getting product by ID %d", productID)
		return 0, err
	}
	p.writeCache(ctx, product)
	return product.Stock, nil
}

// ReserveStockByName decrements stock for a placed order line and returns the
// new stock level.
func (p *ProductService) ReserveStockByName(ctx context.Context, name string, quantity int) (int, error) {
	product, err := p.productRepo.GetProductByName(ctx, name)
	if err != nil {
		return 0, err
	}

	if product.Stock < quantity {
		productLogger.Warn().Msgf("Product %q out of stock", name)
		return 0, ErrOutOfStock
	}

	product.Stock -= quantity
	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		productLogger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		return 0, err
	}
	p.writeCache(ctx, updated)
	return updated.Stock, nil
}

// ReleaseStockByName restores stock when an order is cancelled.
func (p *ProductService) ReleaseStockByName(ctx context.Context, name string, quantity int) error {
	product, err := p.productRepo.GetProductByName(ctx, name)
	if err != nil {
		return err
	}

	product.Stock += quantity
	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		productLogger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		return err
	}
	p.writeCache(ctx, updated)
	return nil
}

// PreWarmCache loads the catalog into redis at startup.
func (p *ProductService) PreWarmCache(ctx context.Context) error {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		productLogger.Error().Err(err).Msg("Error getting products")
		return err
	}

	for i := range products {
		p.writeCache(ctx, &products[i])
	}
	return nil
}

func productCacheKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func (p *ProductService) readCache(ctx context.Context, id int) *entity.Product {
	// if env is set to test, skip the cache
	if os.Getenv("ENV") == "test" {
		return nil
	}
	raw, err := p.rdb.Get(ctx, productCacheKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			productLogger.Error().Err(err).Msgf("Error getting product %d from cache", id)
		}
		return nil
	}
	var product entity.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		productLogger.Error().Err(err).Msgf("Error unmarshalling product %d", id)
		return nil
	}
	return &product
}

func (p *ProductService) writeCache(ctx context.Context, product *entity.Product) {
	if os.Getenv("ENV") == "test" {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, productCacheKey(product.ID), raw, 1*time.Minute).Err(); err != nil {
		productLogger.Error().Err(err).Msgf("Error setting product %d in cache", product.ID)
	}
}
