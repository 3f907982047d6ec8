package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iyoadidey/mother-julie/internal/entity"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	GetProducts(ctx context.Context) ([]entity.Product, error)
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	GetProductByName(ctx context.Context, name string) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type MySQLProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) GetProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category, price, size_options, stock, image FROM products ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *MySQLProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, category, price, size_options, stock, image FROM products WHERE id = ?`, id)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *MySQLProductRepository) GetProductByName(ctx context.Context, name string) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, category, price, size_options, stock, image FROM products WHERE name = ?`, name)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *MySQLProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	sizes, err := marshalSizes(product.SizeOptions)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, category, price, size_options, stock, image) VALUES (?, ?, ?, ?, ?, ?)`,
		product.Name, product.Category, product.Price, sizes, product.Stock, product.Image)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	product.ID = int(id)
	return product, nil
}

func (r *MySQLProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	sizes, err := marshalSizes(product.SizeOptions)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, category = ?, price = ?, size_options = ?, stock = ?, image = ? WHERE id = ?`,
		product.Name, product.Category, product.Price, sizes, product.Stock, product.Image, product.ID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// The row may exist with identical values; distinguish from missing.
		if _, err := r.GetProductByID(ctx, product.ID); err != nil {
			return nil, err
		}
	}
	return product, nil
}

func (r *MySQLProductRepository) DeleteProduct(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProduct(scan func(dest ...any) error) (*entity.Product, error) {
	p := &entity.Product{}
	var sizes sql.NullString
	if err := scan(&p.ID, &p.Name, &p.Category, &p.Price, &sizes, &p.Stock, &p.Image); err != nil {
		return nil, err
	}
	if sizes.Valid && sizes.String != "" {
		if err := json.Unmarshal([]byte(sizes.String), &p.SizeOptions); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func marshalSizes(sizes map[string]float64) (string, error) {
	if len(sizes) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(sizes)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
