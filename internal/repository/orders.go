package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iyoadidey/mother-julie/internal/entity"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order, idempotentKey string) (*entity.Order, error)
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
	ListOrderIDs(ctx context.Context) ([]int, error)
	UpdateStatus(ctx context.Context, id int, status entity.Status) error
	DeleteOrder(ctx context.Context, id int) error
	DeleteAllOrders(ctx context.Context) error
	SalesBetween(ctx context.Context, from, to time.Time) (float64, int, error)
}

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) CreateOrder(ctx context.Context, order *entity.Order, idempotentKey string) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// The idempotent_key column is UNIQUE; keyless orders store NULL so they
	// never collide with each other.
	key := sql.NullString{String: idempotentKey, Valid: idempotentKey != ""}

	orderQuery := `INSERT INTO orders (order_number, customer_name, order_type, payment_method, status, total_amount, idempotent_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery,
		order.OrderNumber, order.CustomerName, order.OrderType, order.PaymentMethod,
		order.Status, order.TotalAmount, key, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Insert order items with batch
	if itemQuery, values, ok := buildItemInsert(orderID, order.Items); ok {
		_, err = tx.ExecContext(ctx, itemQuery, values...)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	order.ID = int(orderID)
	return order, nil
}

func (r *MySQLOrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	orderQuery := `SELECT id, order_number, customer_name, order_type, payment_method, status, total_amount, created_at, updated_at FROM orders WHERE id = ?`

	order := &entity.Order{}
	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.OrderType,
		&order.PaymentMethod, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.itemsFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *MySQLOrderRepository) ListOrders(ctx context.Context) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_number, customer_name, order_type, payment_method, status, total_amount, created_at, updated_at FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		order := entity.Order{}
		err := rows.Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.OrderType,
			&order.PaymentMethod, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *MySQLOrderRepository) ListOrderIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id int, status entity.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *MySQLOrderRepository) DeleteOrder(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		tx.Rollback()
		return ErrOrderNotFound
	}

	return tx.Commit()
}

func (r *MySQLOrderRepository) DeleteAllOrders(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM order_items`)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// SalesBetween sums order totals and unit quantities for orders created in
// [from, to), cancelled orders excluded.
func (r *MySQLOrderRepository) SalesBetween(ctx context.Context, from, to time.Time) (float64, int, error) {
	var sales float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE created_at >= ? AND created_at < ? AND status != ?`,
		from, to, entity.StatusCancelled).Scan(&sales)
	if err != nil {
		return 0, 0, err
	}

	var units int
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(i.quantity), 0) FROM order_items i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.created_at >= ? AND o.created_at < ? AND o.status != ?`,
		from, to, entity.StatusCancelled).Scan(&units)
	if err != nil {
		return 0, 0, err
	}

	return sales, units, nil
}

// buildItemInsert assembles the batch INSERT for an order's items. An empty
// item list yields no statement; ok reports whether there is one to run.
func buildItemInsert(orderID int64, items []entity.OrderItem) (string, []interface{}, bool) {
	if len(items) == 0 {
		return "", nil, false
	}

	query := `INSERT INTO order_items (order_id, name, size, quantity, unit_price, line_total) VALUES `
	var values []interface{}
	for _, it := range items {
		query += "(?, ?, ?, ?, ?, ?),"
		values = append(values, orderID, it.Name, it.Size, it.Quantity, it.UnitPrice, it.LineTotal)
	}
	return query[:len(query)-1], values, true
}

func (r *MySQLOrderRepository) itemsFor(ctx context.Context, orderID int) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, size, quantity, unit_price, line_total FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		it := entity.OrderItem{}
		if err := rows.Scan(&it.Name, &it.Size, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
