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
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrInvalidOrderType  = errors.New("invalid order type")
	ErrInvalidPayment    = errors.New("invalid payment method")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateOrder    = errors.New("idempotent key already exists")
)

// CashRestrictedNotice is surfaced when a cash payment is auto-switched to an
// online method for pickup and delivery orders.
const CashRestrictedNotice = "Online payment (GCash or Bank Transfer) is required for pickup and delivery orders. Cash payment is only available for dine-in orders."

type SubmitOrderRequest struct {
	Items         []entity.CartItem    `json:"items"`
	OrderType     entity.OrderType     `json:"orderType"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
	CustomerName  string               `json:"customerName"`
	IdempotentKey string               `json:"-"`
}

type SubmitOrderResult struct {
	Order         *entity.Order  `json:"order"`
	Notice        string         `json:"notice,omitempty"`
	RedirectTo    string         `json:"redirect_to,omitempty"`
	UpdatedStocks map[string]int `json:"updated_stocks,omitempty"`
}

// OrderService owns order submission and the status lifecycle.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productSvc  *ProductService
	kafkaWriter *kafka.Writer
	rdb         *redis.Client
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo repository.OrderRepository, productSvc *ProductService, kafkaWriter *kafka.Writer, rdb *redis.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productSvc:  productSvc,
		kafkaWriter: kafkaWriter,
		rdb:         rdb,
	}
}

// SubmitOrder validates and persists a new order. The total is always
// recomputed server-side from the line items, the cash-for-dine-in-only
// payment policy is applied (auto-switching rather than rejecting), and
// product stock is decremented before the order is written.
func (s *OrderService) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if !entity.ValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if !entity.ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPayment
	}

	result := &SubmitOrderResult{}

	// Cash is restricted to dine-in; auto-switch instead of failing.
	if req.PaymentMethod == entity.PaymentCash && req.OrderType != entity.OrderTypeDineIn {
		req.PaymentMethod = entity.PaymentGCash
		result.Notice = CashRestrictedNotice
	}

	validate, err := s.validateIdempotentKey(ctx, req.IdempotentKey)
	if err != nil {
		return nil, err
	}
	if !validate {
		return nil, ErrDuplicateOrder
	}

	totals := entity.ComputeTotals(req.Items, req.OrderType)

	now := time.Now().UTC()
	order := &entity.Order{
		OrderNumber:   generateOrderNumber(),
		CustomerName:  req.CustomerName,
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		Status:        entity.InitialStatus(req.OrderType),
		TotalAmount:   totals.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, entity.OrderItem{
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.UnitPrice * float64(it.Quantity),
		})
	}

	// Decrement stock up front so an out-of-stock item rejects the order
	// before anything is written. A rejection after some lines were already
	// reserved must hand their stock back.
	updatedStocks := make(map[string]int, len(order.Items))
	reserved := make([]entity.OrderItem, 0, len(order.Items))
	release := func() {
		for _, it := range reserved {
			if err := s.productSvc.ReleaseStockByName(ctx, it.Name, it.Quantity); err != nil {
				logger.Error().Err(err).Msgf("Error releasing stock for %q", it.Name)
			}
		}
	}
	for _, it := range order.Items {
		newStock, err := s.productSvc.ReserveStockByName(ctx, it.Name, it.Quantity)
		if err != nil {
			logger.Error().Err(err).Msgf("Error reserving stock for %q", it.Name)
			release()
			return nil, err
		}
		updatedStocks[it.Name] = newStock
		reserved = append(reserved, it)
	}

	createdOrder, err := s.orderRepo.CreateOrder(ctx, order, req.IdempotentKey)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		release()
		return nil, err
	}

	result.Order = createdOrder
	result.UpdatedStocks = updatedStocks
	switch req.OrderType {
	case entity.OrderTypeDelivery:
		result.RedirectTo = "/track/delivery/"
	case entity.OrderTypePickup:
		result.RedirectTo = "/track/pickup/"
	}

	// if env is set to test, return
	if os.Getenv("ENV") == "test" {
		return result, nil
	}
	if err := s.publishOrderEvent(ctx, createdOrder, "created"); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateStatus moves an order to a new status, validating the transition
// against the order type's state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, status entity.Status) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		return nil, err
	}

	if !entity.CanTransition(order.OrderType, order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s for %s order", ErrInvalidTransition, order.Status, status, order.OrderType)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		logger.Error().Err(err).Msgf("Error updating status for order %d", id)
		return nil, err
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	event := "updated"
	if status == entity.StatusCancelled {
		event = "cancelled"
	}
	if os.Getenv("ENV") != "test" {
		if err := s.publishOrderEvent(ctx, order, event); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// CancelOrder moves an order to cancelled from any non-terminal state.
func (s *OrderService) CancelOrder(ctx context.Context, id int) (*entity.Order, error) {
	return s.UpdateStatus(ctx, id, entity.StatusCancelled)
}

// CompleteOrder jumps directly to the terminal success state for the order's
// type (the admin one-click complete action).
func (s *OrderService) CompleteOrder(ctx context.Context, id int) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, id, entity.CompletionStatus(order.OrderType))
}

// ListOrders returns all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	entity.SortNewestFirst(orders)
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	return s.orderRepo.GetOrderByID(ctx, id)
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int) error {
	return s.orderRepo.DeleteOrder(ctx, id)
}

func (s *OrderService) DeleteAllOrders(ctx context.Context) error {
	return s.orderRepo.DeleteAllOrders(ctx)
}

func (s *OrderService) publishOrderEvent(ctx context.Context, order *entity.Order, event string) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	// order.created.12 or order.cancelled.12
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%d", event, order.ID)),
		Value: orderJSON,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		return err
	}
	return nil
}

func (s *OrderService) validateIdempotentKey(ctx context.Context, key string) (bool, error) {
	// if env is set to test, return true
	if os.Getenv("ENV") == "test" {
		return true, nil
	}
	if key == "" {
		return true, nil
	}

	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	val, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	if val != "" {
		return false, nil
	}

	err = s.rdb.Set(ctx, redisKey, "exists", 24*time.Hour).Err()
	return true, err
}

func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s", suffix)
}
