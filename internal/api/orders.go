package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
	"github.com/iyoadidey/mother-julie/internal/service"
	"github.com/iyoadidey/mother-julie/internal/watcher"
)

type OrderHandler struct {
	orderService *service.OrderService
	orderWatcher *watcher.Watcher
	// watchCtx outlives any single request; the polling loop must not die
	// with the request that started it.
	watchCtx context.Context
}

func NewOrderHandler(watchCtx context.Context, orderService *service.OrderService, orderWatcher *watcher.Watcher) *OrderHandler {
	return &OrderHandler{orderService: orderService, orderWatcher: orderWatcher, watchCtx: watchCtx}
}

// ListOrders returns all orders, newest first --> GET /api/orders/all/
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return c.JSON(200, orders)
}

// CreateOrder places a new order --> POST /api/orders/
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	req := service.SubmitOrderRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	req.IdempotentKey = c.Request().Header.Get("Idempotent-Key")

	result, err := h.orderService.SubmitOrder(c.Request().Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrInvalidOrderType),
			errors.Is(err, service.ErrInvalidPayment):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOutOfStock),
			errors.Is(err, service.ErrDuplicateOrder):
			return c.JSON(409, map[string]string{"error": err.Error()})
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]interface{}{
		"success":        true,
		"orderId":        result.Order.ID,
		"order_number":   result.Order.OrderNumber,
		"status":         result.Order.Status,
		"total_amount":   result.Order.TotalAmount,
		"payment_method": result.Order.PaymentMethod,
		"notice":         result.Notice,
		"redirect_to":    result.RedirectTo,
		"updated_stocks": result.UpdatedStocks,
	})
}

// UpdateStatus moves an order through its lifecycle --> POST /api/orders/:id/update-status/
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	body := struct {
		Status entity.Status `json:"status"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(200, order)
}

// CompleteOrder jumps to the terminal success state --> POST /api/orders/:id/complete/
func (h *OrderHandler) CompleteOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	order, err := h.orderService.CompleteOrder(c.Request().Context(), id)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(200, order)
}

// CancelOrder cancels a live order --> POST /api/orders/:id/cancel/
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	if !confirmed(c) {
		return c.JSON(400, map[string]string{"error": "Confirmation required"})
	}

	order, err := h.orderService.CancelOrder(c.Request().Context(), id)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(200, order)
}

// DeleteOrder removes an order --> POST /api/orders/:id/delete/
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	if !confirmed(c) {
		return c.JSON(400, map[string]string{"error": "Confirmation required"})
	}

	if err := h.orderService.DeleteOrder(c.Request().Context(), id); err != nil {
		return orderError(c, err)
	}
	return c.JSON(200, map[string]bool{"success": true})
}

// DeleteAllOrders wipes the order history --> POST /api/orders/delete-all/
func (h *OrderHandler) DeleteAllOrders(c echo.Context) error {
	if !confirmed(c) {
		return c.JSON(400, map[string]string{"error": "Confirmation required"})
	}

	if err := h.orderService.DeleteAllOrders(c.Request().Context()); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]bool{"success": true})
}

// Unread reports the new-order badge count --> GET /api/orders/unread/
func (h *OrderHandler) Unread(c echo.Context) error {
	return c.JSON(200, map[string]interface{}{
		"unread":  h.orderWatcher.Unread(),
		"polling": h.orderWatcher.Running(),
	})
}

// MarkViewed records that an admin opened an order --> POST /api/orders/:id/viewed/
func (h *OrderHandler) MarkViewed(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	if err := h.orderWatcher.MarkViewed(c.Request().Context(), id); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]bool{"success": true})
}

// Watch starts or stops the polling loop, driven by tab visibility
// --> POST /api/orders/watch/
func (h *OrderHandler) Watch(c echo.Context) error {
	body := struct {
		Active bool `json:"active"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	if body.Active {
		h.orderWatcher.Start(h.watchCtx)
	} else {
		h.orderWatcher.Stop()
	}
	return c.JSON(200, map[string]bool{"polling": body.Active})
}

func orderID(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

func confirmed(c echo.Context) bool {
	return c.QueryParam("confirm") == "true"
}

func orderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(404, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(409, map[string]string{"error": err.Error()})
	}
	return c.JSON(500, map[string]string{"error": err.Error()})
}
