package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
	"github.com/iyoadidey/mother-julie/internal/service"
)

const cartCookie = "cart_session"

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart returns the session's cart --> GET /api/cart/
func (h *CartHandler) GetCart(c echo.Context) error {
	sid := h.sessionID(c)
	items, err := h.cartService.Load(c.Request().Context(), sid)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]interface{}{
		"items": items,
		"count": entity.ItemCount(items),
	})
}

// AddItem adds a menu item to the cart --> POST /api/cart/items/
func (h *CartHandler) AddItem(c echo.Context) error {
	body := struct {
		Name string `json:"name"`
		Size string `json:"size"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	sid := h.sessionID(c)
	count, err := h.cartService.AddItem(c.Request().Context(), sid, body.Name, body.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSizeRequired):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]int{"count": count})
}

// ChangeQuantity adjusts a cart line --> POST /api/cart/items/:index/quantity/
func (h *CartHandler) ChangeQuantity(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid index"})
	}

	body := struct {
		Delta int `json:"delta"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	sid := h.sessionID(c)
	count, err := h.cartService.ChangeQuantity(c.Request().Context(), sid, index, body.Delta)
	if err != nil {
		if errors.Is(err, service.ErrBadCartIndex) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]int{"count": count})
}

// RemoveItem drops a cart line --> POST /api/cart/items/:index/delete/
func (h *CartHandler) RemoveItem(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid index"})
	}

	sid := h.sessionID(c)
	count, err := h.cartService.RemoveItem(c.Request().Context(), sid, index)
	if err != nil {
		if errors.Is(err, service.ErrBadCartIndex) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]int{"count": count})
}

// ClearCart empties the cart --> POST /api/cart/clear/
func (h *CartHandler) ClearCart(c echo.Context) error {
	sid := h.sessionID(c)
	if err := h.cartService.Clear(c.Request().Context(), sid); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]int{"count": 0})
}

// Totals derives the billing figures for a chosen order type
// --> GET /api/cart/totals/?order_type=delivery
func (h *CartHandler) Totals(c echo.Context) error {
	orderType := entity.OrderType(c.QueryParam("order_type"))
	if orderType == "" {
		orderType = entity.OrderTypeDineIn
	}
	if !entity.ValidOrderType(orderType) {
		return c.JSON(400, map[string]string{"error": "invalid order type"})
	}

	sid := h.sessionID(c)
	totals, err := h.cartService.Totals(c.Request().Context(), sid, orderType)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, totals)
}

// sessionID reads the cart session cookie, minting one on first contact.
func (h *CartHandler) sessionID(c echo.Context) string {
	cookie, err := c.Cookie(cartCookie)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cartCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HttpOnly: true,
	})
	return sid
}
