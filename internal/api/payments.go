package api

import (
	"github.com/labstack/echo/v4"

	"github.com/iyoadidey/mother-julie/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Verify checks an online payment --> POST /api/payments/verify/
func (h *PaymentHandler) Verify(c echo.Context) error {
	req := service.VerifyRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	result, err := h.paymentService.Verify(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, result)
}
