package consumer

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Consumer processes order lifecycle events. Stock is decremented
// synchronously when an order is placed; the consumer's job is the
// compensating side, restoring stock when an order is cancelled.
type Consumer struct {
	productSvc *service.ProductService
	reader     *kafka.Reader
}

func New(productSvc *service.ProductService, reader *kafka.Reader) *Consumer {
	return &Consumer{productSvc: productSvc, reader: reader}
}

// Run consumes order events until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Msgf("Error reading message: %v", err)
			continue
		}
		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var order entity.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		logger.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	// key -> "order.created.12" or "order.cancelled.12"
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) < 2 {
		logger.Error().Msgf("Malformed event key: %s", msg.Key)
		return
	}
	eventType := parts[1]

	switch eventType {
	case "cancelled":
		for _, item := range order.Items {
			if err := c.productSvc.ReleaseStockByName(ctx, item.Name, item.Quantity); err != nil {
				logger.Error().Msgf("Error releasing stock for %q: %v", item.Name, err)
			}
		}
	case "created", "updated":
		// Stock was already adjusted when the order was placed.
		logger.Info().Msgf("Order %d %s", order.ID, eventType)
	default:
		logger.Error().Msgf("Unknown order event: %s", eventType)
	}
}
