package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/service"
)

type orderEvent struct {
	OrderCode string             `json:"order_id"`
	UserID    int64              `json:"user_id"`
	Status    string             `json:"status"`
	Items     []entity.OrderItem `json:"items"`
}

// Consumer listens for order lifecycle events and keeps the product
// cache fresh: a placed order changes stock counts, so listing caches
// for the affected products are dropped.
type Consumer struct {
	products *service.ProductService
	reader   *kafka.Reader
}

func NewConsumer(products *service.ProductService, reader *kafka.Reader) *Consumer {
	return &Consumer{products: products, reader: reader}
}

func (c *Consumer) Start(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event orderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	// key -> "order.placed.ORD-..." / "order.shipped.ORD-..."
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) < 2 {
		log.Error().Msgf("Unexpected event key: %s", string(msg.Key))
		return
	}

	switch parts[1] {
	case "placed", "cancelled":
		ids := make([]int64, 0, len(event.Items))
		for _, item := range event.Items {
			if item.ProductID != 0 {
				ids = append(ids, item.ProductID)
			}
		}
		c.products.InvalidateCache(ctx, ids)
		log.Info().Str("order", event.OrderCode).Str("event", parts[1]).
			Msg("Invalidated product cache for order items")
	default:
		// Status-only transitions do not touch stock.
	}
}
