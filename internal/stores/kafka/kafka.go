package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-service/internal/orders"
)

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

func (c *Conf) ProduceMessage(topic string, key, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message to %s: %w", topic, err)
	}
	return nil
}

// PublishOrderPaid emits one OrderPaidEvent per snapshot line, keyed by the
// order id so all lines of an order land in the same partition. Failures are
// logged and skipped; event delivery must never fail a verified payment.
func (c *Conf) PublishOrderPaid(orderID int64, items []orders.LineItem) {
	key := []byte(strconv.FormatInt(orderID, 10))
	for _, li := range items {
		jsonData, err := json.Marshal(OrderPaidEvent{
			OrderID:   orderID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderPaidEvent", slog.String("Error", err.Error()))
			continue
		}
		if err := c.ProduceMessage(TopicOrderPaid, key, jsonData); err != nil {
			slog.Error("failed to produce OrderPaidEvent",
				slog.String("Error", err.Error()), slog.Int64("OrderID", orderID))
		}
	}
}

func (c *Conf) Close() {
	c.client.Close()
}
