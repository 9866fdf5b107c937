package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"creditmemo/internal/platform"
)

// New dials the broker, retrying while it is unreachable, and proves the
// connection by opening a channel.
func New(ctx context.Context, url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := platform.Ping(ctx, "rabbitmq", func(ctx context.Context) error {
		c, err := amqp.Dial(url)
		if err != nil {
			return fmt.Errorf("dial rabbitmq failed: %w", err)
		}
		ch, err := c.Channel()
		if err != nil {
			_ = c.Close()
			return fmt.Errorf("open rabbitmq channel failed: %w", err)
		}
		_ = ch.Close()
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
