package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"creditmemo/internal/model"
)

// MemoPublisher hands memos to the persist worker through a durable queue.
type MemoPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMemoPublisher(conn *amqp.Connection, queueName string) *MemoPublisher {
	return &MemoPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MemoPublisher) Publish(ctx context.Context, memo model.Memo) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(memo)
	if err != nil {
		return fmt.Errorf("marshal memo payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    memo.ID,
		},
	); err != nil {
		return fmt.Errorf("publish memo failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return q, nil
}
