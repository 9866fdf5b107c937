package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"creditmemo/internal/model"
	"creditmemo/internal/platform/rabbitmq"
)

var errInvalidMemo = errors.New("invalid memo payload")

type MemoWriter interface {
	Create(ctx context.Context, memo *model.Memo) error
}

// HistoryInvalidator drops a tenant's cached memo list once a new memo is
// durable.
type HistoryInvalidator interface {
	DeleteHistory(ctx context.Context, tenantID string) error
}

type MemoPersistWorker struct {
	conn      *amqp.Connection
	repo      MemoWriter
	cache     HistoryInvalidator
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMemoPersistWorker(conn *amqp.Connection, repo MemoWriter, cache HistoryInvalidator, queueName string) *MemoPersistWorker {
	return &MemoPersistWorker{
		conn:      conn,
		repo:      repo,
		cache:     cache,
		queueName: queueName,
	}
}

func (w *MemoPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("worker persist memo failed: %v", err)
					// Malformed payloads are dropped; store failures go back on the queue.
					_ = d.Nack(false, !errors.Is(err, errInvalidMemo))
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *MemoPersistWorker) handle(ctx context.Context, body []byte) error {
	var memo model.Memo
	if err := json.Unmarshal(body, &memo); err != nil {
		return fmt.Errorf("%w: %v", errInvalidMemo, err)
	}
	if memo.ID == "" || memo.TenantID == "" || strings.TrimSpace(memo.Text) == "" {
		return fmt.Errorf("%w: missing id, tenant or text", errInvalidMemo)
	}

	if err := w.repo.Create(ctx, &memo); err != nil {
		return err
	}
	if w.cache != nil {
		if err := w.cache.DeleteHistory(ctx, memo.TenantID); err != nil {
			log.Printf("worker invalidate memo history failed: %v", err)
		}
	}
	return nil
}

func (w *MemoPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
