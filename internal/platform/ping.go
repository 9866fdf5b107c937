// Package platform opens the external dependencies the server needs.
package platform

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
)

// MaxPingRetries bounds how long bootstrap waits for a dependency that is
// still starting, e.g. under docker compose.
const MaxPingRetries = 5

// Ping runs check with Fibonacci backoff until it succeeds or the retries are
// exhausted. Each attempt gets its own 3s timeout.
func Ping(ctx context.Context, name string, check func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(MaxPingRetries, retry.NewFibonacci(500*time.Millisecond))
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := check(pingCtx); err != nil {
			log.Printf("ping %s attempt %d failed: %v", name, attempt, err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping %s failed: %w", name, err)
	}
	return nil
}
