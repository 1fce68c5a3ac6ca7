package notifications

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
)

const sendTimeout = 10 * time.Second

// Sender delivers one push message to one device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Dispatcher fans push messages out over a Sender. Delivery is best effort:
// callers fire and forget, failures are logged and counted, never returned
// to the request path.
type Dispatcher struct {
	sender Sender
	logger *logger.Logger
}

// NewDispatcher builds a dispatcher.
func NewDispatcher(sender Sender, logg *logger.Logger) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{sender: sender, logger: logg}, nil
}

// DispatchAsync sends in a goroutine with its own timeout so a slow push
// provider never blocks order flow.
func (d *Dispatcher) DispatchAsync(token, title, body string) {
	if token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, token, title, body); err != nil {
			d.logger.Error(ctx, "push delivery failed", err)
		}
	}()
}

// Broadcast sends the same message to every token, collecting the failures.
func (d *Dispatcher) Broadcast(ctx context.Context, tokens []string, title, body string) error {
	var errs []error
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if err := d.sender.Send(ctx, token, title, body); err != nil {
			errs = append(errs, fmt.Errorf("token %s...: %w", truncateToken(token), err))
		}
	}
	return multierr.Combine(errs...)
}

// truncateToken keeps logs useful without leaking full device tokens.
func truncateToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
