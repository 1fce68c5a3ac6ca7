package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
)

var errLoggerRequired = errors.New("push logger is required")

// Client delivers push notifications through an FCM-style HTTP endpoint.
// Delivery is best effort everywhere it is used; callers log failures and
// move on.
type Client struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
	logger     *logger.Logger
}

// NewClient builds the sender. A client with no endpoint configured is valid
// and silently drops every message, which keeps dev environments quiet.
func NewClient(cfg config.PushConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		serverKey:  strings.TrimSpace(cfg.ServerKey),
		logger:     logg,
	}, nil
}

type message struct {
	To           string       `json:"to"`
	Notification notification `json:"notification"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send pushes a single notification to the device token.
func (c *Client) Send(ctx context.Context, token, title, body string) error {
	if c.endpoint == "" || c.serverKey == "" {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("device token required")
	}

	payload, err := json.Marshal(message{
		To:           token,
		Notification: notification{Title: title, Body: body},
	})
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("push endpoint responded %d", res.StatusCode)
	}
	return nil
}
