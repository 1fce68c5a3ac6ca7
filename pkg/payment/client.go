package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
)

var (
	errBaseURLRequired     = errors.New("payment gateway base url is required")
	errAccessTokenRequired = errors.New("payment gateway access token is required")
	errLoggerRequired      = errors.New("payment logger is required")
)

// Payment is the gateway's view of a charge. ExternalReference carries the
// order id we attached at charge creation and is the only trusted way to map
// a notification back to an order.
type Payment struct {
	ID                string              `json:"id"`
	Status            enums.PaymentStatus `json:"status"`
	ExternalReference string              `json:"external_reference"`
	AmountCents       int64               `json:"transaction_amount_cents"`
}

// PixCharge is the result of creating a PIX charge for an order.
type PixCharge struct {
	PaymentID string `json:"payment_id"`
	QRCodeURL string `json:"qr_code_url"`
	CopyPaste string `json:"qr_code"`
}

// ChargeItem is a line forwarded to the gateway when creating a charge.
type ChargeItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	AmountCents int64  `json:"amount_cents"`
}

// CreateChargeInput carries everything the gateway needs for a PIX charge.
type CreateChargeInput struct {
	OrderID     uuid.UUID
	Items       []ChargeItem
	PayerEmail  string
	ExpiresIn   time.Duration
}

// Client talks to the payment gateway with centralized auth, timeouts, and
// error mapping. Services consume the narrow interfaces declared next to
// them, so tests never need a live gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pixExpiry  time.Duration
	logger     *logger.Logger
}

// NewClient validates the configuration and builds a gateway client.
func NewClient(cfg config.PaymentConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid payment base url: %w", err)
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		pixExpiry:  cfg.PixExpiry,
		logger:     logg,
	}, nil
}

// GetPayment fetches a payment by id from the gateway. Settlement always
// re-fetches instead of trusting amounts embedded in webhook bodies.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var payment Payment
	if err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

type createChargeRequest struct {
	ExternalReference string       `json:"external_reference"`
	PayerEmail        string       `json:"payer_email,omitempty"`
	Items             []ChargeItem `json:"items"`
	PaymentMethod     string       `json:"payment_method"`
	ExpiresInSeconds  int64        `json:"expires_in_seconds"`
}

// CreatePixCharge creates a PIX charge carrying the order id as the external
// reference the webhook flow later resolves.
func (c *Client) CreatePixCharge(ctx context.Context, input CreateChargeInput) (*PixCharge, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge items required")
	}

	expiry := input.ExpiresIn
	if expiry <= 0 {
		expiry = c.pixExpiry
	}

	body := createChargeRequest{
		ExternalReference: input.OrderID.String(),
		PayerEmail:        input.PayerEmail,
		Items:             input.Items,
		PaymentMethod:     "pix",
		ExpiresInSeconds:  int64(expiry.Seconds()),
	}

	var charge PixCharge
	if err := c.doJSON(ctx, http.MethodPost, "/v1/charges", body, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

type createPayoutRequest struct {
	PixKey      string `json:"pix_key"`
	AmountCents int64  `json:"amount_cents"`
}

// CreatePayout transfers funds to the provided PIX key. The cashout flow
// treats any error here as a failed cashout and leaves the balance untouched.
func (c *Client) CreatePayout(ctx context.Context, pixKey string, amountCents int64) error {
	if strings.TrimSpace(pixKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pix key required")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/payouts", createPayoutRequest{
		PixKey:      pixKey,
		AmountCents: amountCents,
	}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment gateway")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found at gateway")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway responded %d", res.StatusCode))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}
