package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"foundation-backend/internal/logger"
)

const (
	DefaultBaseURL  = "https://api.paystack.co"
	referencePrefix = "FDN"
)

var (
	ErrGateway          = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	hundred             = decimal.NewFromInt(100)
)

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// PaystackClient talks to the Paystack transaction API. Every call is made once.
type PaystackClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewPaystackClient(cfg PaystackConfig) *PaystackClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &PaystackClient{
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// GenerateReference returns FDN-<yyyymmddHHMMSS>-<8 hex>.
func (c *PaystackClient) GenerateReference() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", referencePrefix, c.now().UTC().Format("20060102150405"), suffix)
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializePayload struct {
	Email       string         `json:"email"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type transactionData struct {
	Reference       string  `json:"reference"`
	Status          string  `json:"status"`
	Amount          int64   `json:"amount"`
	Currency        string  `json:"currency"`
	PaidAt          *string `json:"paid_at"`
	GatewayResponse string  `json:"gateway_response"`
}

// InitializeTransaction registers the charge and returns the checkout URL.
// Amounts are sent in minor units.
func (c *PaystackClient) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	logger.ExternalServiceCall("paystack", "initializeTransaction", "reference", req.Reference)

	payload := initializePayload{
		Email:       req.Email,
		Amount:      ToMinorUnits(req.Amount).String(),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	var auth Authorization
	err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &auth)
	logger.ExternalServiceResult("paystack", "initializeTransaction", err, "reference", req.Reference)
	if err != nil {
		return nil, err
	}
	if auth.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: empty authorization url", ErrGateway)
	}
	if auth.Reference == "" {
		auth.Reference = req.Reference
	}
	return &auth, nil
}

func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	logger.ExternalServiceCall("paystack", "verifyTransaction", "reference", reference)

	var data transactionData
	err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data)
	logger.ExternalServiceResult("paystack", "verifyTransaction", err, "reference", reference)
	if err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return data.verification(), nil
}

// VerifyWebhookSignature checks the x-paystack-signature header, an
// HMAC-SHA512 of the raw body keyed with the secret key.
func (c *PaystackClient) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" || c.secretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (c *PaystackClient) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string          `json:"event"`
		Data  transactionData `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}
	v := payload.Data.verification()
	return &WebhookEvent{
		Event:     payload.Event,
		Reference: v.Reference,
		Status:    v.Status,
		Amount:    v.Amount,
		Currency:  v.Currency,
		PaidAt:    v.PaidAt,
	}, nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: status %d: undecodable response", ErrGateway, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (d transactionData) verification() *Verification {
	v := &Verification{
		Reference:       d.Reference,
		Status:          strings.ToLower(d.Status),
		Amount:          FromMinorUnits(d.Amount),
		Currency:        d.Currency,
		GatewayResponse: d.GatewayResponse,
	}
	if d.PaidAt != nil {
		if t, err := time.Parse(time.RFC3339, *d.PaidAt); err == nil {
			v.PaidAt = &t
		}
	}
	return v
}

// ToMinorUnits converts 12.34 to 1234, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(hundred).Round(0)
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
