package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction outcomes reported by the gateway.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusPending   = "pending"
)

// Webhook event names.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Verification struct {
	Reference       string
	Status          string
	Amount          decimal.Decimal
	Currency        string
	PaidAt          *time.Time
	GatewayResponse string
}

// WebhookEvent is the subset of a gateway notification the platform reads.
type WebhookEvent struct {
	Event     string
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	PaidAt    *time.Time
}

type Gateway interface {
	GenerateReference() string
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (*WebhookEvent, error)
}
