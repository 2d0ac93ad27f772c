package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/payment"
	"foundation-backend/internal/repository"
)

var maxDonationAmount = decimal.NewFromInt(10_000_000)

const (
	defaultPublicDonations = 10
	maxPublicDonations     = 50
)

// DonationCheckout is returned to the donor form; the browser is sent to
// AuthorizationURL to pay.
type DonationCheckout struct {
	Donation         *domain.Donation `json:"donation"`
	AuthorizationURL string           `json:"authorizationUrl"`
}

// ExpiryResult summarizes one stale-donation sweep.
type ExpiryResult struct {
	Checked   int
	Completed int
	Failed    int
	Errors    int
}

type donationService struct {
	donations   repository.DonationRepository
	issues      repository.IssueRepository
	gateway     payment.Gateway
	emailSvc    EmailService
	callbackURL string
	// stats may be nil.
	stats StatsInvalidator
	now   func() time.Time
}

func NewDonationService(
	donations repository.DonationRepository,
	issues repository.IssueRepository,
	gateway payment.Gateway,
	emailSvc EmailService,
	callbackURL string,
	stats StatsInvalidator,
) DonationService {
	return &donationService{
		donations:   donations,
		issues:      issues,
		gateway:     gateway,
		emailSvc:    emailSvc,
		callbackURL: callbackURL,
		stats:       stats,
		now:         time.Now,
	}
}

func (s *donationService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateDashboard(ctx)
	}
}

func (s *donationService) CreateDonation(ctx context.Context, req domain.DonationRequest) (*DonationCheckout, error) {
	logger.EnterMethod("donationService.CreateDonation", "amount", req.Amount.String(), "currency", req.Currency, "issueID", req.IssueID)

	req.DonorName = strings.TrimSpace(req.DonorName)
	req.DonorEmail = strings.ToLower(strings.TrimSpace(req.DonorEmail))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Message = strings.TrimSpace(req.Message)

	if err := s.validateRequest(ctx, req); err != nil {
		logger.ExitMethodWithError("donationService.CreateDonation", err)
		return nil, err
	}

	donation := &domain.Donation{
		DonorName:   req.DonorName,
		DonorEmail:  req.DonorEmail,
		DonorID:     req.DonorID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
		IssueID:     req.IssueID,
		Status:      domain.DonationStatusPending,
		Reference:   s.gateway.GenerateReference(),
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		logger.ExitMethodWithError("donationService.CreateDonation", err)
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}
	s.invalidateStats(ctx)

	logger.ExternalServiceCall("paystack", "InitializeTransaction", "reference", donation.Reference)
	auth, err := s.gateway.InitializeTransaction(ctx, payment.InitializeRequest{
		Email:       donation.DonorEmail,
		Amount:      donation.Amount,
		Currency:    donation.Currency,
		Reference:   donation.Reference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"donationId":  donation.ID,
			"issueId":     donation.IssueID,
			"isAnonymous": donation.IsAnonymous,
			"donorName":   donation.DonorName,
		},
	})
	logger.ExternalServiceResult("paystack", "InitializeTransaction", err, "reference", donation.Reference)
	if err != nil {
		// The donor never reached the gateway, so the donation cannot complete.
		if _, ferr := s.FailDonation(ctx, donation.ID, "payment initialization failed"); ferr != nil {
			logger.Error("Failed to mark donation failed after gateway error", "donationID", donation.ID, "error", ferr)
		}
		logger.ExitMethodWithError("donationService.CreateDonation", err, "donationID", donation.ID)
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	if err := s.donations.SetAuthorizationURL(ctx, donation.ID, auth.AuthorizationURL); err != nil {
		logger.Warn("Failed to store authorization URL", "donationID", donation.ID, "error", err)
	}
	donation.AuthorizationURL = auth.AuthorizationURL

	logger.ExitMethod("donationService.CreateDonation", "donationID", donation.ID, "reference", donation.Reference)
	return &DonationCheckout{Donation: donation, AuthorizationURL: auth.AuthorizationURL}, nil
}

func (s *donationService) validateRequest(ctx context.Context, req domain.DonationRequest) error {
	verr := &domain.ValidationError{}
	validateStruct(req, verr)

	switch {
	case !req.Amount.IsPositive():
		verr.Add("amount", "must be greater than zero")
	case req.Amount.GreaterThan(maxDonationAmount):
		verr.Add("amount", fmt.Sprintf("must not exceed %s", maxDonationAmount.String()))
	case !req.Amount.Equal(req.Amount.Round(2)):
		verr.Add("amount", "must have at most 2 decimal places")
	}
	if _, bad := verr.Fields["currency"]; !bad && !domain.IsSupportedCurrency(req.Currency) {
		verr.Add("currency", fmt.Sprintf("must be one of: %s", strings.Join(domain.SupportedCurrencies, ", ")))
	}
	if verr.HasErrors() {
		return verr
	}

	if req.IssueID != "" {
		issue, err := s.issues.GetByID(ctx, req.IssueID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("issueId", "issue not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load issue: %w", err)
		}
		if !issue.Status.AcceptsDonations() {
			return domain.NewValidationError("issueId", "issue is no longer accepting donations")
		}
	}
	return nil
}

// UpdateDonationStatus applies an admin status change. Only pending donations
// move, and only to completed or failed.
func (s *donationService) UpdateDonationStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	switch status {
	case domain.DonationStatusCompleted:
		return s.CompleteDonation(ctx, id)
	case domain.DonationStatusFailed:
		return s.FailDonation(ctx, id, "marked failed by administrator")
	case domain.DonationStatusPending:
		current, err := s.donations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return current, &domain.TransitionError{Entity: "donation", From: string(current.Status), To: string(status)}
	}
	return nil, domain.NewValidationError("status", "must be one of: pending, completed, failed")
}

// CompleteDonation marks the donation completed and credits its issue in one
// transaction. A donation that already left pending is returned together with
// ErrInvalidTransition.
func (s *donationService) CompleteDonation(ctx context.Context, id string) (*domain.Donation, error) {
	return s.complete(ctx, id, s.now())
}

func (s *donationService) complete(ctx context.Context, id string, paidAt time.Time) (*domain.Donation, error) {
	logger.EnterMethod("donationService.CompleteDonation", "donationID", id)

	donation, err := s.donations.Complete(ctx, id, paidAt)
	if err != nil {
		logger.ExitMethodWithError("donationService.CompleteDonation", err, "donationID", id)
		if errors.Is(err, domain.ErrInvalidTransition) {
			current, gerr := s.donations.GetByID(ctx, id)
			if gerr == nil {
				return current, err
			}
		}
		return nil, err
	}

	s.invalidateStats(ctx)

	if err := s.emailSvc.SendDonationReceipt(ctx, donation); err != nil {
		logger.Warn("Failed to send donation receipt", "donationID", id, "error", err)
	}

	logger.ExitMethod("donationService.CompleteDonation", "donationID", id, "issueID", donation.IssueID)
	return donation, nil
}

func (s *donationService) FailDonation(ctx context.Context, id, reason string) (*domain.Donation, error) {
	logger.EnterMethod("donationService.FailDonation", "donationID", id, "reason", reason)

	donation, err := s.donations.TransitionStatus(ctx, id, domain.DonationStatusPending, domain.DonationStatusFailed, func(d *domain.Donation) {
		d.FailureReason = reason
	})
	if err != nil {
		logger.ExitMethodWithError("donationService.FailDonation", err, "donationID", id)
		return nil, err
	}
	s.invalidateStats(ctx)

	logger.ExitMethod("donationService.FailDonation", "donationID", id)
	return donation, nil
}

// VerifyDonation asks the gateway for the outcome of a payment and settles
// the donation accordingly. Donations that already settled are returned as is.
func (s *donationService) VerifyDonation(ctx context.Context, reference string) (*domain.Donation, error) {
	logger.EnterMethod("donationService.VerifyDonation", "reference", reference)

	donation, err := s.donations.GetByReference(ctx, reference)
	if err != nil {
		logger.ExitMethodWithError("donationService.VerifyDonation", err, "reference", reference)
		return nil, err
	}
	if donation.Status.IsTerminal() {
		logger.ExitMethod("donationService.VerifyDonation", "reference", reference, "status", donation.Status)
		return donation, nil
	}

	logger.ExternalServiceCall("paystack", "VerifyTransaction", "reference", reference)
	v, err := s.gateway.VerifyTransaction(ctx, reference)
	logger.ExternalServiceResult("paystack", "VerifyTransaction", err, "reference", reference)
	if err != nil {
		return donation, fmt.Errorf("failed to verify payment: %w", err)
	}

	out, err := s.settle(ctx, donation, v.Status, v.Amount, v.Currency, v.GatewayResponse, v.PaidAt)
	if err != nil {
		logger.ExitMethodWithError("donationService.VerifyDonation", err, "reference", reference)
		return donation, err
	}

	logger.ExitMethod("donationService.VerifyDonation", "reference", reference, "status", out.Status)
	return out, nil
}

// HandleWebhook applies a signed gateway notification. Unknown references and
// repeated deliveries are acknowledged without error.
func (s *donationService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		logger.Warn("Rejected payment webhook with invalid signature")
		return fmt.Errorf("%w: invalid webhook signature", domain.ErrUnauthorized)
	}
	evt, err := s.gateway.ParseWebhook(body)
	if err != nil {
		return domain.NewValidationError("body", err.Error())
	}

	logger.Info("Payment webhook received", "event", evt.Event, "reference", evt.Reference)

	var status string
	switch evt.Event {
	case payment.EventChargeSuccess:
		status = payment.StatusSuccess
	case payment.EventChargeFailed:
		status = payment.StatusFailed
	default:
		logger.Debug("Ignoring payment webhook event", "event", evt.Event)
		return nil
	}

	donation, err := s.donations.GetByReference(ctx, evt.Reference)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Payment webhook for unknown reference", "reference", evt.Reference)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load donation: %w", err)
	}
	if donation.Status.IsTerminal() {
		return nil
	}

	_, err = s.settle(ctx, donation, status, evt.Amount, evt.Currency, evt.Status, evt.PaidAt)
	return err
}

// settle moves a pending donation according to a gateway status. Losing a
// race against another settlement is not an error. paidAt is the gateway's
// payment time; the server clock is used when it is absent.
func (s *donationService) settle(ctx context.Context, d *domain.Donation, status string, amount decimal.Decimal, currency, gatewayMsg string, paidAt *time.Time) (*domain.Donation, error) {
	var (
		out *domain.Donation
		err error
	)
	switch status {
	case payment.StatusSuccess:
		if mismatch(d, amount, currency) {
			logger.Warn("Gateway amount does not match donation", "donationID", d.ID,
				"expected", d.Amount.String()+" "+d.Currency, "paid", amount.String()+" "+currency)
			out, err = s.FailDonation(ctx, d.ID, "paid amount does not match donation")
		} else {
			at := s.now()
			if paidAt != nil && !paidAt.IsZero() {
				at = *paidAt
			}
			out, err = s.complete(ctx, d.ID, at)
		}
	case payment.StatusFailed, payment.StatusAbandoned:
		reason := "payment " + status
		if gatewayMsg != "" && gatewayMsg != status {
			reason = fmt.Sprintf("payment %s: %s", status, gatewayMsg)
		}
		out, err = s.FailDonation(ctx, d.ID, reason)
	default:
		return d, nil
	}

	if errors.Is(err, domain.ErrInvalidTransition) {
		current, gerr := s.donations.GetByID(ctx, d.ID)
		if gerr != nil {
			return nil, gerr
		}
		return current, nil
	}
	return out, err
}

func mismatch(d *domain.Donation, amount decimal.Decimal, currency string) bool {
	if !amount.IsZero() && !amount.Equal(d.Amount) {
		return true
	}
	return currency != "" && !strings.EqualFold(currency, d.Currency)
}

// ExpireStaleDonations settles pending donations created before cutoff: the
// gateway is asked once, and anything not paid is marked failed. A donation
// the gateway could not be asked about stays pending for the next sweep.
func (s *donationService) ExpireStaleDonations(ctx context.Context, cutoff time.Time) (ExpiryResult, error) {
	logger.EnterMethod("donationService.ExpireStaleDonations", "cutoff", cutoff)

	var res ExpiryResult
	pending, err := s.donations.List(ctx, domain.DonationFilter{Status: domain.DonationStatusPending})
	if err != nil {
		logger.ExitMethodWithError("donationService.ExpireStaleDonations", err)
		return res, fmt.Errorf("failed to list pending donations: %w", err)
	}

	for i := range pending {
		d := &pending[i]
		if !d.CreatedAt.Before(cutoff) {
			continue
		}
		res.Checked++

		v, verr := s.gateway.VerifyTransaction(ctx, d.Reference)
		if verr != nil {
			res.Errors++
			logger.Warn("Failed to verify stale donation, leaving pending", "donationID", d.ID, "error", verr)
			continue
		}

		var out *domain.Donation
		if v.Status == payment.StatusSuccess {
			out, err = s.settle(ctx, d, v.Status, v.Amount, v.Currency, "", v.PaidAt)
		} else {
			out, err = s.FailDonation(ctx, d.ID, "payment not completed")
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
		}
		switch {
		case err != nil:
			res.Errors++
			logger.Error("Failed to settle stale donation", "donationID", d.ID, "error", err)
		case out.Status == domain.DonationStatusCompleted:
			res.Completed++
		case out.Status == domain.DonationStatusFailed:
			res.Failed++
		}
	}

	logger.ExitMethod("donationService.ExpireStaleDonations", "checked", res.Checked, "completed", res.Completed, "failed", res.Failed, "errors", res.Errors)
	return res, nil
}

func (s *donationService) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	return s.donations.GetByID(ctx, id)
}

func (s *donationService) GetDonationByReference(ctx context.Context, reference string) (*domain.Donation, error) {
	return s.donations.GetByReference(ctx, reference)
}

func (s *donationService) ListDonations(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown donation status")
	}
	return s.donations.List(ctx, filter)
}

// ListPublicDonations returns recent completed donations with donor identity
// removed from anonymous ones.
func (s *donationService) ListPublicDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	if limit <= 0 {
		limit = defaultPublicDonations
	}
	if limit > maxPublicDonations {
		limit = maxPublicDonations
	}
	list, err := s.donations.List(ctx, domain.DonationFilter{Status: domain.DonationStatusCompleted, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	out := make([]domain.Donation, len(list))
	for i, d := range list {
		out[i] = d.PublicView()
	}
	return out, nil
}

func (s *donationService) DeleteDonation(ctx context.Context, id string) error {
	logger.Info("Deleting donation", "donationID", id)
	return s.donations.Delete(ctx, id)
}
