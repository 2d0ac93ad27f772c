package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/domain"
)

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Name() string { return "mock" }

func (m *MockMailSender) Send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	args := m.Called(ctx, to, toName, subject, plainText, htmlContent)
	return args.Error(0)
}

func TestEmailService_DonationReceipt(t *testing.T) {
	ctx := context.Background()
	sender := new(MockMailSender)
	svc := newEmailService(sender, "Bright Future Foundation", "")

	d := &domain.Donation{DonorName: "Ada", DonorEmail: "ada@example.com", Amount: decimal.NewFromInt(5000), Currency: "NGN", Reference: "FDN-1"}
	sender.On("Send", ctx, "ada@example.com", "Ada", "Thank you for your donation to Bright Future Foundation",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "NGN 5000.00") && strings.Contains(body, "FDN-1")
		}), mock.Anything).Return(nil).Once()

	require.NoError(t, svc.SendDonationReceipt(ctx, d))
	sender.AssertExpectations(t)

	t.Run("no email on file", func(t *testing.T) {
		require.NoError(t, svc.SendDonationReceipt(ctx, &domain.Donation{DonorName: "Walk-in"}))
		sender.AssertNumberOfCalls(t, "Send", 1)
	})
}

func TestEmailService_VolunteerStatus(t *testing.T) {
	ctx := context.Background()
	sender := new(MockMailSender)
	svc := newEmailService(sender, "", "")

	v := &domain.Volunteer{FirstName: "Ngozi", LastName: "Okafor", Email: "ngozi@example.com", Status: domain.VolunteerStatusRejected, ReviewNotes: "Try again <next> year"}
	sender.On("Send", ctx, "ngozi@example.com", "Ngozi Okafor", "Update on your volunteer application",
		mock.MatchedBy(func(body string) bool { return strings.Contains(body, "Notes: Try again <next> year") }),
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "&lt;next&gt;") }),
	).Return(errors.New("smtp down")).Once()

	assert.Error(t, svc.SendVolunteerStatus(ctx, v))
	sender.AssertExpectations(t)
}

func TestEmailService_InquiryNotification(t *testing.T) {
	ctx := context.Background()
	inq := &domain.ContactInquiry{Name: "Tunde", Email: "tunde@example.com", Subject: "Books", Message: "Hello", InquiryType: domain.InquiryTypeDonation}

	t.Run("no admin address", func(t *testing.T) {
		sender := new(MockMailSender)
		require.NoError(t, newEmailService(sender, "", "").SendInquiryNotification(ctx, inq))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin notified", func(t *testing.T) {
		sender := new(MockMailSender)
		sender.On("Send", ctx, "office@example.org", "", "[Contact] Books", mock.Anything, mock.Anything).Return(nil).Once()
		require.NoError(t, newEmailService(sender, "", "office@example.org").SendInquiryNotification(ctx, inq))
		sender.AssertExpectations(t)
	})
}

func TestSendGridSender(t *testing.T) {
	var got map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		if r.URL.Path != "/v3/mail/send" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := newSendGridSender("SG.test", server.URL, "noreply@example.org", "Foundation")
	require.NoError(t, sender.Send(context.Background(), "ada@example.com", "Ada", "Hi", "plain", "<p>plain</p>"))
	assert.Equal(t, "Bearer SG.test", auth)
	assert.Equal(t, "Hi", got["subject"])

	t.Run("error status", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
		}))
		defer failing.Close()

		err := newSendGridSender("bad", failing.URL, "noreply@example.org", "Foundation").
			Send(context.Background(), "ada@example.com", "Ada", "Hi", "plain", "<p>plain</p>")
		assert.Error(t, err)
	})
}
