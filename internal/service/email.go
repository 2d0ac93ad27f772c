package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
)

// mailSender delivers one message. Implementations: SendGrid and log-only.
type mailSender interface {
	Send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error
	Name() string
}

type sendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// newSendGridSender talks to host, or the public SendGrid API when host is empty.
func newSendGridSender(apiKey, host, fromEmail, fromName string) *sendGridSender {
	req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	req.Method = "POST"
	return &sendGridSender{
		client:    &sendgrid.Client{Request: req},
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridSender) Name() string { return "sendgrid" }

func (s *sendGridSender) Send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail(toName, to), plainText, htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

type logSender struct{}

func (logSender) Name() string { return "log" }

func (logSender) Send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	logger.InfoContext(ctx, "Email (log provider)", "to", to, "subject", subject, "body", plainText)
	return nil
}

type emailService struct {
	sender      mailSender
	adminNotify string
	orgName     string
}

// NewEmailService builds the outbound mail service. provider is "sendgrid" or "log".
func NewEmailService(provider, apiKey, from, fromName, adminNotify string) EmailService {
	var sender mailSender = logSender{}
	if provider == "sendgrid" {
		sender = newSendGridSender(apiKey, "", from, fromName)
	}
	return newEmailService(sender, fromName, adminNotify)
}

func newEmailService(sender mailSender, orgName, adminNotify string) *emailService {
	if orgName == "" {
		orgName = "The Foundation"
	}
	return &emailService{sender: sender, adminNotify: adminNotify, orgName: orgName}
}

func (s *emailService) send(ctx context.Context, op, to, toName, subject, body string) error {
	logger.ExternalServiceCall(s.sender.Name(), op, "to", to)
	err := s.sender.Send(ctx, to, toName, subject, body, toHTML(body))
	logger.ExternalServiceResult(s.sender.Name(), op, err, "to", to)
	return err
}

func (s *emailService) SendDonationReceipt(ctx context.Context, d *domain.Donation) error {
	if d.DonorEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Thank you for your donation to %s", s.orgName)
	body := fmt.Sprintf("Dear %s,\n\nWe have received your donation of %s %s (reference %s).\n\nYour generosity makes a real difference to the children we support.\n\nWith gratitude,\n%s",
		d.DonorName, d.Currency, d.Amount.StringFixed(2), d.Reference, s.orgName)
	return s.send(ctx, "SendDonationReceipt", d.DonorEmail, d.DonorName, subject, body)
}

func (s *emailService) SendVolunteerStatus(ctx context.Context, v *domain.Volunteer) error {
	var subject, msg string
	switch v.Status {
	case domain.VolunteerStatusApproved:
		subject = "Your volunteer application has been approved"
		msg = "We are delighted to welcome you as a volunteer. Our team will contact you shortly with next steps."
	case domain.VolunteerStatusRejected:
		subject = "Update on your volunteer application"
		msg = "Thank you for your interest in volunteering. Unfortunately we are unable to accept your application at this time."
	case domain.VolunteerStatusSuspended:
		subject = "Your volunteer status has been updated"
		msg = "Your volunteer activity has been paused. Please contact us if you have any questions."
	case domain.VolunteerStatusPending:
		subject = "We received your volunteer application"
		msg = "Thank you for signing up. We will review your application and get back to you."
	default:
		return nil
	}
	body := fmt.Sprintf("Dear %s,\n\n%s", v.FirstName, msg)
	if v.ReviewNotes != "" && v.Status != domain.VolunteerStatusPending {
		body += fmt.Sprintf("\n\nNotes: %s", v.ReviewNotes)
	}
	body += fmt.Sprintf("\n\nBest regards,\n%s", s.orgName)
	return s.send(ctx, "SendVolunteerStatus", v.Email, v.FullName(), subject, body)
}

func (s *emailService) SendInquiryNotification(ctx context.Context, inq *domain.ContactInquiry) error {
	if s.adminNotify == "" {
		return nil
	}
	subject := fmt.Sprintf("[Contact] %s", inq.Subject)
	body := fmt.Sprintf("New %s inquiry from %s <%s>", inq.InquiryType, inq.Name, inq.Email)
	if inq.Phone != "" {
		body += fmt.Sprintf(", phone %s", inq.Phone)
	}
	body += fmt.Sprintf("\n\n%s", inq.Message)
	return s.send(ctx, "SendInquiryNotification", s.adminNotify, "", subject, body)
}

func toHTML(plain string) string {
	paras := strings.Split(html.EscapeString(plain), "\n\n")
	for i, p := range paras {
		paras[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	return "<html><body>" + strings.Join(paras, "") + "</body></html>"
}
