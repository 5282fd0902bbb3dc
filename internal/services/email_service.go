package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
	contextutils "civicreport/internal/utils"

	"gopkg.in/mail.v2"
)

// overdueDigestTemplate renders the authority's overdue ticket digest.
var overdueDigestTemplate = template.Must(template.New("overdue_digest").Parse(`<html>
<body>
<h2>Overdue issue reports</h2>
<p>{{len .Tickets}} open ticket(s) have exceeded the overdue threshold of {{.ThresholdDays}} day(s).</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Reported</th><th>Name</th><th>Category</th><th>Description</th><th>Location</th></tr>
{{range .Tickets}}<tr>
<td>{{.Date}}</td>
<td>{{.Name}}</td>
<td>{{.Category}}</td>
<td>{{.Description}}</td>
<td>{{.GeoLocation.Address}}</td>
</tr>
{{end}}</table>
</body>
</html>`))

// EmailService implements the serviceinterfaces.EmailService interface using gomail
type EmailService struct {
	config *config.Config
	dialer *mail.Dialer
	logger *observability.Logger
}

// Ensure EmailService implements the EmailService interface
var _ serviceinterfaces.EmailService = (*EmailService)(nil)

// NewEmailService creates an email service; it is disabled unless SMTP and a
// digest recipient are configured.
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var dialer *mail.Dialer
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		dialer = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}
	return &EmailService{config: cfg, dialer: dialer, logger: logger}
}

// IsEnabled returns whether the overdue digest can actually be sent.
func (s *EmailService) IsEnabled() bool {
	return s.dialer != nil && s.config.Email.OverdueDigest.Enabled && s.config.Email.OverdueDigest.Recipient != ""
}

// SendOverdueDigest emails the authority the current overdue ticket list.
// Sending nothing for an empty list is deliberate: no overdue tickets, no mail.
func (s *EmailService) SendOverdueDigest(ctx context.Context, tickets []models.Ticket) (err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_overdue_digest", observability.AttributeTicketCount(len(tickets)))
	defer observability.FinishSpan(span, &err)

	if !s.IsEnabled() {
		s.logger.Debug(ctx, "Email disabled, skipping overdue digest")
		return nil
	}
	if len(tickets) == 0 {
		return nil
	}

	var body bytes.Buffer
	data := struct {
		Tickets       []models.Ticket
		ThresholdDays int
	}{tickets, s.config.Triage.OverdueThresholdDays}
	if err := overdueDigestTemplate.Execute(&body, data); err != nil {
		return contextutils.WrapError(err, "failed to render overdue digest")
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", s.config.Email.SMTP.FromAddress, s.config.Email.SMTP.FromName)
	msg.SetHeader("To", s.config.Email.OverdueDigest.Recipient)
	msg.SetHeader("Subject", fmt.Sprintf("%d overdue issue report(s) need attention", len(tickets)))
	msg.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		return contextutils.WrapError(err, "failed to send overdue digest")
	}

	s.logger.Info(ctx, "Sent overdue digest", map[string]interface{}{
		"recipient": s.config.Email.OverdueDigest.Recipient,
		"tickets":   len(tickets),
	})
	return nil
}
