package services

import (
	"fmt"

	"fitness_portal_backend/pkg/utils"

	"gopkg.in/gomail.v2"
)

// EmailService sends transactional portal mail.
type EmailService interface {
	SendVerificationEmail(to, firstName, verifyURL string) error
	SendWelcomeEmail(to, firstName, membershipID string) error
	SendTicketNotification(to, ticketNumber, subject string) error
}

// EmailConfig carries SMTP settings. An empty Host switches the service into
// log-only mode so local environments work without a relay.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailService struct {
	cfg EmailConfig
}

// NewEmailService creates a new instance of EmailService.
func NewEmailService(cfg EmailConfig) EmailService {
	if cfg.From == "" {
		cfg.From = "noreply@fitnessstudio.example"
	}
	return &emailService{cfg: cfg}
}

func (s *emailService) send(to, subject, htmlBody string) error {
	if s.cfg.Host == "" {
		utils.LogInfo("SMTP not configured, skipping email delivery", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// SendVerificationEmail delivers the email-verification link issued at
// registration.
func (s *emailService) SendVerificationEmail(to, firstName, verifyURL string) error {
	subject := "Bitte bestätige deine E-Mail-Adresse"
	body := fmt.Sprintf(`<h2>Hallo %s,</h2>
<p>willkommen im Fitnessstudio-Portal! Bitte bestätige deine E-Mail-Adresse, um deine Mitgliedschaft zu aktivieren:</p>
<p><a href="%s">E-Mail-Adresse bestätigen</a></p>
<p>Der Link ist 24 Stunden gültig.</p>`, firstName, verifyURL)
	return s.send(to, subject, body)
}

// SendTicketNotification tells the studio inbox about a new support ticket.
func (s *emailService) SendTicketNotification(to, ticketNumber, subject string) error {
	mailSubject := fmt.Sprintf("Neues Support-Ticket %s", ticketNumber)
	body := fmt.Sprintf(`<h2>Neues Support-Ticket</h2>
<p>Ticket <strong>%s</strong> wurde eröffnet:</p>
<p>%s</p>`, ticketNumber, subject)
	return s.send(to, mailSubject, body)
}

// SendWelcomeEmail delivers the post-verification welcome message with the
// public membership ID.
func (s *emailService) SendWelcomeEmail(to, firstName, membershipID string) error {
	subject := "Deine Mitgliedschaft ist aktiv"
	body := fmt.Sprintf(`<h2>Hallo %s,</h2>
<p>deine Mitgliedschaft ist jetzt aktiv. Deine Mitgliedsnummer lautet:</p>
<p><strong>%s</strong></p>
<p>Zeige deine digitale Mitgliedskarte am Empfang vor, um einzuchecken.</p>`, firstName, membershipID)
	return s.send(to, subject, body)
}
