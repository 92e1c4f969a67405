package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendActivityReminder(email, title, activityType string, dueAt time.Time) error
	SendDraftMessage(email, subject, body string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Dealflow, %s!</h2>
		<p>Your account has been created. Log in to see your pipelines.</p>
	`, name)
	return s.send(email, "Welcome to Dealflow", body)
}

func (s *emailService) SendActivityReminder(email, title, activityType string, dueAt time.Time) error {
	body := fmt.Sprintf(`
		<p>Your %s <b>%s</b> is due at %s.</p>
	`, activityType, title, dueAt.Format("2006-01-02 15:04"))
	return s.send(email, "Reminder: "+title, body)
}

// SendDraftMessage delivers an AI-drafted outreach message on behalf of
// the user.
func (s *emailService) SendDraftMessage(email, subject, body string) error {
	return s.send(email, subject, body)
}
