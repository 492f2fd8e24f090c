package email

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/gomail.v2"
)

// Sender delivers the transactional mails the local provider needs.
type Sender interface {
	SendVerificationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
	SendPasswordChangedEmail(to, name string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	BaseURL     string // base URL for links in email bodies
}

type SMTPSender struct {
	config SMTPConfig
	dialer *gomail.Dialer
	titler cases.Caser
}

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		titler: cases.Title(language.English),
	}
}

func (s *SMTPSender) SendVerificationEmail(to, name, token string) error {
	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.config.BaseURL, token)

	subject := "Verify Your Email Address"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Hi %s,</h2>
			<p>Please verify your email address by clicking the link below:</p>
			<p><a href="%s">Verify Email Address</a></p>
			<p>Or copy and paste this URL into your browser:</p>
			<p>%s</p>
			<p>This link will expire in 24 hours.</p>
			<p>If you didn't create an account, please ignore this email.</p>
		</body>
		</html>
	`, s.greeting(name, to), verificationURL, verificationURL)

	plainBody := fmt.Sprintf(`
Hi %s,

Please verify your email address by visiting:
%s

This link will expire in 24 hours.

If you didn't create an account, please ignore this email.
	`, s.greeting(name, to), verificationURL)

	return s.send(to, subject, htmlBody, plainBody)
}

func (s *SMTPSender) SendPasswordResetEmail(to, name, token string) error {
	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.config.BaseURL, token)

	subject := "Reset Your Password"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Hi %s,</h2>
			<p>We received a request to reset your password. Click the link below to reset it:</p>
			<p><a href="%s">Reset Password</a></p>
			<p>Or copy and paste this URL into your browser:</p>
			<p>%s</p>
			<p>This link will expire in 30 minutes.</p>
			<p>If you didn't request a password reset, please ignore this email and your password will remain unchanged.</p>
		</body>
		</html>
	`, s.greeting(name, to), resetURL, resetURL)

	plainBody := fmt.Sprintf(`
Hi %s,

We received a request to reset your password. Visit the following URL to reset it:
%s

This link will expire in 30 minutes.

If you didn't request a password reset, please ignore this email and your password will remain unchanged.
	`, s.greeting(name, to), resetURL)

	return s.send(to, subject, htmlBody, plainBody)
}

func (s *SMTPSender) SendPasswordChangedEmail(to, name string) error {
	subject := "Password Changed Successfully"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Hi %s,</h2>
			<p>Your password was changed successfully.</p>
			<p>If you did not make this change, please reset your password immediately and contact support.</p>
		</body>
		</html>
	`, s.greeting(name, to))

	plainBody := fmt.Sprintf(`
Hi %s,

Your password was changed successfully.

If you did not make this change, please reset your password immediately and contact support.
	`, s.greeting(name, to))

	return s.send(to, subject, htmlBody, plainBody)
}

// greeting title-cases the display name for the salutation, falling back to
// the recipient address when no name is on file.
func (s *SMTPSender) greeting(name, to string) string {
	if name == "" {
		return to
	}
	return s.titler.String(name)
}

func (s *SMTPSender) send(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.config.FromAddress, s.config.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// NoopSender drops all mail. Used when SMTP is not configured so local
// flows still complete; token values are surfaced in responses or logs by
// the caller in that mode.
type NoopSender struct{}

func (NoopSender) SendVerificationEmail(string, string, string) error  { return nil }
func (NoopSender) SendPasswordResetEmail(string, string, string) error { return nil }
func (NoopSender) SendPasswordChangedEmail(string, string) error       { return nil }
