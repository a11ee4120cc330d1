package mailer

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"
)

// Mailer delivers transactional mail. Services depend on this interface
// so tests can stub delivery out.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: host + ":" + port,
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// VerificationBody renders the account-verification mail.
func VerificationBody(username, verifyURL string) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Thanks for signing up! Please verify your email:</p>"+
			"<p><a href=%q>Verify Email</a></p>"+
			"<p>This link expires in 24 hours.</p>",
		html.EscapeString(username), verifyURL)
}

// PasswordResetBody renders the password-reset mail.
func PasswordResetBody(resetURL string) string {
	return fmt.Sprintf(
		"<p>We received a request to reset your password.</p>"+
			"<p><a href=%q>Reset Password</a></p>"+
			"<p>This link expires in 30 minutes. If you did not request this, ignore this email.</p>",
		resetURL)
}

// EmailChangeBody renders the email-change confirmation mail.
func EmailChangeBody(confirmURL string) string {
	return fmt.Sprintf(
		"<p>Confirm your new email address:</p>"+
			"<p><a href=%q>Confirm Email Change</a></p>"+
			"<p>This link expires in 24 hours.</p>",
		confirmURL)
}
