// Package mailer delivers the transactional emails over SMTP. The service
// layer calls it through the Notifier interface and never waits on it.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *Sender) SendVerificationEmail(email, name, link string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome!</h2>
  <p>Hello, <strong>%s</strong>!</p>
  <p>Thanks for signing up. Confirm your email address to finish registration:</p>
  <p><a href="%s">Confirm email</a></p>
  <p>Or copy this link into your browser:</p>
  <p style="word-break: break-all;">%s</p>
  <p>The link is valid for 24 hours.</p>
  <p style="font-size: 12px; color: #777;">If you did not sign up, ignore this message.</p>
</div>`, name, link, link)
	return s.send(email, "Confirm your email address", body)
}

func (s *Sender) SendPasswordResetEmail(email, name, link string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password recovery</h2>
  <p>Hello, <strong>%s</strong>!</p>
  <p>You requested a password reset. Use the link below to set a new password:</p>
  <p><a href="%s">Reset password</a></p>
  <p style="word-break: break-all;">%s</p>
  <p>The link is valid for 1 hour.</p>
  <p style="font-size: 12px; color: #777;">If you did not request a reset, ignore this message.</p>
</div>`, name, link, link)
	return s.send(email, "Password recovery request", body)
}

func (s *Sender) SendPasswordChangeEmail(email, name string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password changed</h2>
  <p>Hello, <strong>%s</strong>!</p>
  <p>The password of your account has been changed.</p>
  <p style="font-weight: bold;">If this was not you, reset your password or contact an administrator.</p>
</div>`, name)
	return s.send(email, "Your password has been changed", body)
}

func (s *Sender) SendAccountDeletionEmail(email, name string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Account deleted</h2>
  <p>Hello, <strong>%s</strong>!</p>
  <p>Your account has been deleted.</p>
  <p style="font-size: 12px; color: #777;">This is an automated notification, please do not reply.</p>
</div>`, name)
	return s.send(email, "Account deletion", body)
}
