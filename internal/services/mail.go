package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
}

type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: "HR Portal",
	}
}

func (m *SendGridMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	if toName == "" {
		toName = toEmail
	}
	from := mail.NewEmail(m.fromName, m.from)
	subject := "Reset your HR Portal password"
	to := mail.NewEmail(toName, toEmail)

	htmlContent := fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4; text-align: center;">
			<div style="background-color: #ffffff; border-radius: 8px; padding: 30px; display: inline-block; text-align: center;">
				<h1 style="color: #2c3e50; margin-bottom: 20px;">Password reset</h1>
				<p>Hello %s,</p>
				<p>We received a request to reset the password for your HR Portal account. The link below is valid for one hour.</p>
				<a href="%s" style="display: inline-block; background-color: #3498db; color: #ffffff; text-decoration: none; padding: 12px 24px; border-radius: 4px; font-weight: bold; margin-top: 20px;">Choose a new password</a>
				<p>If you did not ask for this, you can ignore this email.</p>
			</div>
		</div>
        `, toName, resetURL)

	plainTextContent := fmt.Sprintf("Hello %s, reset your HR Portal password within the next hour: %s", toName, resetURL)

	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected password reset email: status %d", resp.StatusCode)
	}
	return nil
}
