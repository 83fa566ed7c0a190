package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/metrics"
)

// SESAPI is the part of *ses.Client the server uses.
type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService sends account email through SES. When disabled it logs the message
// instead, which is how local development gets reset links.
type EmailService struct {
	Client  SESAPI
	From    string
	Enabled bool
	Log     logger.Logger
}

func NewEmailService(cfg aws.Config, from string, enabled bool, log logger.Logger) *EmailService {
	return &EmailService{Client: ses.NewFromConfig(cfg), From: from, Enabled: enabled, Log: log}
}

const resetSubject = "Reset Your Password - Amplify Youth Voices"

var resetTemplate = template.Must(template.New("reset").Parse(`<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1a1a2e;">Reset Your Password</h1>
  <p style="color: #4a4a4a; font-size: 16px; line-height: 1.6;">We received a request to reset your password. Click the button below to create a new password:</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="{{.URL}}" style="background: #667eea; color: white; padding: 14px 32px; border-radius: 8px; text-decoration: none; font-weight: 600;">Reset Password</a>
  </p>
  <p style="color: #666; font-size: 14px;">This link will expire in {{.Expiry}}. If you didn't request a password reset, you can safely ignore this email.</p>
  <p style="color: #999; font-size: 12px;">If the button doesn't work, copy and paste this link into your browser:<br><a href="{{.URL}}">{{.URL}}</a></p>
</div>`))

// ResetURL is the frontend page a reset token is redeemed on.
func ResetURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// SendPasswordResetEmail mails the reset link for token to the address to.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, token, baseURL string) error {
	link := ResetURL(baseURL, token)
	log := s.Log.WithFields(map[string]interface{}{"kind": "password_reset"})

	if !s.Enabled {
		log.Info("email delivery disabled, reset link follows", map[string]interface{}{"to": to, "resetUrl": link})
		metrics.EmailsSentTotal.WithLabelValues("password_reset", "skipped").Inc()
		return nil
	}

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, map[string]string{"URL": link, "Expiry": "1 hour"}); err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}

	_, err := s.Client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.From),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(resetSubject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Html: &sestypes.Content{Data: aws.String(body.String()), Charset: aws.String("UTF-8")},
				Text: &sestypes.Content{Data: aws.String("Reset your password: " + link), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		metrics.EmailsSentTotal.WithLabelValues("password_reset", "error").Inc()
		log.WithError(err).Error("failed to send email", map[string]interface{}{"to": to})
		return apperrors.NewNotificationError(err)
	}
	metrics.EmailsSentTotal.WithLabelValues("password_reset", "sent").Inc()
	log.Info("email sent", map[string]interface{}{"to": to})
	return nil
}
