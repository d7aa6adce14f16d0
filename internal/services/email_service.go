package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/flipline/flipline/pkg/logger"
)

// EmailService defines the interface for sending emails
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, email, name, tempPassword string) error
	SendMagicLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendWelcomeEmail sends the initial credentials to a newly created VA account
func (s *AWSSESEmailService) SendWelcomeEmail(ctx context.Context, email, name, tempPassword string) error {
	loginLink := fmt.Sprintf("%s/login", s.baseURL)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .credentials { background-color: #f8f9fa; padding: 15px; border-radius: 4px; font-family: monospace; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Welcome to the Team</h1>
        </div>
        <div class="content">
            <p>Hi %s,</p>
            <p>An account has been created for you. Use the credentials below to sign in, then change your password:</p>
            <div class="credentials">
                <p>Email: %s<br>
                Temporary password: %s</p>
            </div>
            <p><a href="%s" class="button">Sign In</a></p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, name, email, tempPassword, loginLink)

	textBody := fmt.Sprintf(`Welcome to the Team

Hi %s,

An account has been created for you. Use the credentials below to sign in, then change your password:

Email: %s
Temporary password: %s

Sign in at: %s

This is an automated message. Please do not reply to this email.
`, name, email, tempPassword, loginLink)

	return s.send(ctx, email, "Your account is ready", htmlBody, textBody)
}

// SendMagicLinkEmail sends a one-time passwordless login link
func (s *AWSSESEmailService) SendMagicLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	magicLink := fmt.Sprintf("%s/auth/magic?token=%s", s.baseURL, token)
	minutes := int(time.Until(expiresAt).Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { padding: 20px 0; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <p>Click the link below to sign in:</p>
            <p><a href="%s" class="button">Sign In</a></p>
            <p>Or copy and paste this link in your browser:<br>
            <code>%s</code></p>
            <div class="warning">
                <strong>Security notice:</strong> This link expires in %d minutes and can only be used once.
            </div>
            <p>If you didn't request this link, you can ignore this email.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, magicLink, magicLink, minutes)

	textBody := fmt.Sprintf(`Sign in to your account

Click the link below to sign in:

%s

Security notice: This link expires in %d minutes and can only be used once.

If you didn't request this link, you can ignore this email.

This is an automated message. Please do not reply to this email.
`, magicLink, minutes)

	return s.send(ctx, email, "Your sign-in link", htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
