package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service. When fromEmail is empty the
// service is disabled and send calls become logged no-ops, so local setups
// work without AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendVerificationEmail sends the six digit account verification code.
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): verification code for %s", toEmail)
		if s.debug {
			log.Printf("[DEBUG] verification code for %s: %s", toEmail, code)
		}
		return nil
	}

	subject := "Verify your Family Ledger account"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 20px; background-color: #f4f4f4; border-radius: 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>Hi %s,</p>
		<p>Use this code to verify your Family Ledger account:</p>
		<div class="code">%s</div>
		<p>If you didn't create an account, you can safely ignore this email.</p>
		<div class="footer">
			<p>This is an automated email from Family Ledger. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, code)

	textBody := fmt.Sprintf(`Hi %s,

Use this code to verify your Family Ledger account:

%s

If you didn't create an account, you can safely ignore this email.

---
This is an automated email from Family Ledger. Please do not reply.
`, toName, code)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email once the account is verified.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	subject := "Welcome to Family Ledger!"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>Hi %s,</p>
		<p>Your account is verified. Here's what you can do next:</p>
		<ul>
			<li>Create a family or join one with its code</li>
			<li>Record your income and expenses</li>
			<li>Transfer money to other family members</li>
		</ul>
		<div class="footer">
			<p>This is an automated email from Family Ledger. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName)

	textBody := fmt.Sprintf(`Hi %s,

Your account is verified. Here's what you can do next:
- Create a family or join one with its code
- Record your income and expenses
- Transfer money to other family members

---
This is an automated email from Family Ledger. Please do not reply.
`, toName)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message id: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
