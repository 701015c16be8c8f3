package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Churchly/initializers"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client *resend.Client
	from   string
}

var emailService *EmailService

// InitEmailService initializes the email service with Resend API
func InitEmailService() {
	apiKey := initializers.Cfg.ResendAPIKey

	if apiKey == "" {
		initializers.Log.Warn("RESEND_API_KEY not set, email service will not be available")
		return
	}

	SetEmailService(&EmailService{
		client: resend.NewClient(apiKey),
		from:   initializers.Cfg.ResendFromEmail,
	})

	initializers.Log.Info("email service initialized with Resend")
}

// SetEmailService replaces the package email service and returns the one it
// replaced.
func SetEmailService(s *EmailService) *EmailService {
	previous := emailService
	emailService = s
	return previous
}

// GetEmailService returns nil when email is not configured.
func GetEmailService() *EmailService {
	return emailService
}

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="text-align: center; border-bottom: 2px solid #6b4fa0; padding-bottom: 16px;">
        <h1 style="color: #6b4fa0; margin: 0;">Churchly</h1>
    </div>
    <div style="padding: 24px 0;">
        <p>Hi {{.FirstName}},</p>
        {{range .Paragraphs}}<p>{{.}}</p>
        {{end}}{{if .Code}}<div style="background: #f5f3fa; border: 2px solid #6b4fa0; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0;">
            <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; font-family: monospace; color: #6b4fa0;">{{.Code}}</span>
        </div>
        {{end}}<p>Grace and peace,<br>The Churchly Team</p>
    </div>
    <div style="text-align: center; border-top: 1px solid #ddd; padding-top: 16px; font-size: 12px; color: #666;">
        <p>This is an automated message, please do not reply directly to this email.</p>
    </div>
</body>
</html>`))

type emailContent struct {
	FirstName  string
	Paragraphs []string
	Code       string
}

func renderEmail(content emailContent) (string, string, error) {
	var html bytes.Buffer
	if err := emailLayout.Execute(&html, content); err != nil {
		return "", "", err
	}

	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", content.FirstName)
	for _, p := range content.Paragraphs {
		fmt.Fprintf(&text, "%s\n\n", p)
	}
	if content.Code != "" {
		fmt.Fprintf(&text, "Your verification code: %s\n\n", content.Code)
	}
	text.WriteString("Grace and peace,\nThe Churchly Team\n")

	return html.String(), text.String(), nil
}

func (s *EmailService) send(toEmail, subject string, content emailContent) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email service not initialized")
	}

	htmlBody, textBody, err := renderEmail(content)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	sent, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		initializers.Log.WithError(err).WithField("to", toEmail).Error("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	initializers.Log.WithField("emailId", sent.Id).WithField("subject", subject).Info("email sent")
	return nil
}

// SendPasswordResetEmail sends a password reset email with a 6-digit code
func (s *EmailService) SendPasswordResetEmail(toEmail string, code string, firstName string) error {
	return s.send(toEmail, "Reset your Churchly password", emailContent{
		FirstName: firstName,
		Paragraphs: []string{
			"We received a request to reset your Churchly password. Enter the code below in the app to continue.",
			"This code will expire in 15 minutes. If you didn't request a reset, you can ignore this email.",
		},
		Code: code,
	})
}

func (s *EmailService) SendWelcomeEmail(toEmail string, firstName string) error {
	return s.send(toEmail, "Welcome to Churchly", emailContent{
		FirstName: firstName,
		Paragraphs: []string{
			"Welcome to the Churchly community! You can now share prayer requests, read testimonies and keep up with youth group announcements and events.",
			"Prayer requests stay on the wall for 24 hours so the community can lift them up together.",
		},
	})
}
