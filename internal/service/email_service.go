package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// EmailSender is the part of the SES client the email service uses
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends room invitations via Amazon SES
type EmailService struct {
	client    EmailSender
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")
	return NewEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName), nil
}

// NewEmailServiceWithClient creates an enabled email service around an existing client
func NewEmailServiceWithClient(client EmailSender, fromEmail, fromName string) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

var inviteHTML = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<p>{{.Host}} is waiting for you in a party room.</p>
		<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center;">{{.Room}}</p>
		<p style="text-align: center;"><a href="{{.URL}}" style="display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px;">Join the room</a></p>
		<p style="word-break: break-all; font-size: 12px; color: #666;">{{.URL}}</p>
	</div>
</body>
</html>
`))

type invite struct {
	Host string
	Room string
	URL  string
}

// SendRoomInvite e-mails a link that joins the given room
func (s *EmailService) SendRoomInvite(ctx context.Context, toEmail, roomCode, hostName, joinURL string) error {
	if !s.IsEnabled() {
		log.Debug().Str("room", roomCode).Msg("Skipping invite e-mail, service disabled")
		return ErrEmailDisabled
	}

	var body strings.Builder
	if err := inviteHTML.Execute(&body, invite{Host: hostName, Room: roomCode, URL: joinURL}); err != nil {
		return fmt.Errorf("failed to render invite: %w", err)
	}
	text := fmt.Sprintf("%s is waiting for you in a party room.\n\nRoom code: %s\n\nJoin here:\n%s\n", hostName, roomCode, joinURL)

	return s.send(ctx, toEmail, fmt.Sprintf("%s invited you to party room %s", hostName, roomCode), body.String(), text)
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	result, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(subject),
				Body:    &types.Body{Html: utf8Content(htmlBody), Text: utf8Content(textBody)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	event := log.Info().Str("to", toEmail).Str("subject", subject)
	if result != nil && result.MessageId != nil {
		event = event.Str("message_id", *result.MessageId)
	}
	event.Msg("Email sent")
	return nil
}
