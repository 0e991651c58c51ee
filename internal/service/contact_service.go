package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/mail"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

const (
	maxContactMessage = 5000
	maxContactField   = 200
)

// ContactService forwards contact-form messages to the support inbox.
type ContactService struct {
	mailer    mail.Sender
	supportTo string
	log       *zap.Logger
}

func NewContactService(mailer mail.Sender, supportTo string, logger *zap.Logger) *ContactService {
	return &ContactService{mailer: mailer, supportTo: supportTo, log: logger}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	name := sanitize.Text(in.Name)
	subject := sanitize.Text(in.Subject)
	message := sanitize.Text(in.Message)
	if name == "" {
		return invalidf("name is required")
	}
	if message == "" {
		return invalidf("message is required")
	}
	if utf8.RuneCountInString(name) > maxContactField || utf8.RuneCountInString(subject) > maxContactField {
		return invalidf("name and subject must be at most %d characters", maxContactField)
	}
	if utf8.RuneCountInString(message) > maxContactMessage {
		return invalidf("message must be at most %d characters", maxContactMessage)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	if subject == "" {
		subject = "Contact form message"
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:      []string{s.supportTo},
		ReplyTo: email,
		Subject: fmt.Sprintf("[Contact] %s", subject),
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s\n", name, email, message),
		HTML: fmt.Sprintf("<p><strong>From:</strong> %s &lt;%s&gt;</p><p>%s</p>",
			html.EscapeString(name), html.EscapeString(email),
			strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")),
	})
	if err != nil {
		s.log.Warn("contact mail failed", zap.String("replyTo", email), zap.Error(err))
		var pe *mail.ProviderError
		if errors.As(err, &pe) {
			return &userError{kind: ErrUpstream, msg: pe.Error()}
		}
		return &userError{kind: ErrUpstream, msg: "email provider is unreachable"}
	}
	s.log.Info("contact mail sent", zap.String("replyTo", email))
	return nil
}
