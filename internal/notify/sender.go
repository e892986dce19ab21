package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/quotekit/pkg/logger"
	"github.com/dmitrymomot/quotekit/pkg/validator"
)

// Sender delivers a single email.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
	Tag      string
}

// Validate checks the fields every sender needs.
func (m Message) Validate() error {
	err := validator.Apply(
		validator.Required("to", m.To),
		validator.ValidEmail("to", m.To),
		validator.OptionalEmail("reply_to", m.ReplyTo),
		validator.Required("subject", m.Subject),
	)
	if err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	if strings.TrimSpace(m.HTMLBody) == "" && strings.TrimSpace(m.TextBody) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// PostmarkConfig holds Postmark credentials and the sender identity.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
	SupportEmail string
}

// Enabled reports whether both tokens are present.
func (c PostmarkConfig) Enabled() bool {
	return c.ServerToken != "" && c.AccountToken != ""
}

// PostmarkAPI is the subset of the Postmark client used for sending.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender sends through Postmark's transactional API.
type PostmarkSender struct {
	api PostmarkAPI
	cfg PostmarkConfig
}

// NewPostmarkSender validates cfg and builds a sender. A nil api uses the live client.
func NewPostmarkSender(cfg PostmarkConfig, api PostmarkAPI) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: server token is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: account token is required", ErrInvalidConfig)
	}
	if err := validator.Apply(
		validator.ValidEmail("sender_email", cfg.SenderEmail),
		validator.OptionalEmail("support_email", cfg.SupportEmail),
	); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if api == nil {
		api = postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	}
	return &PostmarkSender{api: api, cfg: cfg}, nil
}

// SendEmail sends msg. Reply-To defaults to the support address.
func (s *PostmarkSender) SendEmail(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = s.cfg.SupportEmail
	}

	resp, err := s.api.SendEmail(ctx, postmark.Email{
		From:       s.cfg.SenderEmail,
		ReplyTo:    replyTo,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TextBody:   msg.TextBody,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email not delivered: no provider configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
	)
	return nil
}
