package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

// ShareTokenIssuer issues the public token of an owned quote.
type ShareTokenIssuer interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error)
	IssueShareToken(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error)
}

// ProfileReader loads the sender's business profile.
type ProfileReader interface {
	Profile(ctx context.Context, userID uuid.UUID) (*account.Profile, error)
}

// SharedQuote is the result of emailing a share link.
type SharedQuote struct {
	ShareToken string `json:"share_token"`
	URL        string `json:"url"`
	SentTo     string `json:"sent_to"`
}

// Sharer emails public quote links to clients.
type Sharer struct {
	quotes   ShareTokenIssuer
	profiles ProfileReader
	sender   Sender
	baseURL  string
	log      *slog.Logger
}

func NewSharer(quotes ShareTokenIssuer, profiles ProfileReader, sender Sender, baseURL string, log *slog.Logger) *Sharer {
	if quotes == nil || profiles == nil || sender == nil {
		panic("notify: quotes, profiles and sender are required")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Sharer{quotes: quotes, profiles: profiles, sender: sender, baseURL: baseURL, log: log}
}

// ShareByEmail issues (or reuses) the quote's share token and sends the
// public link to the client. The quote must carry a client email.
func (s *Sharer) ShareByEmail(ctx context.Context, userID, quoteID uuid.UUID) (*SharedQuote, error) {
	q, err := s.quotes.Get(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.ClientEmail) == "" {
		return nil, quote.ErrNoClientEmail
	}

	q, err = s.quotes.IssueShareToken(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	link := quote.PublicURL(s.baseURL, *q.ShareToken)
	from := profile.BusinessName
	if from == "" {
		from = "Your supplier"
	}

	body, err := Render(ctx, shareEmail(shareEmailData{From: from, Client: q.ClientName, Number: q.Number(), URL: link}))
	if err != nil {
		return nil, fmt.Errorf("failed to render share email: %w", err)
	}

	err = s.sender.SendEmail(ctx, Message{
		To:       q.ClientEmail,
		Subject:  fmt.Sprintf("Quote #%s from %s", q.Number(), from),
		HTMLBody: body,
		TextBody: fmt.Sprintf("%s has sent you a quote. View it online: %s", from, link),
		Tag:      "quote-share",
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "quote link emailed", logger.UserID(userID), logger.QuoteID(q.ID))
	return &SharedQuote{ShareToken: *q.ShareToken, URL: link, SentTo: q.ClientEmail}, nil
}

type shareEmailData struct {
	From   string
	Client string
	Number string
	URL    string
}

func shareEmail(d shareEmailData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<p>Hello %s,</p><p>%s has sent you quote #%s.</p><p><a href="%s">View your quote</a></p>`,
			templ.EscapeString(d.Client),
			templ.EscapeString(d.From),
			templ.EscapeString(d.Number),
			templ.EscapeString(string(templ.URL(d.URL))),
		)
		return err
	})
}

// Render renders a component to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
