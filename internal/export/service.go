package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

// QuoteReader loads quotes for export.
type QuoteReader interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error)
	GetByShareToken(ctx context.Context, token string) (*quote.Quote, error)
}

// ProfileReader loads the business profile printed on documents.
type ProfileReader interface {
	Profile(ctx context.Context, userID uuid.UUID) (*account.Profile, error)
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Service renders quote documents.
type Service struct {
	quotes   QuoteReader
	profiles ProfileReader
	archive  Archiver
	log      *slog.Logger
	now      func() time.Time
	baseURL  string
}

// Option configures optional Service settings.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithArchiver stores a copy of every rendered PDF.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archive = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBaseURL sets the application URL public links are built from.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = u
	}
}

func NewService(quotes QuoteReader, profiles ProfileReader, opts ...Option) *Service {
	if quotes == nil {
		panic("export: QuoteReader is required")
	}
	if profiles == nil {
		panic("export: ProfileReader is required")
	}

	s := &Service{
		quotes:   quotes,
		profiles: profiles,
		log:      logger.Discard(),
		now:      time.Now,
		baseURL:  "http://localhost:8080",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PDF renders the caller's quote. The QR code is included only for shared quotes.
func (s *Service) PDF(ctx context.Context, userID, quoteID uuid.UUID) (*File, error) {
	q, err := s.quotes.Get(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc := Document{Quote: q, Profile: profile}
	if q.HasShareToken() {
		doc.PublicURL = quote.PublicURL(s.baseURL, *q.ShareToken)
	}

	data, err := Render(doc)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if s.archive != nil {
		key := ArchiveKey(userID, q.ID, now)
		if err := s.archive.Archive(ctx, key, data); err != nil {
			s.log.WarnContext(ctx, "failed to archive export",
				logger.QuoteID(q.ID),
				slog.String("key", key),
				logger.Error(err),
			)
		}
	}

	return &File{
		Name:        Filename(q, now),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// PublicQR renders the public link of a shared quote as a PNG.
func (s *Service) PublicQR(ctx context.Context, token string) ([]byte, error) {
	q, err := s.quotes.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return QRCode(quote.PublicURL(s.baseURL, *q.ShareToken), DefaultQRSize)
}
