package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/export"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
)

var exportTime = time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

func sampleQuote() *quote.Quote {
	return &quote.Quote{
		ID:         uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Title:      "Kitchen refit",
		ClientName: "José & Sons Ltd",
		LineItems: []quote.LineItem{
			{Description: "Labour", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(25), Total: decimal.NewFromInt(250)},
		},
		Subtotal:  decimal.NewFromInt(250),
		VATRate:   decimal.RequireFromString("0.2"),
		VATAmount: decimal.NewFromInt(50),
		Discount:  decimal.NewFromInt(10),
		Total:     decimal.NewFromInt(290),
		Notes:     "Valid for 30 days.",
		CreatedAt: exportTime,
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	q := sampleQuote()
	assert.Equal(t, "quote-jose-sons-ltd-2026-03-09.pdf", export.Filename(q, exportTime))

	q.ClientName = "  ***  "
	assert.Equal(t, "quote-client-2026-03-09.pdf", export.Filename(q, exportTime))
}

func TestFormatGBP(t *testing.T) {
	t.Parallel()

	assert.Contains(t, export.FormatGBP(decimal.RequireFromString("1234.5")), "1,234.50")
	assert.True(t, strings.HasPrefix(export.FormatGBP(decimal.RequireFromString("-3")), "-"))
	assert.Equal(t, "20%", export.FormatPercent(decimal.RequireFromString("0.2")))
	assert.Equal(t, "17.5%", export.FormatPercent(decimal.RequireFromString("0.175")))
}

func TestQRCode(t *testing.T) {
	t.Parallel()

	png, err := export.QRCode("https://app.example.com/quote/abc", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = export.QRCode("   ", 128)
	assert.ErrorIs(t, err, export.ErrEmptyContent)
}

func TestRender(t *testing.T) {
	t.Parallel()

	data, err := export.Render(export.Document{
		Quote:     sampleQuote(),
		Profile:   &account.Profile{BusinessName: "Acme Builders", Phone: "01234 567890"},
		PublicURL: "https://app.example.com/quote/abc",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = export.Render(export.Document{})
	assert.ErrorIs(t, err, export.ErrRenderFailed)
}

func TestArchiveKey(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	quoteID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t,
		"exports/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/20260309T143000Z.pdf",
		export.ArchiveKey(userID, quoteID, exportTime),
	)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3Archive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := export.NewS3Archive(ctx, export.S3Config{Bucket: "b"})
	assert.ErrorIs(t, err, export.ErrInvalidConfig)

	t.Run("uploads pdf", func(t *testing.T) {
		t.Parallel()
		client := &mockS3{}
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Bucket == "quotes" && *in.Key == "exports/a.pdf" && *in.ContentType == "application/pdf" && *in.ContentLength == 4
		})).Return(&s3.PutObjectOutput{}, nil)

		archive, err := export.NewS3Archive(ctx, export.S3Config{Bucket: "quotes", Region: "eu-west-2"}, export.WithS3Client(client))
		require.NoError(t, err)
		require.NoError(t, archive.Archive(ctx, "exports/a.pdf", []byte("%PDF")))
		client.AssertExpectations(t)
	})

	t.Run("classifies api errors", func(t *testing.T) {
		t.Parallel()
		client := &mockS3{}
		client.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})

		archive, err := export.NewS3Archive(ctx, export.S3Config{Bucket: "quotes", Region: "eu-west-2"}, export.WithS3Client(client))
		require.NoError(t, err)
		assert.ErrorIs(t, archive.Archive(ctx, "k", []byte("x")), export.ErrAccessDenied)
	})
}

type recordingArchiver struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recordingArchiver) Archive(_ context.Context, key string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return r.err
}

func newServices(t *testing.T, archive export.Archiver) (*quote.Service, *export.Service) {
	t.Helper()
	store := memory.New()
	quotes := quote.NewService(store, plan.NewGate(store))
	profiles := account.NewService(store)
	svc := export.NewService(quotes, profiles,
		export.WithArchiver(archive),
		export.WithBaseURL("https://app.example.com"),
		export.WithClock(func() time.Time { return exportTime }),
	)
	return quotes, svc
}

func createQuote(t *testing.T, quotes *quote.Service, userID uuid.UUID) *quote.Quote {
	t.Helper()
	q, err := quotes.Create(context.Background(), userID, quote.CreateInput{
		ClientName: "Jane Doe",
		Items: []quote.ItemInput{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	return q
}

func TestService_PDF(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	archive := &recordingArchiver{err: errors.New("bucket unreachable")}
	quotes, svc := newServices(t, archive)
	userID := uuid.New()
	q := createQuote(t, quotes, userID)

	file, err := svc.PDF(ctx, userID, q.ID)
	require.NoError(t, err, "archive failures must not fail the export")
	assert.Equal(t, "quote-jane-doe-2026-03-09.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
	assert.Equal(t, []string{export.ArchiveKey(userID, q.ID, exportTime)}, archive.keys)

	_, err = svc.PDF(ctx, uuid.New(), q.ID)
	assert.ErrorIs(t, err, quote.ErrNotFound)
}

func TestService_PublicQR(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	quotes, svc := newServices(t, nil)
	userID := uuid.New()
	q := createQuote(t, quotes, userID)

	_, err := svc.PublicQR(ctx, "missing")
	assert.ErrorIs(t, err, quote.ErrNotFound)

	shared, err := quotes.IssueShareToken(ctx, userID, q.ID)
	require.NoError(t, err)

	png, err := svc.PublicQR(ctx, *shared.ShareToken)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
