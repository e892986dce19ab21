// Package analytics summarises a user's quotes: revenue, conversion, monthly
// activity and top clients.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/internal/quote"
)

const (
	monthsInReport = 6
	topClientCount = 5
)

// Report is the analytics payload.
type Report struct {
	TotalQuotes       int                  `json:"total_quotes"`
	TotalRevenue      decimal.Decimal      `json:"total_revenue"`
	ConversionRate    decimal.Decimal      `json:"conversion_rate"`
	AverageQuoteValue decimal.Decimal      `json:"average_quote_value"`
	QuotesByStatus    map[quote.Status]int `json:"quotes_by_status"`
	MonthlyStats      []Month              `json:"monthly_stats"`
	TopClients        []Client             `json:"top_clients"`
}

// Month aggregates quotes created in one calendar month (UTC).
type Month struct {
	Month    string          `json:"month"` // e.g. "Mar 2026"
	Quotes   int             `json:"quotes"`
	Revenue  decimal.Decimal `json:"revenue"`
	Accepted int             `json:"accepted"`
}

// Client aggregates quotes by client name.
type Client struct {
	Name    string          `json:"name"`
	Quotes  int             `json:"quotes"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Compute builds a report from quotes ordered newest first.
//
// Revenue counts ACCEPTED totals only. Conversion is accepted / sent × 100
// where sent counts quotes currently in SENT, and is zero when there are none.
func Compute(quotes []*quote.Quote, now time.Time) Report {
	r := Report{
		TotalQuotes:       len(quotes),
		TotalRevenue:      decimal.Zero,
		ConversionRate:    decimal.Zero,
		AverageQuoteValue: decimal.Zero,
		QuotesByStatus:    make(map[quote.Status]int, len(quote.Statuses)),
	}
	for _, st := range quote.Statuses {
		r.QuotesByStatus[st] = 0
	}

	sum := decimal.Zero
	for _, q := range quotes {
		r.QuotesByStatus[q.Status]++
		sum = sum.Add(q.Total)
		if q.Status == quote.StatusAccepted {
			r.TotalRevenue = r.TotalRevenue.Add(q.Total)
		}
	}

	if sent := r.QuotesByStatus[quote.StatusSent]; sent > 0 {
		accepted := decimal.NewFromInt(int64(r.QuotesByStatus[quote.StatusAccepted]))
		r.ConversionRate = accepted.Div(decimal.NewFromInt(int64(sent))).Mul(decimal.NewFromInt(100)).Round(2)
	}
	if len(quotes) > 0 {
		r.AverageQuoteValue = sum.Div(decimal.NewFromInt(int64(len(quotes)))).Round(2)
	}

	r.MonthlyStats = monthly(quotes, now)
	r.TopClients = topClients(quotes)
	return r
}

func monthly(quotes []*quote.Quote, now time.Time) []Month {
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]Month, 0, monthsInReport)
	for i := monthsInReport - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)

		m := Month{Month: from.Format("Jan 2006"), Revenue: decimal.Zero}
		for _, q := range quotes {
			created := q.CreatedAt.UTC()
			if created.Before(from) || !created.Before(to) {
				continue
			}
			m.Quotes++
			if q.Status == quote.StatusAccepted {
				m.Accepted++
				m.Revenue = m.Revenue.Add(q.Total)
			}
		}
		out = append(out, m)
	}
	return out
}

func topClients(quotes []*quote.Quote) []Client {
	index := make(map[string]int)
	var clients []Client
	for _, q := range quotes {
		i, ok := index[q.ClientName]
		if !ok {
			i = len(clients)
			index[q.ClientName] = i
			clients = append(clients, Client{Name: q.ClientName, Revenue: decimal.Zero})
		}
		clients[i].Quotes++
		if q.Status == quote.StatusAccepted {
			clients[i].Revenue = clients[i].Revenue.Add(q.Total)
		}
	}

	sort.SliceStable(clients, func(a, b int) bool {
		return clients[a].Revenue.GreaterThan(clients[b].Revenue)
	})
	if len(clients) > topClientCount {
		clients = clients[:topClientCount]
	}
	if clients == nil {
		clients = []Client{}
	}
	return clients
}

// QuoteLister is the read the service needs.
type QuoteLister interface {
	ListQuotes(ctx context.Context, userID uuid.UUID) ([]*quote.Quote, error)
}

// Service computes reports for a user.
type Service struct {
	quotes QuoteLister
	now    func() time.Time
}

func NewService(quotes QuoteLister) *Service {
	if quotes == nil {
		panic("analytics: QuoteLister is required")
	}
	return &Service{quotes: quotes, now: time.Now}
}

func (s *Service) Report(ctx context.Context, userID uuid.UUID) (Report, error) {
	quotes, err := s.quotes.ListQuotes(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list quotes: %w", err)
	}
	return Compute(quotes, s.now()), nil
}
