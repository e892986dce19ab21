package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/quotekit/internal/quote"
)

const quoteColumns = `id, user_id, title, client_name, client_email, client_phone, client_address, notes,
	subtotal, vat_rate, vat_amount, discount, total, status, share_token, created_at, updated_at`

func scanQuote(row pgx.Row) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(
		&q.ID, &q.UserID, &q.Title, &q.ClientName, &q.ClientEmail, &q.ClientPhone, &q.ClientAddress, &q.Notes,
		&q.Subtotal, &q.VATRate, &q.VATAmount, &q.Discount, &q.Total, &q.Status, &q.ShareToken, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.LineItems = []quote.LineItem{}
	return &q, nil
}

func (s *Store) CreateQuote(ctx context.Context, q *quote.Quote) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO quotes (`+quoteColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13::numeric, $14, $15, $16, $17)`,
			q.ID, q.UserID, q.Title, q.ClientName, q.ClientEmail, q.ClientPhone, q.ClientAddress, q.Notes,
			num(q.Subtotal), num(q.VATRate), num(q.VATAmount), num(q.Discount), num(q.Total),
			string(q.Status), q.ShareToken, q.CreatedAt, q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quote: %w", err)
		}
		return insertLineItems(ctx, tx, q.LineItems)
	})
}

func insertLineItems(ctx context.Context, tx pgx.Tx, items []quote.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO line_items (id, quote_id, position, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric)`,
			it.ID, it.QuoteID, it.Position, it.Description, num(it.Quantity), num(it.UnitPrice), num(it.Total),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert line items: %w", err)
	}
	return nil
}

func (s *Store) GetQuote(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error) {
	q, err := scanQuote(s.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND user_id = $2`, id, userID))
	return s.withItems(ctx, q, err)
}

func (s *Store) GetQuoteByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	q, err := scanQuote(s.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	return s.withItems(ctx, q, err)
}

func (s *Store) GetQuoteByShareToken(ctx context.Context, token string) (*quote.Quote, error) {
	q, err := scanQuote(s.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE share_token = $1`, token))
	return s.withItems(ctx, q, err)
}

func (s *Store) withItems(ctx context.Context, q *quote.Quote, err error) (*quote.Quote, error) {
	if isNotFound(err) {
		return nil, quote.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if err := s.loadItems(ctx, []*quote.Quote{q}); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Store) ListQuotes(ctx context.Context, userID uuid.UUID) ([]*quote.Quote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	quotes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*quote.Quote, error) {
		return scanQuote(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	if err := s.loadItems(ctx, quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// loadItems fills LineItems of every quote with one query.
func (s *Store) loadItems(ctx context.Context, quotes []*quote.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*quote.Quote, len(quotes))
	ids := make([]string, len(quotes))
	for i, q := range quotes {
		byID[q.ID] = q
		ids[i] = q.ID.String()
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, quote_id, position, description, quantity, unit_price, total
		FROM line_items WHERE quote_id = ANY($1::uuid[])
		ORDER BY quote_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quote.LineItem, error) {
		var it quote.LineItem
		err := row.Scan(&it.ID, &it.QuoteID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.Total)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}
	for _, it := range items {
		if q, ok := byID[it.QuoteID]; ok {
			q.LineItems = append(q.LineItems, it)
		}
	}
	return nil
}

func (s *Store) CountQuotes(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return n, nil
}

// UpdateQuoteStatus is a compare-and-set on the status column.
func (s *Store) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from, to quote.Status, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quotes SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check quote: %w", err)
	}
	if !exists {
		return quote.ErrNotFound
	}
	return quote.ErrStatusConflict
}

func (s *Store) ReplaceLineItems(ctx context.Context, q *quote.Quote) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotes
			SET subtotal = $3::numeric, vat_rate = $4::numeric, vat_amount = $5::numeric,
				discount = $6::numeric, total = $7::numeric, updated_at = $8
			WHERE id = $1 AND user_id = $2`,
			q.ID, q.UserID, num(q.Subtotal), num(q.VATRate), num(q.VATAmount), num(q.Discount), num(q.Total), q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update quote totals: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return quote.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE quote_id = $1`, q.ID); err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}
		return insertLineItems(ctx, tx, q.LineItems)
	})
}

func (s *Store) DeleteQuote(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return quote.ErrNotFound
	}
	return nil
}

// SetShareToken writes token only while share_token is NULL.
func (s *Store) SetShareToken(ctx context.Context, id uuid.UUID, token string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quotes SET share_token = $2, updated_at = $3 WHERE id = $1 AND share_token IS NULL`, id, token, at)
	switch {
	case isUniqueViolation(err, ""):
		return false, quote.ErrShareTokenTaken
	case err != nil:
		return false, fmt.Errorf("failed to set share token: %w", err)
	case tag.RowsAffected() == 1:
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check quote: %w", err)
	}
	if !exists {
		return false, quote.ErrNotFound
	}
	return false, nil
}
