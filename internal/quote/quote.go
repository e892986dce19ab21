package quote

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is an itemized price quote for a client.
type Quote struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Title         string          `json:"title,omitempty"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email,omitempty"`
	ClientPhone   string          `json:"client_phone,omitempty"`
	ClientAddress string          `json:"client_address,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	LineItems     []LineItem      `json:"line_items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	ShareToken    *string         `json:"share_token,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LineItem is one priced row of a quote. Total is always Quantity × UnitPrice.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	QuoteID     uuid.UUID       `json:"quote_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Number is the short human reference printed on documents.
func (q *Quote) Number() string {
	s := q.ID.String()
	return strings.ToUpper(s[len(s)-6:])
}

// HasShareToken reports whether the quote is publicly accessible.
func (q *Quote) HasShareToken() bool {
	return q.ShareToken != nil && *q.ShareToken != ""
}

// ItemInput describes a line item supplied by the caller.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateInput is the payload for a new quote.
// Nil VATRate and Discount fall back to DefaultVATRate and zero.
type CreateInput struct {
	Title         string           `json:"title"`
	ClientName    string           `json:"client_name"`
	ClientEmail   string           `json:"client_email"`
	ClientPhone   string           `json:"client_phone"`
	ClientAddress string           `json:"client_address"`
	Notes         string           `json:"notes"`
	Items         []ItemInput      `json:"items"`
	VATRate       *decimal.Decimal `json:"vat_rate"`
	Discount      *decimal.Decimal `json:"discount"`
}

// UpdateItemsInput replaces the line items. Nil VATRate or Discount keep the stored values.
type UpdateItemsInput struct {
	Items    []ItemInput      `json:"items"`
	VATRate  *decimal.Decimal `json:"vat_rate"`
	Discount *decimal.Decimal `json:"discount"`
}

// DefaultVATRate is the UK standard rate.
var DefaultVATRate = decimal.RequireFromString("0.2")

// PublicURL is the unauthenticated link a share token grants.
func PublicURL(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/quote/" + token
}
