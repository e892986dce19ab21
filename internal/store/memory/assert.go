package memory

import (
	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/referral"
)

var (
	_ quote.Store    = (*Store)(nil)
	_ plan.Store     = (*Store)(nil)
	_ billing.Store  = (*Store)(nil)
	_ account.Store  = (*Store)(nil)
	_ referral.Store = (*Store)(nil)
	_ admin.Store    = (*Store)(nil)
)
