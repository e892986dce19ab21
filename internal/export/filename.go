package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/quotekit/internal/quote"
)

const maxSlugLength = 48

// Filename is the download name: quote-<client>-<YYYY-MM-DD>.pdf.
func Filename(q *quote.Quote, at time.Time) string {
	return fmt.Sprintf("quote-%s-%s.pdf", slugify(q.ClientName), at.Format("2006-01-02"))
}

// slugify folds diacritics (é → e), keeps ASCII letters and digits and
// collapses everything else into single dashes.
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastWasSep := true
	for _, r := range strings.ToLower(folded) {
		if b.Len() >= maxSlugLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastWasSep = false
			continue
		}
		if !lastWasSep {
			b.WriteByte('-')
			lastWasSep = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "client"
	}
	return out
}
