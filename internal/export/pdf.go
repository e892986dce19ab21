package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/quote"
)

var (
	colorPrimary     = [3]int{30, 58, 95}
	colorTextDark    = [3]int{44, 62, 80}
	colorTextMuted   = [3]int{127, 140, 141}
	colorTableHeader = [3]int{30, 58, 95}
	colorTableAlt    = [3]int{241, 245, 249}
)

// Document is everything printed on a quote PDF.
type Document struct {
	Quote   *quote.Quote
	Profile *account.Profile
	// PublicURL is encoded as a QR code when non-empty.
	PublicURL string
}

// Render lays out doc on a single A4 page, flowing onto more pages for long item lists.
func Render(doc Document) ([]byte, error) {
	if doc.Quote == nil {
		return nil, fmt.Errorf("%w: quote is required", ErrRenderFailed)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	q := doc.Quote
	writeHeader(pdf, tr, q, doc.Profile)
	writeClient(pdf, tr, q)
	writeItems(pdf, tr, q.LineItems)
	writeTotals(pdf, tr, q)

	if strings.TrimSpace(q.Notes) != "" {
		pdf.Ln(6)
		setText(pdf, colorTextDark)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(q.Notes), "", "L", false)
	}

	if doc.PublicURL != "" {
		if err := writeQR(pdf, tr, doc.PublicURL); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, q *quote.Quote, p *account.Profile) {
	pageWidth, _ := pdf.GetPageSize()
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 6, "F")

	title := q.Title
	if strings.TrimSpace(title) == "" {
		title = "Quote"
	}
	pdf.SetY(18)
	setText(pdf, colorPrimary)
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	setText(pdf, colorTextMuted)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Quote #%s  |  %s", q.Number(), q.CreatedAt.Format("2 January 2006")), "", 1, "L", false, 0, "")

	if !p.IsEmpty() {
		pdf.Ln(3)
		setText(pdf, colorTextDark)
		pdf.SetFont("Arial", "B", 11)
		if p.BusinessName != "" {
			pdf.CellFormat(0, 6, tr(p.BusinessName), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "", 10)
		for _, line := range []string{p.Address, p.Phone, p.Website} {
			if line != "" {
				pdf.MultiCell(0, 5, tr(line), "", "L", false)
			}
		}
	}
	pdf.Ln(6)
}

func writeClient(pdf *fpdf.Fpdf, tr func(string) string, q *quote.Quote) {
	setText(pdf, colorTextMuted)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(0, 6, "PREPARED FOR", "", 1, "L", false, 0, "")

	setText(pdf, colorTextDark)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, tr(q.ClientName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{q.ClientEmail, q.ClientPhone, q.ClientAddress} {
		if line != "" {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}
	pdf.Ln(6)
}

func writeItems(pdf *fpdf.Fpdf, tr func(string) string, items []quote.LineItem) {
	widths := []float64{90, 20, 30, 30}
	headers := []string{"Description", "Qty", "Unit price", "Total"}
	aligns := []string{"L", "R", "R", "R"}

	pdf.SetFillColor(colorTableHeader[0], colorTableHeader[1], colorTableHeader[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	setText(pdf, colorTextDark)
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
	for i, it := range items {
		fill := i%2 == 1
		row := []string{
			tr(it.Description),
			it.Quantity.String(),
			tr(FormatGBP(it.UnitPrice)),
			tr(FormatGBP(it.Total)),
		}
		for j, cell := range row {
			pdf.CellFormat(widths[j], 7, cell, "", 0, aligns[j], fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeTotals(pdf *fpdf.Fpdf, tr func(string) string, q *quote.Quote) {
	line := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(120, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, tr(value), "", 1, "R", false, 0, "")
	}

	setText(pdf, colorTextDark)
	line("Subtotal", FormatGBP(q.Subtotal), false)
	line(fmt.Sprintf("VAT (%s)", FormatPercent(q.VATRate)), FormatGBP(q.VATAmount), false)
	if q.Discount.GreaterThan(decimal.Zero) {
		line("Discount", FormatGBP(q.Discount.Neg()), false)
	}
	line("Total", FormatGBP(q.Total), true)
}

func writeQR(pdf *fpdf.Fpdf, tr func(string) string, url string) error {
	png, err := QRCode(url, DefaultQRSize)
	if err != nil {
		return err
	}

	const size = 35.0
	if pdf.GetY()+size+10 > 272 {
		pdf.AddPage()
	}
	pdf.Ln(8)
	y := pdf.GetY()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("share-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("share-qr", 20, y, size, size, false, opts, 0, "")

	pdf.SetXY(20+size+5, y+size/2-5)
	setText(pdf, colorTextMuted)
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, tr("View this quote online:\n"+url), "", "L", false)

	if err := pdf.Error(); err != nil {
		return errors.Join(ErrRenderFailed, err)
	}
	return nil
}

func setText(pdf *fpdf.Fpdf, c [3]int) {
	pdf.SetTextColor(c[0], c[1], c[2])
}
