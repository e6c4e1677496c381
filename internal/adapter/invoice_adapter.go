package adapter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

// InvoiceData carries everything the renderer needs; it is assembled by the
// settlement flow so the renderer stays free of repository lookups.
type InvoiceData struct {
	BookingRef  string
	ProductName string
	StartDate   time.Time
	EndDate     time.Time
	Total       int64
	Discount    int64
	Final       int64
	Advance     int64
	Remaining   int64
	Currency    string
	PaidPhase   string
	PaidAmount  int64
}

// InvoiceRenderer produces the binary invoice document attached to payment
// notifications.
type InvoiceRenderer interface {
	RenderInvoice(data InvoiceData) ([]byte, error)
}

// PDFInvoiceRenderer renders invoices with gofpdf.
type PDFInvoiceRenderer struct{}

// NewPDFInvoiceRenderer creates the default renderer.
func NewPDFInvoiceRenderer() *PDFInvoiceRenderer {
	return &PDFInvoiceRenderer{}
}

// RenderInvoice builds a single-page A4 invoice.
func (r *PDFInvoiceRenderer) RenderInvoice(d InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice no : INV-"+d.BookingRef)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+time.Now().UTC().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Booking")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("%s (%s to %s)",
		d.ProductName,
		d.StartDate.Format("2006-01-02"),
		d.EndDate.Format("2006-01-02"),
	)
	pdf.MultiCell(0, 6, desc, "", "", false)
	pdf.Ln(4)

	lines := []struct {
		label  string
		amount int64
	}{
		{"Total", d.Total},
		{"Discount", d.Discount},
		{"Payable", d.Final},
		{"Advance", d.Advance},
		{"Remaining", d.Remaining},
	}
	for _, l := range lines {
		pdf.Cell(0, 6, fmt.Sprintf("%-10s : %s", l.label, formatAmount(l.amount, d.Currency)))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Paid (%s): %s", d.PaidPhase, formatAmount(d.PaidAmount, d.Currency)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatAmount renders a minor-unit amount as a decimal with the currency.
func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, amount/100, amount%100)
}
