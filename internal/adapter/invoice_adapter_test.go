package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvoice(t *testing.T) {
	r := NewPDFInvoiceRenderer()

	out, err := r.RenderInvoice(InvoiceData{
		BookingRef:  "b2f3a8c1",
		ProductName: "Banquet Hall",
		StartDate:   time.Date(2031, 5, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2031, 5, 12, 0, 0, 0, 0, time.UTC),
		Total:       600000,
		Discount:    60000,
		Final:       540000,
		Advance:     162000,
		Remaining:   378000,
		Currency:    "INR",
		PaidPhase:   "ADVANCE",
		PaidAmount:  162000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}
