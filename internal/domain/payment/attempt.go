package payment

import (
	"time"

	"github.com/venuelink/service-booking/internal/domain/apperr"
)

// Phase identifies which installment an attempt settles.
type Phase string

const (
	PhaseAdvance   Phase = "ADVANCE"
	PhaseRemaining Phase = "REMAINING"
)

// ParsePhase validates a raw phase string.
func ParsePhase(raw string) (Phase, error) {
	switch Phase(raw) {
	case PhaseAdvance:
		return PhaseAdvance, nil
	case PhaseRemaining:
		return PhaseRemaining, nil
	default:
		return "", apperr.NewValidationError("phase must be ADVANCE or REMAINING")
	}
}

// Attempt ties a gateway order to a booking and a phase. It becomes verified
// exactly once; re-verifying a settled attempt is a no-op so gateway webhook
// retries stay harmless.
type Attempt struct {
	id               int64
	bookingID        int64
	phase            Phase
	gatewayOrderID   string
	gatewayPaymentID string
	amount           int64
	currency         string
	verifiedAt       *time.Time
	createdAt        time.Time
}

// NewAttempt records a freshly created gateway order for a booking phase.
func NewAttempt(bookingID int64, phase Phase, gatewayOrderID string, amount int64, currency string) *Attempt {
	return &Attempt{
		bookingID:      bookingID,
		phase:          phase,
		gatewayOrderID: gatewayOrderID,
		amount:         amount,
		currency:       currency,
		createdAt:      time.Now().UTC(),
	}
}

// Reconstitute rebuilds an Attempt from persisted data.
func Reconstitute(id, bookingID int64, phase Phase, gatewayOrderID, gatewayPaymentID string, amount int64, currency string, verifiedAt *time.Time, createdAt time.Time) *Attempt {
	return &Attempt{
		id:               id,
		bookingID:        bookingID,
		phase:            phase,
		gatewayOrderID:   gatewayOrderID,
		gatewayPaymentID: gatewayPaymentID,
		amount:           amount,
		currency:         currency,
		verifiedAt:       verifiedAt,
		createdAt:        createdAt,
	}
}

// Verified reports whether the attempt has already been settled.
func (a *Attempt) Verified() bool { return a.verifiedAt != nil }

// Verify marks the attempt settled with the gateway payment id. Calling it on
// an already-verified attempt returns alreadySettled=true without mutating.
func (a *Attempt) Verify(gatewayPaymentID string, now time.Time) (alreadySettled bool) {
	if a.verifiedAt != nil {
		return true
	}
	a.gatewayPaymentID = gatewayPaymentID
	a.verifiedAt = &now
	return false
}

func (a *Attempt) SetID(id int64) { a.id = id }

// Getters.
func (a *Attempt) ID() int64                { return a.id }
func (a *Attempt) BookingID() int64         { return a.bookingID }
func (a *Attempt) Phase() Phase             { return a.phase }
func (a *Attempt) GatewayOrderID() string   { return a.gatewayOrderID }
func (a *Attempt) GatewayPaymentID() string { return a.gatewayPaymentID }
func (a *Attempt) Amount() int64            { return a.amount }
func (a *Attempt) Currency() string         { return a.currency }
func (a *Attempt) VerifiedAt() *time.Time   { return a.verifiedAt }
func (a *Attempt) CreatedAt() time.Time     { return a.createdAt }
