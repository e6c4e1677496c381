package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one time-ordered line of a vendor's merged calendar. Status and
// DecidedAt are only meaningful for booking-backed entries; block-backed
// entries carry the block reason instead. The shape is explicit per source so
// readers never null-coalesce.
type Entry struct {
	Source      string     `json:"source"` // "booking" or "block"
	PublicID    uuid.UUID  `json:"id"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	StartTime   string     `json:"start_time,omitempty"`
	EndTime     string     `json:"end_time,omitempty"`
	Status      string     `json:"status,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	FinalAmount *int64     `json:"final_amount,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// View is the vendor-facing read model: bookings against the vendor's own
// calendar, bookings the vendor made elsewhere, and the vendor's blocks.
type View struct {
	BookedForMe  []Entry `json:"booked_for_me"`
	BookedByMe   []Entry `json:"booked_by_me"`
	BlockedDates []Entry `json:"blocked_dates"`
}
