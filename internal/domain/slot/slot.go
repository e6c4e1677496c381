package slot

import (
	"time"

	"github.com/venuelink/service-booking/internal/domain/apperr"
)

// Kind distinguishes whole-day-range bookings from time-ranged single days.
type Kind string

const (
	SingleDay Kind = "SINGLE_DAY"
	MultiDay  Kind = "MULTI_DAY"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Slot is the contested unit of a vendor's calendar: an inclusive date range,
// refined by a half-open time range when the booking covers a single day.
// Dates are normalized to UTC midnight; times are zero-padded "HH:MM" strings,
// which compare correctly as lexicographic strings.
type Slot struct {
	Kind      Kind
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
}

// Parse validates raw request fields and builds a Slot.
func Parse(kind, startDate, endDate, startTime, endTime string) (Slot, error) {
	k := Kind(kind)
	if k != SingleDay && k != MultiDay {
		return Slot{}, apperr.NewValidationError("booking_type must be SINGLE_DAY or MULTI_DAY")
	}

	sd, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
	if err != nil {
		return Slot{}, apperr.NewValidationError("start_date must be YYYY-MM-DD")
	}
	if endDate == "" {
		endDate = startDate
	}
	ed, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if err != nil {
		return Slot{}, apperr.NewValidationError("end_date must be YYYY-MM-DD")
	}
	if ed.Before(sd) {
		return Slot{}, apperr.NewValidationError("end_date must not precede start_date")
	}

	s := Slot{Kind: k, StartDate: sd, EndDate: ed}

	if k == SingleDay {
		if !sd.Equal(ed) {
			return Slot{}, apperr.NewValidationError("single-day bookings must start and end on the same date")
		}
		if _, err := time.Parse(timeLayout, startTime); err != nil {
			return Slot{}, apperr.NewValidationError("start_time must be HH:MM")
		}
		if _, err := time.Parse(timeLayout, endTime); err != nil {
			return Slot{}, apperr.NewValidationError("end_time must be HH:MM")
		}
		if endTime <= startTime {
			return Slot{}, apperr.NewValidationError("end_time must be after start_time")
		}
		s.StartTime = startTime
		s.EndTime = endTime
	} else if startTime != "" || endTime != "" {
		return Slot{}, apperr.NewValidationError("times are only valid for single-day bookings")
	}

	return s, nil
}

// FromDates builds a MULTI_DAY slot from already-normalized dates. Used for
// calendar blocks, which always cover whole days.
func FromDates(startDate, endDate time.Time) Slot {
	return Slot{Kind: MultiDay, StartDate: startDate, EndDate: endDate}
}

// Overlaps reports whether two slots contest the same calendar space.
// Date ranges overlap inclusively (a1 <= b2 && b1 <= a2). When both slots are
// single-day ranges on the same date the time windows decide, half-open, so a
// booking ending 12:00 does not conflict with one starting 12:00.
func (s Slot) Overlaps(o Slot) bool {
	if s.StartDate.After(o.EndDate) || o.StartDate.After(s.EndDate) {
		return false
	}
	if s.Kind == SingleDay && o.Kind == SingleDay && s.StartDate.Equal(o.StartDate) {
		return s.StartTime < o.EndTime && o.StartTime < s.EndTime
	}
	return true
}

// Days returns the inclusive number of calendar days the slot covers.
func (s Slot) Days() int {
	return int(s.EndDate.Sub(s.StartDate).Hours()/24) + 1
}

// EndsBefore reports whether the slot's service window is fully in the past
// relative to now (the day after end date has begun).
func (s Slot) EndsBefore(now time.Time) bool {
	return now.After(s.EndDate.AddDate(0, 0, 1))
}
