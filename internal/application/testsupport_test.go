package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	calendarDomain "github.com/venuelink/service-booking/internal/domain/calendar"
	"github.com/venuelink/service-booking/internal/domain/catalog"
	couponDomain "github.com/venuelink/service-booking/internal/domain/coupon"
	paymentDomain "github.com/venuelink/service-booking/internal/domain/payment"
	"github.com/venuelink/service-booking/internal/domain/slot"
	"github.com/venuelink/service-booking/pkg/kafka"
)

// cloneBooking deep-copies an aggregate so fakes behave like a real store:
// mutations on a loaded aggregate must not leak back without Update.
func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var decidedAt *time.Time
	if d := b.DecidedAt(); d != nil {
		v := *d
		decidedAt = &v
	}
	return bookingDomain.Reconstitute(
		b.ID(), b.PublicID(), b.VendorID(), b.RequesterID(), b.ProductID(),
		b.Slot(),
		b.TotalAmount(), b.DiscountAmount(), b.FinalAmount(), b.AdvanceAmount(), b.RemainingAmount(),
		b.CouponCode(), b.Currency(), b.Status(), b.Notes(),
		b.CreatedAt(), b.ExpiresAt(), decidedAt, b.Version(),
	)
}

type fakeBookingRepo struct {
	mu              sync.Mutex
	nextID          int64
	items           map[int64]*bookingDomain.Booking
	confirmConflict bool
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{items: make(map[int64]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) seed(b *bookingDomain.Booking) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID() == 0 {
		r.nextID++
		b.SetID(r.nextID)
	}
	r.items[b.ID()] = cloneBooking(b)
	return b
}

func (r *fakeBookingRepo) slotTakenLocked(vendorID uuid.UUID, s slot.Slot, excludeID int64) bool {
	for _, o := range r.items {
		if o.ID() == excludeID || o.VendorID() != vendorID || o.Status() != bookingDomain.StatusConfirmed {
			continue
		}
		if o.Slot().Overlaps(s) {
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) CreateExclusive(ctx context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotTakenLocked(b.VendorID(), b.Slot(), 0) {
		return apperr.NewConflictError(apperr.CodeSlotUnavailable, "the requested slot is no longer available")
	}
	r.nextID++
	b.SetID(r.nextID)
	r.items[b.ID()] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) ConfirmExclusive(ctx context.Context, b *bookingDomain.Booking) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.confirmConflict || r.slotTakenLocked(b.VendorID(), b.Slot(), b.ID()) {
		return true, nil
	}
	stored, ok := r.items[b.ID()]
	if !ok || stored.Status() != bookingDomain.StatusPending || stored.Version() != b.Version()-1 {
		return false, apperr.NewStateError(apperr.CodeAlreadyDecided, "booking was decided by another transaction")
	}
	r.items[b.ID()] = cloneBooking(b)
	return false, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking was modified by another transaction")
	}
	r.items[b.ID()] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.PublicID() == publicID {
			return cloneBooking(b), nil
		}
	}
	return nil, apperr.NewNotFoundError("booking", publicID.String())
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.items[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, apperr.NewNotFoundError("booking", "")
}

func (r *fakeBookingRepo) list(filter func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.items {
		if filter(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func liveStatus(s bookingDomain.Status) bool {
	return s == bookingDomain.StatusPending || s == bookingDomain.StatusConfirmed || s == bookingDomain.StatusCompleted
}

func (r *fakeBookingRepo) ListConfirmedOverlapping(ctx context.Context, vendorID uuid.UUID, s slot.Slot) ([]*bookingDomain.Booking, error) {
	return r.list(func(b *bookingDomain.Booking) bool {
		return b.VendorID() == vendorID && b.Status() == bookingDomain.StatusConfirmed &&
			!b.Slot().StartDate.After(s.EndDate) && !s.StartDate.After(b.Slot().EndDate)
	}), nil
}

func (r *fakeBookingRepo) ListConfirmedForVendor(ctx context.Context, vendorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.list(func(b *bookingDomain.Booking) bool {
		return b.VendorID() == vendorID && b.Status() == bookingDomain.StatusConfirmed
	}), nil
}

func (r *fakeBookingRepo) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.list(func(b *bookingDomain.Booking) bool {
		return b.VendorID() == vendorID && liveStatus(b.Status())
	}), nil
}

func (r *fakeBookingRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.list(func(b *bookingDomain.Booking) bool {
		return b.RequesterID() == requesterID && liveStatus(b.Status())
	}), nil
}

func (r *fakeBookingRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.items {
		if b.Status() == bookingDomain.StatusPending && b.IsExpired(now) {
			_ = b.Expire(now)
			b.IncrementVersion()
			n++
		}
	}
	return n, nil
}

type fakeCouponRepo struct {
	mu    sync.Mutex
	items map[string]*couponDomain.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{items: make(map[string]*couponDomain.Coupon)}
}

func (r *fakeCouponRepo) Save(ctx context.Context, c *couponDomain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.SetID(int64(len(r.items) + 1))
	r.items[c.Code()] = c
	return nil
}

func (r *fakeCouponRepo) Update(ctx context.Context, c *couponDomain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.Code()] = c
	return nil
}

func (r *fakeCouponRepo) FindActiveByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	c, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, apperr.NewNotFoundError("coupon", code)
	}
	return c, nil
}

func (r *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.items[strings.ToUpper(code)]; ok {
		return c, nil
	}
	return nil, apperr.NewNotFoundError("coupon", code)
}

type fakeCatalog struct {
	products map[uuid.UUID]*catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, publicID uuid.UUID) (*catalog.Product, error) {
	if p, ok := f.products[publicID]; ok {
		return p, nil
	}
	return nil, apperr.NewNotFoundError("product", publicID.String())
}

type recordedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Event: ce})
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	views       map[uuid.UUID]*calendarDomain.View
	invalidated []uuid.UUID
}

func newRecordingCache() *recordingCache {
	return &recordingCache{views: make(map[uuid.UUID]*calendarDomain.View)}
}

func (c *recordingCache) Get(ctx context.Context, vendorID uuid.UUID) (*calendarDomain.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[vendorID]
	return v, ok
}

func (c *recordingCache) Set(ctx context.Context, vendorID uuid.UUID, view *calendarDomain.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[vendorID] = view
}

func (c *recordingCache) Invalidate(ctx context.Context, vendorIDs ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range vendorIDs {
		delete(c.views, id)
		c.invalidated = append(c.invalidated, id)
	}
}

type fakePaymentRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[string]*paymentDomain.Attempt
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{items: make(map[string]*paymentDomain.Attempt)}
}

func (r *fakePaymentRepo) Save(ctx context.Context, a *paymentDomain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.SetID(r.nextID)
	r.items[a.GatewayOrderID()] = a
	return nil
}

func (r *fakePaymentRepo) MarkVerified(ctx context.Context, a *paymentDomain.Attempt) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[a.GatewayOrderID()]
	if !ok {
		return false, apperr.NewNotFoundError("payment attempt", a.GatewayOrderID())
	}
	if stored != a && stored.Verified() {
		return false, nil
	}
	r.items[a.GatewayOrderID()] = a
	return true, nil
}

func (r *fakePaymentRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*paymentDomain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.items[gatewayOrderID]; ok {
		return a, nil
	}
	return nil, apperr.NewNotFoundError("payment attempt", gatewayOrderID)
}

func (r *fakePaymentRepo) FindVerified(ctx context.Context, bookingID int64, phase paymentDomain.Phase) (*paymentDomain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.BookingID() == bookingID && a.Phase() == phase && a.Verified() {
			return a, nil
		}
	}
	return nil, apperr.NewNotFoundError("verified payment", string(phase))
}

type fakeBlockRepo struct {
	mu       sync.Mutex
	nextID   int64
	items    map[uuid.UUID]*calendarDomain.Block
	bookings *fakeBookingRepo
}

func newFakeBlockRepo(bookings *fakeBookingRepo) *fakeBlockRepo {
	return &fakeBlockRepo{items: make(map[uuid.UUID]*calendarDomain.Block), bookings: bookings}
}

func (r *fakeBlockRepo) CreateExclusive(ctx context.Context, b *calendarDomain.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bookings != nil {
		r.bookings.mu.Lock()
		taken := r.bookings.slotTakenLocked(b.VendorID(), b.Slot(), 0)
		r.bookings.mu.Unlock()
		if taken {
			return apperr.NewConflictError(apperr.CodeBlockOverlap, "a confirmed booking overlaps the blocked range")
		}
	}
	r.nextID++
	b.SetID(r.nextID)
	r.items[b.PublicID()] = b
	return nil
}

func (r *fakeBlockRepo) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*calendarDomain.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.items[publicID]; ok {
		return b, nil
	}
	return nil, apperr.NewNotFoundError("calendar block", publicID.String())
}

func (r *fakeBlockRepo) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*calendarDomain.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*calendarDomain.Block
	for _, b := range r.items {
		if b.VendorID() == vendorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) ListOverlapping(ctx context.Context, vendorID uuid.UUID, startDate, endDate time.Time) ([]*calendarDomain.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*calendarDomain.Block
	for _, b := range r.items {
		if b.VendorID() == vendorID && !b.StartDate().After(endDate) && !startDate.After(b.EndDate()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) Delete(ctx context.Context, publicID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, publicID)
	return nil
}

type fakeInvoiceRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeInvoiceRenderer) RenderInvoice(data adapter.InvoiceData) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}
