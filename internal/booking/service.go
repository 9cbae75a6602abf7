// Package booking creates and maintains bookings: dates, price snapshots,
// references and lifecycle transitions.
package booking

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/availability"
	"hotel-ops-backend/internal/events"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

// Config tunes the booking manager.
type Config struct {
	// ReferenceAttempts bounds how many references are tried before
	// CreateBooking gives up with a retryable Conflict.
	ReferenceAttempts int
	// StrictPublicAssignment makes CreatePublic skip rooms held by an
	// overlapping booking or reservation and respect the category count.
	StrictPublicAssignment bool
}

type Service struct {
	store        store.Store
	tasks        *task.Service
	events       events.Publisher
	cfg          Config
	newReference func() (string, error)
	now          func() time.Time
}

func NewService(st store.Store, tasks *task.Service, pub events.Publisher, cfg Config) *Service {
	if cfg.ReferenceAttempts <= 0 {
		cfg.ReferenceAttempts = 10
	}
	return &Service{
		store:        st,
		tasks:        tasks,
		events:       pub,
		cfg:          cfg,
		newReference: NewReference,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput requests specific physical rooms for a guest.
type CreateInput struct {
	CheckIn  time.Time
	CheckOut time.Time
	RoomIDs  []int64
	GuestID  int64
}

// PublicInput requests a number of rooms per category for a guest identified
// by contact details.
type PublicInput struct {
	Guest      model.Guest
	CheckIn    time.Time
	CheckOut   time.Time
	Categories map[int64]int
}

func validateDates(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return apperr.Invalid(apperr.CodeInvalidDateRange, "check-in and check-out are required")
	}
	if !checkIn.Before(checkOut) {
		return apperr.Precondition(apperr.CodeInvalidDateRange, "check-in %s must be before check-out %s",
			checkIn.Format(time.RFC3339), checkOut.Format(time.RFC3339))
	}
	return nil
}

// Create books the requested rooms for an existing guest. Every room must be
// free for the stay and its category must have an unallocated room left.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Booking, error) {
	if err := validateDates(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}
	if len(in.RoomIDs) == 0 {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "at least one room is required")
	}
	seen := make(map[int64]bool, len(in.RoomIDs))
	for _, id := range in.RoomIDs {
		if seen[id] {
			return nil, apperr.Invalid(apperr.CodeInvalidInput, "room %d requested twice", id)
		}
		seen[id] = true
	}

	guest, err := s.store.GetGuest(ctx, in.GuestID)
	if err != nil {
		return nil, err
	}

	b, err := s.insertWithReference(ctx, func(tx store.Store) (*model.Booking, error) {
		rooms := make([]model.Room, 0, len(in.RoomIDs))
		categoryIDs := make([]int64, 0, len(in.RoomIDs))
		for _, id := range in.RoomIDs {
			room, err := tx.GetRoom(ctx, id)
			if err != nil {
				return nil, err
			}
			if room.Category == nil {
				return nil, apperr.NotFound(apperr.CodeCategoryNotFound, "category %d of room %s not found", room.CategoryID, room.Number)
			}
			rooms = append(rooms, *room)
			categoryIDs = append(categoryIDs, room.CategoryID)
		}
		if err := lockCategories(ctx, tx, categoryIDs); err != nil {
			return nil, err
		}

		if err := availability.NewCalculator(tx).CheckRooms(ctx, rooms, in.CheckIn, in.CheckOut, 0); err != nil {
			return nil, err
		}

		b := newBooking(guest.ID, in.CheckIn, in.CheckOut)
		for _, room := range rooms {
			b.Rooms = append(b.Rooms, model.BookingRoom{RoomID: room.ID, PricePerNight: room.Category.PricePerNight})
		}
		price(b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	b.Guest = guest
	events.Emit(ctx, s.events, events.BookingCreated, bookingEvent(b))
	return b, nil
}

// CreatePublic upserts the guest by email and assigns, per category, the
// first rooms by number. Without StrictPublicAssignment it does not check
// the chosen rooms against other bookings or reservations. The guest is
// written in the booking's transaction, so a rejected booking leaves no
// guest behind.
func (s *Service) CreatePublic(ctx context.Context, in PublicInput) (*model.Booking, error) {
	if err := validateDates(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}
	if len(in.Categories) == 0 {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "at least one room category is required")
	}
	categoryIDs := make([]int64, 0, len(in.Categories))
	for id, count := range in.Categories {
		if count <= 0 {
			return nil, apperr.Invalid(apperr.CodeInvalidInput, "room count for category %d must be positive", id)
		}
		categoryIDs = append(categoryIDs, id)
	}
	sort.Slice(categoryIDs, func(i, j int) bool { return categoryIDs[i] < categoryIDs[j] })

	var guest *model.Guest
	b, err := s.insertWithReference(ctx, func(tx store.Store) (*model.Booking, error) {
		g, err := tx.UpsertGuestByEmail(ctx, &in.Guest)
		if err != nil {
			return nil, err
		}
		guest = g

		b := newBooking(guest.ID, in.CheckIn, in.CheckOut)
		for _, categoryID := range categoryIDs {
			category, err := tx.LockCategory(ctx, categoryID)
			if err != nil {
				return nil, err
			}
			rooms, err := tx.ListRoomsByCategory(ctx, categoryID)
			if err != nil {
				return nil, err
			}
			if s.cfg.StrictPublicAssignment {
				if rooms, err = availability.NewCalculator(tx).FreeRooms(ctx, categoryID, rooms, in.CheckIn, in.CheckOut); err != nil {
					return nil, err
				}
			}

			want := in.Categories[categoryID]
			if len(rooms) < want {
				return nil, apperr.Precondition(apperr.CodeInsufficientRooms,
					"category %s has %d rooms available, %d requested", category.Name, len(rooms), want)
			}
			for _, room := range rooms[:want] {
				b.Rooms = append(b.Rooms, model.BookingRoom{RoomID: room.ID, PricePerNight: category.PricePerNight})
			}
		}
		price(b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	b.Guest = guest
	events.Emit(ctx, s.events, events.BookingCreated, bookingEvent(b))
	return b, nil
}

// insertWithReference builds a booking inside a transaction and inserts it
// under a fresh reference. The unique index on the reference is the real
// guard: when a concurrent create wins the same reference the whole
// transaction is retried with a new one.
func (s *Service) insertWithReference(ctx context.Context, build func(tx store.Store) (*model.Booking, error)) (*model.Booking, error) {
	for attempt := 1; attempt <= s.cfg.ReferenceAttempts; attempt++ {
		ref, err := s.newReference()
		if err != nil {
			return nil, err
		}
		taken, err := s.store.ReferenceExists(ctx, ref)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		var created *model.Booking
		err = s.store.Transaction(ctx, func(tx store.Store) error {
			b, err := build(tx)
			if err != nil {
				return err
			}
			b.Reference = ref
			if err := tx.CreateBooking(ctx, b); err != nil {
				return err
			}
			created = b
			return nil
		})
		if apperr.CodeOf(err) == apperr.CodeDuplicateReference {
			log.Printf("Booking reference %s taken concurrently (attempt %d/%d); retrying", ref, attempt, s.cfg.ReferenceAttempts)
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, apperr.Conflict(apperr.CodeReferenceExhausted,
		"could not allocate a booking reference after %d attempts", s.cfg.ReferenceAttempts).AsRetryable()
}

func lockCategories(ctx context.Context, tx store.Store, ids []int64) error {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var prev int64
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		if _, err := tx.LockCategory(ctx, id); err != nil {
			return err
		}
		prev = id
	}
	return nil
}

func newBooking(guestID int64, checkIn, checkOut time.Time) *model.Booking {
	return &model.Booking{
		GuestID:                    guestID,
		CheckIn:                    checkIn,
		CheckOut:                   checkOut,
		Status:                     model.BookingStatusPending,
		PaymentStatus:              model.PaymentStatusUnpaid,
		WantsDailyCleaning:         true,
		NextCleaningRequiresTowels: false,
	}
}

func price(b *model.Booking) {
	b.NightsCount = Nights(b.CheckIn, b.CheckOut)
	b.TotalPrice = Total(b.NightsCount, b.Rooms)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if !ReferencePattern.MatchString(reference) {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "malformed booking reference %q", reference)
	}
	return s.store.GetBookingByReference(ctx, reference)
}

func (s *Service) ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	st, err := model.ParseBookingStatus(string(status))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}
	return s.store.ListBookingsByStatus(ctx, st)
}

func bookingEvent(b *model.Booking) events.BookingEvent {
	ids := make([]int64, len(b.Rooms))
	for i, r := range b.Rooms {
		ids[i] = r.RoomID
	}
	return events.BookingEvent{
		BookingID:     b.ID,
		Reference:     b.Reference,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		RoomIDs:       ids,
	}
}
