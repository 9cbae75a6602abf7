package booking

import (
	"context"
	"time"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/availability"
	"hotel-ops-backend/internal/events"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

// UpdateInput carries optional new stay dates.
type UpdateInput struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// Preferences carries optional guest housekeeping toggles.
type Preferences struct {
	WantsDailyCleaning *bool
	RequestTowels      *bool
}

// Update changes the stay dates and recomputes nights and price from the
// existing price snapshots. The booked rooms must stay free for the new
// dates and their categories must not be over-allocated. A rejected update leaves the booking unchanged.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*model.Booking, error) {
	var updated *model.Booking
	changed := false
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		checkIn, checkOut := b.CheckIn, b.CheckOut
		if in.CheckIn != nil {
			checkIn = *in.CheckIn
		}
		if in.CheckOut != nil {
			checkOut = *in.CheckOut
		}
		updated = b
		if checkIn.Equal(b.CheckIn) && checkOut.Equal(b.CheckOut) {
			return nil
		}
		if err := validateDates(checkIn, checkOut); err != nil {
			return err
		}
		if !b.Status.IsActive() {
			return apperr.Precondition(apperr.CodeInvalidTransition, "booking %s is %s; dates can no longer change", b.Reference, b.Status)
		}

		rooms := make([]model.Room, 0, len(b.Rooms))
		categoryIDs := make([]int64, 0, len(b.Rooms))
		for _, br := range b.Rooms {
			room := br.Room
			if room == nil {
				if room, err = tx.GetRoom(ctx, br.RoomID); err != nil {
					return err
				}
			}
			rooms = append(rooms, *room)
			categoryIDs = append(categoryIDs, room.CategoryID)
		}
		if err := lockCategories(ctx, tx, categoryIDs); err != nil {
			return err
		}
		if err := availability.NewCalculator(tx).CheckRooms(ctx, rooms, checkIn, checkOut, b.ID); err != nil {
			return err
		}

		nights := Nights(checkIn, checkOut)
		total := Total(nights, b.Rooms)
		if err := tx.UpdateBooking(ctx, b, map[string]any{
			"check_in":     checkIn,
			"check_out":    checkOut,
			"nights_count": nights,
			"total_price":  total,
		}); err != nil {
			return err
		}
		b.CheckIn, b.CheckOut, b.NightsCount, b.TotalPrice = checkIn, checkOut, nights, total
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		events.Emit(ctx, s.events, events.BookingUpdated, bookingEvent(updated))
	}
	return updated, nil
}

// UpdatePreferences toggles daily cleaning and requests fresh towels for the
// next scheduled cleaning.
func (s *Service) UpdatePreferences(ctx context.Context, id int64, p Preferences) (*model.Booking, error) {
	return s.mutate(ctx, id, func(b *model.Booking) (map[string]any, error) {
		fields := map[string]any{}
		if p.WantsDailyCleaning != nil && *p.WantsDailyCleaning != b.WantsDailyCleaning {
			fields["wants_daily_cleaning"] = *p.WantsDailyCleaning
			b.WantsDailyCleaning = *p.WantsDailyCleaning
		}
		if p.RequestTowels != nil && *p.RequestTowels != b.NextCleaningRequiresTowels {
			fields["next_cleaning_requires_towels"] = *p.RequestTowels
			b.NextCleaningRequiresTowels = *p.RequestTowels
		}
		return fields, nil
	}, events.BookingUpdated)
}

// UpdateStatus moves the booking along its lifecycle. Writing the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) (*model.Booking, error) {
	to, err := model.ParseBookingStatus(string(status))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}
	subject := events.BookingUpdated
	if to == model.BookingStatusCancelled {
		subject = events.BookingCancelled
	}
	return s.mutate(ctx, id, func(b *model.Booking) (map[string]any, error) {
		if b.Status == to {
			return nil, nil
		}
		if !model.CanTransitionBooking(b.Status, to) {
			return nil, apperr.Precondition(apperr.CodeInvalidTransition, "booking %s cannot move from %s to %s", b.Reference, b.Status, to)
		}
		b.Status = to
		return map[string]any{"status": to}, nil
	}, subject)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Booking, error) {
	to, err := model.ParsePaymentStatus(string(status))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}
	return s.mutate(ctx, id, func(b *model.Booking) (map[string]any, error) {
		if b.PaymentStatus == to {
			return nil, nil
		}
		if !model.CanTransitionPayment(b.PaymentStatus, to) {
			return nil, apperr.Precondition(apperr.CodeInvalidTransition, "booking %s payment cannot move from %s to %s", b.Reference, b.PaymentStatus, to)
		}
		b.PaymentStatus = to
		return map[string]any{"payment_status": to}, nil
	}, events.BookingUpdated)
}

// Cancel cancels the booking. Cancelling a cancelled booking returns it
// unchanged.
func (s *Service) Cancel(ctx context.Context, id int64) (*model.Booking, error) {
	return s.UpdateStatus(ctx, id, model.BookingStatusCancelled)
}

// Delete removes the booking and its room assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteBooking(ctx, id)
}

// mutate loads the booking in a transaction, lets apply decide the column
// changes and writes them with a version check. Nothing is written or
// published when apply returns no fields.
func (s *Service) mutate(ctx context.Context, id int64, apply func(b *model.Booking) (map[string]any, error), subject string) (*model.Booking, error) {
	var updated *model.Booking
	changed := false
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		fields, err := apply(b)
		if err != nil {
			return err
		}
		updated = b
		if len(fields) == 0 {
			return nil
		}
		if err := tx.UpdateBooking(ctx, b, fields); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		events.Emit(ctx, s.events, subject, bookingEvent(updated))
	}
	return updated, nil
}
