// Package access decides when a guest may see the codes for their rooms.
package access

import (
	"context"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

// DisclosureAllowed returns nil when the booking is CONFIRMED or CHECKED_IN
// and paid. Otherwise the error names the unmet condition, status first.
func DisclosureAllowed(b *model.Booking) error {
	if b.Status != model.BookingStatusConfirmed && b.Status != model.BookingStatusCheckedIn {
		return apperr.Precondition(apperr.CodeStatusNotEligible,
			"access codes are available once booking %s is confirmed; it is %s", b.Reference, b.Status)
	}
	if b.PaymentStatus != model.PaymentStatusPaid {
		return apperr.Precondition(apperr.CodePaymentRequired,
			"access codes are available once booking %s is paid", b.Reference)
	}
	return nil
}

// RoomAccess is everything a guest needs to get into one room.
type RoomAccess struct {
	RoomID         int64              `json:"roomId"`
	RoomNumber     string             `json:"roomNumber"`
	DoorCode       string             `json:"doorCode"`
	KeyBoxCode     string             `json:"keyBoxCode,omitempty"`
	AdditionalInfo string             `json:"additionalInfo,omitempty"`
	SharedCodes    []model.AccessCode `json:"sharedCodes,omitempty"`
	Instructions   string             `json:"instructions,omitempty"`
}

type Gate struct {
	store store.Store
}

func NewGate(st store.Store) *Gate {
	return &Gate{store: st}
}

// Codes returns the access codes of every room in the booking, in booking
// order, if DisclosureAllowed passes.
func (g *Gate) Codes(ctx context.Context, bookingID int64) ([]RoomAccess, error) {
	b, err := g.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := DisclosureAllowed(b); err != nil {
		return nil, err
	}

	out := make([]RoomAccess, 0, len(b.Rooms))
	for _, br := range b.Rooms {
		room := br.Room
		if room == nil {
			if room, err = g.store.GetRoom(ctx, br.RoomID); err != nil {
				return nil, err
			}
		}
		ra := RoomAccess{
			RoomID:         room.ID,
			RoomNumber:     room.Number,
			DoorCode:       room.DoorCode,
			KeyBoxCode:     room.KeyBoxCode,
			AdditionalInfo: room.AdditionalInfo,
		}
		if cfg := room.AccessConfiguration; cfg != nil {
			ra.SharedCodes = cfg.SharedCodes
			ra.Instructions = cfg.Instructions
		}
		out = append(out, ra)
	}
	return out, nil
}
