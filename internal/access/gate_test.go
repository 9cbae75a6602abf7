package access

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/testdb"
)

func TestDisclosureAllowed(t *testing.T) {
	statuses := []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusCheckedIn,
		model.BookingStatusCompleted,
		model.BookingStatusCancelled,
	}
	payments := []model.PaymentStatus{model.PaymentStatusUnpaid, model.PaymentStatusPaid}

	for _, status := range statuses {
		for _, payment := range payments {
			t.Run(string(status)+"/"+string(payment), func(t *testing.T) {
				err := DisclosureAllowed(&model.Booking{Reference: "ABCD1234", Status: status, PaymentStatus: payment})

				eligible := status == model.BookingStatusConfirmed || status == model.BookingStatusCheckedIn
				switch {
				case !eligible:
					assert.Equal(t, apperr.CodeStatusNotEligible, apperr.CodeOf(err))
				case payment != model.PaymentStatusPaid:
					assert.Equal(t, apperr.CodePaymentRequired, apperr.CodeOf(err))
				default:
					assert.NoError(t, err)
				}
				if err != nil {
					assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
				}
			})
		}
	}
}

func TestGate_Codes(t *testing.T) {
	db := testdb.Open(t)
	st := store.NewGormStore(db)
	gate := NewGate(st)
	ctx := context.Background()

	cfg := &model.AccessConfiguration{
		Name:         "Main building",
		SharedCodes:  datatypes.NewJSONSlice([]model.AccessCode{{Label: "Front door", Code: "0815"}}),
		Instructions: "Key box is left of the entrance.",
	}
	require.NoError(t, db.Create(cfg).Error)

	guest := testdb.Guest(t, db, "ada@example.com")
	_, rooms := testdb.Category(t, db, "Standard", 100, 2)
	require.NoError(t, db.Model(&model.Room{}).Where("id = ?", rooms[1].ID).Updates(map[string]any{
		"access_configuration_id": cfg.ID,
		"additional_info":         "Second floor",
	}).Error)

	b := &model.Booking{
		Reference:     "ACCS0001",
		GuestID:       guest.ID,
		CheckIn:       testdb.Date(2024, 6, 1),
		CheckOut:      testdb.Date(2024, 6, 4),
		Status:        model.BookingStatusConfirmed,
		PaymentStatus: model.PaymentStatusUnpaid,
		Rooms: []model.BookingRoom{
			{RoomID: rooms[1].ID, PricePerNight: decimal.NewFromInt(100)},
			{RoomID: rooms[0].ID, PricePerNight: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, st.CreateBooking(ctx, b))

	_, err := gate.Codes(ctx, b.ID)
	assert.Equal(t, apperr.CodePaymentRequired, apperr.CodeOf(err))

	require.NoError(t, db.Model(&model.Booking{}).Where("id = ?", b.ID).Update("payment_status", model.PaymentStatusPaid).Error)

	codes, err := gate.Codes(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	assert.Equal(t, rooms[1].Number, codes[0].RoomNumber)
	assert.Equal(t, "1111", codes[0].DoorCode)
	assert.Equal(t, "2222", codes[0].KeyBoxCode)
	assert.Equal(t, "Second floor", codes[0].AdditionalInfo)
	assert.Equal(t, []model.AccessCode{{Label: "Front door", Code: "0815"}}, codes[0].SharedCodes)
	assert.Equal(t, "Key box is left of the entrance.", codes[0].Instructions)

	assert.Equal(t, rooms[0].Number, codes[1].RoomNumber)
	assert.Empty(t, codes[1].SharedCodes)

	_, err = gate.Codes(ctx, 404)
	assert.Equal(t, apperr.CodeBookingNotFound, apperr.CodeOf(err))
}
