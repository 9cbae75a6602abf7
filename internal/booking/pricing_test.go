package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"hotel-ops-backend/internal/model"
)

func TestNights(t *testing.T) {
	base := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		checkOut time.Time
		expected int
	}{
		{"exactly three days", base.Add(72 * time.Hour), 3},
		{"one minute over rounds up", base.Add(24*time.Hour + time.Minute), 2},
		{"late checkout same day", base.Add(20 * time.Hour), 1},
		{"equal instants", base, 0},
		{"reversed", base.Add(-time.Hour), 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Nights(base, tc.checkOut))
		})
	}
}

func TestTotal_MultiRoomStay(t *testing.T) {
	checkIn := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	rooms := []model.BookingRoom{
		{PricePerNight: decimal.NewFromInt(100)},
		{PricePerNight: decimal.NewFromInt(150)},
	}

	nights := Nights(checkIn, checkOut)
	assert.Equal(t, 3, nights)
	assert.True(t, decimal.NewFromInt(750).Equal(Total(nights, rooms)))
}

func TestTotal_KeepsCents(t *testing.T) {
	rooms := []model.BookingRoom{{PricePerNight: decimal.RequireFromString("89.90")}}
	assert.Equal(t, "269.7", Total(3, rooms).String())
}

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		ref, err := NewReference()
		assert.NoError(t, err)
		assert.Regexp(t, ReferencePattern, ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 190)
}
