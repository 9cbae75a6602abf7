package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"hotel-ops-backend/internal/model"
)

const night = 24 * time.Hour

// Nights is the number of started 24 hour periods between check-in and
// check-out.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	n := d / night
	if d%night != 0 {
		n++
	}
	return int(n)
}

// Total multiplies the nights by the sum of the rooms' price snapshots.
func Total(nights int, rooms []model.BookingRoom) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rooms {
		sum = sum.Add(r.PricePerNight)
	}
	return sum.Mul(decimal.NewFromInt(int64(nights)))
}
