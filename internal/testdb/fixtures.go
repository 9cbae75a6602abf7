package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-ops-backend/internal/model"
)

// Category inserts a room category with the given nightly price and n rooms
// numbered <name>-01, <name>-02 and so on. All rooms start CLEAN.
func Category(t testing.TB, db *gorm.DB, name string, price int64, n int) (*model.RoomCategory, []model.Room) {
	t.Helper()
	cat := &model.RoomCategory{Name: name, PricePerNight: decimal.NewFromInt(price), Capacity: 2}
	require.NoError(t, db.Create(cat).Error)

	rooms := make([]model.Room, 0, n)
	for i := 1; i <= n; i++ {
		r := model.Room{
			Number:     fmt.Sprintf("%s-%02d", name, i),
			CategoryID: cat.ID,
			Condition:  model.RoomConditionClean,
			DoorCode:   "1111",
			KeyBoxCode: "2222",
		}
		require.NoError(t, db.Create(&r).Error)
		rooms = append(rooms, r)
	}
	return cat, rooms
}

// Guest inserts a guest with the given email.
func Guest(t testing.TB, db *gorm.DB, email string) *model.Guest {
	t.Helper()
	g := &model.Guest{Email: email, FirstName: "Test", LastName: "Guest"}
	require.NoError(t, db.Create(g).Error)
	return g
}

// Staff inserts a user with the given role and, when withEmployee is set, an
// employee identity for it.
func Staff(t testing.TB, db *gorm.DB, username string, role model.UserRole, withEmployee bool) (*model.User, *model.Employee) {
	t.Helper()
	u := &model.User{Username: username, Role: role}
	require.NoError(t, db.Create(u).Error)
	if !withEmployee {
		return u, nil
	}
	e := &model.Employee{UserID: u.ID, FullName: username}
	require.NoError(t, db.Create(e).Error)
	return u, e
}

// Reservation inserts a reservation of the category.
func Reservation(t testing.TB, db *gorm.DB, categoryID int64, start, end time.Time, status model.ReservationStatus) *model.Reservation {
	t.Helper()
	r := &model.Reservation{CategoryID: categoryID, StartDate: start, EndDate: end, Status: status}
	require.NoError(t, db.Omit("Category", "Room").Create(r).Error)
	return r
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
