package model

import "time"

// Guest is a person staying at the hotel.
type Guest struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string    `gorm:"size:128" json:"firstName"`
	LastName  string    `gorm:"size:128" json:"lastName"`
	Phone     string    `gorm:"size:32" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleStaff UserRole = "STAFF"
	UserRoleGuest UserRole = "GUEST"
)

// User is an account in the user directory.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Role      UserRole  `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Employee *Employee `gorm:"foreignKey:UserID" json:"employee,omitempty"`
}

// CanWorkTasks reports whether the user's role allows service task assignment.
func (u *User) CanWorkTasks() bool {
	return u.Role == UserRoleStaff || u.Role == UserRoleAdmin
}

// Employee is the staff identity attached to a user account.
type Employee struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"userId"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
