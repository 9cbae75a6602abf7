package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RoomCondition is the housekeeping state of a physical room.
type RoomCondition string

const (
	RoomConditionClean         RoomCondition = "CLEAN"
	RoomConditionDirty         RoomCondition = "DIRTY"
	RoomConditionInMaintenance RoomCondition = "IN_MAINTENANCE"
)

// RoomCategory groups physical rooms sharing a price and capacity.
type RoomCategory struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"uniqueIndex;size:128;not null" json:"name"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"pricePerNight"`
	Capacity      int             `gorm:"not null" json:"capacity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Rooms []Room `gorm:"foreignKey:CategoryID" json:"rooms,omitempty"`
}

// Room is a physical room. Door and key box codes are only ever returned
// through the access code read path.
type Room struct {
	ID                    int64         `gorm:"primaryKey" json:"id"`
	Number                string        `gorm:"uniqueIndex;size:16;not null" json:"number"`
	CategoryID            int64         `gorm:"index;not null" json:"categoryId"`
	AccessConfigurationID *int64        `gorm:"index" json:"accessConfigurationId,omitempty"`
	Condition             RoomCondition `gorm:"type:varchar(16);not null" json:"condition"`
	DoorCode              string        `gorm:"size:32" json:"-"`
	KeyBoxCode            string        `gorm:"size:32" json:"-"`
	AdditionalInfo        string        `gorm:"type:text" json:"-"`
	Version               int64         `gorm:"not null" json:"-"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`

	// Associations
	Category            *RoomCategory        `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	AccessConfiguration *AccessConfiguration `gorm:"foreignKey:AccessConfigurationID;constraint:OnDelete:SET NULL" json:"-"`
}

// AccessCode is a labelled shared entrance code, e.g. the main door or garage.
type AccessCode struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// AccessConfiguration holds entrance codes and instructions shared by many rooms.
type AccessConfiguration struct {
	ID           int64                           `gorm:"primaryKey" json:"id"`
	Name         string                          `gorm:"size:128;not null" json:"name"`
	SharedCodes  datatypes.JSONSlice[AccessCode] `json:"sharedCodes"`
	Instructions string                          `gorm:"type:text" json:"instructions"`
	CreatedAt    time.Time                       `json:"createdAt"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}
