package model

import "time"

type TaskType string

const (
	TaskTypeCleaning      TaskType = "CLEANING"
	TaskTypeCheckout      TaskType = "CHECKOUT"
	TaskTypeRepair        TaskType = "REPAIR"
	TaskTypeAmenityRefill TaskType = "AMENITY_REFILL"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	TaskPriorityUrgent TaskPriority = "URGENT"
	TaskPriorityNormal TaskPriority = "NORMAL"
	TaskPriorityLow    TaskPriority = "LOW"
)

// ServiceTask is a unit of staff work against a room.
type ServiceTask struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	Type          TaskType     `gorm:"type:varchar(24);not null;index" json:"type"`
	Status        TaskStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	Priority      TaskPriority `gorm:"type:varchar(16);not null" json:"priority"`
	Description   string       `gorm:"type:text" json:"description"`
	ScheduledFor  *time.Time   `gorm:"index" json:"scheduledFor,omitempty"`
	RoomID        int64        `gorm:"index;not null" json:"roomId"`
	AssignedToID  *int64       `gorm:"index" json:"assignedToId,omitempty"`
	CompletedByID *int64       `json:"completedById,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	BookingID     *int64       `gorm:"index" json:"bookingId,omitempty"`
	Version       int64        `gorm:"not null" json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`

	Room       *Room     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"room,omitempty"`
	AssignedTo *Employee `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"-"`
}
