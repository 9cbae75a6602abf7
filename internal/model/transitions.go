package model

import "fmt"

// ConditionTrigger distinguishes transitions driven by task side effects from
// explicit staff actions.
type ConditionTrigger string

const (
	TriggerAutomatic ConditionTrigger = "automatic"
	TriggerManual    ConditionTrigger = "manual"
)

var bookingTransitions = map[BookingStatus]map[BookingStatus]struct{}{
	BookingStatusPending: {
		BookingStatusConfirmed: {},
		BookingStatusCancelled: {},
	},
	BookingStatusConfirmed: {
		BookingStatusCheckedIn: {},
		BookingStatusCancelled: {},
	},
	BookingStatusCheckedIn: {
		BookingStatusCompleted: {},
	},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]struct{}{
	PaymentStatusUnpaid: {PaymentStatusPaid: {}},
	PaymentStatusPaid:   {PaymentStatusUnpaid: {}},
}

var reservationTransitions = map[ReservationStatus]map[ReservationStatus]struct{}{
	ReservationStatusPending: {
		ReservationStatusConfirmed: {},
		ReservationStatusCancelled: {},
	},
	ReservationStatusConfirmed: {
		ReservationStatusCompleted: {},
		ReservationStatusCancelled: {},
	},
	ReservationStatusCancelled: {},
	ReservationStatusCompleted: {},
}

// DONE can be reopened; completion attribution is cleared when that happens.
var taskTransitions = map[TaskStatus]map[TaskStatus]struct{}{
	TaskStatusPending: {
		TaskStatusInProgress: {},
		TaskStatusDone:       {},
	},
	TaskStatusInProgress: {
		TaskStatusPending: {},
		TaskStatusDone:    {},
	},
	TaskStatusDone: {
		TaskStatusPending:    {},
		TaskStatusInProgress: {},
	},
}

var conditionTransitions = map[RoomCondition]map[RoomCondition]ConditionTrigger{
	RoomConditionClean: {
		RoomConditionDirty:         TriggerAutomatic,
		RoomConditionInMaintenance: TriggerManual,
	},
	RoomConditionDirty: {
		RoomConditionClean:         TriggerAutomatic,
		RoomConditionInMaintenance: TriggerManual,
	},
	RoomConditionInMaintenance: {
		RoomConditionClean: TriggerManual,
	},
}

func allowed[S comparable](table map[S]map[S]struct{}, from, to S) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// CanTransitionBooking reports whether a booking may move from one status to another.
func CanTransitionBooking(from, to BookingStatus) bool {
	return allowed(bookingTransitions, from, to)
}

// CanTransitionPayment reports whether a payment status change is allowed.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return allowed(paymentTransitions, from, to)
}

// CanTransitionReservation reports whether a reservation may move from one status to another.
func CanTransitionReservation(from, to ReservationStatus) bool {
	return allowed(reservationTransitions, from, to)
}

// CanTransitionTask reports whether a task may move from one status to another.
func CanTransitionTask(from, to TaskStatus) bool {
	return allowed(taskTransitions, from, to)
}

// CanTransitionCondition reports whether a room may move between conditions
// for the given trigger.
func CanTransitionCondition(from, to RoomCondition, trigger ConditionTrigger) bool {
	next, ok := conditionTransitions[from]
	if !ok {
		return false
	}
	t, ok := next[to]
	return ok && t == trigger
}

// IsActive reports whether the booking still occupies its rooms.
func (s BookingStatus) IsActive() bool {
	return s != BookingStatusCancelled && s != BookingStatusCompleted
}

// IsActive reports whether the reservation still holds a room of its category.
func (s ReservationStatus) IsActive() bool {
	return s != ReservationStatusCancelled && s != ReservationStatusCompleted
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	if _, ok := bookingTransitions[BookingStatus(s)]; ok {
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("unknown booking status: %q", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	if _, ok := paymentTransitions[PaymentStatus(s)]; ok {
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status: %q", s)
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	if _, ok := reservationTransitions[ReservationStatus(s)]; ok {
		return ReservationStatus(s), nil
	}
	return "", fmt.Errorf("unknown reservation status: %q", s)
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	if _, ok := taskTransitions[TaskStatus(s)]; ok {
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status: %q", s)
}

func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(s) {
	case TaskTypeCleaning, TaskTypeCheckout, TaskTypeRepair, TaskTypeAmenityRefill:
		return TaskType(s), nil
	default:
		return "", fmt.Errorf("unknown task type: %q", s)
	}
}

// ParseTaskPriority parses a priority. An empty string means NORMAL.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case "":
		return TaskPriorityNormal, nil
	case TaskPriorityUrgent, TaskPriorityNormal, TaskPriorityLow:
		return TaskPriority(s), nil
	default:
		return "", fmt.Errorf("unknown task priority: %q", s)
	}
}
