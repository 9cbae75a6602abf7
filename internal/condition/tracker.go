// Package condition owns the housekeeping state of physical rooms.
package condition

import (
	"context"
	"log"
	"strings"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

const maxDoorCodeLen = 32

// Tracker applies room condition transitions. Every write is a versioned
// compare-and-swap, so a concurrent writer loses with a Conflict.
type Tracker struct {
	store store.Store
}

func NewTracker(st store.Store) *Tracker {
	return &Tracker{store: st}
}

// WithStore returns a tracker bound to st, typically a transaction.
func (t *Tracker) WithStore(st store.Store) *Tracker {
	return &Tracker{store: st}
}

// MarkDirty moves a CLEAN room to DIRTY. Rooms in any other condition are left
// untouched and changed is false.
func (t *Tracker) MarkDirty(ctx context.Context, room *model.Room) (changed bool, err error) {
	return t.apply(ctx, room, model.RoomConditionDirty, model.TriggerAutomatic)
}

// MarkClean moves a DIRTY room to CLEAN. A room in maintenance stays there
// until staff end the maintenance explicitly.
func (t *Tracker) MarkClean(ctx context.Context, room *model.Room) (changed bool, err error) {
	return t.apply(ctx, room, model.RoomConditionClean, model.TriggerAutomatic)
}

func (t *Tracker) apply(ctx context.Context, room *model.Room, to model.RoomCondition, trigger model.ConditionTrigger) (bool, error) {
	from := room.Condition
	if !model.CanTransitionCondition(from, to, trigger) {
		if from != to {
			log.Printf("Room %s: ignoring %s transition %s -> %s", room.Number, trigger, from, to)
		}
		return false, nil
	}
	if err := t.store.UpdateRoom(ctx, room, map[string]any{"condition": to}); err != nil {
		return false, err
	}
	room.Condition = to
	return true, nil
}

// StartMaintenance takes a room out of service.
func (t *Tracker) StartMaintenance(ctx context.Context, roomID int64) (*model.Room, error) {
	return t.manual(ctx, roomID, model.RoomConditionInMaintenance)
}

// EndMaintenance returns a room in maintenance to service as CLEAN.
func (t *Tracker) EndMaintenance(ctx context.Context, roomID int64) (*model.Room, error) {
	return t.manual(ctx, roomID, model.RoomConditionClean)
}

func (t *Tracker) manual(ctx context.Context, roomID int64, to model.RoomCondition) (*model.Room, error) {
	var room *model.Room
	err := t.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if !model.CanTransitionCondition(r.Condition, to, model.TriggerManual) {
			return apperr.Precondition(apperr.CodeInvalidTransition,
				"room %s cannot move from %s to %s", r.Number, r.Condition, to)
		}
		if err := tx.UpdateRoom(ctx, r, map[string]any{"condition": to}); err != nil {
			return err
		}
		r.Condition = to
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// RotateDoorCode replaces the room's door code.
func (t *Tracker) RotateDoorCode(ctx context.Context, room *model.Room, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Precondition(apperr.CodeDoorCodeRequired, "a new door code is required for room %s", room.Number)
	}
	if len(code) > maxDoorCodeLen {
		return apperr.Invalid(apperr.CodeInvalidInput, "door code is longer than %d characters", maxDoorCodeLen)
	}
	if err := t.store.UpdateRoom(ctx, room, map[string]any{"door_code": code}); err != nil {
		return err
	}
	room.DoorCode = code
	return nil
}
