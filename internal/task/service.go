// Package task implements the service task lifecycle and its side effects on
// rooms.
package task

import (
	"context"
	"strings"
	"time"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/condition"
	"hotel-ops-backend/internal/events"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
)

// Notifier is told about tasks staff should hear about.
type Notifier interface {
	Dispatch(taskID int64)
}

// CreateInput describes a new service task.
type CreateInput struct {
	Type         model.TaskType
	Priority     model.TaskPriority
	Description  string
	ScheduledFor *time.Time
	RoomID       int64
	BookingID    *int64
}

// StatusChange moves a task to Status on behalf of ActorUserID. NewDoorCode is
// required when a CHECKOUT task reaches DONE.
type StatusChange struct {
	Status      model.TaskStatus
	ActorUserID int64
	NewDoorCode string
}

type Service struct {
	store    store.Store
	rooms    *condition.Tracker
	notifier Notifier
	events   events.Publisher
	now      func() time.Time
}

func NewService(st store.Store, rooms *condition.Tracker, notifier Notifier, pub events.Publisher) *Service {
	return &Service{
		store:    st,
		rooms:    rooms,
		notifier: notifier,
		events:   pub,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a task. Creating a CLEANING task marks its room DIRTY in
// the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.ServiceTask, error) {
	var created *model.ServiceTask
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := s.CreateTx(ctx, tx, in)
		created = t
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Announce(ctx, created)
	return created, nil
}

// CreateTx creates a task inside an existing transaction. The caller must
// call Announce once the transaction has committed.
func (s *Service) CreateTx(ctx context.Context, tx store.Store, in CreateInput) (*model.ServiceTask, error) {
	if _, err := model.ParseTaskType(string(in.Type)); err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}
	priority, err := model.ParseTaskPriority(string(in.Priority))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}

	room, err := tx.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	t := &model.ServiceTask{
		Type:         in.Type,
		Status:       model.TaskStatusPending,
		Priority:     priority,
		Description:  strings.TrimSpace(in.Description),
		ScheduledFor: in.ScheduledFor,
		RoomID:       room.ID,
		BookingID:    in.BookingID,
	}
	if err := tx.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	if t.Type == model.TaskTypeCleaning {
		if _, err := s.rooms.WithStore(tx).MarkDirty(ctx, room); err != nil {
			return nil, err
		}
	}
	t.Room = room
	return t, nil
}

// Announce notifies staff and publishes task.created for a committed task.
func (s *Service) Announce(ctx context.Context, t *model.ServiceTask) {
	if s.notifier != nil {
		s.notifier.Dispatch(t.ID)
	}
	events.Emit(ctx, s.events, events.TaskCreated, taskEvent(t))
}

// AssignWorker assigns the task to the employee identity of userID. The user
// must be STAFF or ADMIN.
func (s *Service) AssignWorker(ctx context.Context, taskID, userID int64) (*model.ServiceTask, error) {
	var assigned *model.ServiceTask
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if !user.CanWorkTasks() {
			return apperr.Precondition(apperr.CodeUserNotStaff, "user %s has role %s; STAFF or ADMIN required", user.Username, user.Role)
		}
		if user.Employee == nil {
			return apperr.Precondition(apperr.CodeNoEmployeeIdentity, "user %s has no employee identity", user.Username)
		}

		if err := tx.UpdateTask(ctx, t, map[string]any{"assigned_to_id": user.Employee.ID}); err != nil {
			return err
		}
		t.AssignedToID = &user.Employee.ID
		assigned = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Dispatch(assigned.ID)
	}
	return assigned, nil
}

// UpdateStatus applies a status transition and its side effects. Reaching
// DONE records the actor as completer, cleans the room for CLEANING and
// CHECKOUT tasks, and rotates the door code for CHECKOUT tasks. Moving off
// DONE clears the completion. A concurrent change to the same task makes
// this call fail with a Conflict.
func (s *Service) UpdateStatus(ctx context.Context, taskID int64, change StatusChange) (*model.ServiceTask, error) {
	to, err := model.ParseTaskStatus(string(change.Status))
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "%v", err)
	}

	var updated *model.ServiceTask
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		from := t.Status
		if from == to {
			return apperr.Conflict(apperr.CodeStatusUnchanged, "task %d is already %s", t.ID, to)
		}
		if !model.CanTransitionTask(from, to) {
			return apperr.Precondition(apperr.CodeInvalidTransition, "task %d cannot move from %s to %s", t.ID, from, to)
		}

		fields := map[string]any{"status": to}
		var completedBy *int64
		var completedAt *time.Time

		if to == model.TaskStatusDone {
			if t.Type == model.TaskTypeCheckout && strings.TrimSpace(change.NewDoorCode) == "" {
				return apperr.Precondition(apperr.CodeDoorCodeRequired, "completing checkout task %d requires a new door code", t.ID)
			}
			if change.ActorUserID != 0 {
				emp, err := tx.GetEmployeeByUserID(ctx, change.ActorUserID)
				if err != nil {
					return err
				}
				completedBy = &emp.ID
			}
			now := s.now()
			completedAt = &now
			fields["completed_by_id"] = completedBy
			fields["completed_at"] = completedAt
		} else if from == model.TaskStatusDone {
			fields["completed_by_id"] = nil
			fields["completed_at"] = nil
		}

		if err := tx.UpdateTask(ctx, t, fields); err != nil {
			return err
		}
		t.Status = to
		t.CompletedByID = completedBy
		t.CompletedAt = completedAt

		if to == model.TaskStatusDone {
			if err := s.completeRoom(ctx, tx, t, change.NewDoorCode); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to == model.TaskStatusDone {
		events.Emit(ctx, s.events, events.TaskCompleted, taskEvent(updated))
	}
	return updated, nil
}

func (s *Service) completeRoom(ctx context.Context, tx store.Store, t *model.ServiceTask, doorCode string) error {
	if t.Type != model.TaskTypeCleaning && t.Type != model.TaskTypeCheckout {
		return nil
	}
	room, err := tx.GetRoom(ctx, t.RoomID)
	if err != nil {
		return err
	}
	rooms := s.rooms.WithStore(tx)
	if _, err := rooms.MarkClean(ctx, room); err != nil {
		return err
	}
	if t.Type == model.TaskTypeCheckout {
		if err := rooms.RotateDoorCode(ctx, room, doorCode); err != nil {
			return err
		}
	}
	t.Room = room
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.ServiceTask, error) {
	return s.store.GetTask(ctx, id)
}

func (s *Service) List(ctx context.Context, filter store.TaskFilter) ([]model.ServiceTask, error) {
	return s.store.ListTasks(ctx, filter)
}

// Delete removes a task. Administrative only; normal flow ends tasks by
// completion.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTask(ctx, id)
}

func taskEvent(t *model.ServiceTask) events.TaskEvent {
	return events.TaskEvent{
		TaskID:        t.ID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		RoomID:        t.RoomID,
		BookingID:     t.BookingID,
		CompletedByID: t.CompletedByID,
	}
}
