package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeReservationNotFound, "reservation", id)
	}
	return &r, nil
}

// UpdateReservation is only called while the reservation's category row is
// locked, so it needs no version check.
func (s *gormStore) UpdateReservation(ctx context.Context, id int64, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Reservation{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update reservation %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeReservationNotFound, "reservation %d not found", id)
	}
	return nil
}

func (s *gormStore) CreateTask(ctx context.Context, task *model.ServiceTask) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *gormStore) GetTask(ctx context.Context, id int64) (*model.ServiceTask, error) {
	var t model.ServiceTask
	if err := s.db.WithContext(ctx).Preload("Room").First(&t, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeTaskNotFound, "task", id)
	}
	return &t, nil
}

func (s *gormStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.ServiceTask, error) {
	q := s.db.WithContext(ctx).Model(&model.ServiceTask{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.RoomID != 0 {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.AssignedToID != 0 {
		q = q.Where("assigned_to_id = ?", filter.AssignedToID)
	}
	if filter.BookingID != 0 {
		q = q.Where("booking_id = ?", filter.BookingID)
	}
	if filter.DueBefore != nil {
		q = q.Where("scheduled_for IS NULL OR scheduled_for <= ?", *filter.DueBefore)
	}

	var tasks []model.ServiceTask
	if err := q.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes fields if task.Version is still current and bumps
// task.Version on success.
func (s *gormStore) UpdateTask(ctx context.Context, task *model.ServiceTask, fields map[string]any) error {
	if err := s.compareAndSwap(ctx, &model.ServiceTask{}, "task", task.ID, task.Version, fields); err != nil {
		return err
	}
	task.Version++
	return nil
}

func (s *gormStore) DeleteTask(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.ServiceTask{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeTaskNotFound, "task %d not found", id)
	}
	return nil
}

// RecordCleaningRun claims a (booking, day) pair for the daily scheduler. A
// second claim for the same pair fails with CodeAlreadyProcessed.
func (s *gormStore) RecordCleaningRun(ctx context.Context, run *model.CleaningRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict(apperr.CodeAlreadyProcessed, "booking %d already processed for %s", run.BookingID, run.Day).Wrap(err)
		}
		return fmt.Errorf("record cleaning run: %w", err)
	}
	return nil
}
