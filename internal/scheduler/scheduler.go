// Package scheduler generates daily cleaning work for checked-in stays.
package scheduler

import (
	"context"
	"log"
	"time"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

// Report summarizes one run.
type Report struct {
	Day          string
	Bookings     int
	Processed    int
	Skipped      int
	AlreadyDone  int
	Failed       int
	TasksCreated int
}

type Scheduler struct {
	store   store.Store
	tasks   *task.Service
	trigger Trigger
	timeout time.Duration
	now     func() time.Time
}

func New(st store.Store, tasks *task.Service, trigger Trigger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		store:   st,
		tasks:   tasks,
		trigger: trigger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run fires RunOnce at every trigger time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("Starting daily scheduler (%02d:%02d %s)...", s.trigger.Hour, s.trigger.Minute, s.trigger.location())

	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Daily scheduler shutting down.")
			return
		case <-timer.C:
			s.RunOnce(ctx, s.now())
			timer.Reset(s.untilNext())
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	now := s.now()
	return s.trigger.Next(now).Sub(now)
}

// RunOnce processes every checked-in booking for the calendar day of now.
// Each booking runs in its own transaction; a failing booking is logged and
// counted without stopping the others. Bookings already handled for the day
// are left alone.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) Report {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report := Report{Day: s.trigger.Day(now)}
	log.Printf("Executing daily cleaning run for %s...", report.Day)

	bookings, err := s.store.ListBookingsByStatus(ctx, model.BookingStatusCheckedIn)
	if err != nil {
		log.Printf("Daily cleaning run aborted: %v", err)
		return report
	}
	report.Bookings = len(bookings)

	for i, b := range bookings {
		if err := ctx.Err(); err != nil {
			log.Printf("Daily cleaning run stopped after %d of %d bookings: %v", i, len(bookings), err)
			report.Failed += len(bookings) - i
			break
		}

		created, err := s.ProcessBooking(ctx, b.ID, report.Day, now)
		switch {
		case apperr.CodeOf(err) == apperr.CodeAlreadyProcessed:
			report.AlreadyDone++
		case err != nil:
			log.Printf("Error processing booking %s: %v", b.Reference, err)
			report.Failed++
		case created == 0:
			report.Skipped++
		default:
			report.Processed++
			report.TasksCreated += created
		}
	}

	log.Printf("Daily cleaning run for %s finished: %d bookings, %d processed, %d skipped, %d already done, %d failed, %d tasks",
		report.Day, report.Bookings, report.Processed, report.Skipped, report.AlreadyDone, report.Failed, report.TasksCreated)
	return report
}

// ProcessBooking creates the day's cleaning tasks for one booking and resets
// its towel request, all in one transaction. The (booking, day) claim makes a
// second call for the same day fail with CodeAlreadyProcessed.
func (s *Scheduler) ProcessBooking(ctx context.Context, bookingID int64, day string, now time.Time) (int, error) {
	var created []*model.ServiceTask
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		plan := Plan(b)
		if len(plan) == 0 {
			return nil
		}

		if err := tx.RecordCleaningRun(ctx, &model.CleaningRun{
			BookingID:    b.ID,
			Day:          day,
			TasksCreated: len(plan),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		for _, in := range plan {
			t, err := s.tasks.CreateTx(ctx, tx, in)
			if err != nil {
				return err
			}
			created = append(created, t)
		}

		if b.NextCleaningRequiresTowels {
			if err := tx.UpdateBooking(ctx, b, map[string]any{"next_cleaning_requires_towels": false}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, t := range created {
		s.tasks.Announce(ctx, t)
	}
	return len(created), nil
}
