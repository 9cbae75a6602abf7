package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"hotel-ops-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Directory is the part of the store the workers read recipients from.
type Directory interface {
	GetTask(ctx context.Context, id int64) (*model.ServiceTask, error)
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)
	ListUserIDsByRole(ctx context.Context, roles ...model.UserRole) ([]int64, error)
	ListSubscriptionsForUsers(ctx context.Context, userIDs []int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Message is the JSON payload delivered to the staff app's service worker.
type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	TaskID   int64  `json:"taskId"`
	RoomID   int64  `json:"roomId"`
	Priority string `json:"priority"`
}

// WorkerPool manages a pool of workers for sending task notifications.
type WorkerPool struct {
	size    int
	jobs    chan int64
	dir     Directory
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool with a queue of queueSize task ids.
func NewWorkerPool(size, queueSize int, dir Directory, webpushOptions *webpush.Options) *WorkerPool {
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, queueSize),
		dir:     dir,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case taskID := <-wp.jobs:
			wp.notifyTask(ctx, taskID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a task for notification. It never blocks the caller: when
// the queue is full the notification is dropped and logged.
func (wp *WorkerPool) Dispatch(taskID int64) {
	select {
	case wp.jobs <- taskID:
	default:
		log.Printf("Notification queue full; dropping notification for task %d", taskID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// recipients returns the users to notify about t. Assigned tasks go to the
// assignee; unassigned URGENT tasks go to every STAFF and ADMIN user.
func (wp *WorkerPool) recipients(ctx context.Context, t *model.ServiceTask) ([]int64, error) {
	if t.AssignedToID != nil {
		e, err := wp.dir.GetEmployee(ctx, *t.AssignedToID)
		if err != nil {
			return nil, err
		}
		return []int64{e.UserID}, nil
	}
	if t.Priority == model.TaskPriorityUrgent {
		return wp.dir.ListUserIDsByRole(ctx, model.UserRoleStaff, model.UserRoleAdmin)
	}
	return nil, nil
}

func (wp *WorkerPool) notifyTask(ctx context.Context, taskID int64) {
	t, err := wp.dir.GetTask(ctx, taskID)
	if err != nil {
		log.Printf("Error fetching task %d for notification: %v", taskID, err)
		return
	}
	if t.Status == model.TaskStatusDone {
		return
	}

	userIDs, err := wp.recipients(ctx, t)
	if err != nil {
		log.Printf("Error resolving recipients for task %d: %v", taskID, err)
		return
	}
	if len(userIDs) == 0 {
		return
	}

	subscriptions, err := wp.dir.ListSubscriptionsForUsers(ctx, userIDs)
	if err != nil {
		log.Printf("Error fetching subscriptions for task %d: %v", taskID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(messageFor(t))
	if err != nil {
		log.Printf("Error encoding notification for task %d: %v", taskID, err)
		return
	}

	log.Printf("Sending %d notifications for task %d", len(subscriptions), taskID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func messageFor(t *model.ServiceTask) Message {
	room := fmt.Sprintf("%d", t.RoomID)
	if t.Room != nil && t.Room.Number != "" {
		room = t.Room.Number
	}
	title := fmt.Sprintf("New %s task", t.Type)
	if t.Priority == model.TaskPriorityUrgent {
		title = fmt.Sprintf("URGENT %s task", t.Type)
	}
	body := fmt.Sprintf("Room %s", room)
	if t.Description != "" {
		body = fmt.Sprintf("Room %s: %s", room, t.Description)
	}
	return Message{
		Title:    title,
		Body:     body,
		TaskID:   t.ID,
		RoomID:   t.RoomID,
		Priority: string(t.Priority),
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.dir.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
