package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/himTresor1/celia-sub001/internal/entity"
	notifRepo "github.com/himTresor1/celia-sub001/internal/modules/notification/repository"
	"github.com/himTresor1/celia-sub001/pkg/metrics"
)

// Message is one notification addressed to one user.
type Message struct {
	UserID   uuid.UUID
	Title    string
	Body     string
	Metadata map[string]interface{}
}

// Notifier accepts messages for delivery after the caller's transaction commits.
type Notifier interface {
	Enqueue(msg Message) bool
}

// Sender delivers a message over one external channel.
type Sender interface {
	Name() string
	Notify(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error
}

// ChannelName is the redis pub/sub channel carrying a user's notifications.
func ChannelName(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

// DrainTimeout bounds how long stopping workers keep delivering queued messages.
const DrainTimeout = 5 * time.Second

// Dispatcher persists, publishes and pushes notifications on background workers.
// Enqueue never blocks: when the queue is full the message is dropped.
type Dispatcher struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	senders     []Sender
	workers     int
	queue       chan Message
	wg          sync.WaitGroup
	startOnce   sync.Once
}

func NewDispatcher(repo notifRepo.NotificationRepository, redisClient *redis.Client, senders []Sender, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		repo:        repo,
		redisClient: redisClient,
		senders:     senders,
		workers:     workers,
		queue:       make(chan Message, queueSize),
	}
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run(ctx)
		}
	})
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.NotificationsDropped.Inc()
		slog.Warn("notification queue full, dropping message", "user_id", msg.UserID, "title", msg.Title)
		return false
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return
		case msg := <-d.queue:
			d.Deliver(context.WithoutCancel(ctx), msg)
		}
	}
}

// drain delivers what is already queued, giving up after DrainTimeout.
func (d *Dispatcher) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, DrainTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("notification drain timed out", "remaining", len(d.queue))
			return
		case msg := <-d.queue:
			d.Deliver(ctx, msg)
		default:
			return
		}
	}
}

// Deliver handles one message synchronously. Failures are logged, not returned.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message) {
	notification := &entity.Notification{
		UserID: msg.UserID,
		Title:  msg.Title,
		Body:   msg.Body,
	}
	if len(msg.Metadata) > 0 {
		notification.Metadata = datatypes.JSONMap(msg.Metadata)
	}

	if err := d.repo.Create(ctx, notification); err != nil {
		metrics.NotificationDeliveries.WithLabelValues("store", "error").Inc()
		slog.Error("failed to store notification", "user_id", msg.UserID, "error", err)
	} else {
		metrics.NotificationDeliveries.WithLabelValues("store", "ok").Inc()
	}

	if d.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			err = d.redisClient.Publish(ctx, ChannelName(msg.UserID), payload).Err()
		}
		if err != nil {
			metrics.NotificationDeliveries.WithLabelValues("redis", "error").Inc()
			slog.Warn("failed to publish notification", "user_id", msg.UserID, "error", err)
		} else {
			metrics.NotificationDeliveries.WithLabelValues("redis", "ok").Inc()
		}
	}

	for _, sender := range d.senders {
		if err := sender.Notify(ctx, msg.UserID, msg.Title, msg.Body, msg.Metadata); err != nil {
			metrics.NotificationDeliveries.WithLabelValues(sender.Name(), "error").Inc()
			slog.Warn("notification sender failed", "sender", sender.Name(), "user_id", msg.UserID, "error", err)
			continue
		}
		metrics.NotificationDeliveries.WithLabelValues(sender.Name(), "ok").Inc()
	}
}
