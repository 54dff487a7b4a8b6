package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/jobs"
)

// NotificationJobType tags queued notification jobs.
const NotificationJobType = "notification"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	SetRead(ctx context.Context, id int64, read bool) (*models.Notification, error)
}

type notificationDispatcher interface {
	TryEnqueue(job jobs.Job) error
}

type notificationPublisher interface {
	Publish(ctx context.Context, payload interface{}) (int64, error)
}

// NotificationService hands notifications to the worker queue and serves the inbox.
type NotificationService struct {
	store   notificationStore
	queue   notificationDispatcher
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store notificationStore, queue notificationDispatcher, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, queue: queue, metrics: metrics, logger: logger}
}

// Notify schedules delivery without waiting for it. A full queue is reported, never retried.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) error {
	if s.queue == nil {
		return fmt.Errorf("notification queue not configured")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: NotificationJobType, Payload: n}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordNotification("dropped")
		return err
	}
	s.metrics.RecordNotification("queued")
	return nil
}

// ListForUser returns a recipient's inbox, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	if userID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// MarkRead sets the read flag of a notification.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, read bool) (*models.Notification, error) {
	n, err := s.store.SetRead(ctx, id, read)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return n, nil
}

// NotificationWorker persists queued notifications and fans them out on the publisher.
type NotificationWorker struct {
	store     notificationStore
	publisher notificationPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationWorker constructs a worker. publisher may be nil.
func NewNotificationWorker(store notificationStore, publisher notificationPublisher, metrics *MetricsService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{store: store, publisher: publisher, metrics: metrics, logger: logger}
}

// Handle processes a queue job.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		w.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if err := w.store.Create(ctx, &n); err != nil {
		w.metrics.RecordNotification("failed")
		return err
	}
	w.metrics.RecordNotification("stored")

	if w.publisher == nil {
		return nil
	}
	if _, err := w.publisher.Publish(ctx, n); err != nil {
		w.logger.Warn("notification publish failed", zap.Int64("notification_id", n.ID), zap.Error(err))
		return nil
	}
	w.metrics.RecordNotification("published")
	return nil
}
