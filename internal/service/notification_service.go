package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/notify"
	"github.com/spec-kit/dispatch-service/internal/queue"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/store"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// NotificationService turns domain events into dispatch jobs. Handlers only
// resolve recipients and enqueue; delivery happens on the worker pool, so a
// slow or failing push never holds up the mutation path that published the
// event.
type NotificationService struct {
	dispatcher events.Dispatcher
	jobs       queue.Queue
	staff      repository.StaffRepository
	students   repository.StudentRepository
	log        repository.NotificationRepository
	logger     *zap.Logger
	sender     string
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	Jobs        queue.Queue
	StaffRepo   repository.StaffRepository
	StudentRepo repository.StudentRepository
	LogRepo     repository.NotificationRepository
	Logger      *zap.Logger
}

// BroadcastTarget selects broadcast recipients.
type BroadcastTarget string

const (
	BroadcastAllStaff    BroadcastTarget = "all_staff"
	BroadcastAllStudents BroadcastTarget = "all_students"
	BroadcastSpecific    BroadcastTarget = "specific"
)

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotifyConfig, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		jobs:       deps.Jobs,
		staff:      deps.StaffRepo,
		students:   deps.StudentRepo,
		log:        deps.LogRepo,
		logger:     deps.Logger,
		sender:     cfg.Sender,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTaskCreated, n.handleTaskCreated)
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
	n.dispatcher.Subscribe(events.EventTaskCompleted, n.handleTaskCompleted)
}

func (n *NotificationService) handleTaskCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskCreatedPayload)
	if !ok {
		return nil
	}
	if payload.AssignedTo == "" {
		// Unassigned at creation; the queue coordinator notifies on drain.
		return nil
	}
	n.notifyStaffOfAssignment(ctx, event.TaskID, payload.AssignedTo, payload.Caption, payload.Location)
	return nil
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskAssignedPayload)
	if !ok {
		return nil
	}
	n.notifyStaffOfAssignment(ctx, event.TaskID, payload.AssignedTo, payload.Caption, payload.Location)
	return nil
}

func (n *NotificationService) handleTaskCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskCompletedPayload)
	if !ok {
		return nil
	}
	recipient := n.studentRecipient(ctx, payload.ReporterID)

	n.enqueue(ctx, []notify.Recipient{recipient}, notify.Payload{
		Title:   "Task Completed",
		Message: fmt.Sprintf("Your reported issue has been resolved: %s", payload.Caption),
		Type:    domain.NotificationTaskCompleted,
		TaskID:  event.TaskID,
		Sender:  payload.StaffName,
	})
	n.enqueue(ctx, []notify.Recipient{recipient}, notify.Payload{
		Title:   "Thank You!",
		Message: "Thanks for reporting this issue and helping keep the campus in shape.",
		Type:    domain.NotificationThankYou,
		TaskID:  event.TaskID,
		Sender:  n.sender,
	})
	return nil
}

// Broadcast sends an announcement to the selected audience immediately on
// the worker pool.
func (n *NotificationService) Broadcast(ctx context.Context, target BroadcastTarget, userID, title, message string) (int, error) {
	var recipients []notify.Recipient
	switch target {
	case BroadcastAllStaff:
		staffList, err := n.staff.List(ctx, repository.StaffFilter{})
		if err != nil {
			return 0, apperrors.NewDirectoryUnavailable(err)
		}
		for i := range staffList {
			recipients = append(recipients, notify.Recipient{
				UserID:  staffList[i].ID,
				Address: staffList[i].NotificationToken,
			})
		}
	case BroadcastAllStudents:
		students, err := n.students.List(ctx)
		if err != nil {
			return 0, apperrors.NewStoreUnavailable(err)
		}
		for i := range students {
			recipients = append(recipients, notify.Recipient{
				UserID:  students[i].ID,
				Address: students[i].NotificationToken,
			})
		}
	case BroadcastSpecific:
		if userID == "" {
			return 0, apperrors.NewValidationError("userId required for specific broadcast", nil)
		}
		recipients = append(recipients, n.anyRecipient(ctx, userID))
	default:
		return 0, apperrors.NewValidationError("unknown broadcast target", map[string]any{"target": string(target)})
	}

	if len(recipients) == 0 {
		return 0, apperrors.NewValidationError("no recipients for broadcast", nil)
	}
	n.enqueue(ctx, recipients, notify.Payload{
		Title:   title,
		Message: message,
		Type:    domain.NotificationAdminBroadcast,
		Sender:  n.sender,
	})
	return len(recipients), nil
}

// SendTest enqueues a test notification for one user.
func (n *NotificationService) SendTest(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}
	n.enqueue(ctx, []notify.Recipient{n.anyRecipient(ctx, userID)}, notify.Payload{
		Title:   "Test Notification",
		Message: "This is a test notification from the dispatch service.",
		Type:    domain.NotificationTest,
		Sender:  n.sender,
	})
	return nil
}

// History returns a recipient's notification log, newest first.
func (n *NotificationService) History(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	entries, err := n.log.ListForRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return entries, nil
}

// MarkRead flags one log entry as read. The entry must belong to the caller;
// a foreign or unknown id reads as not found.
func (n *NotificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	entry, err := n.log.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if entry.RecipientID != recipientID {
		return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	if err := n.log.MarkRead(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (n *NotificationService) notifyStaffOfAssignment(ctx context.Context, taskID, staffID, caption, location string) {
	staff, err := n.staff.Get(ctx, staffID)
	recipient := notify.Recipient{UserID: staffID}
	if err != nil {
		n.logger.Warn("assignee lookup failed for notification",
			zap.String("staff_id", staffID), zap.Error(err))
	} else {
		recipient.Address = staff.NotificationToken
	}
	n.enqueue(ctx, []notify.Recipient{recipient}, notify.Payload{
		Title:   "New Task Assigned",
		Message: fmt.Sprintf("%s at %s", caption, location),
		Type:    domain.NotificationNewTask,
		TaskID:  taskID,
		Sender:  n.sender,
	})
}

func (n *NotificationService) studentRecipient(ctx context.Context, studentID string) notify.Recipient {
	recipient := notify.Recipient{UserID: studentID}
	student, err := n.students.Get(ctx, studentID)
	if err != nil {
		n.logger.Warn("reporter lookup failed for notification",
			zap.String("student_id", studentID), zap.Error(err))
		return recipient
	}
	recipient.Address = student.NotificationToken
	return recipient
}

// anyRecipient resolves an id against students first, then staff.
func (n *NotificationService) anyRecipient(ctx context.Context, userID string) notify.Recipient {
	if student, err := n.students.Get(ctx, userID); err == nil {
		return notify.Recipient{UserID: userID, Address: student.NotificationToken}
	}
	if staff, err := n.staff.Get(ctx, userID); err == nil {
		return notify.Recipient{UserID: userID, Address: staff.NotificationToken}
	}
	return notify.Recipient{UserID: userID}
}

func (n *NotificationService) enqueue(ctx context.Context, recipients []notify.Recipient, payload notify.Payload) {
	job := queue.Job{
		ID:         uuid.NewString(),
		Recipients: recipients,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	if err := n.jobs.Enqueue(ctx, job); err != nil {
		// Best effort: a full or unreachable queue drops the job.
		n.logger.Warn("notification job dropped",
			zap.String("type", string(payload.Type)),
			zap.Int("recipients", len(recipients)),
			zap.Error(err))
	}
}
