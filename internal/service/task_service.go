package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/events"
	"github.com/planhub/planhub-api/internal/store"
)

// Notification copy produced by the task fan-out.
const taskAssignedNotificationTitle = "Task Assigned to You"

// dueDateLayout is how due dates are rendered in notification emails.
const dueDateLayout = "Jan 2, 2006"

// CreateTaskInput is the transport-agnostic task creation contract.
type CreateTaskInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	Priority    string
	AssignedTo  *uuid.UUID
	DueDate     *time.Time
}

// TaskService creates tasks and moves them through the workflow.
type TaskService interface {
	// CreateTask persists a new task. When the task is assigned to someone
	// other than the creator, the assignee receives an in-app notification
	// and a queued email in the same transaction.
	CreateTask(ctx context.Context, creatorID uuid.UUID, in CreateTaskInput) (*domain.Task, error)

	// UpdateStatus moves a task to the given status and records the change
	// in the activity log.
	UpdateStatus(ctx context.Context, actorID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
}

type taskServiceImpl struct {
	db          *sql.DB
	users       store.UserStore
	tasks       store.TaskStore
	projects    store.ProjectStore
	notify      store.NotificationStore
	emailQueue  store.EmailQueueStore
	activity    store.ActivityLogStore
	emitter     events.Emitter
	baseURL     string
	maxAttempts int
	logger      *slog.Logger

	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewTaskService creates a TaskService.
func NewTaskService(
	db *sql.DB,
	users store.UserStore,
	tasks store.TaskStore,
	projects store.ProjectStore,
	notify store.NotificationStore,
	emailQueue store.EmailQueueStore,
	activity store.ActivityLogStore,
	emitter events.Emitter,
	baseURL string,
	maxAttempts int,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, &Error{Operation: "create_service", Message: "db cannot be nil"}
	}
	if users == nil || tasks == nil || projects == nil || notify == nil ||
		emailQueue == nil || activity == nil {
		return nil, &Error{Operation: "create_service", Message: "stores cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:          db,
		users:       users,
		tasks:       tasks,
		projects:    projects,
		notify:      notify,
		emailQueue:  emailQueue,
		activity:    activity,
		emitter:     emitter,
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "task_service"),
		runTx:       store.RunInTransaction,
	}, nil
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(ctx context.Context, creatorID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: creator", ErrNotFound)
		}
		return nil, newError("create_task", "failed to load creator", err)
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: project", ErrNotFound)
		}
		return nil, newError("create_task", "failed to load project", err)
	}

	var assignee *domain.User
	if in.AssignedTo != nil {
		assignee, err = s.users.GetByID(ctx, *in.AssignedTo)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: assignee", ErrNotFound)
			}
			return nil, newError("create_task", "failed to load assignee", err)
		}
	}

	task, err := domain.NewTask(in.ProjectID, in.Title, in.Description, in.Priority, in.AssignedTo, creatorID, in.DueDate)
	if err != nil {
		return nil, newError("create_task", "invalid task", err)
	}

	emailsQueued := 0
	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		// Self-assignment produces no notification.
		if assignee != nil && assignee.ID != creatorID {
			linkURL := fmt.Sprintf("%s/tasks/%s", s.baseURL, task.ID)
			message := fmt.Sprintf("%s assigned you task %q in project %q", creator.Name, task.Title, project.Name)

			n, err := domain.NewNotification(
				assignee.ID, taskAssignedNotificationTitle, message, linkURL,
				&task.ID, &task.ProjectID, nil,
				creatorID,
			)
			if err != nil {
				return fmt.Errorf("failed to build notification: %w", err)
			}
			if err := s.notify.WithTx(tx).Create(ctx, n); err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}

			data := email.TaskAssignedData{
				AssigneeName: assignee.Name,
				TaskTitle:    task.Title,
				ProjectName:  project.Name,
				Priority:     task.Priority,
				Description:  task.Description,
				ActionURL:    linkURL,
			}
			if task.DueDate != nil {
				data.DueDate = task.DueDate.Format(dueDateLayout)
			}
			if err := enqueueEmail(ctx, s.emailQueue.WithTx(tx), assignee.Email, assignee.Name, taskAssignedNotificationTitle, data, s.maxAttempts); err != nil {
				return err
			}
			emailsQueued++
		}

		entry, err := domain.NewActivityLog(creatorID, &task.ID, &task.ProjectID, domain.TaskCreatedDetails{
			Title:      task.Title,
			AssignedTo: task.AssignedTo,
		})
		if err != nil {
			return fmt.Errorf("failed to build activity entry: %w", err)
		}
		if err := s.activity.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, newError("create_task", "task transaction failed", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"project_id", task.ProjectID,
		"assigned", task.AssignedTo != nil)

	if emailsQueued > 0 {
		if event, eventErr := events.NewEvent(events.EventTypeEmailEnqueued, nil); eventErr == nil {
			_ = s.emitter.EmitEvent(ctx, event)
		}
	}

	return task, nil
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskServiceImpl) UpdateStatus(ctx context.Context, actorID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, fmt.Errorf("%w: task", ErrNotFound)
		}
		return nil, newError("update_task_status", "failed to load task", err)
	}

	if err := task.UpdateStatus(status); err != nil {
		return nil, newError("update_task_status", "invalid status", err)
	}

	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).UpdateStatus(ctx, taskID, status); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		entry, err := domain.NewActivityLog(actorID, &taskID, &task.ProjectID, domain.TaskStatusUpdatedDetails{
			NewStatus: string(status),
		})
		if err != nil {
			return fmt.Errorf("failed to build activity entry: %w", err)
		}
		if err := s.activity.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, newError("update_task_status", "status transaction failed", err)
	}

	s.logger.Info("task status updated", "task_id", taskID, "status", status)
	return task, nil
}

// enqueueEmail renders the template and inserts one pending queue record.
// Shared by the services that queue notification emails.
func enqueueEmail(
	ctx context.Context,
	emailQueue store.EmailQueueStore,
	toEmail, toName, subject string,
	data email.TemplateData,
	maxAttempts int,
) error {
	html, text, err := email.Render(data)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	snapshot, err := email.MarshalData(data)
	if err != nil {
		return err
	}

	record, err := domain.NewQueuedEmail(toEmail, toName, subject, html, text, data.TemplateName(), snapshot, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to build queued email: %w", err)
	}
	if err := emailQueue.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}
