package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/events"
	"github.com/planhub/planhub-api/internal/mention"
	"github.com/planhub/planhub-api/internal/store"
)

// commentPreviewLen bounds the activity-log comment preview.
const commentPreviewLen = 50

// Notification copy produced by the comment fan-out.
const (
	mentionNotificationTitle     = "You were mentioned in a comment"
	taskCommentNotificationTitle = "New comment on your task"
)

// CreateCommentInput is the transport-agnostic comment submission contract.
type CreateCommentInput struct {
	Body      string
	TaskID    *uuid.UUID
	ProjectID *uuid.UUID
	ParentID  *uuid.UUID
}

// CommentService creates comments and drives the notification fan-out.
type CommentService interface {
	// CreateComment validates the input, resolves mentions, and persists
	// the comment together with its derived notifications, queued emails
	// and activity-log entry in one transaction. The caller's identity is
	// passed explicitly; it is never read from ambient state.
	CreateComment(ctx context.Context, authorID uuid.UUID, in CreateCommentInput) (*domain.CommentWithAuthor, error)

	// ListComments returns the comments on a task or project, oldest
	// first, with author display fields joined in.
	ListComments(ctx context.Context, taskID, projectID *uuid.UUID) ([]*domain.CommentWithAuthor, error)
}

// CommentCreatedPayload is the payload of EventTypeCommentCreated events.
type CommentCreatedPayload struct {
	CommentID    uuid.UUID `json:"comment_id"`
	EmailsQueued int       `json:"emails_queued"`
}

type commentServiceImpl struct {
	db            *sql.DB
	users         store.UserStore
	comments      store.CommentStore
	notifications store.NotificationStore
	emailQueue    store.EmailQueueStore
	activity      store.ActivityLogStore
	tasks         store.TaskStore
	projects      store.ProjectStore
	resolver      *mention.Resolver
	emitter       events.Emitter
	baseURL       string
	maxAttempts   int
	logger        *slog.Logger

	// runTx is replaced in tests to run the fan-out without a database.
	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewCommentService creates a CommentService.
// It returns an error if any required dependency is nil.
func NewCommentService(
	db *sql.DB,
	users store.UserStore,
	comments store.CommentStore,
	notifications store.NotificationStore,
	emailQueue store.EmailQueueStore,
	activity store.ActivityLogStore,
	tasks store.TaskStore,
	projects store.ProjectStore,
	resolver *mention.Resolver,
	emitter events.Emitter,
	baseURL string,
	maxAttempts int,
	logger *slog.Logger,
) (CommentService, error) {
	if db == nil {
		return nil, &Error{Operation: "create_service", Message: "db cannot be nil"}
	}
	if users == nil || comments == nil || notifications == nil || emailQueue == nil ||
		activity == nil || tasks == nil || projects == nil {
		return nil, &Error{Operation: "create_service", Message: "stores cannot be nil"}
	}
	if resolver == nil {
		return nil, &Error{Operation: "create_service", Message: "resolver cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &commentServiceImpl{
		db:            db,
		users:         users,
		comments:      comments,
		notifications: notifications,
		emailQueue:    emailQueue,
		activity:      activity,
		tasks:         tasks,
		projects:      projects,
		resolver:      resolver,
		emitter:       emitter,
		baseURL:       baseURL,
		maxAttempts:   maxAttempts,
		logger:        logger.With("component", "comment_service"),
		runTx:         store.RunInTransaction,
	}, nil
}

// CreateComment implements CommentService.CreateComment.
func (s *commentServiceImpl) CreateComment(
	ctx context.Context,
	authorID uuid.UUID,
	in CreateCommentInput,
) (*domain.CommentWithAuthor, error) {
	// Validation failures reject the request before any persistence.
	if in.Body == "" {
		return nil, ErrCommentBodyRequired
	}
	if (in.TaskID == nil) == (in.ProjectID == nil) {
		return nil, ErrCommentOwnerRequired
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: author", ErrNotFound)
		}
		return nil, newError("create_comment", "failed to load author", err)
	}

	// Load the owning context up front; it feeds both validation and the
	// fan-out copy.
	var taskCtx *domain.TaskContext
	var project *domain.Project
	if in.TaskID != nil {
		taskCtx, err = s.tasks.GetContext(ctx, *in.TaskID)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return nil, fmt.Errorf("%w: task", ErrNotFound)
			}
			return nil, newError("create_comment", "failed to load task", err)
		}
	} else {
		project, err = s.projects.GetByID(ctx, *in.ProjectID)
		if err != nil {
			if errors.Is(err, store.ErrProjectNotFound) {
				return nil, fmt.Errorf("%w: project", ErrNotFound)
			}
			return nil, newError("create_comment", "failed to load project", err)
		}
	}

	if in.ParentID != nil {
		if err := s.checkParent(ctx, in); err != nil {
			return nil, err
		}
	}

	mentioned, err := s.resolver.ResolveUsers(ctx, in.Body)
	if err != nil {
		return nil, newError("create_comment", "failed to resolve mentions", err)
	}

	mentionedIDs := make([]uuid.UUID, 0, len(mentioned))
	for _, u := range mentioned {
		mentionedIDs = append(mentionedIDs, u.ID)
	}

	comment, err := domain.NewComment(in.Body, in.TaskID, in.ProjectID, authorID, in.ParentID, mentionedIDs)
	if err != nil {
		return nil, newError("create_comment", "failed to build comment", err)
	}

	emailsQueued := 0
	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txComments := s.comments.WithTx(tx)
		txNotifications := s.notifications.WithTx(tx)
		txEmails := s.emailQueue.WithTx(tx)
		txActivity := s.activity.WithTx(tx)

		if err := txComments.Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		queued, err := s.fanOut(ctx, txNotifications, txEmails, comment, author, mentioned, taskCtx, project)
		if err != nil {
			return err
		}
		emailsQueued = queued

		entry, err := domain.NewActivityLog(authorID, in.TaskID, in.ProjectID, domain.CommentAddedDetails{
			CommentPreview: preview(in.Body),
			MentionCount:   len(mentionedIDs),
			IsReply:        comment.IsReply(),
			MentionedIDs:   mentionedIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to build activity entry: %w", err)
		}
		if err := txActivity.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, newError("create_comment", "fan-out transaction failed", err)
	}

	s.logger.Info("comment created",
		"comment_id", comment.ID,
		"author_id", authorID,
		"mention_count", len(mentionedIDs),
		"emails_queued", emailsQueued)

	// Best-effort: in production mode a handler kicks an immediate queue
	// sweep. Emit failures are logged by the emitter and swallowed here;
	// the periodic sweep delivers regardless.
	if event, eventErr := events.NewEvent(events.EventTypeCommentCreated, CommentCreatedPayload{
		CommentID:    comment.ID,
		EmailsQueued: emailsQueued,
	}); eventErr == nil {
		_ = s.emitter.EmitEvent(ctx, event)
	}

	created, err := s.comments.GetWithAuthor(ctx, comment.ID)
	if err != nil {
		return nil, newError("create_comment", "failed to read back comment", err)
	}
	return created, nil
}

// ListComments implements CommentService.ListComments.
func (s *commentServiceImpl) ListComments(
	ctx context.Context,
	taskID, projectID *uuid.UUID,
) ([]*domain.CommentWithAuthor, error) {
	if (taskID == nil) == (projectID == nil) {
		return nil, ErrCommentOwnerRequired
	}

	if taskID != nil {
		comments, err := s.comments.ListByTask(ctx, *taskID)
		if err != nil {
			return nil, newError("list_comments", "failed to list task comments", err)
		}
		return comments, nil
	}

	comments, err := s.comments.ListByProject(ctx, *projectID)
	if err != nil {
		return nil, newError("list_comments", "failed to list project comments", err)
	}
	return comments, nil
}

// checkParent verifies a reply's parent exists and belongs to the same
// task or project as the reply.
func (s *commentServiceImpl) checkParent(ctx context.Context, in CreateCommentInput) error {
	parent, err := s.comments.GetByID(ctx, *in.ParentID)
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			return fmt.Errorf("%w: parent comment", ErrNotFound)
		}
		return newError("create_comment", "failed to load parent comment", err)
	}

	sameTask := in.TaskID != nil && parent.TaskID != nil && *parent.TaskID == *in.TaskID
	sameProject := in.ProjectID != nil && parent.ProjectID != nil && *parent.ProjectID == *in.ProjectID
	if !sameTask && !sameProject {
		return ErrParentMismatch
	}
	return nil
}

// fanOut writes the notification rows and queued emails derived from one
// comment: mentioned users in mention order, then the task assignee. A
// single accumulator across both rules guarantees at most one notification
// per recipient per comment, and the author never receives one.
func (s *commentServiceImpl) fanOut(
	ctx context.Context,
	notifications store.NotificationStore,
	emailQueue store.EmailQueueStore,
	comment *domain.Comment,
	author *domain.User,
	mentioned []*domain.User,
	taskCtx *domain.TaskContext,
	project *domain.Project,
) (int, error) {
	var taskTitle, projectName string
	if taskCtx != nil {
		taskTitle = taskCtx.Task.Title
		projectName = taskCtx.ProjectName
	} else if project != nil {
		projectName = project.Name
	}

	linkURL := s.commentLink(comment)

	notified := map[uuid.UUID]struct{}{author.ID: {}}
	queued := 0

	for _, user := range mentioned {
		if _, done := notified[user.ID]; done {
			continue
		}
		notified[user.ID] = struct{}{}

		message := fmt.Sprintf("%s mentioned you in a comment", author.Name)
		if taskTitle != "" {
			message = fmt.Sprintf("%s on task %q", message, taskTitle)
		} else if projectName != "" {
			message = fmt.Sprintf("%s on project %q", message, projectName)
		}

		if err := s.notify(ctx, notifications, user.ID, mentionNotificationTitle, message, linkURL, comment, author.ID); err != nil {
			return queued, err
		}

		if err := enqueueEmail(ctx, emailQueue, user.Email, user.Name, mentionNotificationTitle, email.MentionData{
			MentionedBy: author.Name,
			Content:     comment.Body,
			TaskTitle:   taskTitle,
			ProjectName: projectName,
			ActionURL:   linkURL,
		}, s.maxAttempts); err != nil {
			return queued, err
		}
		queued++
	}

	// The assignee rule runs after the mention rule and shares its
	// accumulator, so a mentioned assignee gets exactly one notification.
	if taskCtx != nil && taskCtx.Task.AssignedTo != nil {
		assigneeID := *taskCtx.Task.AssignedTo
		if _, done := notified[assigneeID]; !done {
			notified[assigneeID] = struct{}{}

			message := fmt.Sprintf("%s commented on your task %q", author.Name, taskTitle)
			if err := s.notify(ctx, notifications, assigneeID, taskCommentNotificationTitle, message, linkURL, comment, author.ID); err != nil {
				return queued, err
			}

			if err := enqueueEmail(ctx, emailQueue, taskCtx.AssigneeEmail, taskCtx.AssigneeName, taskCommentNotificationTitle, email.TaskCommentData{
				CommenterName: author.Name,
				TaskTitle:     taskTitle,
				ProjectName:   projectName,
				Content:       comment.Body,
				ActionURL:     linkURL,
			}, s.maxAttempts); err != nil {
				return queued, err
			}
			queued++
		}
	}

	return queued, nil
}

// notify persists one in-app notification for the comment.
func (s *commentServiceImpl) notify(
	ctx context.Context,
	notifications store.NotificationStore,
	recipientID uuid.UUID,
	title, message, linkURL string,
	comment *domain.Comment,
	originatorID uuid.UUID,
) error {
	n, err := domain.NewNotification(
		recipientID, title, message, linkURL,
		comment.TaskID, comment.ProjectID, &comment.ID,
		originatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to build notification: %w", err)
	}
	if err := notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// commentLink builds the deep link into the task or project view.
func (s *commentServiceImpl) commentLink(comment *domain.Comment) string {
	if comment.TaskID != nil {
		return fmt.Sprintf("%s/tasks/%s?comment=%s", s.baseURL, comment.TaskID, comment.ID)
	}
	return fmt.Sprintf("%s/projects/%s?comment=%s", s.baseURL, comment.ProjectID, comment.ID)
}

// preview truncates a comment body for the activity log.
func preview(body string) string {
	if len(body) <= commentPreviewLen {
		return body
	}
	return body[:commentPreviewLen]
}
