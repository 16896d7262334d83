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

// Notification copy produced by the membership fan-out.
const projectAssignedNotificationTitle = "Added to Project Team"

// ProjectService manages project membership.
type ProjectService interface {
	// AddMember adds a user to a project with a role. The new member
	// receives an in-app notification and a queued email in the same
	// transaction, unless they added themselves.
	// Returns ErrMemberExists if the user is already on the roster.
	AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*domain.ProjectMember, error)
}

type projectServiceImpl struct {
	db          *sql.DB
	users       store.UserStore
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

// NewProjectService creates a ProjectService.
func NewProjectService(
	db *sql.DB,
	users store.UserStore,
	projects store.ProjectStore,
	notify store.NotificationStore,
	emailQueue store.EmailQueueStore,
	activity store.ActivityLogStore,
	emitter events.Emitter,
	baseURL string,
	maxAttempts int,
	logger *slog.Logger,
) (ProjectService, error) {
	if db == nil {
		return nil, &Error{Operation: "create_service", Message: "db cannot be nil"}
	}
	if users == nil || projects == nil || notify == nil || emailQueue == nil || activity == nil {
		return nil, &Error{Operation: "create_service", Message: "stores cannot be nil"}
	}
	if emitter == nil {
		return nil, &Error{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &projectServiceImpl{
		db:          db,
		users:       users,
		projects:    projects,
		notify:      notify,
		emailQueue:  emailQueue,
		activity:    activity,
		emitter:     emitter,
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "project_service"),
		runTx:       store.RunInTransaction,
	}, nil
}

// AddMember implements ProjectService.AddMember.
func (s *projectServiceImpl) AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*domain.ProjectMember, error) {
	if role == "" {
		role = "member"
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: actor", ErrNotFound)
		}
		return nil, newError("add_member", "failed to load actor", err)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: project", ErrNotFound)
		}
		return nil, newError("add_member", "failed to load project", err)
	}

	member, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, newError("add_member", "failed to load user", err)
	}

	membership := &domain.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		AddedAt:   time.Now().UTC(),
	}

	emailsQueued := 0
	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.projects.WithTx(tx).AddMember(ctx, membership); err != nil {
			return err
		}

		if member.ID != actorID {
			linkURL := fmt.Sprintf("%s/projects/%s", s.baseURL, projectID)
			message := fmt.Sprintf("%s added you to project %q as %s", actor.Name, project.Name, role)

			n, err := domain.NewNotification(
				member.ID, projectAssignedNotificationTitle, message, linkURL,
				nil, &projectID, nil,
				actorID,
			)
			if err != nil {
				return fmt.Errorf("failed to build notification: %w", err)
			}
			if err := s.notify.WithTx(tx).Create(ctx, n); err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}

			if err := enqueueEmail(ctx, s.emailQueue.WithTx(tx), member.Email, member.Name, projectAssignedNotificationTitle, email.ProjectAssignedData{
				MemberName:     member.Name,
				ProjectName:    project.Name,
				Role:           role,
				ProjectManager: actor.Name,
				Description:    project.Description,
				ActionURL:      linkURL,
			}, s.maxAttempts); err != nil {
				return err
			}
			emailsQueued++
		}

		entry, err := domain.NewActivityLog(actorID, nil, &projectID, domain.MemberAddedDetails{
			MemberID: member.ID,
			Role:     role,
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
		if errors.Is(err, store.ErrMemberExists) {
			return nil, ErrMemberExists
		}
		return nil, newError("add_member", "membership transaction failed", err)
	}

	s.logger.Info("project member added",
		"project_id", projectID,
		"user_id", userID,
		"role", role)

	if emailsQueued > 0 {
		if event, eventErr := events.NewEvent(events.EventTypeEmailEnqueued, nil); eventErr == nil {
			_ = s.emitter.EmitEvent(ctx, event)
		}
	}

	return membership, nil
}
