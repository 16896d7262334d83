package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/events"
)

type taskFixture struct {
	svc           *taskServiceImpl
	users         *fakeUserStore
	tasks         *fakeTaskStore
	projects      *fakeProjectStore
	notifications *fakeNotificationStore
	emailQueue    *fakeEmailQueueStore
	activity      *fakeActivityStore

	alice   *domain.User
	bob     *domain.User
	project *domain.Project
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	f := &taskFixture{
		users:         &fakeUserStore{},
		tasks:         newFakeTaskStore(),
		projects:      newFakeProjectStore(),
		notifications: &fakeNotificationStore{},
		emailQueue:    &fakeEmailQueueStore{},
		activity:      &fakeActivityStore{},
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.alice = testUser("alice", "alice@example.com", base)
	f.bob = testUser("bob", "bob@example.com", base.Add(time.Hour))
	f.users.add(f.alice)
	f.users.add(f.bob)

	f.project = &domain.Project{ID: uuid.New(), Name: "Apollo", OwnerID: f.alice.ID}
	f.projects.add(f.project)

	f.svc = &taskServiceImpl{
		users:       f.users,
		tasks:       f.tasks,
		projects:    f.projects,
		notify:      f.notifications,
		emailQueue:  f.emailQueue,
		activity:    f.activity,
		emitter:     events.NewInMemoryEmitter(slog.Default()),
		baseURL:     "https://planhub.test",
		maxAttempts: 3,
		logger:      slog.Default(),
		runTx:       passthroughTx,
	}
	return f
}

func TestCreateTask_AssigneeFanOut(t *testing.T) {
	f := newTaskFixture(t)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	task, err := f.svc.CreateTask(context.Background(), f.alice.ID, CreateTaskInput{
		ProjectID:   f.project.ID,
		Title:       "Harden queue sweeps",
		Description: "Cover the crash recovery path",
		Priority:    "high",
		AssignedTo:  &f.bob.ID,
		DueDate:     &due,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, task.Status)

	bobNotes := f.notifications.forRecipient(f.bob.ID)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "Task Assigned to You", bobNotes[0].Title)
	assert.Contains(t, bobNotes[0].Message, `alice assigned you task "Harden queue sweeps"`)
	assert.Equal(t, "https://planhub.test/tasks/"+task.ID.String(), bobNotes[0].LinkURL)

	emails := f.emailQueue.all()
	require.Len(t, emails, 1)
	assert.Equal(t, email.TemplateTaskAssigned, emails[0].TemplateName)
	assert.Equal(t, "bob@example.com", emails[0].ToEmail)
	assert.Contains(t, emails[0].HTMLBody, "Mar 15, 2025")
	assert.Contains(t, emails[0].HTMLBody, "Cover the crash recovery path")

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, domain.ActivityTaskCreated, f.activity.entries[0].Action)
}

func TestCreateTask_Unassigned(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.CreateTask(context.Background(), f.alice.ID, CreateTaskInput{
		ProjectID: f.project.ID,
		Title:     "Backlog item",
	})
	require.NoError(t, err)

	assert.Empty(t, f.notifications.created)
	assert.Empty(t, f.emailQueue.all())
	assert.Len(t, f.activity.entries, 1)
}

func TestCreateTask_SelfAssigned(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.CreateTask(context.Background(), f.alice.ID, CreateTaskInput{
		ProjectID:  f.project.ID,
		Title:      "My own task",
		AssignedTo: &f.alice.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, f.notifications.created)
	assert.Empty(t, f.emailQueue.all())
}

func TestCreateTask_UnknownProject(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.CreateTask(context.Background(), f.alice.ID, CreateTaskInput{
		ProjectID: uuid.New(),
		Title:     "Orphan",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newTaskFixture(t)

	task, err := f.svc.CreateTask(context.Background(), f.alice.ID, CreateTaskInput{
		ProjectID: f.project.ID,
		Title:     "Move me",
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), f.alice.ID, task.ID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

	stored, err := f.tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, stored.Status)

	// One entry for creation, one for the status change.
	require.Len(t, f.activity.entries, 2)
	assert.Equal(t, domain.ActivityTaskStatusUpdated, f.activity.entries[1].Action)

	_, err = f.svc.UpdateStatus(context.Background(), f.alice.ID, task.ID, domain.TaskStatus("bogus"))
	assert.Error(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.alice.ID, uuid.New(), domain.TaskStatusDone)
	assert.ErrorIs(t, err, ErrNotFound)
}
