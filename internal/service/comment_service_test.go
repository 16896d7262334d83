package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/events"
	"github.com/planhub/planhub-api/internal/mention"
)

// commentFixture wires a comment service over the in-memory fakes with a
// small roster of users and one task per test.
type commentFixture struct {
	svc           *commentServiceImpl
	users         *fakeUserStore
	comments      *fakeCommentStore
	notifications *fakeNotificationStore
	emailQueue    *fakeEmailQueueStore
	activity      *fakeActivityStore
	tasks         *fakeTaskStore
	projects      *fakeProjectStore
	emitter       *events.InMemoryEmitter

	alice *domain.User
	bob   *domain.User
	carol *domain.User
}

func newCommentFixture(t *testing.T, policy mention.Policy) *commentFixture {
	t.Helper()

	users := &fakeUserStore{}
	comments := &fakeCommentStore{users: users}
	f := &commentFixture{
		users:         users,
		comments:      comments,
		notifications: &fakeNotificationStore{},
		emailQueue:    &fakeEmailQueueStore{},
		activity:      &fakeActivityStore{},
		tasks:         newFakeTaskStore(),
		projects:      newFakeProjectStore(),
		emitter:       events.NewInMemoryEmitter(slog.Default()),
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.alice = testUser("alice", "alice@example.com", base)
	f.bob = testUser("bob", "bob@example.com", base.Add(time.Hour))
	f.carol = testUser("carol", "carol@example.com", base.Add(2*time.Hour))
	users.add(f.alice)
	users.add(f.bob)
	users.add(f.carol)

	f.svc = &commentServiceImpl{
		users:         users,
		comments:      comments,
		notifications: f.notifications,
		emailQueue:    f.emailQueue,
		activity:      f.activity,
		tasks:         f.tasks,
		projects:      f.projects,
		resolver:      mention.NewResolver(users, policy),
		emitter:       f.emitter,
		baseURL:       "https://planhub.test",
		maxAttempts:   3,
		logger:        slog.Default(),
		runTx:         passthroughTx,
	}
	return f
}

func testUser(name, email string, createdAt time.Time) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      "member",
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// addTask registers a task context owned by a project named "Apollo".
func (f *commentFixture) addTask(t *testing.T, title string, assignee *domain.User) *domain.Task {
	t.Helper()

	task := &domain.Task{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Title:     title,
		Status:    domain.TaskStatusInProgress,
		CreatedBy: f.alice.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	tc := &domain.TaskContext{Task: *task, ProjectName: "Apollo"}
	if assignee != nil {
		task.AssignedTo = &assignee.ID
		tc.Task.AssignedTo = &assignee.ID
		tc.AssigneeName = assignee.Name
		tc.AssigneeEmail = assignee.Email
	}
	f.tasks.addContext(tc)
	return task
}

func TestCreateComment_MentionFanOut(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Ship release 42", nil)

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "Great work @carol!",
		TaskID: &task.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "alice", created.AuthorName)
	assert.Equal(t, []uuid.UUID{f.carol.ID}, created.MentionedUserIDs)

	// Exactly one notification, addressed to carol.
	carolNotes := f.notifications.forRecipient(f.carol.ID)
	require.Len(t, carolNotes, 1)
	note := carolNotes[0]
	assert.Equal(t, "You were mentioned in a comment", note.Title)
	assert.Contains(t, note.Message, "alice mentioned you")
	assert.Contains(t, note.Message, `"Ship release 42"`)
	assert.Equal(t, f.alice.ID, note.OriginatorID)
	require.NotNil(t, note.CommentID)
	assert.Equal(t, created.ID, *note.CommentID)
	assert.False(t, note.Read)

	// Exactly one queued email rendered from the mention template.
	emails := f.emailQueue.all()
	require.Len(t, emails, 1)
	record := emails[0]
	assert.Equal(t, "carol@example.com", record.ToEmail)
	assert.Equal(t, "You were mentioned in a comment", record.Subject)
	assert.Equal(t, email.TemplateMention, record.TemplateName)
	assert.Equal(t, domain.EmailStatusPending, record.Status)
	assert.Equal(t, 0, record.Attempts)
	assert.Contains(t, record.HTMLBody, "Great work @carol!")
	assert.Contains(t, record.TextBody, "alice")

	var data email.MentionData
	require.NoError(t, json.Unmarshal(record.TemplateData, &data))
	assert.Equal(t, "alice", data.MentionedBy)
	assert.Equal(t, "Ship release 42", data.TaskTitle)

	// Deep link points at the task view with the comment anchor.
	wantLink := "https://planhub.test/tasks/" + task.ID.String() + "?comment=" + created.ID.String()
	assert.Equal(t, wantLink, note.LinkURL)
	assert.Equal(t, wantLink, data.ActionURL)
}

func TestCreateComment_SelfMentionExcluded(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Triage inbox", nil)

	_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "Note to self: @alice follow up",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, f.notifications.forRecipient(f.alice.ID))
	assert.Empty(t, f.emailQueue.all())
}

func TestCreateComment_AssigneeNotified(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Fix login flow", f.bob)

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "I can reproduce this on staging",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	bobNotes := f.notifications.forRecipient(f.bob.ID)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "New comment on your task", bobNotes[0].Title)
	assert.Contains(t, bobNotes[0].Message, `alice commented on your task "Fix login flow"`)
	require.NotNil(t, bobNotes[0].CommentID)
	assert.Equal(t, created.ID, *bobNotes[0].CommentID)

	emails := f.emailQueue.all()
	require.Len(t, emails, 1)
	assert.Equal(t, "bob@example.com", emails[0].ToEmail)
	assert.Equal(t, email.TemplateTaskComment, emails[0].TemplateName)
}

func TestCreateComment_AssigneeIsAuthor(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Write changelog", f.alice)

	_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "Drafted, review tomorrow",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, f.notifications.forRecipient(f.alice.ID))
	assert.Empty(t, f.emailQueue.all())
}

func TestCreateComment_MentionedAssigneeNotifiedOnce(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Audit dependencies", f.bob)

	_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "@bob can you take a look?",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	// The mention rule runs first and wins the single notification slot.
	bobNotes := f.notifications.forRecipient(f.bob.ID)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "You were mentioned in a comment", bobNotes[0].Title)

	emails := f.emailQueue.all()
	require.Len(t, emails, 1)
	assert.Equal(t, email.TemplateMention, emails[0].TemplateName)
}

func TestCreateComment_MentionOrderPreserved(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Plan sprint", nil)

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "@carol and @bob please sync, @carol has context",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{f.carol.ID, f.bob.ID}, created.MentionedUserIDs)

	emails := f.emailQueue.all()
	require.Len(t, emails, 2)
	assert.Equal(t, "carol@example.com", emails[0].ToEmail)
	assert.Equal(t, "bob@example.com", emails[1].ToEmail)
}

func TestCreateComment_ProjectComment(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	project := &domain.Project{
		ID:      uuid.New(),
		Name:    "Apollo",
		OwnerID: f.alice.ID,
	}
	f.projects.add(project)

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:      "Kickoff notes posted, @bob",
		ProjectID: &project.ID,
	})
	require.NoError(t, err)

	bobNotes := f.notifications.forRecipient(f.bob.ID)
	require.Len(t, bobNotes, 1)
	assert.Contains(t, bobNotes[0].Message, `on project "Apollo"`)

	wantLink := "https://planhub.test/projects/" + project.ID.String() + "?comment=" + created.ID.String()
	assert.Equal(t, wantLink, bobNotes[0].LinkURL)
}

func TestCreateComment_UnknownMentionDropped(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Update docs", nil)

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "cc @nobody on this",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, created.MentionedUserIDs)
	assert.Empty(t, f.emailQueue.all())
}

func TestCreateComment_Validation(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Anything", nil)
	projectID := uuid.New()

	t.Run("empty body", func(t *testing.T) {
		_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
			TaskID: &task.ID,
		})
		assert.ErrorIs(t, err, ErrCommentBodyRequired)
	})

	t.Run("no owner", func(t *testing.T) {
		_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
			Body: "orphan",
		})
		assert.ErrorIs(t, err, ErrCommentOwnerRequired)
	})

	t.Run("both owners", func(t *testing.T) {
		_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
			Body:      "ambiguous",
			TaskID:    &task.ID,
			ProjectID: &projectID,
		})
		assert.ErrorIs(t, err, ErrCommentOwnerRequired)
	})

	t.Run("unknown task", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
			Body:   "hello",
			TaskID: &missing,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := f.svc.CreateComment(context.Background(), uuid.New(), CreateCommentInput{
			Body:   "hello",
			TaskID: &task.ID,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.Empty(t, f.notifications.created)
	assert.Empty(t, f.emailQueue.all())
}

func TestCreateComment_ParentMismatch(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	taskA := f.addTask(t, "Task A", nil)
	taskB := f.addTask(t, "Task B", nil)

	parent, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "root comment",
		TaskID: &taskA.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateComment(context.Background(), f.bob.ID, CreateCommentInput{
		Body:     "reply on the wrong task",
		TaskID:   &taskB.ID,
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, ErrParentMismatch)

	_, err = f.svc.CreateComment(context.Background(), f.bob.ID, CreateCommentInput{
		Body:     "reply on the right task",
		TaskID:   &taskA.ID,
		ParentID: &parent.ID,
	})
	require.NoError(t, err)
}

func TestCreateComment_ActivityRecorded(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Long one", nil)

	body := "@bob " + strings.Repeat("x", 100)
	_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   body,
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	require.Len(t, f.activity.entries, 1)
	entry := f.activity.entries[0]
	assert.Equal(t, f.alice.ID, entry.ActorID)
	assert.Equal(t, domain.ActivityCommentAdded, entry.Action)

	var details domain.CommentAddedDetails
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Len(t, details.CommentPreview, 50)
	assert.Equal(t, 1, details.MentionCount)
	assert.False(t, details.IsReply)
	assert.Equal(t, []uuid.UUID{f.bob.ID}, details.MentionedIDs)
}

func TestCreateComment_EmitsEvent(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Event check", nil)

	var got []*events.Event
	f.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, event *events.Event) error {
		got = append(got, event)
		return nil
	}))

	created, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
		Body:   "ping @carol",
		TaskID: &task.ID,
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, events.EventTypeCommentCreated, got[0].Type)

	var payload CommentCreatedPayload
	require.NoError(t, got[0].UnmarshalPayload(&payload))
	assert.Equal(t, created.ID, payload.CommentID)
	assert.Equal(t, 1, payload.EmailsQueued)
}

func TestListComments(t *testing.T) {
	f := newCommentFixture(t, mention.PolicyFirst)
	task := f.addTask(t, "Discussion", nil)

	for _, body := range []string{"first", "second", "third"} {
		_, err := f.svc.CreateComment(context.Background(), f.alice.ID, CreateCommentInput{
			Body:   body,
			TaskID: &task.ID,
		})
		require.NoError(t, err)
	}

	listed, err := f.svc.ListComments(context.Background(), &task.ID, nil)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "first", listed[0].Body)
	assert.Equal(t, "third", listed[2].Body)
	assert.Equal(t, "alice", listed[0].AuthorName)

	_, err = f.svc.ListComments(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrCommentOwnerRequired)
}
