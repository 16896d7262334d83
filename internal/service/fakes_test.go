package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/store"
)

// In-memory store fakes shared by the service tests. They enforce the
// same sentinel-error contracts as the postgres implementations so the
// services exercise their error paths for real.

type fakeUserStore struct {
	mu    sync.Mutex
	users []*domain.User
}

func (f *fakeUserStore) add(u *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) FindByNames(_ context.Context, names []string) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var matched []*domain.User
	for _, u := range f.users {
		if u.Active && wanted[u.Name] {
			copied := *u
			matched = append(matched, &copied)
		}
	}
	// Oldest account first, matching the postgres ordering contract.
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].CreatedAt.Before(matched[j-1].CreatedAt); j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}
	return matched, nil
}

func (f *fakeUserStore) ListActive(_ context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, u := range f.users {
		if u.Active {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

type fakeCommentStore struct {
	mu       sync.Mutex
	comments []*domain.Comment
	users    *fakeUserStore

	createErr error
}

func (f *fakeCommentStore) Create(_ context.Context, comment *domain.Comment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *comment
	f.comments = append(f.comments, &copied)
	return nil
}

func (f *fakeCommentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, store.ErrCommentNotFound
}

func (f *fakeCommentStore) GetWithAuthor(ctx context.Context, id uuid.UUID) (*domain.CommentWithAuthor, error) {
	comment, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.join(ctx, comment)
}

func (f *fakeCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.CommentWithAuthor, error) {
	f.mu.Lock()
	comments := make([]*domain.Comment, 0, len(f.comments))
	for _, c := range f.comments {
		if c.TaskID != nil && *c.TaskID == taskID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	f.mu.Unlock()

	out := make([]*domain.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		joined, err := f.join(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, joined)
	}
	return out, nil
}

func (f *fakeCommentStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.CommentWithAuthor, error) {
	f.mu.Lock()
	comments := make([]*domain.Comment, 0, len(f.comments))
	for _, c := range f.comments {
		if c.ProjectID != nil && *c.ProjectID == projectID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	f.mu.Unlock()

	out := make([]*domain.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		joined, err := f.join(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, joined)
	}
	return out, nil
}

func (f *fakeCommentStore) join(ctx context.Context, comment *domain.Comment) (*domain.CommentWithAuthor, error) {
	author, err := f.users.GetByID(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	joined := &domain.CommentWithAuthor{
		Comment:     *comment,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
	}
	if comment.ParentID != nil {
		if parent, err := f.GetByID(ctx, *comment.ParentID); err == nil {
			joined.ParentBody = &parent.Body
			if parentAuthor, err := f.users.GetByID(ctx, parent.AuthorID); err == nil {
				joined.ParentAuthorName = &parentAuthor.Name
			}
		}
	}
	return joined, nil
}

func (f *fakeCommentStore) WithTx(_ *sql.Tx) store.CommentStore { return f }

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []*domain.Notification

	createErr error
}

func (f *fakeNotificationStore) Create(_ context.Context, notification *domain.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *notification
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(_ context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*domain.Notification
	// Newest first, matching the postgres ordering contract.
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].RecipientID == recipientID {
			copied := *f.created[i]
			matched = append(matched, &copied)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id, recipientID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.created {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (f *fakeNotificationStore) forRecipient(id uuid.UUID) []*domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Notification
	for _, n := range f.created {
		if n.RecipientID == id {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out
}

func (f *fakeNotificationStore) WithTx(_ *sql.Tx) store.NotificationStore { return f }

type fakeEmailQueueStore struct {
	mu      sync.Mutex
	records []*domain.QueuedEmail
}

func (f *fakeEmailQueueStore) Create(_ context.Context, email *domain.QueuedEmail) error {
	if err := email.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *email
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeEmailQueueStore) GetByID(_ context.Context, id uuid.UUID) (*domain.QueuedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, store.ErrEmailNotFound
}

func (f *fakeEmailQueueStore) ClaimDue(_ context.Context, limit int) ([]*domain.QueuedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var claimed []*domain.QueuedEmail
	now := time.Now().UTC()
	for _, r := range f.records {
		if len(claimed) >= limit {
			break
		}
		if r.Status == domain.EmailStatusPending && r.Attempts < r.MaxAttempts && !r.ScheduledAt.After(now) {
			r.Status = domain.EmailStatusSending
			copied := *r
			claimed = append(claimed, &copied)
		}
	}
	return claimed, nil
}

func (f *fakeEmailQueueStore) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			if r.Status != domain.EmailStatusSending {
				return store.ErrUpdateFailed
			}
			r.Status = domain.EmailStatusSent
			at := sentAt.UTC()
			r.SentAt = &at
			return nil
		}
	}
	return store.ErrEmailNotFound
}

func (f *fakeEmailQueueStore) MarkAttemptFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			if r.Status != domain.EmailStatusSending {
				return store.ErrUpdateFailed
			}
			return r.RecordFailure(errMsg)
		}
	}
	return store.ErrEmailNotFound
}

func (f *fakeEmailQueueStore) ResetStuckClaims(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeEmailQueueStore) all() []*domain.QueuedEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.QueuedEmail, 0, len(f.records))
	for _, r := range f.records {
		copied := *r
		out = append(out, &copied)
	}
	return out
}

func (f *fakeEmailQueueStore) WithTx(_ *sql.Tx) store.EmailQueueStore { return f }

type fakeActivityStore struct {
	mu      sync.Mutex
	entries []*domain.ActivityLog
}

func (f *fakeActivityStore) Create(_ context.Context, entry *domain.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeActivityStore) WithTx(_ *sql.Tx) store.ActivityLogStore { return f }

type fakeTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*domain.Task
	contexts map[uuid.UUID]*domain.TaskContext
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:    make(map[uuid.UUID]*domain.Task),
		contexts: make(map[uuid.UUID]*domain.TaskContext),
	}
}

func (f *fakeTaskStore) addContext(tc *domain.TaskContext) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := tc.Task
	f.tasks[task.ID] = &task
	f.contexts[task.ID] = tc
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) GetContext(_ context.Context, id uuid.UUID) (*domain.TaskContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.contexts[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *tc
	return &copied, nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	return task.UpdateStatus(status)
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
	members  []*domain.ProjectMember
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[uuid.UUID]*domain.Project)}
}

func (f *fakeProjectStore) add(p *domain.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
}

func (f *fakeProjectStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProjectStore) AddMember(_ context.Context, member *domain.ProjectMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[member.ProjectID]; !ok {
		return store.ErrInvalidEntity
	}
	for _, m := range f.members {
		if m.ProjectID == member.ProjectID && m.UserID == member.UserID {
			return store.ErrMemberExists
		}
	}
	copied := *member
	f.members = append(f.members, &copied)
	return nil
}

func (f *fakeProjectStore) WithTx(_ *sql.Tx) store.ProjectStore { return f }

// passthroughTx runs the transactional body directly. The fakes ignore
// the nil transaction handle.
func passthroughTx(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
	return fn(ctx, nil)
}
