package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityAction identifies the kind of event an activity-log row records.
type ActivityAction string

// The closed set of recorded activity actions.
const (
	ActivityCommentAdded      ActivityAction = "comment_added"
	ActivityTaskCreated       ActivityAction = "task_created"
	ActivityTaskStatusUpdated ActivityAction = "task_status_updated"
	ActivityMemberAdded       ActivityAction = "member_added"
)

// Common validation errors for ActivityLog
var (
	ErrActivityIDEmpty       = errors.New("activity ID cannot be empty")
	ErrActivityActorEmpty    = errors.New("activity actor ID cannot be empty")
	ErrActivityDetailMissing = errors.New("activity details cannot be nil")
)

// ActivityDetails is implemented by the typed payload attached to each
// activity action. Keeping the set closed catches shape drift at compile
// time instead of at read time.
type ActivityDetails interface {
	Action() ActivityAction
}

// CommentAddedDetails records a comment_added event.
type CommentAddedDetails struct {
	CommentPreview string      `json:"comment_preview"`
	MentionCount   int         `json:"mention_count"`
	IsReply        bool        `json:"is_reply"`
	MentionedIDs   []uuid.UUID `json:"mentioned_ids"`
}

// Action implements ActivityDetails.
func (CommentAddedDetails) Action() ActivityAction { return ActivityCommentAdded }

// TaskCreatedDetails records a task_created event.
type TaskCreatedDetails struct {
	Title      string     `json:"title"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
}

// Action implements ActivityDetails.
func (TaskCreatedDetails) Action() ActivityAction { return ActivityTaskCreated }

// TaskStatusUpdatedDetails records a task_status_updated event.
type TaskStatusUpdatedDetails struct {
	NewStatus string `json:"new_status"`
}

// Action implements ActivityDetails.
func (TaskStatusUpdatedDetails) Action() ActivityAction { return ActivityTaskStatusUpdated }

// MemberAddedDetails records a member_added event.
type MemberAddedDetails struct {
	MemberID uuid.UUID `json:"member_id"`
	Role     string    `json:"role"`
}

// Action implements ActivityDetails.
func (MemberAddedDetails) Action() ActivityAction { return ActivityMemberAdded }

// ActivityLog represents one recorded event against a task or project.
type ActivityLog struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	TaskID    *uuid.UUID      `json:"task_id,omitempty"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	Action    ActivityAction  `json:"action"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewActivityLog creates an activity row from a typed details payload.
// The payload is serialized once here; stores persist it opaquely.
func NewActivityLog(
	actorID uuid.UUID,
	taskID, projectID *uuid.UUID,
	details ActivityDetails,
) (*ActivityLog, error) {
	if actorID == uuid.Nil {
		return nil, ErrActivityActorEmpty
	}
	if details == nil {
		return nil, ErrActivityDetailMissing
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activity details: %w", err)
	}

	return &ActivityLog{
		ID:        uuid.New(),
		ActorID:   actorID,
		TaskID:    taskID,
		ProjectID: projectID,
		Action:    details.Action(),
		Details:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}
