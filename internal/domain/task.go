package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// Common validation errors for Task
var (
	ErrTaskIDEmpty       = errors.New("task ID cannot be empty")
	ErrTaskTitleEmpty    = errors.New("task title cannot be empty")
	ErrTaskProjectEmpty  = errors.New("task project ID cannot be empty")
	ErrTaskCreatorEmpty  = errors.New("task creator ID cannot be empty")
	ErrTaskStatusInvalid = errors.New("invalid task status")
)

// Task represents one unit of project work, optionally assigned to a user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a task in the todo state.
func NewTask(
	projectID uuid.UUID,
	title, description, priority string,
	assignedTo *uuid.UUID,
	createdBy uuid.UUID,
	dueDate *time.Time,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      TaskStatusTodo,
		Priority:    priority,
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.ProjectID == uuid.Nil {
		return ErrTaskProjectEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if t.CreatedBy == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if !isValidTaskStatus(t.Status) {
		return ErrTaskStatusInvalid
	}

	return nil
}

// UpdateStatus moves the task to the given status and bumps UpdatedAt.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !isValidTaskStatus(status) {
		return ErrTaskStatusInvalid
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

// TaskContext carries the task fields the notification fan-out needs,
// joined with assignee contact info and the owning project name.
type TaskContext struct {
	Task          Task
	ProjectName   string
	AssigneeName  string
	AssigneeEmail string
}
