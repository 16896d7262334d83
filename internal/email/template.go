// Package email renders notification emails and delivers them over SMTP.
//
// The template set is a closed group of typed data structs; each renders a
// fixed HTML and plain-text body. The copy is kept compatible with the
// notification emails the system has historically sent.
package email

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Template names.
const (
	TemplateMention         = "mention"
	TemplateTaskComment     = "task_comment"
	TemplateTaskAssigned    = "task_assigned"
	TemplateProjectAssigned = "project_assigned"
)

// ErrUnknownTemplate is returned when rendering data that does not belong
// to the known template set.
var ErrUnknownTemplate = errors.New("email template not found")

// TemplateData is implemented by the typed payload of each template.
type TemplateData interface {
	// TemplateName returns the name of the template this data renders.
	TemplateName() string
}

// MentionData feeds the "mention" template.
type MentionData struct {
	MentionedBy string `json:"mentionedBy"`
	Content     string `json:"content"`
	TaskTitle   string `json:"taskTitle,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	ActionURL   string `json:"actionUrl"`
}

// TemplateName implements TemplateData.
func (MentionData) TemplateName() string { return TemplateMention }

// TaskCommentData feeds the "task_comment" template.
type TaskCommentData struct {
	CommenterName string `json:"commenterName"`
	TaskTitle     string `json:"taskTitle"`
	ProjectName   string `json:"projectName"`
	Content       string `json:"content"`
	ActionURL     string `json:"actionUrl"`
}

// TemplateName implements TemplateData.
func (TaskCommentData) TemplateName() string { return TemplateTaskComment }

// TaskAssignedData feeds the "task_assigned" template.
type TaskAssignedData struct {
	AssigneeName string `json:"assigneeName"`
	TaskTitle    string `json:"taskTitle"`
	ProjectName  string `json:"projectName"`
	Priority     string `json:"priority"`
	DueDate      string `json:"dueDate,omitempty"`
	Description  string `json:"description,omitempty"`
	ActionURL    string `json:"actionUrl"`
}

// TemplateName implements TemplateData.
func (TaskAssignedData) TemplateName() string { return TemplateTaskAssigned }

// ProjectAssignedData feeds the "project_assigned" template.
type ProjectAssignedData struct {
	MemberName     string `json:"memberName"`
	ProjectName    string `json:"projectName"`
	Role           string `json:"role"`
	ProjectManager string `json:"projectManager"`
	Description    string `json:"description,omitempty"`
	ActionURL      string `json:"actionUrl"`
}

// TemplateName implements TemplateData.
func (ProjectAssignedData) TemplateName() string { return TemplateProjectAssigned }

// Render produces the HTML and plain-text bodies for the given data.
// Returns ErrUnknownTemplate for data outside the known template set.
func Render(data TemplateData) (html, text string, err error) {
	switch d := data.(type) {
	case MentionData:
		return renderMention(d)
	case *MentionData:
		return renderMention(*d)
	case TaskCommentData:
		return renderTaskComment(d)
	case *TaskCommentData:
		return renderTaskComment(*d)
	case TaskAssignedData:
		return renderTaskAssigned(d)
	case *TaskAssignedData:
		return renderTaskAssigned(*d)
	case ProjectAssignedData:
		return renderProjectAssigned(d)
	case *ProjectAssignedData:
		return renderProjectAssigned(*d)
	default:
		return "", "", fmt.Errorf("%w: %T", ErrUnknownTemplate, data)
	}
}

// MarshalData serializes template data for the queue row's snapshot column.
func MarshalData(data TemplateData) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template data: %w", err)
	}
	return raw, nil
}

const footerHTML = `<hr style="margin: 30px 0;">
  <p style="color: #666; font-size: 12px;">
    This is an automated notification from PMS System. Please do not reply to this email.
  </p>`

func renderMention(d MentionData) (string, string, error) {
	taskLine := ""
	if d.TaskTitle != "" {
		taskLine = fmt.Sprintf(`<p><strong>Task:</strong> %s</p>`, d.TaskTitle)
	}
	projectLine := ""
	if d.ProjectName != "" {
		projectLine = fmt.Sprintf(`<p><strong>Project:</strong> %s</p>`, d.ProjectName)
	}

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">You were mentioned in a comment</h2>
  <p>Hi there,</p>
  <p><strong>%s</strong> mentioned you in a comment:</p>
  <div style="background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 15px 0;">
    <p style="margin: 0;">%s</p>
  </div>
  %s%s
  <p>
    <a href="%s" style="background: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">
      View Comment
    </a>
  </p>
  %s
</div>`, d.MentionedBy, d.Content, taskLine, projectLine, d.ActionURL, footerHTML)

	taskText := ""
	if d.TaskTitle != "" {
		taskText = fmt.Sprintf("Task: %s\n", d.TaskTitle)
	}
	projectText := ""
	if d.ProjectName != "" {
		projectText = fmt.Sprintf("Project: %s\n", d.ProjectName)
	}

	text := fmt.Sprintf("You were mentioned in a comment by %s:\n\n%s\n\n%s%s\nView: %s",
		d.MentionedBy, d.Content, taskText, projectText, d.ActionURL)

	return html, text, nil
}

func renderTaskComment(d TaskCommentData) (string, string, error) {
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">New comment on your task</h2>
  <p>Hi there,</p>
  <p><strong>%s</strong> commented on your task:</p>
  <div style="background: #e3f2fd; padding: 15px; border-radius: 5px; margin: 15px 0;">
    <h3 style="margin: 0 0 10px 0; color: #1976d2;">%s</h3>
    <p style="margin: 0; color: #666;">Project: %s</p>
  </div>
  <div style="background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 15px 0;">
    <p style="margin: 0;">%s</p>
  </div>
  <p>
    <a href="%s" style="background: #28a745; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">
      View Task
    </a>
  </p>
  %s
</div>`, d.CommenterName, d.TaskTitle, d.ProjectName, d.Content, d.ActionURL, footerHTML)

	text := fmt.Sprintf("New comment on your task %q by %s:\n\n%s\n\nProject: %s\nView: %s",
		d.TaskTitle, d.CommenterName, d.Content, d.ProjectName, d.ActionURL)

	return html, text, nil
}

func renderTaskAssigned(d TaskAssignedData) (string, string, error) {
	dueLine := ""
	if d.DueDate != "" {
		dueLine = fmt.Sprintf(`<p style="margin: 5px 0 0 0; color: #666;">Due: %s</p>`, d.DueDate)
	}
	descBlock := ""
	if d.Description != "" {
		descBlock = fmt.Sprintf(`<div style="background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 15px 0;"><p style="margin: 0;">%s</p></div>`, d.Description)
	}

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Task Assigned to You</h2>
  <p>Hi %s,</p>
  <p>You have been assigned a new task:</p>
  <div style="background: #e8f5e8; padding: 15px; border-radius: 5px; margin: 15px 0;">
    <h3 style="margin: 0 0 10px 0; color: #2e7d32;">%s</h3>
    <p style="margin: 0; color: #666;">Project: %s</p>
    <p style="margin: 5px 0 0 0; color: #666;">Priority: %s</p>
    %s
  </div>
  %s
  <p>
    <a href="%s" style="background: #28a745; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">
      View Task
    </a>
  </p>
  %s
</div>`, d.AssigneeName, d.TaskTitle, d.ProjectName, d.Priority, dueLine, descBlock, d.ActionURL, footerHTML)

	dueText := ""
	if d.DueDate != "" {
		dueText = fmt.Sprintf("Due: %s\n", d.DueDate)
	}
	descText := ""
	if d.Description != "" {
		descText = fmt.Sprintf("Description: %s\n", d.Description)
	}

	text := fmt.Sprintf("Task assigned to you: %q\n\nProject: %s\nPriority: %s\n%s\n%s\nView: %s",
		d.TaskTitle, d.ProjectName, d.Priority, dueText, descText, d.ActionURL)

	return html, text, nil
}

func renderProjectAssigned(d ProjectAssignedData) (string, string, error) {
	descBlock := ""
	if d.Description != "" {
		descBlock = fmt.Sprintf(`<div style="background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 15px 0;"><p style="margin: 0;">%s</p></div>`, d.Description)
	}

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Added to Project Team</h2>
  <p>Hi %s,</p>
  <p>You have been added to a project team:</p>
  <div style="background: #fff3cd; padding: 15px; border-radius: 5px; margin: 15px 0;">
    <h3 style="margin: 0 0 10px 0; color: #856404;">%s</h3>
    <p style="margin: 0; color: #666;">Role: %s</p>
    <p style="margin: 5px 0 0 0; color: #666;">Project Manager: %s</p>
  </div>
  %s
  <p>
    <a href="%s" style="background: #ffc107; color: #212529; padding: 10px 20px; text-decoration: none; border-radius: 5px;">
      View Project
    </a>
  </p>
  %s
</div>`, d.MemberName, d.ProjectName, d.Role, d.ProjectManager, descBlock, d.ActionURL, footerHTML)

	descText := ""
	if d.Description != "" {
		descText = fmt.Sprintf("Description: %s\n", d.Description)
	}

	text := fmt.Sprintf("You have been added to project %q\n\nRole: %s\nProject Manager: %s\n%s\nView: %s",
		d.ProjectName, d.Role, d.ProjectManager, descText, d.ActionURL)

	return html, text, nil
}
