package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common comment validation errors
var (
	ErrEmptyCommentID     = errors.New("comment ID cannot be empty")
	ErrEmptyCommentTaskID = errors.New("comment task ID cannot be empty")
	ErrEmptyAuthorID      = errors.New("comment author ID cannot be empty")
	ErrEmptyCommentBody   = errors.New("comment body cannot be empty")
)

// Comment is a free-text note attached to a task. Comments are owned
// exclusively by their task and are deleted with it.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComment creates a new Comment on the given task by the given
// author. Returns a validation error if the body is empty.
func NewComment(taskID, authorID uuid.UUID, body string) (*Comment, error) {
	now := time.Now().UTC()
	comment := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}

	return comment, nil
}

// Validate checks if the Comment has valid data.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCommentID
	}

	if c.TaskID == uuid.Nil {
		return ErrEmptyCommentTaskID
	}

	if c.AuthorID == uuid.Nil {
		return ErrEmptyAuthorID
	}

	if strings.TrimSpace(c.Body) == "" {
		return ErrEmptyCommentBody
	}

	return nil
}
