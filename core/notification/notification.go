package notification

import (
	"context"
	"errors"
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

type Type string

// Types
const (
	TypeApproval  Type = "approval"
	TypeRejection Type = "rejection"
)

// Messages
const (
	ApprovalMessage  = "Your lesson has been approved!"
	RejectionMessage = "Your lesson has been rejected. Please review the feedback."
)

var ErrNotFound = errors.New("notification not found")

// Notification is a message addressed to a user. Only the Read flag changes after creation.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	LessonID  string    `json:"lesson_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Repository interface {
	CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
	// QueryNotifications returns the user's notifications, newest first. unreadOnly skips read ones.
	QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]Notification, error)
	CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
	// MarkRead flags the given notifications of the user as read and returns how many matched.
	// No ids means every unread notification of the user.
	MarkRead(ctx context.Context, userID string, ids []string, exec ...core.DBExecutor) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify appends a notification about a lesson review decision.
func (svc *Service) Notify(ctx context.Context, userID, lessonID string, typ Type) (Notification, error) {
	msg := ApprovalMessage
	if typ == TypeRejection {
		msg = RejectionMessage
	}
	return svc.repo.CreateNotification(ctx, Notification{
		UserID:    userID,
		Message:   msg,
		Type:      typ,
		LessonID:  lessonID,
		CreatedAt: core.Now(),
	})
}

func (svc *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}

// MarkRead flags one notification as read. It fails with ErrNotFound if the user does not own it.
func (svc *Service) MarkRead(ctx context.Context, userID, id string) error {
	n, err := svc.repo.MarkRead(ctx, userID, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkRead(ctx, userID, nil)
}
