package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

const notificationColumns = "id, user_id, message, type, lesson_id, read, created_at"

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	LessonID  string    `db:"lesson_id"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

func (row notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Message:   row.Message,
		Type:      notification.Type(row.Type),
		LessonID:  row.LessonID,
		Read:      row.Read,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{exec: db}
}

func (repo notificationRepository) CreateNotification(
	ctx context.Context,
	n notification.Notification,
	exec ...core.DBExecutor,
) (notification.Notification, error) {
	exe := getExec(repo.exec, exec)
	n.ID = uuid.New().String()

	row := notificationRow{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      string(n.Type),
		LessonID:  n.LessonID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC(),
	}
	q := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :message, :type, :lesson_id, :read, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exe, q, row); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotifications(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	exec ...core.DBExecutor,
) ([]notification.Notification, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(userID) {
		return []notification.Notification{}, nil
	}

	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read = false`
	}
	q += ` ORDER BY created_at DESC`

	var rows []notificationRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	ntfs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		ntfs = append(ntfs, row.notification())
	}
	return ntfs, nil
}

func (repo notificationRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(userID) {
		return 0, nil
	}

	var cnt int
	q := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`
	if err := sqlx.GetContext(ctx, exe, &cnt, q, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return cnt, nil
}

func (repo notificationRepository) MarkRead(ctx context.Context, userID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(userID) {
		return 0, nil
	}

	var q string
	args := []interface{}{userID}
	if len(ids) == 0 {
		q = `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`
	} else {
		valid := make([]string, 0, len(ids))
		for _, id := range ids {
			if validUUID(id) {
				valid = append(valid, id)
			}
		}
		if len(valid) == 0 {
			return 0, nil
		}
		q = `UPDATE notifications SET read = true WHERE user_id = $1 AND id = ANY($2)`
		args = append(args, pq.Array(valid))
	}

	res, err := exe.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return int(n), nil
}
