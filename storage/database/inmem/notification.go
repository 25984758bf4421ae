package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(
	_ context.Context,
	n notification.Notification,
	_ ...core.DBExecutor,
) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(
	_ context.Context,
	userID string,
	unreadOnly bool,
	_ ...core.DBExecutor,
) ([]notification.Notification, error) {
	repo.db.RLock()
	ntfs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.UserID == userID && !(unreadOnly && n.Read) {
			ntfs = append(ntfs, *n)
		}
	}
	repo.db.RUnlock()

	sort.SliceStable(ntfs, func(i, j int) bool { return ntfs[i].CreatedAt.After(ntfs[j].CreatedAt) })
	return ntfs, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.Read {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, userID string, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	if len(ids) == 0 {
		for _, n := range repo.db.table {
			if n.UserID == userID && !n.Read {
				n.Read = true
				cnt++
			}
		}
		return cnt, nil
	}
	for _, id := range ids {
		if n, ok := repo.db.table[id]; ok && n.UserID == userID {
			n.Read = true
			cnt++
		}
	}
	return cnt, nil
}
