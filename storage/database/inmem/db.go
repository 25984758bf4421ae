package inmemdb

import (
	"sync"

	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

type (
	// DB is an in-memory store, used in tests and when no database is configured.
	DB struct {
		account      *accountTable
		lesson       *lessonTable
		notification *notificationTable
		announcement *announcementTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*lesson.Note
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*announcement.Announcement
	}
)

func Open() *DB {
	return &DB{
		account:      &accountTable{table: make(map[string]*account.Account)},
		lesson:       &lessonTable{table: make(map[string]*lesson.Note)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		announcement: &announcementTable{table: make(map[string]*announcement.Announcement)},
	}
}
