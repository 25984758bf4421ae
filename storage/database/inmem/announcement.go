package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
)

type announcementRepository struct {
	db *announcementTable
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) CreateAnnouncement(
	_ context.Context,
	a announcement.Announcement,
	_ ...core.DBExecutor,
) (announcement.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) LatestAnnouncements(
	_ context.Context,
	limit int,
	_ ...core.DBExecutor,
) ([]announcement.Announcement, error) {
	repo.db.RLock()
	anns := make([]announcement.Announcement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		anns = append(anns, *a)
	}
	repo.db.RUnlock()

	sort.SliceStable(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	if limit > 0 && len(anns) > limit {
		anns = anns[:limit]
	}
	return anns, nil
}
