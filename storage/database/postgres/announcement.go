package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
)

type announcementRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	AuthorID  string    `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
}

type announcementRepository struct {
	exec core.DBExecutor
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{exec: db}
}

func (repo announcementRepository) CreateAnnouncement(
	ctx context.Context,
	a announcement.Announcement,
	exec ...core.DBExecutor,
) (announcement.Announcement, error) {
	exe := getExec(repo.exec, exec)
	a.ID = uuid.New().String()

	row := announcementRow{ID: a.ID, Title: a.Title, Message: a.Message, AuthorID: a.AuthorID, CreatedAt: a.CreatedAt.UTC()}
	q := `INSERT INTO announcements (id, title, message, author_id, created_at)
		VALUES (:id, :title, :message, :author_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exe, q, row); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo announcementRepository) LatestAnnouncements(
	ctx context.Context,
	n int,
	exec ...core.DBExecutor,
) ([]announcement.Announcement, error) {
	exe := getExec(repo.exec, exec)

	var rows []announcementRow
	q := `SELECT id, title, message, author_id, created_at FROM announcements ORDER BY created_at DESC` + limit(n)
	if err := sqlx.SelectContext(ctx, exe, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, announcement.Announcement{
			ID:        row.ID,
			Title:     row.Title,
			Message:   row.Message,
			AuthorID:  row.AuthorID,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return anns, nil
}
