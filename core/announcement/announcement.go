package announcement

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

// LatestCount is the number of announcements shown on the teacher dashboard.
const LatestCount = 3

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewAnnouncement struct {
	Title   string `json:"title" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	return validate.Struct(na)
}

type Repository interface {
	CreateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
	// LatestAnnouncements returns at most limit announcements, newest first.
	LatestAnnouncements(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Announcement, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, authorID string, na NewAnnouncement) (Announcement, error) {
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:     na.Title,
		Message:   na.Message,
		AuthorID:  authorID,
		CreatedAt: core.Now(),
	})
}

func (svc *Service) Latest(ctx context.Context, limit int) ([]Announcement, error) {
	if limit <= 0 {
		limit = LatestCount
	}
	return svc.repo.LatestAnnouncements(ctx, limit)
}
