package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db.lesson}
}

func (repo *lessonRepository) CreateNote(_ context.Context, note lesson.Note, _ ...core.DBExecutor) (lesson.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	note.ID = uuid.New().String()
	repo.db.table[note.ID] = &note
	return note, nil
}

func (repo *lessonRepository) GetNote(_ context.Context, id string, _ ...core.DBExecutor) (lesson.Note, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if note, ok := repo.db.table[id]; ok {
		return *note, nil
	}
	return lesson.Note{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryNotes(
	_ context.Context,
	filter *lesson.QueryFilter,
	ordering []core.DBOrdering,
	_ ...core.DBExecutor,
) ([]lesson.Note, error) {
	repo.db.RLock()
	notes := make([]lesson.Note, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		if filter.Match(*n) {
			notes = append(notes, *n)
		}
	}
	repo.db.RUnlock()

	if len(ordering) > 0 {
		sort.SliceStable(notes, func(i, j int) bool {
			return core.OrderedBefore(ordering, func(field string) int { return compareNotes(notes[i], notes[j], field) })
		})
	}
	if filter != nil && filter.Limit > 0 && len(notes) > filter.Limit {
		notes = notes[:filter.Limit]
	}
	return notes, nil
}

func compareNotes(a, b lesson.Note, field string) int {
	switch field {
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "reviewed_at":
		return compareOptionalTimes(a.ReviewedAt, b.ReviewedAt)
	case "subject":
		return strings.Compare(a.Subject, b.Subject)
	case "class":
		return strings.Compare(a.Class, b.Class)
	case "week":
		return strings.Compare(a.Week, b.Week)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}

func (repo *lessonRepository) UpdateNote(_ context.Context, note lesson.Note, _ ...core.DBExecutor) (lesson.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[note.ID]
	if !ok {
		return lesson.Note{}, lesson.ErrNotFound
	}
	note.TeacherID = orig.TeacherID
	note.CreatedAt = orig.CreatedAt
	repo.db.table[note.ID] = &note
	return note, nil
}
