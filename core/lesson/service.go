package lesson

import (
	"context"
	"sort"
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

// OrderingFields are the fields notes may be ordered by.
var OrderingFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"reviewed_at": true,
	"subject":     true,
	"class":       true,
	"week":        true,
	"status":      true,
}

var defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}

type Repository interface {
	CreateNote(ctx context.Context, note Note, exec ...core.DBExecutor) (Note, error)
	GetNote(ctx context.Context, id string, exec ...core.DBExecutor) (Note, error)
	// QueryNotes applies AND operation on available QueryFilter fields.
	QueryNotes(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Note, error)
	// UpdateNote writes every mutable field of note. TeacherID and CreatedAt are never written.
	UpdateNote(ctx context.Context, note Note, exec ...core.DBExecutor) (Note, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SaveDraft creates a draft (noteID empty) or saves the owner's edits to an existing note as a draft.
// A rejected note saved as a draft goes back to draft and keeps its feedback until the next review.
func (svc *Service) SaveDraft(ctx context.Context, teacherID, noteID string, content Content, aiGenerated bool) (Note, error) {
	return svc.edit(ctx, EventSaveDraft, teacherID, noteID, content, aiGenerated)
}

// Submit sends the owner's note for review. Every submit-required field must be filled in.
func (svc *Service) Submit(ctx context.Context, teacherID, noteID string, content Content, aiGenerated bool) (Note, error) {
	return svc.edit(ctx, EventSubmit, teacherID, noteID, content, aiGenerated)
}

func (svc *Service) edit(ctx context.Context, ev Event, teacherID, noteID string, content Content, aiGenerated bool) (Note, error) {
	var note Note
	if noteID != "" {
		var err error
		if note, err = svc.GetOwned(ctx, teacherID, noteID); err != nil {
			return Note{}, err
		}
	}

	to, err := Transition(note.Status, ev)
	if err != nil {
		return Note{}, err
	}
	content.Clean()
	if err = content.ValidateFor(ev); err != nil {
		return Note{}, err
	}

	now := core.Now()
	note.Content = content
	note.Status = to
	note.AIGenerated = note.AIGenerated || aiGenerated
	note.UpdatedAt = now

	if note.ID == "" {
		note.TeacherID = teacherID
		note.CreatedAt = now
		return svc.repo.CreateNote(ctx, note)
	}
	return svc.repo.UpdateNote(ctx, note)
}

// Review applies a reviewer decision (EventApprove or EventReject) to a pending note.
func (svc *Service) Review(ctx context.Context, reviewerID, noteID string, ev Event, feedback string) (Note, error) {
	feedback, err := ValidateReview(ev, feedback)
	if err != nil {
		return Note{}, err
	}
	note, err := svc.repo.GetNote(ctx, noteID)
	if err != nil {
		return Note{}, err
	}
	to, err := Transition(note.Status, ev)
	if err != nil {
		return Note{}, err
	}

	now := core.Now()
	note.Status = to
	note.Feedback = feedback
	note.ReviewedBy = reviewerID
	note.ReviewedAt = &now
	note.UpdatedAt = now
	return svc.repo.UpdateNote(ctx, note)
}

func (svc *Service) Get(ctx context.Context, id string) (Note, error) {
	return svc.repo.GetNote(ctx, id)
}

// GetOwned returns the note only if it belongs to teacherID; other teachers get ErrNotFound.
func (svc *Service) GetOwned(ctx context.Context, teacherID, id string) (Note, error) {
	note, err := svc.repo.GetNote(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if note.TeacherID != teacherID {
		return Note{}, ErrNotFound
	}
	return note, nil
}

// Query lists notes matching filter. An unknown status is a validation error.
// Unknown ordering fields are ignored; notes default to newest first.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Note, error) {
	if filter != nil {
		filter.Clean()
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}
	return svc.repo.QueryNotes(ctx, filter, core.KeepOrderings(ordering, OrderingFields, defaultOrdering...))
}

// Recent returns the n newest notes matching filter.
func (svc *Service) Recent(ctx context.Context, filter QueryFilter, n int) ([]Note, error) {
	filter.Limit = n
	return svc.Query(ctx, &filter, nil)
}

// FilterOptions returns the distinct subjects and classes of all notes, sorted, along with teachers.
func (svc *Service) FilterOptions(ctx context.Context, teachers map[string]string) (FilterOptions, error) {
	notes, err := svc.repo.QueryNotes(ctx, nil, nil)
	if err != nil {
		return FilterOptions{}, err
	}
	subjects := make(map[string]struct{})
	classes := make(map[string]struct{})
	for _, n := range notes {
		if n.Subject != "" {
			subjects[n.Subject] = struct{}{}
		}
		if n.Class != "" {
			classes[n.Class] = struct{}{}
		}
	}
	if teachers == nil {
		teachers = map[string]string{}
	}
	return FilterOptions{
		Subjects: sortedKeys(subjects),
		Classes:  sortedKeys(classes),
		Teachers: teachers,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats counts notes per status. An empty teacherID counts every note.
func (svc *Service) Stats(ctx context.Context, teacherID string) (Stats, error) {
	notes, err := svc.repo.QueryNotes(ctx, &QueryFilter{TeacherID: teacherID}, nil)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, n := range notes {
		stats.Total++
		if n.AIGenerated {
			stats.AIGenerated++
		}
		switch n.Status {
		case StatusDraft:
			stats.Draft++
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// MonthlyCounts returns the number of notes created in each of the last `months` calendar
// months, oldest first, the current month included.
func (svc *Service) MonthlyCounts(ctx context.Context, months int) ([]MonthCount, error) {
	if months <= 0 {
		return []MonthCount{}, nil
	}
	notes, err := svc.repo.QueryNotes(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	now := core.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	counts := make([]MonthCount, months)
	for i := range counts {
		counts[i].Month = first.AddDate(0, i, 0).Format("Jan 2006")
	}
	for _, n := range notes {
		created := n.CreatedAt.UTC()
		if created.Before(first) {
			continue
		}
		idx := (created.Year()-first.Year())*12 + int(created.Month()) - int(first.Month())
		if idx >= 0 && idx < months {
			counts[idx].Count++
		}
	}
	return counts, nil
}
