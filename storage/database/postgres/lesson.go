package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

const noteColumns = `id, teacher_id, subject, class, week, term, topic, objectives, materials, introduction,
	development, evaluation, conclusion, status, ai_generated, feedback, reviewed_by, created_at, updated_at, reviewed_at`

var noteOrderColumns = map[string]bool{
	"created_at": true, "updated_at": true, "reviewed_at": true,
	"subject": true, "class": true, "week": true, "status": true,
}

type noteRow struct {
	ID           string      `db:"id"`
	TeacherID    string      `db:"teacher_id"`
	Subject      string      `db:"subject"`
	Class        string      `db:"class"`
	Week         string      `db:"week"`
	Term         string      `db:"term"`
	Topic        string      `db:"topic"`
	Objectives   string      `db:"objectives"`
	Materials    string      `db:"materials"`
	Introduction string      `db:"introduction"`
	Development  string      `db:"development"`
	Evaluation   string      `db:"evaluation"`
	Conclusion   string      `db:"conclusion"`
	Status       string      `db:"status"`
	AIGenerated  bool        `db:"ai_generated"`
	Feedback     null.String `db:"feedback"`
	ReviewedBy   null.String `db:"reviewed_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	ReviewedAt   null.Time   `db:"reviewed_at"`
}

type lessonRepository struct {
	exec core.DBExecutor
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{exec: db}
}

func (repo lessonRepository) toRow(n lesson.Note) noteRow {
	return noteRow{
		ID:           n.ID,
		TeacherID:    n.TeacherID,
		Subject:      n.Subject,
		Class:        n.Class,
		Week:         n.Week,
		Term:         n.Term,
		Topic:        n.Topic,
		Objectives:   n.Objectives,
		Materials:    n.Materials,
		Introduction: n.Introduction,
		Development:  n.Development,
		Evaluation:   n.Evaluation,
		Conclusion:   n.Conclusion,
		Status:       string(n.Status),
		AIGenerated:  n.AIGenerated,
		Feedback:     null.NewString(n.Feedback, n.Feedback != ""),
		ReviewedBy:   null.NewString(n.ReviewedBy, n.ReviewedBy != ""),
		CreatedAt:    n.CreatedAt.UTC(),
		UpdatedAt:    n.UpdatedAt.UTC(),
		ReviewedAt:   nullTime(n.ReviewedAt),
	}
}

func (repo lessonRepository) fromRow(row noteRow) lesson.Note {
	return lesson.Note{
		ID:        row.ID,
		TeacherID: row.TeacherID,
		Content: lesson.Content{
			Header: lesson.Header{
				Subject: row.Subject,
				Class:   row.Class,
				Week:    row.Week,
				Term:    row.Term,
				Topic:   row.Topic,
			},
			Objectives:   row.Objectives,
			Materials:    row.Materials,
			Introduction: row.Introduction,
			Development:  row.Development,
			Evaluation:   row.Evaluation,
			Conclusion:   row.Conclusion,
		},
		Status:      lesson.Status(row.Status),
		AIGenerated: row.AIGenerated,
		Feedback:    row.Feedback.String,
		ReviewedBy:  row.ReviewedBy.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
		ReviewedAt:  timePtr(row.ReviewedAt),
	}
}

func (repo lessonRepository) CreateNote(ctx context.Context, note lesson.Note, exec ...core.DBExecutor) (lesson.Note, error) {
	exe := getExec(repo.exec, exec)
	note.ID = uuid.New().String()

	q := `INSERT INTO lesson_notes (` + noteColumns + `) VALUES (
		:id, :teacher_id, :subject, :class, :week, :term, :topic, :objectives, :materials, :introduction,
		:development, :evaluation, :conclusion, :status, :ai_generated, :feedback, :reviewed_by,
		:created_at, :updated_at, :reviewed_at)`
	if _, err := sqlx.NamedExecContext(ctx, exe, q, repo.toRow(note)); err != nil {
		return lesson.Note{}, errors.Wrap(err, "inserting lesson note")
	}
	return note, nil
}

func (repo lessonRepository) GetNote(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.Note, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(id) {
		return lesson.Note{}, lesson.ErrNotFound
	}

	var row noteRow
	if err := sqlx.GetContext(ctx, exe, &row, `SELECT `+noteColumns+` FROM lesson_notes WHERE id = $1`, id); err != nil {
		return lesson.Note{}, trapNoRowsErr(err, lesson.ErrNotFound, "finding lesson note")
	}
	return repo.fromRow(row), nil
}

func (repo lessonRepository) QueryNotes(
	ctx context.Context,
	filter *lesson.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]lesson.Note, error) {
	exe := getExec(repo.exec, exec)

	w := new(where)
	var lim int
	if filter != nil {
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.Subject != "" {
			w.add("subject = ?", filter.Subject)
		}
		if filter.Class != "" {
			w.add("class = ?", filter.Class)
		}
		if filter.TeacherID != "" {
			if !validUUID(filter.TeacherID) {
				return []lesson.Note{}, nil
			}
			w.add("teacher_id = ?", filter.TeacherID)
		}
		lim = filter.Limit
	}
	q := exe.Rebind(`SELECT ` + noteColumns + ` FROM lesson_notes` + w.String() + orderBy(ordering, noteOrderColumns) + limit(lim))

	var rows []noteRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying lesson notes")
	}
	notes := make([]lesson.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, repo.fromRow(row))
	}
	return notes, nil
}

func (repo lessonRepository) UpdateNote(ctx context.Context, note lesson.Note, exec ...core.DBExecutor) (lesson.Note, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(note.ID) {
		return lesson.Note{}, lesson.ErrNotFound
	}

	q := `UPDATE lesson_notes SET subject = :subject, class = :class, week = :week, term = :term, topic = :topic,
		objectives = :objectives, materials = :materials, introduction = :introduction, development = :development,
		evaluation = :evaluation, conclusion = :conclusion, status = :status, ai_generated = :ai_generated,
		feedback = :feedback, reviewed_by = :reviewed_by, updated_at = :updated_at, reviewed_at = :reviewed_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, exe, q, repo.toRow(note))
	if err != nil {
		return lesson.Note{}, errors.Wrap(err, "updating lesson note")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lesson.Note{}, lesson.ErrNotFound
	}
	return repo.GetNote(ctx, note.ID, exe)
}
