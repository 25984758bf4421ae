package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abra313/socrease-lesson-note-management/core/autosave"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/storage/database/inmem"
)

func TestSession_autoSaveWhileSaving(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewLessonRepository(inmemdb.Open())
	s := &Session{teacherID: "t1", lessons: lesson.NewService(repo)}
	s.Update(lesson.Content{Header: lesson.Header{Subject: "Mathematics", Class: "JSS1", Week: "3"}})

	// an explicit save holds the session
	s.saveMu.Lock()
	err := s.autoSave(ctx, s.content)
	s.saveMu.Unlock()
	assert.Equal(t, autosave.ErrBusy, err)

	notes, err := repo.QueryNotes(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.True(t, s.View().Unsaved)

	require.NoError(t, s.autoSave(ctx, s.content))
	view := s.View()
	assert.NotEmpty(t, view.NoteID)
	assert.False(t, view.Unsaved)
}
