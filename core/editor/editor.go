// Package editor keeps the state of teachers' open lesson editors and auto-saves them.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	"github.com/Abra313/socrease-lesson-note-management/core/autosave"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

var ErrSessionNotFound = errors.New("editing session not found")

// View is what a client sees of a session.
type View struct {
	ID          string         `json:"id"`
	NoteID      string         `json:"note_id"`
	Status      lesson.Status  `json:"status"`
	Content     lesson.Content `json:"content"`
	AIGenerated bool           `json:"ai_generated"`
	Unsaved     bool           `json:"unsaved"`
	LastSavedAt time.Time      `json:"last_saved_at"`
}

// Session is one teacher editing one lesson note. It is created by Manager.Open and torn down by
// Manager.Close, Manager.CloseAllFor or Manager.Shutdown, which stop its auto-save.
type Session struct {
	id        string
	teacherID string
	lessons   *lesson.Service
	autosave  *autosave.Scheduler

	saveMu sync.Mutex // serializes writes so a new note is created once

	mu          sync.Mutex
	noteID      string
	status      lesson.Status
	content     lesson.Content
	aiGenerated bool
	unsaved     bool
	lastSavedAt time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:          s.id,
		NoteID:      s.noteID,
		Status:      s.status,
		Content:     s.content,
		AIGenerated: s.aiGenerated,
		Unsaved:     s.unsaved,
		LastSavedAt: s.lastSavedAt,
	}
}

// Update replaces the in-memory content. It is persisted on the next auto-save tick or explicit save.
func (s *Session) Update(content lesson.Content) View {
	content.Clean()
	s.mu.Lock()
	if content != s.content {
		s.content = content
		s.unsaved = true
	}
	s.mu.Unlock()
	return s.View()
}

// Save persists the content as a draft. Unlike auto-saves, failures are returned.
func (s *Session) Save(ctx context.Context) (lesson.Note, error) {
	s.mu.Lock()
	content := s.content
	s.mu.Unlock()
	return s.persist(ctx, lesson.EventSaveDraft, content)
}

func (s *Session) submit(ctx context.Context) (lesson.Note, error) {
	s.mu.Lock()
	content := s.content
	s.mu.Unlock()
	return s.persist(ctx, lesson.EventSubmit, content)
}

func (s *Session) snapshot() (lesson.Content, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content, s.unsaved
}

// autoSave skips the tick when an explicit save or submit holds the session.
func (s *Session) autoSave(ctx context.Context, content lesson.Content) error {
	if !s.saveMu.TryLock() {
		return autosave.ErrBusy
	}
	defer s.saveMu.Unlock()
	_, err := s.write(ctx, lesson.EventSaveDraft, content)
	return err
}

func (s *Session) persist(ctx context.Context, ev lesson.Event, content lesson.Content) (lesson.Note, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.write(ctx, ev, content)
}

// write stores content; saveMu must be held.
func (s *Session) write(ctx context.Context, ev lesson.Event, content lesson.Content) (lesson.Note, error) {
	s.mu.Lock()
	noteID, aiGenerated := s.noteID, s.aiGenerated
	s.mu.Unlock()

	var note lesson.Note
	var err error
	if ev == lesson.EventSubmit {
		note, err = s.lessons.Submit(ctx, s.teacherID, noteID, content, aiGenerated)
	} else {
		note, err = s.lessons.SaveDraft(ctx, s.teacherID, noteID, content, aiGenerated)
	}
	if err != nil {
		return lesson.Note{}, err
	}

	s.mu.Lock()
	s.noteID = note.ID
	s.status = note.Status
	s.lastSavedAt = note.UpdatedAt
	if s.content == note.Content {
		s.unsaved = false
	}
	s.mu.Unlock()
	return note, nil
}

// Manager owns every open editing session.
type Manager struct {
	lessons *lesson.Service
	ai      *ai.Service
	period  time.Duration
	logger  core.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(conf *core.Config, lessons *lesson.Service, aiSvc *ai.Service, logger core.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		lessons:  lessons,
		ai:       aiSvc,
		period:   conf.Lesson.AutosaveInterval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Open starts an editing session for a new note (noteID empty) or an existing note of the teacher.
// Only draft and rejected notes can be opened.
func (m *Manager) Open(ctx context.Context, teacherID, noteID string) (*Session, error) {
	s := &Session{
		id:        uuid.New().String(),
		teacherID: teacherID,
		lessons:   m.lessons,
	}
	if noteID != "" {
		note, err := m.lessons.GetOwned(ctx, teacherID, noteID)
		if err != nil {
			return nil, err
		}
		if !note.Editable() {
			return nil, lesson.ErrNotEditable
		}
		s.noteID = note.ID
		s.status = note.Status
		s.content = note.Content
		s.aiGenerated = note.AIGenerated
		s.lastSavedAt = note.UpdatedAt
	}
	s.autosave = autosave.New(m.period, s.snapshot, s.autoSave, m.logger)

	m.mu.Lock()
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return nil, core.NewShutdownError("editor manager is shut down")
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.autosave.Start(m.ctx)
	return s, nil
}

// Get returns the teacher's session. Sessions of other teachers are not found.
func (m *Manager) Get(teacherID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.teacherID != teacherID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Submit sends the session's note for review and closes the session on success.
func (m *Manager) Submit(ctx context.Context, teacherID, id string) (lesson.Note, error) {
	s, err := m.Get(teacherID, id)
	if err != nil {
		return lesson.Note{}, err
	}
	note, err := s.submit(ctx)
	if err != nil {
		return lesson.Note{}, err
	}
	m.remove(s.id)
	return note, nil
}

// Generate fills the session's content sections with AI-generated text.
func (m *Manager) Generate(ctx context.Context, teacherID, id string) (View, error) {
	s, err := m.Get(teacherID, id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	header := s.content.Header
	s.mu.Unlock()

	sections, err := m.ai.GenerateLesson(ctx, header)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	sections.Apply(&s.content)
	s.aiGenerated = true
	s.unsaved = true
	s.mu.Unlock()
	return s.View(), nil
}

// Close tears down the teacher's session. Unsaved content is discarded.
func (m *Manager) Close(teacherID, id string) error {
	if _, err := m.Get(teacherID, id); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

// CloseAllFor tears down every session of the teacher and returns how many were closed.
func (m *Manager) CloseAllFor(teacherID string) int {
	m.mu.Lock()
	var ids []string
	for id, s := range m.sessions {
		if s.teacherID == teacherID {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.remove(id)
	}
	return len(ids)
}

// Shutdown tears down every session. Sessions cannot be opened afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.cancel()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.autosave.Stop()
	}
	if m.logger != nil && len(sessions) > 0 {
		m.logger.Info(fmt.Sprintf("closed %d editing sessions", len(sessions)))
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.autosave.Stop()
	}
}
