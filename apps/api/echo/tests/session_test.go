package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/editor"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/tests"
)

func openSession(t *testing.T, app http.Handler, token, noteID string) editor.View {
	req, rec := newAuthRequest(http.MethodPost, "/api/sessions", token, marchallObj(t, OpenSessionRequest{NoteID: noteID}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view editor.View
	unmarshal(t, rec, &view)
	return view
}

func Test_sessionApi_access(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)
	ada := testutil.CreateAccount(t, accRepo, "Ada", "ada@school.ng", "", account.RoleTeacher, true)
	bayo := testutil.CreateAccount(t, accRepo, "Bayo", "bayo@school.ng", "", account.RoleTeacher, true)

	full := testutil.FullContent("Mathematics", "JSS1", "1")
	pending := testutil.CreateNote(t, noteRepo, ada.ID, full, lesson.StatusPending)
	approved := testutil.CreateNote(t, noteRepo, ada.ID, full, lesson.StatusApproved)
	othersDraft := testutil.CreateNote(t, noteRepo, bayo.ID, full, lesson.StatusDraft)

	adaToken := getToken(t, ada)
	view := openSession(t, app, adaToken, "")
	sessionNotFound := marchallObj(t, httpErr{Error: editor.ErrSessionNotFound.Error()})
	notEditable := marchallObj(t, httpErr{Error: lesson.ErrNotEditable.Error()})

	tests := []httpTest{
		{name: "no token", method: http.MethodPost, path: "/api/sessions", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin", method: http.MethodPost, path: "/api/sessions", token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "open pending note", method: http.MethodPost, path: "/api/sessions", token: adaToken,
			body: marchallObj(t, OpenSessionRequest{NoteID: pending.ID}), wantCode: http.StatusConflict, wantData: notEditable,
		},
		{
			name: "open approved note", method: http.MethodPost, path: "/api/sessions", token: adaToken,
			body: marchallObj(t, OpenSessionRequest{NoteID: approved.ID}), wantCode: http.StatusConflict, wantData: notEditable,
		},
		{
			name: "open another teacher's note", method: http.MethodPost, path: "/api/sessions", token: adaToken,
			body:     marchallObj(t, OpenSessionRequest{NoteID: othersDraft.ID}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: lesson.ErrNotFound.Error()}),
		},
		{name: "unknown session", path: "/api/sessions/lol", token: adaToken, wantCode: http.StatusNotFound, wantData: sessionNotFound},
		{
			name: "another teacher's session", path: "/api/sessions/" + view.ID, token: getToken(t, bayo),
			wantCode: http.StatusNotFound, wantData: sessionNotFound,
		},
		{
			name: "close another teacher's session", method: http.MethodDelete, path: "/api/sessions/" + view.ID, token: getToken(t, bayo),
			wantCode: http.StatusNotFound, wantData: sessionNotFound,
		},
		{name: "retrieve", path: "/api/sessions/" + view.ID, token: adaToken, wantData: marchallObj(t, view)},
	}
	runHTTPTests(t, app, tests)
	assert.Equal(t, 1, editorMgr.Count())
}

func Test_sessionApi_edit(t *testing.T) {
	app := setup(t)
	teacher := testutil.CreateAccount(t, accRepo, "Teacher", "teacher@school.ng", "", account.RoleTeacher, true)
	token := getToken(t, teacher)

	view := openSession(t, app, token, "")
	assert.Empty(t, view.NoteID)
	assert.False(t, view.Unsaved)
	path := "/api/sessions/" + view.ID

	do := func(t *testing.T, method, path string, body []byte, wantCode int, v interface{}) {
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, wantCode, rec.Code, rec.Body.String())
		if v != nil {
			unmarshal(t, rec, v)
		}
	}

	// generating needs a topic
	header := lesson.Content{Header: lesson.Header{Subject: " Mathematics ", Class: "JSS1", Week: "3"}}
	do(t, http.MethodPut, path, marchallObj(t, header), http.StatusOK, &view)
	assert.True(t, view.Unsaved)
	assert.Equal(t, "Mathematics", view.Content.Subject)

	req, rec := newAuthRequest(http.MethodPost, path+"/generate", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"topic": "this field is required"}),
	}, rec)

	header.Topic = "Fractions"
	do(t, http.MethodPut, path, marchallObj(t, header), http.StatusOK, &view)
	do(t, http.MethodPost, path+"/generate", nil, http.StatusOK, &view)
	assert.True(t, view.AIGenerated)
	assert.True(t, view.Unsaved)
	assert.Contains(t, view.Content.Objectives, "Fractions")
	assert.NotEmpty(t, view.Content.Development)
	assert.Empty(t, view.NoteID)

	// explicit save creates the note
	do(t, http.MethodPost, path+"/save", nil, http.StatusOK, &view)
	require.NotEmpty(t, view.NoteID)
	assert.Equal(t, lesson.StatusDraft, view.Status)
	assert.False(t, view.Unsaved)
	assert.False(t, view.LastSavedAt.IsZero())
	noteID := view.NoteID

	// saving again updates the same note
	content := view.Content
	content.Term = "Second Term"
	do(t, http.MethodPut, path, marchallObj(t, content), http.StatusOK, &view)
	do(t, http.MethodPost, path+"/save", nil, http.StatusOK, &view)
	assert.Equal(t, noteID, view.NoteID)

	var note lesson.Note
	do(t, http.MethodGet, "/api/lessons/"+noteID, nil, http.StatusOK, &note)
	assert.Equal(t, content, note.Content)
	assert.True(t, note.AIGenerated)
	assert.Equal(t, lesson.StatusDraft, note.Status)

	// a draft save needs the identifying fields
	blank := content
	blank.Subject = ""
	do(t, http.MethodPut, path, marchallObj(t, blank), http.StatusOK, nil)
	req, rec = newAuthRequest(http.MethodPost, path+"/save", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"subject": "this field is required"}),
	}, rec)

	// submit sends the note for review and closes the session
	do(t, http.MethodPut, path, marchallObj(t, content), http.StatusOK, nil)
	do(t, http.MethodPost, path+"/submit", nil, http.StatusOK, &note)
	assert.Equal(t, noteID, note.ID)
	assert.Equal(t, lesson.StatusPending, note.Status)
	assert.True(t, note.AIGenerated)
	do(t, http.MethodGet, path, nil, http.StatusNotFound, nil)
	assert.Equal(t, 0, editorMgr.Count())
}

func Test_sessionApi_rejectedNote(t *testing.T) {
	app := setup(t)
	teacher := testutil.CreateAccount(t, accRepo, "Teacher", "teacher@school.ng", "", account.RoleTeacher, true)
	token := getToken(t, teacher)

	rejected := testutil.CreateNote(t, noteRepo, teacher.ID, testutil.FullContent("English", "JSS2", "4"), lesson.StatusRejected)
	view := openSession(t, app, token, rejected.ID)
	assert.Equal(t, rejected.ID, view.NoteID)
	assert.Equal(t, lesson.StatusRejected, view.Status)
	assert.Equal(t, rejected.Content, view.Content)

	// closing discards unsaved edits
	content := view.Content
	content.Topic = "Comprehension"
	req, rec := newAuthRequest(http.MethodPut, "/api/sessions/"+view.ID, token, marchallObj(t, content))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodDelete, "/api/sessions/"+view.ID, token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/lessons/"+rejected.ID, token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantData: marchallObj(t, rejected)}, rec)
}
