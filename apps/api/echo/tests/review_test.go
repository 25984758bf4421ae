package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
	"github.com/Abra313/socrease-lesson-note-management/tests"
)

func Test_reviewApi_query(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)
	ada := testutil.CreateAccount(t, accRepo, "Ada", "ada@school.ng", "", account.RoleTeacher, true)
	bayo := testutil.CreateAccount(t, accRepo, "Bayo", "bayo@school.ng", "", account.RoleTeacher, true)

	now := time.Now()
	n1 := testutil.CreateNote(t, noteRepo, ada.ID, testutil.FullContent("Mathematics", "JSS1", "1"), lesson.StatusPending, now.Add(1*time.Hour))
	n2 := testutil.CreateNote(t, noteRepo, bayo.ID, testutil.FullContent("English", "JSS1", "2"), lesson.StatusApproved, now.Add(2*time.Hour))
	n3 := testutil.CreateNote(t, noteRepo, ada.ID, testutil.FullContent("English", "JSS2", "3"), lesson.StatusPending, now.Add(3*time.Hour))
	orphan := testutil.CreateNote(t, noteRepo, "deleted-teacher", testutil.FullContent("Science", "SS1", "1"), lesson.StatusRejected, now.Add(4*time.Hour))

	rn := func(n lesson.Note, name string) ReviewNote { return ReviewNote{Note: n, TeacherName: name} }
	path := func(status, subject, class, teacher string) string {
		v := make(url.Values)
		v.Add("status", status)
		v.Add("subject", subject)
		v.Add("class", class)
		v.Add("teacher", teacher)
		return "/api/reviews?" + v.Encode()
	}
	token := getToken(t, admin)

	tests := []httpTest{
		{
			name: "all notes", path: "/api/reviews",
			wantData: marchallList(t, rn(orphan, "Unknown"), rn(n3, "Ada"), rn(n2, "Bayo"), rn(n1, "Ada")),
		},
		{
			name: "all sentinels", path: path("all", "all", "all", "all"),
			wantData: marchallList(t, rn(orphan, "Unknown"), rn(n3, "Ada"), rn(n2, "Bayo"), rn(n1, "Ada")),
		},
		{name: "pending", path: path("pending", "all", "all", "all"), wantData: marchallList(t, rn(n3, "Ada"), rn(n1, "Ada"))},
		{name: "subject", path: path("all", "English", "all", "all"), wantData: marchallList(t, rn(n3, "Ada"), rn(n2, "Bayo"))},
		{name: "class", path: path("all", "all", "JSS1", "all"), wantData: marchallList(t, rn(n2, "Bayo"), rn(n1, "Ada"))},
		{name: "teacher", path: path("all", "all", "all", bayo.ID), wantData: marchallList(t, rn(n2, "Bayo"))},
		{name: "combined", path: path("pending", "English", "JSS2", ada.ID), wantData: marchallList(t, rn(n3, "Ada"))},
		{name: "combined (empty)", path: path("approved", "English", "JSS2", "all"), wantData: marchallList(t)},
		{name: "retrieve", path: "/api/reviews/" + n2.ID, wantData: marchallObj(t, rn(n2, "Bayo"))},
		{
			name: "filters", path: "/api/reviews/filters",
			wantData: marchallObj(t, map[string]interface{}{
				"subjects": []string{"English", "Mathematics", "Science"},
				"classes":  []string{"JSS1", "JSS2", "SS1"},
				"teachers": map[string]string{ada.ID: "Ada", bayo.ID: "Bayo"},
			}),
		},
	}
	for i := range tests {
		tests[i].token = token
	}
	runHTTPTests(t, app, tests)
}

func Test_reviewApi_decide(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)
	teacher := testutil.CreateAccount(t, accRepo, "Teacher", "teacher@school.ng", "", account.RoleTeacher, true)
	token := getToken(t, admin)

	full := testutil.FullContent("Mathematics", "JSS1", "1")
	draft := testutil.CreateNote(t, noteRepo, teacher.ID, full, lesson.StatusDraft)
	approved := testutil.CreateNote(t, noteRepo, teacher.ID, full, lesson.StatusApproved)
	invalidTransition := marchallObj(t, httpErr{Error: lesson.ErrInvalidTransition.Error()})

	tests := []httpTest{
		{name: "approve draft", path: "/api/reviews/" + draft.ID + "/approve", body: []byte("{}"), wantCode: http.StatusConflict, wantData: invalidTransition},
		{name: "approve approved", path: "/api/reviews/" + approved.ID + "/approve", body: []byte("{}"), wantCode: http.StatusConflict, wantData: invalidTransition},
		{
			name: "reject without feedback", path: "/api/reviews/" + draft.ID + "/reject", body: []byte(`{"feedback":"   "}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"feedback": lesson.ErrFeedbackRequired.Error()}),
		},
		{
			name: "unknown note", path: "/api/reviews/lol/approve", body: []byte("{}"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: lesson.ErrNotFound.Error()}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].token = token
	}
	runHTTPTests(t, app, tests)

	// nothing was written
	ntfs, err := ntfRepo.QueryNotifications(context.Background(), teacher.ID, false)
	require.NoError(t, err)
	assert.Empty(t, ntfs)
	stored, err := noteRepo.GetNote(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.StatusDraft, stored.Status)

	decisions := []struct {
		name         string
		action       string
		feedback     string
		wantStatus   lesson.Status
		wantFeedback string
		wantType     notification.Type
		wantMessage  string
	}{
		{
			name: "approve with default feedback", action: "approve",
			wantStatus: lesson.StatusApproved, wantFeedback: lesson.DefaultApprovalFeedback,
			wantType: notification.TypeApproval, wantMessage: notification.ApprovalMessage,
		},
		{
			name: "approve with feedback", action: "approve", feedback: "Great work",
			wantStatus: lesson.StatusApproved, wantFeedback: "Great work",
			wantType: notification.TypeApproval, wantMessage: notification.ApprovalMessage,
		},
		{
			name: "reject", action: "reject", feedback: " Add more examples ",
			wantStatus: lesson.StatusRejected, wantFeedback: "Add more examples",
			wantType: notification.TypeRejection, wantMessage: notification.RejectionMessage,
		},
	}
	for _, tt := range decisions {
		t.Run(tt.name, func(t *testing.T) {
			mailSvc.Clear()
			pending := testutil.CreateNote(t, noteRepo, teacher.ID, full, lesson.StatusPending)

			req, rec := newAuthRequest(
				http.MethodPost, "/api/reviews/"+pending.ID+"/"+tt.action, token,
				marchallObj(t, ReviewRequest{Feedback: tt.feedback}),
			)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var note lesson.Note
			unmarshal(t, rec, &note)
			assert.Equal(t, tt.wantStatus, note.Status)
			assert.Equal(t, tt.wantFeedback, note.Feedback)
			assert.Equal(t, admin.ID, note.ReviewedBy)
			assert.NotNil(t, note.ReviewedAt)
			assert.Equal(t, teacher.ID, note.TeacherID)

			// exactly one notification for the note
			ntfs, err := ntfRepo.QueryNotifications(context.Background(), teacher.ID, false)
			require.NoError(t, err)
			var found []notification.Notification
			for _, n := range ntfs {
				if n.LessonID == pending.ID {
					found = append(found, n)
				}
			}
			require.Len(t, found, 1)
			assert.Equal(t, tt.wantType, found[0].Type)
			assert.Equal(t, tt.wantMessage, found[0].Message)
			assert.False(t, found[0].Read)

			// the teacher is emailed
			sent := mailSvc.SentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, teacher.Email, sent[0].To[0].Address)
			assert.Contains(t, sent[0].TextContent, tt.wantMessage)
			assert.Contains(t, sent[0].TextContent, tt.wantFeedback)

			// a decided note cannot be decided again
			req, rec = newAuthRequest(http.MethodPost, "/api/reviews/"+pending.ID+"/approve", token, []byte("{}"))
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusConflict, rec.Code)
		})
	}
}

func Test_teacherApi(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)
	other := testutil.CreateAccount(t, accRepo, "Other Admin", "other@school.ng", "", account.RoleAdmin, true)

	now := time.Now()
	ada := testutil.CreateAccount(t, accRepo, "Ada Obi", "ada@school.ng", "", account.RoleTeacher, true, now.Add(1*time.Hour))
	bayo := testutil.CreateAccount(t, accRepo, "Bayo", "bayo@school.ng", "", account.RoleTeacher, false, now.Add(2*time.Hour))
	chidi := testutil.CreateAccount(t, accRepo, "Chidi", "chidi@academy.ng", "", account.RoleTeacher, false, now.Add(3*time.Hour))
	token := getToken(t, admin)

	t.Run("query", func(t *testing.T) {
		tests := []httpTest{
			{name: "all teachers", path: "/api/teachers", wantData: marchallList(t, ada, bayo, chidi)},
			{name: "status=all", path: "/api/teachers?status=all", wantData: marchallList(t, ada, bayo, chidi)},
			{name: "status=pending", path: "/api/teachers?status=pending", wantData: marchallList(t, bayo, chidi)},
			{name: "status=approved", path: "/api/teachers?status=approved", wantData: marchallList(t, ada)},
			{name: "search by name", path: "/api/teachers?search=OBI", wantData: marchallList(t, ada)},
			{name: "search by email", path: "/api/teachers?search=academy", wantData: marchallList(t, chidi)},
			{name: "ordering", path: "/api/teachers?ordering=-created_at", wantData: marchallList(t, chidi, bayo, ada)},
		}
		for i := range tests {
			tests[i].token = token
		}
		runHTTPTests(t, app, tests)
	})

	t.Run("actions", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "approve self", method: http.MethodPost, path: "/api/teachers/" + admin.ID + "/approve",
				wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: account.ErrSelfAction.Error()}),
			},
			{
				name: "suspend an admin", method: http.MethodPost, path: "/api/teachers/" + other.ID + "/suspend",
				wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: account.ErrNotTeacher.Error()}),
			},
			{
				name: "reject self", method: http.MethodDelete, path: "/api/teachers/" + admin.ID,
				wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: account.ErrSelfAction.Error()}),
			},
			{
				name: "unknown teacher", method: http.MethodPost, path: "/api/teachers/lol/approve",
				wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: account.ErrNotFound.Error()}),
			},
		}
		for i := range tests {
			tests[i].token = token
		}
		runHTTPTests(t, app, tests)
	})

	t.Run("approve, suspend, reject", func(t *testing.T) {
		mailSvc.Clear()

		req, rec := newAuthRequest(http.MethodPost, "/api/teachers/"+bayo.ID+"/approve", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got account.Account
		unmarshal(t, rec, &got)
		assert.True(t, got.Approved)
		require.Len(t, mailSvc.SentMessages(), 1)
		assert.Equal(t, bayo.Email, mailSvc.SentMessages()[0].To[0].Address)

		// approving twice is a no-op
		req, rec = newAuthRequest(http.MethodPost, "/api/teachers/"+bayo.ID+"/approve", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, mailSvc.SentMessages(), 1)

		req, rec = newAuthRequest(http.MethodPost, "/api/teachers/"+bayo.ID+"/suspend", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &got)
		assert.False(t, got.Approved)

		note := testutil.CreateNote(t, noteRepo, chidi.ID, testutil.FullContent("Mathematics", "JSS1", "1"), lesson.StatusPending)
		req, rec = newAuthRequest(http.MethodDelete, "/api/teachers/"+chidi.ID, token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := accRepo.GetAccount(context.Background(), account.GetFilter{ID: chidi.ID})
		assert.Equal(t, account.ErrNotFound, err)

		// the rejected teacher's notes stay, attributed to "Unknown"
		req, rec = newAuthRequest(http.MethodGet, "/api/reviews/"+note.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantData: marchallObj(t, ReviewNote{Note: note, TeacherName: "Unknown"})}, rec)

		// and the rejected teacher's token no longer works
		req, rec = newAuthRequest(http.MethodGet, "/api/lessons", getToken(t, chidi))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
