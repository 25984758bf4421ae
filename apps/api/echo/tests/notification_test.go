package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
	"github.com/Abra313/socrease-lesson-note-management/tests"
)

func createNotification(t *testing.T, userID string, typ notification.Type, read bool, createdAt time.Time) notification.Notification {
	msg := notification.ApprovalMessage
	if typ == notification.TypeRejection {
		msg = notification.RejectionMessage
	}
	n, err := ntfRepo.CreateNotification(context.Background(), notification.Notification{
		UserID:    userID,
		Message:   msg,
		Type:      typ,
		LessonID:  "lesson-" + userID,
		Read:      read,
		CreatedAt: createdAt.UTC(),
	})
	require.NoError(t, err)
	return n
}

func Test_notificationApi(t *testing.T) {
	app := setup(t)
	ada := testutil.CreateAccount(t, accRepo, "Ada", "ada@school.ng", "", account.RoleTeacher, true)
	bayo := testutil.CreateAccount(t, accRepo, "Bayo", "bayo@school.ng", "", account.RoleTeacher, true)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)

	now := time.Now()
	n1 := createNotification(t, ada.ID, notification.TypeApproval, true, now.Add(1*time.Minute))
	n2 := createNotification(t, ada.ID, notification.TypeRejection, false, now.Add(2*time.Minute))
	n3 := createNotification(t, ada.ID, notification.TypeApproval, false, now.Add(3*time.Minute))
	other := createNotification(t, bayo.ID, notification.TypeApproval, false, now)

	adaToken := getToken(t, ada)
	notFound := marchallObj(t, httpErr{Error: notification.ErrNotFound.Error()})

	t.Run("query", func(t *testing.T) {
		tests := []httpTest{
			{name: "admin", path: "/api/notifications", token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			{name: "all, newest first", path: "/api/notifications", token: adaToken, wantData: marchallList(t, n3, n2, n1)},
			{name: "unread", path: "/api/notifications?unread=true", token: adaToken, wantData: marchallList(t, n3, n2)},
			{name: "unread count", path: "/api/notifications/unread-count", token: adaToken, wantData: marchallObj(t, CountResponse{Count: 2})},
			{name: "other teacher", path: "/api/notifications", token: getToken(t, bayo), wantData: marchallList(t, other)},
		}
		runHTTPTests(t, app, tests)
	})

	t.Run("mark read", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "another user's notification", method: http.MethodPost, path: "/api/notifications/" + other.ID + "/read",
				token: adaToken, wantCode: http.StatusNotFound, wantData: notFound,
			},
			{
				name: "unknown notification", method: http.MethodPost, path: "/api/notifications/lol/read",
				token: adaToken, wantCode: http.StatusNotFound, wantData: notFound,
			},
			{name: "mark one", method: http.MethodPost, path: "/api/notifications/" + n2.ID + "/read", token: adaToken, wantCode: http.StatusNoContent},
			{name: "again", method: http.MethodPost, path: "/api/notifications/" + n2.ID + "/read", token: adaToken, wantCode: http.StatusNoContent},
			{name: "unread count", path: "/api/notifications/unread-count", token: adaToken, wantData: marchallObj(t, CountResponse{Count: 1})},
			{name: "mark all", method: http.MethodPost, path: "/api/notifications/read-all", token: adaToken, wantData: marchallObj(t, CountResponse{Count: 1})},
			{name: "mark all (none left)", method: http.MethodPost, path: "/api/notifications/read-all", token: adaToken, wantData: marchallObj(t, CountResponse{Count: 0})},
			{name: "no unread", path: "/api/notifications?unread=true", token: adaToken, wantData: marchallList(t)},
		}
		runHTTPTests(t, app, tests)

		// other users are unaffected
		cnt, err := ntfRepo.CountUnread(context.Background(), bayo.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
	})
}

func Test_announcementApi(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAccount(t, accRepo, "Admin", "admin@school.ng", "", account.RoleAdmin, true)
	teacher := testutil.CreateAccount(t, accRepo, "Teacher", "teacher@school.ng", "", account.RoleTeacher, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	now := time.Now()
	var anns []announcement.Announcement
	for i := 0; i < 4; i++ {
		a, err := annRepo.CreateAnnouncement(context.Background(), announcement.Announcement{
			Title:     "Title",
			Message:   "Message",
			AuthorID:  admin.ID,
			CreatedAt: now.Add(time.Duration(i-4) * time.Minute).UTC(),
		})
		require.NoError(t, err)
		anns = append(anns, a)
	}

	tests := []httpTest{
		{name: "no token", path: "/api/announcements", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teacher, default limit", path: "/api/announcements", token: teacherToken, wantData: marchallList(t, anns[3], anns[2], anns[1])},
		{name: "admin, limit", path: "/api/announcements?limit=10", token: adminToken, wantData: marchallList(t, anns[3], anns[2], anns[1], anns[0])},
		{
			name: "teacher cannot post", method: http.MethodPost, path: "/api/announcements", token: teacherToken,
			body: marchallObj(t, announcement.NewAnnouncement{Title: "Hi", Message: "There"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "blank fields", method: http.MethodPost, path: "/api/announcements", token: adminToken,
			body: marchallObj(t, announcement.NewAnnouncement{Title: "  ", Message: ""}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "message": "this field is required"}),
		},
	}
	runHTTPTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/api/announcements", adminToken,
		marchallObj(t, announcement.NewAnnouncement{Title: " Staff meeting ", Message: "Friday at 2pm"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got announcement.Announcement
	unmarshal(t, rec, &got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Staff meeting", got.Title)
	assert.Equal(t, admin.ID, got.AuthorID)

	latest, err := annRepo.LatestAnnouncements(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, got.ID, latest[0].ID)
}
