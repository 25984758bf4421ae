package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/editor"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
	"github.com/Abra313/socrease-lesson-note-management/core/review"
	appfs "github.com/Abra313/socrease-lesson-note-management/fs"
	aisvc "github.com/Abra313/socrease-lesson-note-management/services/ai"
	attemptsvc "github.com/Abra313/socrease-lesson-note-management/services/attempts"
	emailsvc "github.com/Abra313/socrease-lesson-note-management/services/email"
	logsvc "github.com/Abra313/socrease-lesson-note-management/services/logger"
	"github.com/Abra313/socrease-lesson-note-management/storage/database/inmem"
	"github.com/Abra313/socrease-lesson-note-management/tests"
)

var (
	conf      *core.Config
	accRepo   account.Repository
	noteRepo  lesson.Repository
	ntfRepo   notification.Repository
	annRepo   announcement.Repository
	mailSvc   *emailsvc.ConsoleServiceMock
	editorMgr *editor.Manager

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) *Server {
	conf = testutil.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	assert.NoError(t, core.ParseEmailTemplates(appfs.FS, conf, logger))

	// set up DB & repos
	db := inmemdb.Open()
	accRepo = inmemdb.NewAccountRepository(db)
	noteRepo = inmemdb.NewLessonRepository(db)
	ntfRepo = inmemdb.NewNotificationRepository(db)
	annRepo = inmemdb.NewAnnouncementRepository(db)

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf)
	accSvc := account.NewService(accRepo, mailSvc, logger)
	lessonSvc := lesson.NewService(noteRepo)
	ntfSvc := notification.NewService(ntfRepo)
	aiSvc := ai.NewService(aisvc.NewMockCompleter(conf))
	editorMgr = editor.NewManager(conf, lessonSvc, aiSvc, logger)
	t.Cleanup(editorMgr.Shutdown)

	// set up server
	return NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		Attempts:        attemptsvc.New(conf),
		AccountSvc:      accSvc,
		LessonSvc:       lessonSvc,
		ReviewSvc:       review.NewService(lessonSvc, ntfSvc, accSvc, mailSvc, logger),
		NotificationSvc: ntfSvc,
		AnnouncementSvc: announcement.NewService(annRepo),
		AISvc:           aiSvc,
		Editor:          editorMgr,
		Mailer:          mailSvc,
		DisableReqLogs:  true,
	})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, acc account.Account) string {
	token, err := GenerateToken(conf, NewClaims(conf, acc))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
