package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/editor"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
	"github.com/Abra313/socrease-lesson-note-management/core/review"
	aisvc "github.com/Abra313/socrease-lesson-note-management/services/ai"
	attemptsvc "github.com/Abra313/socrease-lesson-note-management/services/attempts"
	emailsvc "github.com/Abra313/socrease-lesson-note-management/services/email"
	logsvc "github.com/Abra313/socrease-lesson-note-management/services/logger"
	"github.com/Abra313/socrease-lesson-note-management/storage/database"
	"github.com/Abra313/socrease-lesson-note-management/storage/database/inmem"
	"github.com/Abra313/socrease-lesson-note-management/storage/database/postgres"
)

const enginePostgres = "postgres"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type repositories struct {
	dig.Out
	Accounts      account.Repository
	Lessons       lesson.Repository
	Notifications notification.Repository
	Announcements announcement.Repository
}

type serverParams struct {
	dig.In
	Conf            *core.Config
	Logger          core.Logger
	Validate        *validator.Validate
	Translator      ut.Translator
	Attempts        core.AttemptLimiter
	AccountSvc      *account.Service
	LessonSvc       *lesson.Service
	ReviewSvc       *review.Service
	NotificationSvc *notification.Service
	AnnouncementSvc *announcement.Service
	AISvc           *ai.Service
	Editor          *editor.Manager
	Mailer          core.EmailService
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB returns nil when the app is not configured to use Postgres.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine != enginePostgres {
		loggerParam.Logger.Warn(fmt.Sprintf("database engine %q: data is kept in memory", conf.Database.Engine))
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sqlx.DB) repositories {
	if db == nil {
		mem := inmemdb.Open()
		return repositories{
			Accounts:      inmemdb.NewAccountRepository(mem),
			Lessons:       inmemdb.NewLessonRepository(mem),
			Notifications: inmemdb.NewNotificationRepository(mem),
			Announcements: inmemdb.NewAnnouncementRepository(mem),
		}
	}
	return repositories{
		Accounts:      pgrepos.NewAccountRepository(db),
		Lessons:       pgrepos.NewLessonRepository(db),
		Notifications: pgrepos.NewNotificationRepository(db),
		Announcements: pgrepos.NewAnnouncementRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		Attempts:        p.Attempts,
		AccountSvc:      p.AccountSvc,
		LessonSvc:       p.LessonSvc,
		ReviewSvc:       p.ReviewSvc,
		NotificationSvc: p.NotificationSvc,
		AnnouncementSvc: p.AnnouncementSvc,
		AISvc:           p.AISvc,
		Editor:          p.Editor,
		Mailer:          p.Mailer,
	})
}

func newCompleter(conf *core.Config) ai.Completer {
	return aisvc.NewMockCompleter(conf)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(attemptsvc.New))
	must(c.Provide(newCompleter))
	must(c.Provide(ai.NewService))
	must(c.Provide(account.NewService))
	must(c.Provide(lesson.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(review.NewService))
	must(c.Provide(editor.NewManager))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
