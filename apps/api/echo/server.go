package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/editor"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
	"github.com/Abra313/socrease-lesson-note-management/core/review"
)

type (
	ServerDeps struct {
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
		DisableReqLogs  bool
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		tokens   *tokenIssuer
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		tokens:     newTokenIssuer(deps.Conf),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)
	s.app.Debug = s.Conf.Debug && !s.Conf.TestMode

	s.app.GET("/", home)

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.tokens.jwtConfig)
	teacherOnly := requireRole(s.AccountSvc, account.RoleTeacher)
	adminOnly := requireRole(s.AccountSvc, account.RoleAdmin)
	anyRole := requireRole(s.AccountSvc, account.RoleTeacher, account.RoleAdmin)

	registerAuthAPI(g, jwt, s)
	registerTeacherAPI(g, jwt, adminOnly, s)
	registerLessonAPI(g, jwt, teacherOnly, s)
	registerSessionAPI(g, jwt, teacherOnly, s)
	registerReviewAPI(g, jwt, adminOnly, s)
	registerNotificationAPI(g, jwt, teacherOnly, s)
	registerAnnouncementAPI(g, jwt, anyRole, adminOnly, s)
	registerAIAPI(g, jwt, teacherOnly, adminOnly, s)
	registerDashboardAPI(g, jwt, teacherOnly, adminOnly, s)
}

func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors delivers fatal errors raised while serving.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal delivers OS interrupts and internally requested shutdowns.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

// Shutdown closes every editing session, stops the listener gracefully
// then waits for the emails still being sent.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Editor != nil {
		s.Editor.Shutdown()
	}
	signal.Stop(s.shutdown)
	if err := s.app.Shutdown(ctx); err != nil {
		return err
	}
	if s.Mailer != nil {
		return s.Mailer.Flush(ctx)
	}
	return nil
}

func (s *Server) Close() error {
	if s.Editor != nil {
		s.Editor.Shutdown()
	}
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Lesson Note Management API!")
}
