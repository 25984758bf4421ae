package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

// NewConfig returns a test configuration that does not read the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "LNMS",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@lnms.test",
		Server: core.ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Lesson: core.LessonConfig{AutosaveInterval: time.Hour},
		Auth:   core.AuthConfig{MaxLoginAttempts: 3, LoginAttemptWindow: time.Minute},
	}
}

func CreateAccount(
	t *testing.T,
	repo account.Repository,
	name, email, pwd, role string,
	approved bool,
	createdAt ...time.Time,
) account.Account {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Microsecond)
	}
	acc := account.Account{
		Name:      name,
		Email:     email,
		Role:      role,
		Approved:  approved,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

// FullContent returns content that satisfies every submit-required field.
func FullContent(subject, class, week string) lesson.Content {
	return lesson.Content{
		Header: lesson.Header{
			Subject: subject,
			Class:   class,
			Week:    week,
			Term:    "First Term",
			Topic:   "Fractions",
		},
		Objectives:   "Add simple fractions",
		Materials:    "Fraction charts",
		Introduction: "Recap of halves and quarters",
		Development:  "Worked examples",
		Evaluation:   "Class exercise",
		Conclusion:   "Summary",
	}
}

func CreateNote(
	t *testing.T,
	repo lesson.Repository,
	teacherID string,
	content lesson.Content,
	status lesson.Status,
	createdAt ...time.Time,
) lesson.Note {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Microsecond)
	}
	note, err := repo.CreateNote(context.Background(), lesson.Note{
		TeacherID: teacherID,
		Content:   content,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateNote() failed: %v", err)
	}
	return note
}
