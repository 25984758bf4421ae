package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

// RollbarLogger reports to Rollbar and mirrors every entry on a standard logger.
//
// Besides errors and extra-data maps, log args may carry the account the entry
// relates to (reported as the Rollbar person) and the lesson note involved
// (reported as extra data).
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

type entry struct {
	args   []interface{} // forwarded to rollbar
	acc    *account.Account
	note   *lesson.Note
	extras map[string]interface{}
}

func (l RollbarLogger) collect(msg string, args []interface{}) entry {
	e := entry{args: []interface{}{msg}}
	for _, arg := range args {
		switch a := arg.(type) {
		case account.Account:
			if e.acc == nil {
				e.acc = &a
			}
		case *account.Account:
			if e.acc == nil && a != nil {
				e.acc = a
			}
		case lesson.Note:
			if e.note == nil {
				e.note = &a
			}
		case *lesson.Note:
			if e.note == nil && a != nil {
				e.note = a
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(a)+2)
			}
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.args = append(e.args, arg)
		}
	}
	if e.note != nil {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 2)
		}
		e.extras["note_id"] = e.note.ID
		e.extras["note_status"] = string(e.note.Status)
	}
	if e.extras != nil {
		e.args = append(e.args, e.extras)
	}
	return e
}

func (l RollbarLogger) report(level, msg string, args []interface{}) {
	e := l.collect(msg, args)
	if e.acc != nil {
		rollbar.SetPerson(e.acc.ID, e.acc.Name, e.acc.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.args...)

	l.std.Printf("[%s] %s", level, msg)
	if e.acc != nil {
		l.std.Printf("  account: %s <%s> (%s)", e.acc.ID, e.acc.Email, e.acc.Role)
	}
	for _, arg := range e.args[1:] {
		l.std.Printf("  %s", describe(arg))
	}
}

func describe(arg interface{}) string {
	if err, ok := arg.(error); ok {
		return fmt.Sprintf("error: %+v", err)
	}
	return fmt.Sprintf("%+v", arg)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
