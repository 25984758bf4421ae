package review

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

// Service lets admins approve or reject pending lesson notes.
//
// A decision is two writes that are not transactional: the note's status change, then the
// teacher's notification. If the second fails the status change stays and the error is returned.
// The teacher is then emailed, best effort.
type Service struct {
	lessons       *lesson.Service
	notifications *notification.Service
	accounts      *account.Service
	mailSvc       core.EmailService
	logger        core.Logger
}

func NewService(
	lessons *lesson.Service,
	notifications *notification.Service,
	accounts *account.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		lessons:       lessons,
		notifications: notifications,
		accounts:      accounts,
		mailSvc:       mailSvc,
		logger:        logger,
	}
}

// Approve approves a pending note. An empty feedback is stored as lesson.DefaultApprovalFeedback.
func (svc *Service) Approve(ctx context.Context, reviewer account.Account, noteID, feedback string) (lesson.Note, error) {
	return svc.decide(ctx, reviewer, noteID, lesson.EventApprove, feedback)
}

// Reject rejects a pending note. feedback is required.
func (svc *Service) Reject(ctx context.Context, reviewer account.Account, noteID, feedback string) (lesson.Note, error) {
	return svc.decide(ctx, reviewer, noteID, lesson.EventReject, feedback)
}

func (svc *Service) decide(ctx context.Context, reviewer account.Account, noteID string, ev lesson.Event, feedback string) (lesson.Note, error) {
	note, err := svc.lessons.Review(ctx, reviewer.ID, noteID, ev, feedback)
	if err != nil {
		return lesson.Note{}, err
	}
	core.ReviewDecisions.WithLabelValues(string(note.Status)).Inc()

	typ := notification.TypeApproval
	if note.Status == lesson.StatusRejected {
		typ = notification.TypeRejection
	}
	ntf, err := svc.notifications.Notify(ctx, note.TeacherID, note.ID, typ)
	if err != nil {
		return note, errors.Wrap(err, "creating review notification")
	}

	svc.sendReviewMail(ctx, note, ntf.Message)
	return note, nil
}

func (svc *Service) sendReviewMail(ctx context.Context, note lesson.Note, msg string) {
	if svc.mailSvc == nil {
		return
	}
	teacher, err := svc.accounts.GetByID(ctx, note.TeacherID)
	if err != nil {
		if errors.Cause(err) != account.ErrNotFound {
			svc.logger.Warn(fmt.Sprintf("review email: finding teacher %s: %v", note.TeacherID, err), err)
		}
		return
	}

	svc.mailSvc.SendMessages(core.NewTemplatedEmail(
		teacher.Name, teacher.Email,
		fmt.Sprintf("%s %s: lesson %s", note.Subject, note.Class, note.Status),
		"lesson_reviewed",
		mailData{
			Name:     teacher.Name,
			Message:  msg,
			Subject:  note.Subject,
			Class:    note.Class,
			Week:     note.Week,
			Topic:    note.Topic,
			Status:   string(note.Status),
			Feedback: note.Feedback,
			LessonID: note.ID,
		},
	))
}

type mailData struct {
	Name     string
	Message  string
	Subject  string
	Class    string
	Week     string
	Topic    string
	Status   string
	Feedback string
	LessonID string
}
