package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

var (
	// errors
	ErrNotFound    = errors.New("account not found")
	ErrEmailExists = errors.New("an account with this email already exists")
	ErrSelfAction  = errors.New("you cannot perform this action on your own account")
	ErrNotTeacher  = errors.New("only teacher accounts can be approved, suspended or rejected")
)

type Repository interface {
	// CreateAccount inserts acc with a fresh ID. It returns ErrEmailExists when the email is taken.
	CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
	GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
	// QueryAccounts applies AND operation on available QueryFilter fields.
	QueryAccounts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Account, error)
	CountAccounts(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
	UpdateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
	DeleteAccount(ctx context.Context, id string, exec ...core.DBExecutor) error
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService
	logger  core.Logger
}

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger}
}

// Register creates an unapproved teacher account. It must be approved by an admin before it can log in.
func (svc *Service) Register(ctx context.Context, na NewAccount) (Account, error) {
	if _, err := svc.repo.GetAccount(ctx, GetFilter{Email: na.Email}); err == nil {
		return Account{}, emailExistsErr()
	} else if err != ErrNotFound {
		return Account{}, err
	}

	now := core.Now()
	acc := Account{
		Name:      na.Name,
		Email:     na.Email,
		Role:      RoleTeacher,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err == ErrEmailExists {
		return Account{}, emailExistsErr()
	}
	return acc, err
}

func emailExistsErr() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx, filter, ordering)
}

func (svc *Service) CountTeachers(ctx context.Context) (int, error) {
	return svc.repo.CountAccounts(ctx, &QueryFilter{Role: RoleTeacher})
}

// TeacherNames maps every teacher ID to its display name.
func (svc *Service) TeacherNames(ctx context.Context) (map[string]string, error) {
	teachers, err := svc.repo.QueryAccounts(ctx, &QueryFilter{Role: RoleTeacher}, nil)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, acc Account) (Account, error) {
	now := core.Now()
	acc.LastLogin = &now
	return svc.repo.UpdateAccount(ctx, acc)
}

// target loads the teacher account an admin acts upon.
func (svc *Service) target(ctx context.Context, actor Account, id string) (Account, error) {
	if actor.ID == id {
		return Account{}, ErrSelfAction
	}
	acc, err := svc.repo.GetAccount(ctx, GetFilter{ID: id})
	if err != nil {
		return Account{}, err
	}
	if !acc.IsTeacher() {
		return Account{}, ErrNotTeacher
	}
	return acc, nil
}

// Approve lets a teacher log in. Approving an approved account is a no-op.
func (svc *Service) Approve(ctx context.Context, actor Account, id string) (Account, error) {
	acc, err := svc.target(ctx, actor, id)
	if err != nil {
		return Account{}, err
	}
	if acc.Approved {
		return acc, nil
	}
	acc.Approved = true
	acc.UpdatedAt = core.Now()
	if acc, err = svc.repo.UpdateAccount(ctx, acc); err != nil {
		return Account{}, err
	}
	svc.sendApprovalMail(acc)
	return acc, nil
}

// Suspend revokes a teacher's ability to log in. Suspending a suspended account is a no-op.
func (svc *Service) Suspend(ctx context.Context, actor Account, id string) (Account, error) {
	acc, err := svc.target(ctx, actor, id)
	if err != nil {
		return Account{}, err
	}
	if !acc.Approved {
		return acc, nil
	}
	acc.Approved = false
	acc.UpdatedAt = core.Now()
	return svc.repo.UpdateAccount(ctx, acc)
}

// Reject deletes a teacher account. Lesson notes owned by the teacher are left untouched.
func (svc *Service) Reject(ctx context.Context, actor Account, id string) error {
	acc, err := svc.target(ctx, actor, id)
	if err != nil {
		return err
	}
	return svc.repo.DeleteAccount(ctx, acc.ID)
}

func (svc *Service) sendApprovalMail(acc Account) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(core.NewTemplatedEmail(
		acc.Name, acc.Email, "Your account has been approved",
		"account_approved", struct{ Name string }{Name: acc.Name},
	))
	if svc.logger != nil {
		svc.logger.Debug(fmt.Sprintf("approval email queued for %s", acc.Email))
	}
}
