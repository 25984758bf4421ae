package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Approval filter values
const (
	StatusAll      = "all"
	StatusApproved = "approved"
	StatusPending  = "pending"
)

type Account struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Approved     bool       `json:"approved"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`           // UTC
	UpdatedAt    time.Time  `json:"updated_at"`           // UTC
	LastLogin    *time.Time `json:"last_login,omitempty"` // UTC, nil until the first login
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a *Account) IsTeacher() bool { return a.Role == RoleTeacher }

// CanLogin reports whether the account may sign in. Admins are implicitly approved.
func (a *Account) CanLogin() bool {
	return a.IsAdmin() || a.Approved
}

// NewAccount contains information needed to register a new teacher Account.
type NewAccount struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
	Status string `query:"status"` // all | approved | pending
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	if qf.Role == StatusAll {
		qf.Role = ""
	}
	if qf.Status == StatusAll {
		qf.Status = ""
	}
}

// Match reports whether acc satisfies every set field of the filter.
// Search is a case-insensitive match on the name or email.
func (qf *QueryFilter) Match(acc Account) bool {
	if qf == nil {
		return true
	}
	if qf.Role != "" && acc.Role != qf.Role {
		return false
	}
	switch qf.Status {
	case StatusApproved:
		if !acc.Approved {
			return false
		}
	case StatusPending:
		if acc.Approved {
			return false
		}
	}
	if qf.Search != "" {
		return core.ContainsFold(acc.Name, qf.Search) || core.ContainsFold(acc.Email, qf.Search)
	}
	return true
}

// GetFilter selects a single Account by ID or email.
type GetFilter struct {
	ID    string
	Email string
}
