package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

const accountColumns = "id, name, email, role, approved, password_hash, created_at, updated_at, last_login"

var accountOrderColumns = map[string]bool{
	"name": true, "email": true, "role": true, "approved": true, "created_at": true, "last_login": true,
}

type accountRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	Approved     bool      `db:"approved"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

type accountRepository struct {
	exec core.DBExecutor
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{exec: db}
}

func (repo accountRepository) toRow(acc account.Account) accountRow {
	return accountRow{
		ID:           acc.ID,
		Name:         acc.Name,
		Email:        acc.Email,
		Role:         acc.Role,
		Approved:     acc.Approved,
		PasswordHash: acc.PasswordHash,
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
		LastLogin:    nullTime(acc.LastLogin),
	}
}

func (repo accountRepository) fromRow(row accountRow) account.Account {
	return account.Account{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		Approved:     row.Approved,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    timePtr(row.LastLogin),
	}
}

func (repo accountRepository) filter(filter *account.QueryFilter) *where {
	w := new(where)
	if filter == nil {
		return w
	}
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	switch filter.Status {
	case account.StatusApproved:
		w.add("approved = ?", true)
	case account.StatusPending:
		w.add("approved = ?", false)
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR email ILIKE ?)", val, val)
	}
	return w
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	exe := getExec(repo.exec, exec)
	acc.ID = uuid.New().String()

	q := `INSERT INTO users (` + accountColumns + `)
		VALUES (:id, :name, :email, :role, :approved, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, exe, q, repo.toRow(acc)); err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acc, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	exe := getExec(repo.exec, exec)

	var q string
	var arg interface{}
	switch {
	case filter.ID != "":
		if !validUUID(filter.ID) {
			return account.Account{}, account.ErrNotFound
		}
		q, arg = `SELECT `+accountColumns+` FROM users WHERE id = $1`, filter.ID
	case filter.Email != "":
		q, arg = `SELECT `+accountColumns+` FROM users WHERE email = $1`, filter.Email
	default:
		return account.Account{}, account.ErrNotFound
	}

	var row accountRow
	if err := sqlx.GetContext(ctx, exe, &row, q, arg); err != nil {
		return account.Account{}, trapNoRowsErr(err, account.ErrNotFound, "finding account")
	}
	return repo.fromRow(row), nil
}

func (repo accountRepository) QueryAccounts(
	ctx context.Context,
	filter *account.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]account.Account, error) {
	exe := getExec(repo.exec, exec)
	w := repo.filter(filter)

	order := orderBy(ordering, accountOrderColumns)
	if order == "" {
		order = " ORDER BY created_at ASC"
	}
	q := exe.Rebind(`SELECT ` + accountColumns + ` FROM users` + w.String() + order)

	var rows []accountRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	accs := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, repo.fromRow(row))
	}
	return accs, nil
}

func (repo accountRepository) CountAccounts(ctx context.Context, filter *account.QueryFilter, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)
	w := repo.filter(filter)

	var cnt int
	if err := sqlx.GetContext(ctx, exe, &cnt, exe.Rebind(`SELECT COUNT(*) FROM users`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting accounts")
	}
	return cnt, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	exe := getExec(repo.exec, exec)
	if !validUUID(acc.ID) {
		return account.Account{}, account.ErrNotFound
	}

	q := `UPDATE users SET name = :name, email = :email, role = :role, approved = :approved,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, exe, q, repo.toRow(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func (repo accountRepository) DeleteAccount(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	if !validUUID(id) {
		return account.ErrNotFound
	}

	res, err := exe.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.ErrNotFound
	}
	return nil
}
