package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query(filter *account.QueryFilter) []account.Account {
	accs := make([]account.Account, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		if filter.Match(*a) {
			accs = append(accs, *a)
		}
	}
	return accs
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.table {
		if a.Email == acc.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}
	acc.ID = uuid.New().String()
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, filter account.GetFilter, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if acc, ok := repo.db.table[filter.ID]; ok {
			return *acc, nil
		}
		return account.Account{}, account.ErrNotFound
	}
	if filter.Email != "" {
		for _, acc := range repo.db.table {
			if acc.Email == filter.Email {
				return *acc, nil
			}
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) QueryAccounts(
	_ context.Context,
	filter *account.QueryFilter,
	ordering []core.DBOrdering,
	_ ...core.DBExecutor,
) ([]account.Account, error) {
	repo.db.RLock()
	accs := repo.query(filter)
	repo.db.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sort.SliceStable(accs, func(i, j int) bool {
		return core.OrderedBefore(ordering, func(field string) int { return compareAccounts(accs[i], accs[j], field) })
	})
	return accs, nil
}

func compareAccounts(a, b account.Account, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(a.Role, b.Role)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "last_login":
		return compareOptionalTimes(a.LastLogin, b.LastLogin)
	}
	return 0
}

func (repo *accountRepository) CountAccounts(_ context.Context, filter *account.QueryFilter, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[acc.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	for _, a := range repo.db.table {
		if a.ID != acc.ID && a.Email == acc.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}
	acc.CreatedAt = orig.CreatedAt
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) DeleteAccount(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return account.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
