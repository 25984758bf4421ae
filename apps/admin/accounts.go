package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

func (cli *commandLine) findAccount(ctx context.Context, email string) (account.Account, error) {
	return cli.accRepo.GetAccount(ctx, account.GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// addUser creates an approved account, or approves and renames the existing one.
// Accounts created here are teachers unless isAdmin is set; existing admins stay admins.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	now := core.Now()

	acc, err := cli.findAccount(ctx, email)
	switch {
	case err == account.ErrNotFound:
		acc = account.Account{
			Email:     core.CleanString(email, true /* lower */),
			Role:      account.RoleTeacher,
			CreatedAt: now,
		}
	case err != nil:
		return err
	}
	if isAdmin {
		acc.Role = account.RoleAdmin
	}
	acc.Name = core.CleanString(name)
	acc.Approved = true
	acc.UpdatedAt = now
	if err = acc.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	if acc.ID == "" {
		_, err = cli.accRepo.CreateAccount(ctx, acc)
	} else {
		_, err = cli.accRepo.UpdateAccount(ctx, acc)
	}
	return err
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	acc, err := cli.findAccount(ctx, email)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = core.Now()
	_, err = cli.accRepo.UpdateAccount(ctx, acc)
	return err
}
