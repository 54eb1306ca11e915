package main

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addTeacher updates or creates an active teacher account.
func (cli *commandLine) addTeacher(name, uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	unameOrEmail := make([]string, 0, 2)
	if uname != "" {
		unameOrEmail = append(unameOrEmail, uname)
	}
	if email != "" {
		unameOrEmail = append(unameOrEmail, email)
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: unameOrEmail})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:     core.CleanString(name),
			Username: uname,
			Email:    email,
		}
	}
	usr.Role = user.RoleTeacher
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
