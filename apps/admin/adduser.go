package main

import (
	"context"
	"fmt"

	"github.com/qwaszx001001/byzantium/core/user"
)

func (cli *commandLine) addUser(uname, email, name, role, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{
		Username:        uname,
		Email:           email,
		FullName:        name,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("created user %q (id %d, %s)\n", usr.Username, usr.ID, usr.Role)
	return nil
}
