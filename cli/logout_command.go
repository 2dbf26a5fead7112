package main

import (
	"fmt"

	"github.com/krancour/openshred/internal/session"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var logoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "Log out of OpenShred",
	Flags: []cli.Flag{
		cliFlagYes,
	},
	Action: logout,
}

func logout(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("logout requires no arguments")
	}

	confirmed, err := confirmed(c)
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	storage, err := getStorage()
	if err != nil {
		return err
	}

	// The API server keeps no session state of its own, so logging out is
	// entirely local.
	session.NewStore(storage).ClearAuth()
	if err := storage.DeleteOAuthState(); err != nil {
		return errors.Wrap(err, "error deleting OAuth state")
	}

	if err := storage.DeleteConfig(); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}

	fmt.Println("Logout was successful.")

	return nil
}
