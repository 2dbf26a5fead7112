package main

import (
	"context"
	"time"

	"github.com/krancour/openshred/sdk/authx"
	"github.com/urfave/cli/v2"
)

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "Retrieve the profile of the logged in user",
	Flags: []cli.Flag{
		cliFlagOutput,
	},
	Action: whoami,
}

func whoami(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	d, err := getDeps(c, "")
	if err != nil {
		return err
	}

	return d.gate.Run(
		c.Context,
		func(context.Context) error {
			state := d.store.State()
			user := authx.User{ID: state.UserID}
			if state.User != nil {
				user = *state.User
			}
			return render(output, user, userRows(user))
		},
	)
}

func userRows(user authx.User) [][]interface{} {
	lastScan := "never"
	if user.LastScanAt != nil {
		lastScan = user.LastScanAt.Format(time.RFC3339)
	}
	return [][]interface{}{
		{"ID", "EMAIL", "ADMIN?", "LAST SCAN", "FIRST SEEN"},
		{user.ID, dash(user.Email), user.IsAdmin, lastScan, user.Created},
	}
}
