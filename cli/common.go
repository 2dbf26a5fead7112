package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/krancour/openshred/sdk/meta"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

func confirmed(c *cli.Context) (bool, error) {
	confirmed := c.Bool(flagYes)
	if confirmed {
		return true, nil
	}
	if !isInteractive() {
		return false, errors.Errorf(
			"confirmation is required; use --%s to confirm non-interactively",
			flagYes,
		)
	}
	if err := survey.AskOne(
		&survey.Confirm{
			Message: "This will end your OpenShred session. Are you sure?",
		},
		&confirmed,
	); err != nil {
		return false, errors.Wrap(err, "error confirming action")
	}
	fmt.Println()
	return confirmed, nil
}

func isInteractive() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd()))
}

// errorMessage renders a command's error for the user. The text of the root
// cause is replaced with its friendly message while any context wrapped
// around it is kept.
func errorMessage(err error) string {
	cause := errors.Cause(err)
	full := err.Error()
	if !strings.HasSuffix(full, cause.Error()) {
		return full
	}
	return strings.TrimSuffix(full, cause.Error()) + meta.Message(cause)
}
