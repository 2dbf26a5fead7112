package main

import (
	"time"

	"github.com/krancour/openshred/internal/guard"
	"github.com/krancour/openshred/internal/session"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Show whether you are logged in",
	Flags: []cli.Flag{
		cliFlagOutput,
	},
	Action: status,
}

type sessionStatus struct {
	Status         string     `json:"status"`
	APIAddress     string     `json:"apiAddress"`
	UserID         string     `json:"userID,omitempty"`
	Email          string     `json:"email,omitempty"`
	IsAdmin        bool       `json:"isAdmin"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

func status(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	st, err := getSessionStatus(c)
	if err != nil {
		return err
	}

	expiry := "-"
	if st.TokenExpiresAt != nil {
		expiry = st.TokenExpiresAt.Format(time.RFC3339)
	}
	return render(
		output,
		st,
		[][]interface{}{
			{"STATUS", "SERVER", "USER ID", "EMAIL", "TOKEN EXPIRES"},
			{
				st.Status,
				dash(st.APIAddress),
				dash(st.UserID),
				dash(st.Email),
				expiry,
			},
		},
	)
}

// getSessionStatus checks the session with the API server. With no API
// server configured there is no session to check.
func getSessionStatus(c *cli.Context) (sessionStatus, error) {
	d, err := getDeps(c, "")
	if _, ok := errors.Cause(err).(*guard.ErrNotLoggedIn); ok {
		return newSessionStatus(guard.Unauthenticated, "", session.State{}), nil
	}
	if err != nil {
		return sessionStatus{}, errors.Wrap(err, "error getting openshred client")
	}
	decision := d.gate.Check(c.Context)
	return newSessionStatus(decision, d.apiAddress, d.store.State()), nil
}

func newSessionStatus(
	decision guard.Decision,
	apiAddress string,
	state session.State,
) sessionStatus {
	st := sessionStatus{
		Status:     decision.String(),
		APIAddress: apiAddress,
	}
	if decision != guard.Authenticated {
		return st
	}
	st.UserID = state.UserID
	if state.User != nil {
		st.Email = state.User.Email
		st.IsAdmin = state.User.IsAdmin
	}
	if claims, err := session.ParseTokenClaims(state.Token); err == nil {
		if st.Email == "" {
			st.Email = claims.Email
		}
		if !claims.ExpiresAt.IsZero() {
			expiresAt := claims.ExpiresAt
			st.TokenExpiresAt = &expiresAt
		}
	}
	return st
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
