package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/AlecAivazis/survey/v2"
	"github.com/golang/glog"
	"github.com/krancour/openshred/internal/callback"
	"github.com/krancour/openshred/internal/guard"
	"github.com/krancour/openshred/internal/session"
	"github.com/krancour/openshred/sdk/meta"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Log in to OpenShred",
	Description: "Initiates authentication with Google via the OpenShred API " +
		"server. Once sign-in completes, the API server redirects to a " +
		"callback URL. Either let this command receive that redirect using " +
		"--listen or pass the callback URL to `openshred login complete`.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagServer,
			Aliases: []string{"s"},
			Usage: "Log into the API server at the specified address; defaults " +
				"to OPENSHRED_SERVER or the previously used address",
		},
		&cli.BoolFlag{
			Name:    flagBrowse,
			Aliases: []string{"b"},
			Usage: "Use the system's default web browser to complete " +
				"authentication",
		},
		&cli.StringFlag{
			Name:    flagListen,
			Aliases: []string{"l"},
			Usage: "Wait for the API server's post sign-in redirect on the " +
				"specified loopback address (e.g. localhost:5173); must match " +
				"the redirect the API server is configured with",
		},
	},
	Action: login,
	Subcommands: []*cli.Command{
		{
			Name:      "complete",
			Usage:     "Complete a login using the URL the browser was redirected to",
			ArgsUsage: "[CALLBACK_URL]",
			Action:    loginComplete,
		},
	},
}

func login(c *cli.Context) error {
	browseToAuthURL := c.Bool(flagBrowse)
	listenAddress := c.String(flagListen)

	d, err := getDeps(c, c.String(flagServer))
	if err != nil {
		return err
	}

	loginDetails, err := d.authClient("").Login(c.Context)
	if err != nil {
		return errors.Wrap(err, "error initiating login")
	}

	if err := d.storage.SaveConfig(
		session.Config{APIAddress: d.apiAddress},
	); err != nil {
		return errors.Wrap(err, "error persisting configuration")
	}
	if err := d.storage.SaveOAuthState(loginDetails.State); err != nil {
		return errors.Wrap(err, "error persisting OAuth state")
	}

	authURL := loginDetails.AuthorizationURL
	if browseToAuthURL {
		if err := openBrowser(authURL); err != nil {
			return errors.Wrapf(
				err,
				"Error opening authentication URL using the system's default web "+
					"browser.\n\nPlease visit  %s  to complete authentication.\n",
				authURL,
			)
		}
	} else {
		fmt.Printf("Please visit  %s  to complete authentication.\n", authURL)
	}

	if listenAddress == "" {
		fmt.Println(
			"\nOnce you have signed in, run `openshred login complete " +
				"CALLBACK_URL` with the URL your browser was redirected to.",
		)
		return nil
	}

	result, err := callback.NewServer(listenAddress, loginDetails.State).
		Serve(c.Context)
	if err != nil {
		return errors.Wrap(err, "error receiving sign-in callback")
	}
	return completeLogin(c, d, result)
}

func loginComplete(c *cli.Context) error {
	if c.Args().Len() > 1 {
		return errors.New(
			"login complete requires, at most, one argument-- the callback URL",
		)
	}
	callbackURL := c.Args().First()
	if callbackURL == "" {
		if !isInteractive() {
			return errors.New("login complete requires the callback URL")
		}
		if err := survey.AskOne(
			&survey.Input{
				Message: "URL your browser was redirected to",
			},
			&callbackURL,
			survey.WithValidator(survey.Required),
		); err != nil {
			return err
		}
	}

	d, err := getDeps(c, "")
	if err != nil {
		return err
	}
	expectedState, err := d.storage.OAuthState()
	if err != nil {
		return errors.Wrap(err, "error retrieving OAuth state")
	}
	result, err := callback.ParseURL(callbackURL, expectedState)
	if err != nil {
		return err
	}
	return completeLogin(c, d, result)
}

// completeLogin establishes a session from a sign-in callback and confirms it
// with the API server.
func completeLogin(c *cli.Context, d *deps, result callback.Result) error {
	if result.Token == "" {
		return errors.New("sign-in did not provide a token")
	}
	userID := result.UserID
	if userID == "" {
		claims, err := session.ParseTokenClaims(result.Token)
		if err != nil {
			return errors.Wrap(err, "error reading user ID from token")
		}
		userID = claims.Subject
	}
	if userID == "" {
		return errors.New("sign-in did not identify a user")
	}

	d.store.SetSession(userID, result.Token)
	if err := d.storage.DeleteOAuthState(); err != nil {
		glog.Warningf("error deleting OAuth state: %s", err)
	}

	if d.gate.Check(c.Context) != guard.Authenticated {
		err := d.query.Err()
		switch {
		case meta.IsNetworkError(err):
			return errors.Wrapf(
				err,
				"the API server at %s could not be reached to confirm the new session",
				d.apiAddress,
			)
		case meta.IsAuthError(err):
			return errors.Wrap(
				err,
				"the API server rejected the new session; please use "+
					"`openshred login` to try again",
			)
		case err != nil:
			return errors.Wrap(err, "error confirming the new session")
		}
		return errors.New(
			"the API server did not accept the new session; please use " +
				"`openshred login` to try again",
		)
	}
	email := result.Email
	if user := d.store.State().User; user != nil && user.Email != "" {
		email = user.Email
	}
	if email != "" {
		fmt.Printf("You are logged in as %s.\n", email)
	} else {
		fmt.Println("You are logged in.")
	}
	return nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command(
			"rundll32",
			"url.dll,FileProtocolHandler",
			url,
		).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return errors.New("unsupported OS")
	}
}
