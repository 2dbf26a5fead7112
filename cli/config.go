package main

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/krancour/openshred/internal/guard"
	"github.com/krancour/openshred/internal/session"
	"github.com/pkg/errors"
)

// environment holds settings read from OPENSHRED_* environment variables.
// Flags take precedence over these and these take precedence over the
// saved config.
type environment struct {
	Server   string
	Home     string
	Insecure bool
}

func getEnvironment() (environment, error) {
	env := environment{}
	err := envconfig.Process("openshred", &env)
	return env, errors.Wrap(err, "error reading environment")
}

// getStorage returns storage rooted at OPENSHRED_HOME or, by default,
// ~/.openshred.
func getStorage() (*session.FileStorage, error) {
	env, err := getEnvironment()
	if err != nil {
		return nil, err
	}
	if env.Home != "" {
		return session.NewFileStorage(env.Home), nil
	}
	dir, err := session.DefaultDir()
	if err != nil {
		return nil, errors.Wrap(err, "error finding openshred home")
	}
	return session.NewFileStorage(dir), nil
}

// getAPIAddress resolves the API server's address from, in order of
// precedence, the specified flag value, the environment, and the saved
// config. With none of those, the user has never logged in (or has logged
// out) and *guard.ErrNotLoggedIn is returned.
func getAPIAddress(
	storage *session.FileStorage,
	flagValue string,
) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	env, err := getEnvironment()
	if err != nil {
		return "", err
	}
	if env.Server != "" {
		return env.Server, nil
	}
	config, err := storage.Config()
	if err != nil {
		return "", errors.Wrap(err, "error retrieving configuration")
	}
	if config == nil || config.APIAddress == "" {
		return "", &guard.ErrNotLoggedIn{}
	}
	return config.APIAddress, nil
}
