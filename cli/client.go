package main

import (
	"time"

	"github.com/krancour/openshred/internal/authstatus"
	"github.com/krancour/openshred/internal/guard"
	"github.com/krancour/openshred/internal/ratelimit"
	"github.com/krancour/openshred/internal/session"
	"github.com/krancour/openshred/sdk/authx"
	"github.com/krancour/openshred/sdk/restmachinery"
	"github.com/urfave/cli/v2"
)

const metadataNotices = "notices"

// deps are the state containers and clients a command works with. They are
// built per invocation and passed down explicitly.
type deps struct {
	apiAddress string
	opts       *restmachinery.APIClientOptions
	storage    *session.FileStorage
	store      *session.Store
	query      *authstatus.Query
	gate       *guard.Gate
}

// getDeps wires a session store backed by the openshred home directory to an
// auth status query against the API server. An empty serverFlag means the
// address is resolved from the environment or the saved config.
func getDeps(c *cli.Context, serverFlag string) (*deps, error) {
	storage, err := getStorage()
	if err != nil {
		return nil, err
	}
	apiAddress, err := getAPIAddress(storage, serverFlag)
	if err != nil {
		return nil, err
	}
	opts, err := getClientOptions(c)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(storage)
	query := authstatus.NewQuery(
		store,
		func(token string) authstatus.StatusClient {
			return authx.NewAuthClient(apiAddress, token, opts)
		},
	)
	return &deps{
		apiAddress: apiAddress,
		opts:       opts,
		storage:    storage,
		store:      store,
		query:      query,
		gate:       guard.NewGate(store, query),
	}, nil
}

func (d *deps) authClient(token string) authx.AuthClient {
	return authx.NewAuthClient(d.apiAddress, token, d.opts)
}

func getClientOptions(c *cli.Context) (*restmachinery.APIClientOptions, error) {
	env, err := getEnvironment()
	if err != nil {
		return nil, err
	}
	notices := getNotices(c)
	return &restmachinery.APIClientOptions{
		AllowInsecureConnections: c.Bool(flagInsecure) || env.Insecure,
		RateLimitObserver: func(event restmachinery.RateLimitEvent) {
			notices.SetNotice(
				ratelimit.Notice{
					Message:     event.Message,
					RetryAfter:  event.RetryAfter,
					TriggeredAt: time.Now().UnixMilli(),
				},
			)
		},
	}, nil
}

// getNotices returns the application's notice store. The store is created
// once in main and shared by every client a command builds.
func getNotices(c *cli.Context) *ratelimit.Store {
	if c.App != nil {
		if notices, ok := c.App.Metadata[metadataNotices].(*ratelimit.Store); ok {
			return notices
		}
	}
	return ratelimit.NewStore()
}
