package authstatus

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/krancour/openshred/internal/session"
	"github.com/krancour/openshred/sdk/authx"
	"github.com/krancour/openshred/sdk/meta"
)

// StatusClient asks the API server whether a session is valid.
type StatusClient interface {
	GetStatus(ctx context.Context, userID string) (authx.AuthStatus, error)
}

// ClientFactory returns a StatusClient that authenticates with the specified
// bearer token.
type ClientFactory func(token string) StatusClient

// Query reconciles a session.Store with the API server's view of the
// session. It is keyed on the session's token: with no token there is nothing
// to ask, and a result obtained for a token that is no longer the store's
// token is discarded.
type Query struct {
	store     *session.Store
	newClient ClientFactory

	mu      sync.Mutex
	cycle   uint64
	key     string
	loading bool
	err     error
}

// NewQuery returns a Query for the specified store.
func NewQuery(store *session.Store, newClient ClientFactory) *Query {
	return &Query{
		store:     store,
		newClient: newClient,
	}
}

// IsLoading returns true while a request for the current key is in flight.
func (q *Query) IsLoading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Err returns the error, if any, that ended the most recently applied
// reconciliation cycle.
func (q *Query) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Reconcile performs one reconciliation cycle. When the store has no token,
// no request is made and the store simply stops loading. Otherwise the API
// server is asked about the session and the store is updated with its answer.
// Any failure to get an answer is treated as the session being invalid. There
// are no retries.
func (q *Query) Reconcile(ctx context.Context) {
	state := q.store.State()
	key := state.Token
	if key == "" {
		q.mu.Lock()
		q.cycle++
		q.key = ""
		q.loading = false
		q.err = nil
		q.mu.Unlock()
		q.store.SetLoading(false)
		return
	}

	q.mu.Lock()
	q.cycle++
	cycle := q.cycle
	q.key = key
	q.loading = true
	q.mu.Unlock()

	status, err := q.newClient(key).GetStatus(ctx, state.UserID)

	q.mu.Lock()
	// Only the most recent cycle owns the loading flag
	if q.cycle == cycle {
		q.loading = false
	}
	superseded := q.key != key || q.store.State().Token != key
	if !superseded {
		q.err = err
	}
	q.mu.Unlock()

	if superseded {
		glog.V(2).Infof("discarding auth status for a superseded token")
		return
	}

	switch {
	case meta.IsAuthError(err):
		glog.V(1).Infof("credential was rejected; clearing session: %s", err)
		q.store.ClearAuth()
	case meta.IsNetworkError(err):
		glog.Warningf("API server could not be reached; clearing session: %s", err)
		q.store.ClearAuth()
	case err != nil:
		glog.Warningf("error checking auth status; clearing session: %s", err)
		q.store.ClearAuth()
	case status.IsAuthenticated && status.User != nil:
		q.store.SetUser(*status.User)
		if status.Token != "" {
			q.store.SetToken(status.Token)
		}
	default:
		glog.V(1).Infof("session is no longer valid: %s", status.Message)
		q.store.ClearAuth()
	}
}

// Watch reconciles once and then again every time the store's token changes,
// until the context is canceled. It blocks.
func (q *Query) Watch(ctx context.Context) {
	keyChangedCh := make(chan struct{}, 1)
	lastKey := q.store.State().Token
	var lastKeyMu sync.Mutex
	unsubscribe := q.store.Subscribe(func(state session.State) {
		lastKeyMu.Lock()
		defer lastKeyMu.Unlock()
		if state.Token == lastKey {
			return
		}
		lastKey = state.Token
		select {
		case keyChangedCh <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	q.Reconcile(ctx)
	for {
		select {
		case <-keyChangedCh:
			q.Reconcile(ctx)
		case <-ctx.Done():
			return
		}
	}
}
