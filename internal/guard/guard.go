package guard

import (
	"context"

	"github.com/krancour/openshred/internal/session"
	"github.com/pkg/errors"
)

// Decision is the outcome of guarding protected functionality.
type Decision int

const (
	// Checking means the session's status is not yet known.
	Checking Decision = iota
	// Unauthenticated means there is no valid session; the user must log in.
	Unauthenticated
	// Authenticated means protected functionality may proceed.
	Authenticated
)

func (d Decision) String() string {
	switch d {
	case Checking:
		return "Checking"
	case Unauthenticated:
		return "Unauthenticated"
	case Authenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// Decide is the guard's decision table. Loading from either source wins over
// everything else. After that, a session is only authenticated if it has BOTH
// a user ID and the authenticated flag; either one alone is not enough.
func Decide(state session.State, queryLoading bool) Decision {
	if state.IsLoading || queryLoading {
		return Checking
	}
	if state.UserID == "" || !state.IsAuthenticated {
		return Unauthenticated
	}
	return Authenticated
}

// ErrNotLoggedIn is returned by a Gate when there is no valid session.
type ErrNotLoggedIn struct{}

func (e *ErrNotLoggedIn) Error() string {
	return "You are not logged in; please use `openshred login` to continue."
}

// Reconciler is the part of an auth status query a Gate depends on.
type Reconciler interface {
	Reconcile(context.Context)
	IsLoading() bool
}

// Gate runs protected functionality only when the session is authenticated.
type Gate struct {
	store *session.Store
	query Reconciler
}

// NewGate returns a Gate over the specified store and query.
func NewGate(store *session.Store, query Reconciler) *Gate {
	return &Gate{
		store: store,
		query: query,
	}
}

// Check completes one reconciliation cycle and returns the resulting
// decision.
func (g *Gate) Check(ctx context.Context) Decision {
	g.query.Reconcile(ctx)
	return Decide(g.store.State(), g.query.IsLoading())
}

// Run invokes protected if, and only if, the session is authenticated.
func (g *Gate) Run(
	ctx context.Context,
	protected func(context.Context) error,
) error {
	switch decision := g.Check(ctx); decision {
	case Authenticated:
		return protected(ctx)
	case Unauthenticated:
		return &ErrNotLoggedIn{}
	default:
		return errors.Errorf(
			"session status could not be determined (%s)",
			decision,
		)
	}
}
