package callback

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Path is the path the API server redirects the browser to once the user has
// signed in.
const Path = "/oauth-callback"

// Result is what the API server reports about a completed sign-in.
type Result struct {
	UserID string
	Email  string
	Token  string
}

// ParseURL extracts a Result from a callback URL, such as one pasted by a
// user. See ParseQuery.
func ParseURL(rawURL string, expectedState string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, errors.Wrap(err, "error parsing callback URL")
	}
	return ParseQuery(u.Query(), expectedState)
}

// ParseQuery extracts a Result from a callback's query parameters. A callback
// that carries OAuth state must carry the state the flow was started with. A
// token is always required; the user ID may be left for the token's subject
// to supply.
func ParseQuery(query url.Values, expectedState string) (Result, error) {
	if errMsg := query.Get("error"); errMsg != "" {
		return Result{}, errors.Errorf("sign-in failed: %s", errMsg)
	}
	if state := query.Get("state"); state != "" && state != expectedState {
		return Result{}, errors.New(
			"callback state does not match the sign-in that was started",
		)
	}
	result := Result{
		UserID: query.Get("user_id"),
		Email:  query.Get("email"),
		Token:  query.Get("token"),
	}
	if result.Token == "" {
		return Result{}, errors.New("callback carries no token")
	}
	return result, nil
}

// Server receives a single sign-in callback on a loopback address.
type Server struct {
	address       string
	expectedState string
	router        *mux.Router
	resultCh      chan Result
}

// NewServer returns a Server that will listen on the specified address and
// accept only callbacks consistent with the specified OAuth state.
func NewServer(address string, expectedState string) *Server {
	s := &Server{
		address:       address,
		expectedState: expectedState,
		router:        mux.NewRouter(),
		resultCh:      make(chan Result, 1),
	}
	s.router.StrictSlash(true)
	s.router.HandleFunc(Path, s.handleCallback).Methods(http.MethodGet)
	return s
}

// Handler returns the Server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// URL returns the callback URL the API server should redirect to.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s%s", s.address, Path)
}

// Serve listens until a valid callback arrives or the context is canceled,
// and returns the callback's Result.
func (s *Server) Serve(ctx context.Context) (Result, error) {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error listening on %s", s.address)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("error shutting down callback listener: %s", err)
		}
	}()
	glog.V(1).Infof("listening for sign-in callback on %s", s.URL())
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-errCh:
		return Result{}, errors.Wrap(err, "error serving sign-in callback")
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	result, err := ParseQuery(r.URL.Query(), s.expectedState)
	if err != nil {
		glog.Warningf("rejecting sign-in callback: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	select {
	case s.resultCh <- result:
	default:
		// A result is already waiting to be collected
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Sign-in complete. You may close this window.")
}
