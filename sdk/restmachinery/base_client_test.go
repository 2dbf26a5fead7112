package restmachinery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krancour/openshred/sdk/meta"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testAPIAddress = "localhost:8080"
	testAPIToken   = "11235813213455"
)

func TestNewBaseClient(t *testing.T) {
	observed := false
	client := NewBaseClient(
		testAPIAddress+"/",
		testAPIToken,
		&APIClientOptions{
			AllowInsecureConnections: true,
			RateLimitObserver:        func(RateLimitEvent) { observed = true },
		},
	)
	require.Equal(t, testAPIAddress, client.APIAddress)
	require.Equal(t, testAPIToken, client.APIToken)
	require.IsType(t, &http.Transport{}, client.HTTPClient.Transport)
	require.IsType(
		t,
		&tls.Config{},
		client.HTTPClient.Transport.(*http.Transport).TLSClientConfig,
	)
	require.True(
		t,
		client.HTTPClient.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify, // nolint: lll
	)
	require.NotNil(t, client.RateLimitObserver)
	client.RateLimitObserver(RateLimitEvent{})
	require.True(t, observed)
}

func TestNewBaseClientWithNilOptions(t *testing.T) {
	client := NewBaseClient(testAPIAddress, "", nil)
	require.Nil(t, client.RateLimitObserver)
	require.Nil(t, client.BearerTokenAuthHeaders())
}

func TestBearerTokenAuthHeaders(t *testing.T) {
	client := NewBaseClient(testAPIAddress, testAPIToken, nil)
	require.Equal(
		t,
		map[string]string{"Authorization": "Bearer " + testAPIToken},
		client.BearerTokenAuthHeaders(),
	)
}

func TestExecuteRequest(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/things", r.URL.Path)
				require.Equal(t, "bar", r.URL.Query().Get("foo"))
				require.Equal(t, "Bearer "+testAPIToken, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, `{"name":"thing"}`)
			},
		),
	)
	defer server.Close()
	client := NewBaseClient(server.URL, testAPIToken, nil)
	respObj := struct {
		Name string `json:"name"`
	}{}
	err := client.ExecuteRequest(
		context.Background(),
		OutboundRequest{
			Method:      http.MethodGet,
			Path:        "api/things",
			AuthHeaders: client.BearerTokenAuthHeaders(),
			QueryParams: map[string]string{"foo": "bar"},
			SuccessCode: http.StatusOK,
			RespObj:     &respObj,
		},
	)
	require.NoError(t, err)
	require.Equal(t, "thing", respObj.Name)
}

func TestExecuteRequestErrors(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		headers    map[string]string
		body       string
		assertions func(t *testing.T, events []RateLimitEvent, err error)
	}{
		{
			name:       "unauthorized with detail",
			statusCode: http.StatusUnauthorized,
			body:       `{"detail":"Authentication token has expired"}`,
			assertions: func(t *testing.T, _ []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrAuthentication{}, err)
				require.Equal(
					t,
					"Authentication token has expired",
					err.(*meta.ErrAuthentication).Reason,
				)
			},
		},
		{
			name:       "forbidden without body",
			statusCode: http.StatusForbidden,
			assertions: func(t *testing.T, _ []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrAuthorization{}, err)
				require.Equal(
					t,
					meta.StatusMessage(http.StatusForbidden),
					err.(*meta.ErrAuthorization).Reason,
				)
			},
		},
		{
			name:       "validation failure",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{"detail":[{"msg":"field required"},{"msg":"not an email"}]}`,
			assertions: func(t *testing.T, _ []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrBadRequest{}, err)
				require.Equal(
					t,
					[]string{"field required", "not an email"},
					err.(*meta.ErrBadRequest).Details,
				)
			},
		},
		{
			name:       "message instead of detail",
			statusCode: http.StatusConflict,
			body:       `{"message":"already exists"}`,
			assertions: func(t *testing.T, _ []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrConflict{}, err)
				require.Equal(t, "already exists", err.(*meta.ErrConflict).Reason)
			},
		},
		{
			name:       "throttled",
			statusCode: http.StatusTooManyRequests,
			headers:    map[string]string{"Retry-After": "65"},
			body:       `{"detail":"Rate limit exceeded"}`,
			assertions: func(t *testing.T, events []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrRateLimited{}, err)
				require.Equal(t, 65, err.(*meta.ErrRateLimited).RetryAfter)
				require.Equal(
					t,
					[]RateLimitEvent{{Message: "Rate limit exceeded", RetryAfter: 65}},
					events,
				)
			},
		},
		{
			name:       "throttled without retry after",
			statusCode: http.StatusTooManyRequests,
			headers:    map[string]string{"Retry-After": "soon"},
			assertions: func(t *testing.T, events []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrRateLimited{}, err)
				require.Len(t, events, 1)
				require.Equal(t, 0, events[0].RetryAfter)
				require.Equal(
					t,
					meta.StatusMessage(http.StatusTooManyRequests),
					events[0].Message,
				)
			},
		},
		{
			name:       "bad gateway",
			statusCode: http.StatusBadGateway,
			body:       "<html>nginx</html>",
			assertions: func(t *testing.T, _ []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrServiceUnavailable{}, err)
			},
		},
		{
			name:       "unexpected status",
			statusCode: http.StatusTeapot,
			assertions: func(t *testing.T, events []RateLimitEvent, err error) {
				require.IsType(t, &meta.ErrUnexpectedStatus{}, err)
				require.Equal(
					t,
					http.StatusTeapot,
					err.(*meta.ErrUnexpectedStatus).StatusCode,
				)
				require.Empty(t, events)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(
				http.HandlerFunc(
					func(w http.ResponseWriter, r *http.Request) {
						for k, v := range testCase.headers {
							w.Header().Set(k, v)
						}
						w.WriteHeader(testCase.statusCode)
						fmt.Fprint(w, testCase.body)
					},
				),
			)
			defer server.Close()
			events := []RateLimitEvent{}
			client := NewBaseClient(
				server.URL,
				"",
				&APIClientOptions{
					RateLimitObserver: func(event RateLimitEvent) {
						events = append(events, event)
					},
				},
			)
			err := client.ExecuteRequest(
				context.Background(),
				OutboundRequest{
					Method: http.MethodGet,
					Path:   "api/things",
				},
			)
			require.Error(t, err)
			testCase.assertions(t, events, err)
		})
	}
}

func TestExecuteRequestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()
	client := NewBaseClient(address, "", nil)
	err := client.ExecuteRequest(
		context.Background(),
		OutboundRequest{
			Method: http.MethodGet,
			Path:   "api/things",
		},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "error invoking API")
	require.True(t, meta.IsNetworkError(errors.Cause(err)))
}
