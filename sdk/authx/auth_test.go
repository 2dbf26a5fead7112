package authx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krancour/openshred/sdk/meta"
	"github.com/krancour/openshred/sdk/restmachinery"
	"github.com/stretchr/testify/require"
)

const (
	testAPIAddress = "localhost:8080"
	testAPIToken   = "11235813213455"
	testUserID     = "user-123"
)

func TestNewAuthClient(t *testing.T) {
	client := NewAuthClient(
		testAPIAddress,
		testAPIToken,
		&restmachinery.APIClientOptions{
			AllowInsecureConnections: true,
		},
	)
	require.IsType(t, &authClient{}, client)
	baseClient := client.(*authClient).BaseClient
	require.Equal(t, testAPIAddress, baseClient.APIAddress)
	require.Equal(t, testAPIToken, baseClient.APIToken)
}

func TestAuthClientGetStatus(t *testing.T) {
	testStatus := AuthStatus{
		IsAuthenticated: true,
		User: &User{
			ID:       testUserID,
			Email:    "test@example.com",
			GoogleID: "google-123",
			Created:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Updated:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Message: "User is authenticated",
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/auth/status", r.URL.Path)
				require.Equal(t, testUserID, r.URL.Query().Get("user_id"))
				require.Equal(
					t,
					fmt.Sprintf("Bearer %s", testAPIToken),
					r.Header.Get("Authorization"),
				)
				bodyBytes, err := json.Marshal(testStatus)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewAuthClient(server.URL, testAPIToken, nil)
	status, err := client.GetStatus(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, testStatus, status)
}

func TestAuthClientGetStatusUnauthenticated(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Empty(t, r.URL.Query().Get("user_id"))
				require.Empty(t, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(
					w,
					`{"is_authenticated":false,"user":null,"message":"No user ID provided"}`,
				)
			},
		),
	)
	defer server.Close()
	client := NewAuthClient(server.URL, "", nil)
	status, err := client.GetStatus(context.Background(), "")
	require.NoError(t, err)
	require.False(t, status.IsAuthenticated)
	require.Nil(t, status.User)
	require.Equal(t, "No user ID provided", status.Message)
}

func TestAuthClientGetStatusError(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintln(w, `{"detail":"Invalid authentication token"}`)
			},
		),
	)
	defer server.Close()
	client := NewAuthClient(server.URL, testAPIToken, nil)
	_, err := client.GetStatus(context.Background(), testUserID)
	require.Error(t, err)
	require.True(t, meta.IsAuthError(err))
}

func TestAuthClientLogin(t *testing.T) {
	testDetails := LoginDetails{
		State:            "xyzzy",
		AuthorizationURL: "https://accounts.google.com/o/oauth2/auth?state=xyzzy",
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/auth/login", r.URL.Path)
				require.Empty(t, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(
					w,
					`{"state":%q,"authorization_url":%q}`,
					testDetails.State,
					testDetails.AuthorizationURL,
				)
			},
		),
	)
	defer server.Close()
	client := NewAuthClient(server.URL, "", nil)
	details, err := client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, testDetails, details)
}
