package authx

import (
	"context"
	"net/http"

	"github.com/krancour/openshred/sdk/restmachinery"
)

// AuthStatus is the API server's answer to the question of whether a session
// is currently valid.
type AuthStatus struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	User            *User  `json:"user,omitempty"`
	Message         string `json:"message,omitempty"`
	// Token, when present, is a refreshed credential that should replace the
	// one used to make the request.
	Token string `json:"token,omitempty"`
}

// LoginDetails encapsulates everything a client needs to send a user through
// the OAuth flow.
type LoginDetails struct {
	// State is the opaque OAuth state value. Clients keep it until the flow
	// completes so the callback can be checked against it.
	State string `json:"state"`
	// AuthorizationURL is where the user must be sent to sign in with Google.
	AuthorizationURL string `json:"authorization_url"`
}

// AuthClient is the specialized client for the OpenShred authentication API.
type AuthClient interface {
	// GetStatus asks the API server whether the client's credential (and, if
	// specified, the user ID it is believed to belong to) identifies a valid
	// session.
	GetStatus(ctx context.Context, userID string) (AuthStatus, error)
	// Login initiates the OAuth flow.
	Login(context.Context) (LoginDetails, error)
}

type authClient struct {
	*restmachinery.BaseClient
}

// NewAuthClient returns a specialized client for the OpenShred authentication
// API.
func NewAuthClient(
	apiAddress string,
	apiToken string,
	opts *restmachinery.APIClientOptions,
) AuthClient {
	return &authClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, apiToken, opts),
	}
}

func (a *authClient) GetStatus(
	ctx context.Context,
	userID string,
) (AuthStatus, error) {
	status := AuthStatus{}
	var queryParams map[string]string
	if userID != "" {
		queryParams = map[string]string{
			"user_id": userID,
		}
	}
	return status, a.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "api/auth/status",
			AuthHeaders: a.BearerTokenAuthHeaders(),
			QueryParams: queryParams,
			SuccessCode: http.StatusOK,
			RespObj:     &status,
		},
	)
}

func (a *authClient) Login(ctx context.Context) (LoginDetails, error) {
	details := LoginDetails{}
	return details, a.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "api/auth/login",
			SuccessCode: http.StatusOK,
			RespObj:     &details,
		},
	)
}
