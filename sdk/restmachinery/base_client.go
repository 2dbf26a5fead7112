package restmachinery

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/krancour/openshred/sdk/meta"
	"github.com/pkg/errors"
)

// RateLimitEvent describes a single throttled response from the API server.
type RateLimitEvent struct {
	// Message is the human-readable description supplied by the API server,
	// or a generic message if it supplied none.
	Message string
	// RetryAfter is the number of seconds the API server asked the client to
	// wait. Zero means the API server did not say.
	RetryAfter int
}

// RateLimitObserver is notified of every throttled response a BaseClient
// receives.
type RateLimitObserver func(RateLimitEvent)

// APIClientOptions encapsulates optional API client configuration.
type APIClientOptions struct {
	// AllowInsecureConnections indicates whether SSL-related errors should be
	// ignored when connecting to the API server.
	AllowInsecureConnections bool
	// RateLimitObserver, if non-nil, is invoked whenever the API server
	// throttles a request.
	RateLimitObserver RateLimitObserver
}

// OutboundRequest models of an outbound API call.
type OutboundRequest struct {
	Method      string
	Path        string
	AuthHeaders map[string]string
	Headers     map[string]string
	QueryParams map[string]string
	ReqBodyObj  interface{}
	SuccessCode int
	RespObj     interface{}
}

// BaseClient provides "API machinery" used by all specialized API clients.
type BaseClient struct {
	APIAddress        string
	APIToken          string
	HTTPClient        *http.Client
	RateLimitObserver RateLimitObserver
}

// NewBaseClient returns a BaseClient for the specified API server, using the
// specified bearer token (which may be empty) and options (which may be nil).
func NewBaseClient(
	apiAddress string,
	apiToken string,
	opts *APIClientOptions,
) *BaseClient {
	if opts == nil {
		opts = &APIClientOptions{}
	}
	return &BaseClient{
		APIAddress: strings.TrimSuffix(apiAddress, "/"),
		APIToken:   apiToken,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: opts.AllowInsecureConnections, // nolint: gosec
				},
			},
		},
		RateLimitObserver: opts.RateLimitObserver,
	}
}

// BearerTokenAuthHeaders returns a map of HTTP authentication headers
// appropriate for an API call secured by the client's bearer token. If the
// client has no token, no headers are returned.
func (b *BaseClient) BearerTokenAuthHeaders() map[string]string {
	if b.APIToken == "" {
		return nil
	}
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", b.APIToken),
	}
}

// ExecuteRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request, interprets
// the HTTP response code and body, and unmarshals the response body into the
// OutboundRequest's RespObj, if one was provided.
func (b *BaseClient) ExecuteRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if req.RespObj != nil {
		respBodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "error reading response body")
		}
		if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
			return errors.Wrap(err, "error unmarshaling response body")
		}
	}
	return nil
}

// SubmitRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request and returns
// the HTTP response. Non-success status codes are converted to the typed
// errors of the meta package.
func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequestWithContext(
		ctx,
		req.Method,
		fmt.Sprintf("%s/%s", b.APIAddress, req.Path),
		reqBodyReader,
	)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	for k, v := range req.AuthHeaders {
		r.Header.Add(k, v)
	}
	for k, v := range req.Headers {
		r.Header.Add(k, v)
	}
	if reqBodyReader != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "error invoking API")
	}

	if (req.SuccessCode == 0 && resp.StatusCode != http.StatusOK) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		defer resp.Body.Close()
		return nil, b.errorFromResponse(resp)
	}
	return resp, nil
}

// errorFromResponse interprets a non-success response. The response code
// determines the type of error and the body, if it is a recognizable error
// document, supplies the reason.
func (b *BaseClient) errorFromResponse(resp *http.Response) error {
	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading error response body")
	}
	reason, details := parseErrorBody(bodyBytes)
	if reason == "" {
		reason = meta.StatusMessage(resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &meta.ErrAuthentication{Reason: reason}
	case http.StatusForbidden:
		return &meta.ErrAuthorization{Reason: reason}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &meta.ErrBadRequest{Reason: reason, Details: details}
	case http.StatusNotFound:
		return &meta.ErrNotFound{Reason: reason}
	case http.StatusConflict:
		return &meta.ErrConflict{Reason: reason}
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if b.RateLimitObserver != nil {
			b.RateLimitObserver(
				RateLimitEvent{
					Message:    reason,
					RetryAfter: retryAfter,
				},
			)
		}
		return &meta.ErrRateLimited{Reason: reason, RetryAfter: retryAfter}
	case http.StatusInternalServerError:
		return &meta.ErrInternalServer{Reason: reason}
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return &meta.ErrServiceUnavailable{Reason: reason}
	default:
		return &meta.ErrUnexpectedStatus{
			StatusCode: resp.StatusCode,
			Reason:     reason,
		}
	}
}

// parseErrorBody extracts a reason and, for validation failures, a list of
// details from an error response body. It understands bodies of the form
// {"detail": "..."}, {"detail": [{"msg": "..."}]} and {"message": "..."}. Any
// other body yields an empty reason.
func parseErrorBody(bodyBytes []byte) (string, []string) {
	body := struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}{}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return "", nil
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail, nil
		}
		var validationErrs []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &validationErrs); err == nil {
			details := make([]string, 0, len(validationErrs))
			for _, verr := range validationErrs {
				details = append(details, verr.Msg)
			}
			return meta.StatusMessage(http.StatusUnprocessableEntity), details
		}
	}
	return body.Message, nil
}

// parseRetryAfter understands the delay-seconds form of the Retry-After
// header. Anything else, including a negative number, yields zero.
func parseRetryAfter(header string) int {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
