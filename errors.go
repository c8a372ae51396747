package streamgen

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
)

// EmptyPromptErr is returned when an empty or all-whitespace prompt is
// provided. No request is made.
var EmptyPromptErr = errors.New("empty prompt: a non-empty prompt is required")

// ApiErr is returned when the provider rejects a request or fails
// server-side. StatusCode carries the HTTP status where available.
//
// ApiErr with status 429 or a 5xx status is retryable; everything else
// (authentication, permission, malformed requests) is not.
type ApiErr struct {
	// StatusCode is the HTTP status code of the provider response
	StatusCode int
	// Type is the provider's error category, e.g. "invalid_request_error"
	Type string
	// Message is the provider's error message
	Message string
}

func (a ApiErr) Error() string {
	return fmt.Sprintf("api error (status %d, type %q): %s", a.StatusCode, a.Type, a.Message)
}

// RateLimitErr is returned when the provider reports rate limiting.
// Always retryable. The string value contains the provider's message.
type RateLimitErr string

func (r RateLimitErr) Error() string {
	return fmt.Sprintf("rate limited: %s", string(r))
}

// AuthenticationErr is returned when the API key is missing, invalid, or
// lacks permission. Never retried; fix the credentials and call again.
type AuthenticationErr string

func (a AuthenticationErr) Error() string {
	return fmt.Sprintf("authentication error: %s", string(a))
}

// StreamProcessingErr is returned when a chunk cannot be decoded or the
// stream terminates abnormally mid-transfer, e.g. a dropped connection.
// Always retryable. Cause holds the underlying transport or decode error.
type StreamProcessingErr struct {
	Cause error
}

func (s StreamProcessingErr) Error() string {
	return fmt.Sprintf("stream processing error: %v", s.Cause)
}

func (s StreamProcessingErr) Unwrap() error {
	return s.Cause
}

// TimeoutErr is returned when a call exceeds its configured timeout.
// Elapsed is the wall-clock time the call ran before being abandoned.
//
// Timeouts are terminal: the retry loop never consumes a timeout, the
// caller decides whether to invoke the Generator again.
type TimeoutErr struct {
	Elapsed time.Duration
}

func (t TimeoutErr) Error() string {
	return fmt.Sprintf("generation timed out after %s", t.Elapsed)
}

// classifyErr maps an error from the OpenAI SDK or the stream transport
// into the package's error taxonomy. Errors that are already classified
// pass through unchanged, so classification is idempotent. A nil error
// stays nil.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}

	var (
		apiErr  ApiErr
		rlErr   RateLimitErr
		authErr AuthenticationErr
		spErr   StreamProcessingErr
		toErr   TimeoutErr
	)
	if errors.As(err, &apiErr) || errors.As(err, &rlErr) ||
		errors.As(err, &authErr) || errors.As(err, &spErr) || errors.As(err, &toErr) {
		return err
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		switch {
		case sdkErr.StatusCode == http.StatusUnauthorized:
			return AuthenticationErr(sdkErr.Error())
		case sdkErr.StatusCode == http.StatusForbidden:
			return ApiErr{StatusCode: sdkErr.StatusCode, Type: "permission_error", Message: sdkErr.Error()}
		case sdkErr.StatusCode == http.StatusNotFound:
			return ApiErr{StatusCode: sdkErr.StatusCode, Type: "not_found_error", Message: sdkErr.Error()}
		case sdkErr.StatusCode == http.StatusTooManyRequests:
			return RateLimitErr(sdkErr.Error())
		case sdkErr.StatusCode == http.StatusServiceUnavailable:
			return ApiErr{StatusCode: sdkErr.StatusCode, Type: "service_unavailable", Message: sdkErr.Error()}
		case sdkErr.StatusCode >= 500:
			return ApiErr{StatusCode: sdkErr.StatusCode, Type: "api_error", Message: sdkErr.Error()}
		default:
			return ApiErr{StatusCode: sdkErr.StatusCode, Type: "invalid_request_error", Message: sdkErr.Error()}
		}
	}

	// Anything else came from the stream itself: decode failures,
	// connection drops, truncated transfers.
	return StreamProcessingErr{Cause: err}
}

// retryable reports whether a classified error is worth another attempt.
// The decision is a pure function of the error kind (and status code for
// ApiErr), so the same underlying failure always yields the same answer.
func retryable(err error) bool {
	var apiErr ApiErr
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			(apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599)
	}
	var rlErr RateLimitErr
	if errors.As(err, &rlErr) {
		return true
	}
	var spErr StreamProcessingErr
	if errors.As(err, &spErr) {
		return true
	}
	return false
}
