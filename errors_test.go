package streamgen

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyErrPassthrough(t *testing.T) {
	// already-classified errors must come back unchanged so that
	// classification is idempotent
	testCases := []error{
		ApiErr{StatusCode: 500, Type: "api_error", Message: "boom"},
		RateLimitErr("slow down"),
		AuthenticationErr("bad key"),
		StreamProcessingErr{Cause: errors.New("connection reset")},
		TimeoutErr{Elapsed: time.Second},
	}
	for _, err := range testCases {
		t.Run(fmt.Sprintf("%T", err), func(t *testing.T) {
			if got := classifyErr(err); !errors.Is(got, err) && got != err {
				t.Errorf("classifyErr(%v) = %v, want unchanged", err, got)
			}
			// wrapped classified errors also pass through
			wrapped := fmt.Errorf("attempt 2: %w", err)
			if got := classifyErr(wrapped); got != wrapped {
				t.Errorf("classifyErr(wrapped %v) = %v, want the wrapped error unchanged", err, got)
			}
		})
	}
}

func TestClassifyErrWrapsUnknownAsStreamProcessing(t *testing.T) {
	cause := errors.New("unexpected EOF")
	got := classifyErr(cause)

	var spErr StreamProcessingErr
	if !errors.As(got, &spErr) {
		t.Fatalf("classifyErr(%v) = %T, want StreamProcessingErr", cause, got)
	}
	if !errors.Is(got, cause) {
		t.Errorf("classified error does not unwrap to the original cause")
	}
}

func TestClassifyErrNil(t *testing.T) {
	if got := classifyErr(nil); got != nil {
		t.Errorf("classifyErr(nil) = %v, want nil", got)
	}
}

func TestClassifyErrIdempotent(t *testing.T) {
	inputs := []error{
		errors.New("connection reset by peer"),
		RateLimitErr("429"),
		ApiErr{StatusCode: 400, Type: "invalid_request_error", Message: "bad"},
	}
	for _, err := range inputs {
		once := classifyErr(err)
		twice := classifyErr(once)
		if once != twice {
			t.Errorf("classifyErr not idempotent for %v: %v != %v", err, once, twice)
		}
	}
}

func TestRetryable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", RateLimitErr("slow down"), true},
		{"api 429", ApiErr{StatusCode: 429, Type: "too_many_requests"}, true},
		{"api 500", ApiErr{StatusCode: 500, Type: "api_error"}, true},
		{"api 503", ApiErr{StatusCode: 503, Type: "service_unavailable"}, true},
		{"api 529", ApiErr{StatusCode: 529, Type: "overloaded_error"}, true},
		{"api 400", ApiErr{StatusCode: 400, Type: "invalid_request_error"}, false},
		{"api 403", ApiErr{StatusCode: 403, Type: "permission_error"}, false},
		{"api 404", ApiErr{StatusCode: 404, Type: "not_found_error"}, false},
		{"stream processing", StreamProcessingErr{Cause: errors.New("dropped")}, true},
		{"authentication", AuthenticationErr("bad key"), false},
		{"timeout", TimeoutErr{Elapsed: time.Second}, false},
		{"plain error", errors.New("unclassified"), false},
		{"wrapped rate limit", fmt.Errorf("attempt 3: %w", RateLimitErr("slow down")), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryable(tc.err); got != tc.want {
				t.Errorf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
			// the decision must be stable
			if got := retryable(tc.err); got != tc.want {
				t.Errorf("retryable(%v) changed between calls", tc.err)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	apiErr := ApiErr{StatusCode: 503, Type: "service_unavailable", Message: "try later"}
	if got := apiErr.Error(); got != `api error (status 503, type "service_unavailable"): try later` {
		t.Errorf("ApiErr.Error() = %q", got)
	}
	if got := RateLimitErr("too fast").Error(); got != "rate limited: too fast" {
		t.Errorf("RateLimitErr.Error() = %q", got)
	}
	if got := AuthenticationErr("no key").Error(); got != "authentication error: no key" {
		t.Errorf("AuthenticationErr.Error() = %q", got)
	}
	toErr := TimeoutErr{Elapsed: 2 * time.Second}
	if got := toErr.Error(); got != "generation timed out after 2s" {
		t.Errorf("TimeoutErr.Error() = %q", got)
	}
}

func TestStreamProcessingErrUnwrap(t *testing.T) {
	cause := errors.New("bad chunk")
	err := StreamProcessingErr{Cause: cause}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(StreamProcessingErr, cause) = false, want true")
	}
}
