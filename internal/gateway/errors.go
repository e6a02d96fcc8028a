package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a gateway failure.
type Kind int

const (
	// KindTransport is a connection error or timeout that survived all attempts.
	KindTransport Kind = iota + 1
	// KindRateLimit is an HTTP 429 from the completion endpoint.
	KindRateLimit
	// KindServer is any other non-200 status.
	KindServer
	// KindParse is a 200 response whose body is not valid JSON.
	KindParse
	// KindUnexpectedShape is valid JSON without choices[0].message.content.
	KindUnexpectedShape
	// KindUnexpected covers everything else, such as a request that cannot be built.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindParse:
		return "parse"
	case KindUnexpectedShape:
		return "unexpected_shape"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

var (
	// ErrRateLimited is returned for HTTP 429 responses.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrParse is returned when a 200 response body is not valid JSON.
	ErrParse = errors.New("response parsing error")
	// ErrUnexpectedShape is returned when the completion text is missing.
	ErrUnexpectedShape = errors.New("unexpected response format")
)

// TransportError wraps a failure to complete the HTTP exchange.
// It is the only error the retry loop retries.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a connect or total timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is a completed exchange with a status other than 200 or 429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d", e.StatusCode)
}

// Failure is the caller-facing description of a failed GenerateResponse call.
type Failure struct {
	Kind    Kind
	Message string // user-displayable
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result holds either the completion text or a Failure.
type Result struct {
	Text    string
	Failure *Failure
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Display returns the text to show the user: the completion on success,
// the failure message otherwise.
func (r Result) Display() string {
	if r.Failure != nil {
		return r.Failure.Message
	}
	return r.Text
}

func isTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
