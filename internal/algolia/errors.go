package algolia

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// KindHTTPStatus means the endpoint answered with a non-2xx status.
	KindHTTPStatus Kind = iota + 1
	// KindNetwork means the request could not complete (DNS, connect, timeout, cancel).
	KindNetwork
	// KindMalformedResponse means the body did not have the expected shape.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindHTTPStatus:
		return "http_status"
	case KindNetwork:
		return "network"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; each matches the FetchError of the same kind.
var (
	ErrHTTPStatus        = errors.New("unexpected http status")
	ErrNetwork           = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchError is returned by Client.Fetch for every failure.
type FetchError struct {
	Kind       Kind
	StatusCode int   // set for KindHTTPStatus
	Err        error // underlying cause, if any
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("algolia: status %d", e.StatusCode)
	case KindNetwork:
		return fmt.Sprintf("algolia: network failure: %v", e.Err)
	case KindMalformedResponse:
		return fmt.Sprintf("algolia: malformed response: %v", e.Err)
	default:
		return fmt.Sprintf("algolia: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrHTTPStatus:
		return e.Kind == KindHTTPStatus
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

func malformed(format string, args ...any) *FetchError {
	return &FetchError{Kind: KindMalformedResponse, Err: fmt.Errorf(format, args...)}
}
