package symsrv

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type netTimeout struct{}

func (netTimeout) Error() string { return "timeout awaiting response headers" }
func (netTimeout) Timeout() bool { return true }
func (netTimeout) Temporary() bool { return true }

func TestTransportErrorTimeout(t *testing.T) {
	testCases := []struct {
		name string
		err  *TransportError
		want bool
	}{
		{"attempt deadline", &TransportError{Err: fmt.Errorf("get: %w", context.DeadlineExceeded)}, true},
		{"header timeout", &TransportError{Err: fmt.Errorf("get: %w", netTimeout{})}, true},
		{"status", &TransportError{StatusCode: 500}, false},
		{"reset", &TransportError{Err: errors.New("connection reset")}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Timeout(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRetrieveErrorPrefersLastNonNotFound(t *testing.T) {
	timeout := &TransportError{URL: "http://b", Err: context.DeadlineExceeded}
	err := newRetrieveError("a.pdb", "1", []AttemptError{
		{Server: ServerSpec{ServerURL: "http://a"}, Err: ErrFileNotFound},
		{Server: ServerSpec{ServerURL: "http://b"}, Err: timeout},
		{Server: ServerSpec{ServerURL: "http://c"}, Err: ErrFileNotFound},
	})
	if err.NotFound() {
		t.Fatalf("a timeout in the chain should not read as not found")
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || !transportErr.Timeout() {
		t.Fatalf("expected the timed-out transport error, got %v", err)
	}
}
