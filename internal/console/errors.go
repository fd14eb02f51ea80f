package console

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialRequired is returned when a cluster is entered before its bind password is cached.
	// The gate opens its prompt before returning it.
	ErrCredentialRequired = errors.New("credential required")

	// ErrSubmissionInFlight is returned when a credential is submitted while another submission
	// for the same cluster is still waiting for the server
	ErrSubmissionInFlight = errors.New("credential submission already in flight")
)

// ValidationError is a local input error. It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError is a failed call to the console backend
type RemoteError struct {
	Op     string
	Status int    // HTTP status, 0 when the request never got a response
	Detail string // server-provided detail, may be empty
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// detailOf returns the server detail carried by err, or fallback
func detailOf(err error, fallback string) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Detail != "" {
		return remote.Detail
	}
	return fallback
}
