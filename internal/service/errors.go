package service

import (
	"errors"
	"fmt"

	"github.com/devplatform/ldap-console/internal/registry"
)

var (
	// ErrClusterNotFound is returned for names missing from the registry
	ErrClusterNotFound = registry.ErrClusterNotFound

	// ErrPasswordRequired is returned by Connect when neither a cached nor a supplied password exists
	ErrPasswordRequired = errors.New("Password required")

	// ErrCredentialNotCached is returned by operations that need a prior successful connect
	ErrCredentialNotCached = errors.New("Password not configured")

	// ErrInvalidArgument marks a request the caller must fix
	ErrInvalidArgument = errors.New("invalid argument")
)

// DirectoryError is a failure talking to the directory server
type DirectoryError struct {
	Cluster string
	Op      string
	Err     error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Cluster, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
