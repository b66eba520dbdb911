package backend

import "errors"

// unknownBackendError is returned by New for unregistered names.
type unknownBackendError struct{ name string }

func (e unknownBackendError) Error() string { return "unknown backend: " + e.name }

// IsUnknownBackend reports whether err came from New with an unregistered name.
func IsUnknownBackend(err error) bool {
	var e unknownBackendError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a backend whose native dependency is not
// compiled in or failed to start.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// ErrNotReady is returned when a runtime is used before Initialize succeeded.
var ErrNotReady = errors.New("runtime not initialized")

// IsNotReady reports whether err wraps ErrNotReady.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }
