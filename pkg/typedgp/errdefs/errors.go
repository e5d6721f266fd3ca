// Package errdefs defines the error kinds shared by the typedgp packages.
// Callers should match them with errors.Is; every site wraps one of these
// sentinels with the details of the failure.
package errdefs

import "errors"

var (
	// ErrInvalidArgument is returned when a value of the wrong kind is passed
	// to a type relation, a table lookup, an operator call or AddChild.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexOutOfRange is returned when a child position or a tree index
	// does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrKeyNotFound is returned when no operator resolves for a type.
	ErrKeyNotFound = errors.New("key not found")

	// ErrPreconditionViolation is returned when a construction-time contract
	// is broken (e.g. a parametrized type without parameters).
	ErrPreconditionViolation = errors.New("precondition violation")
)

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrPreconditionViolation)
}
