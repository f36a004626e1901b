package core

import (
	"errors"
	"fmt"

	"studenttracker/pkg/common"
)

// Error kinds. Match with errors.Is.
var (
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrNotFound           = errors.New("not found")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedState     = errors.New("malformed persisted state")
	ErrValueOutOfRange    = common.ErrValueOutOfRange
)

// OpError carries the store and key an operation failed on.
type OpError struct {
	Store string // "student" or "teacher"
	Op    string
	Key   string
	Kind  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s.%s %q: %v", e.Store, e.Op, e.Key, e.Kind)
}

func (e *OpError) Unwrap() error { return e.Kind }

func opErr(store, op, key string, kind error) error {
	return &OpError{Store: store, Op: op, Key: key, Kind: kind}
}

// CredentialsError is returned for a wrong password on an unlocked account.
type CredentialsError struct {
	TeacherID string
	Remaining int
}

func (e *CredentialsError) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("incorrect password for %s: %d attempt(s) remaining", e.TeacherID, e.Remaining)
	}
	return fmt.Sprintf("incorrect password for %s: account is now locked", e.TeacherID)
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate reports whether err is a DuplicateKey error.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateKey) }
