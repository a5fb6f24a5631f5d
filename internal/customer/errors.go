package customer

import (
	"errors"
	"fmt"
)

// Channel names the identifier through which a conflicting record was found.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

var (
	// ErrConflict matches every identity conflict through errors.Is.
	ErrConflict = errors.New("customer identity conflict")

	// ErrBlankEmail is returned when a guest checkout supplies no email.
	ErrBlankEmail = errors.New("email is required")
)

// DifferentUserConflictError reports that an email or phone is already linked
// to another account in the business.
type DifferentUserConflictError struct {
	Identifier      string
	Channel         Channel
	BusinessID      uint
	ExistingUserID  uint
	AttemptedUserID uint
}

func (e *DifferentUserConflictError) Error() string {
	return fmt.Sprintf("%s %q is already linked to another account in business %d",
		e.Channel, e.Identifier, e.BusinessID)
}

func (e *DifferentUserConflictError) Is(target error) bool {
	return target == ErrConflict
}

// GuestIdentityConflictError reports a guest checkout with an email or phone
// that belongs to a registered account.
type GuestIdentityConflictError struct {
	Identifier     string
	Channel        Channel
	BusinessID     uint
	ExistingUserID uint
}

func (e *GuestIdentityConflictError) Error() string {
	return fmt.Sprintf("%s %q belongs to a registered account in business %d",
		e.Channel, e.Identifier, e.BusinessID)
}

func (e *GuestIdentityConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Suggestion is a user-facing hint for resolving the conflict.
func (e *GuestIdentityConflictError) Suggestion() string {
	return fmt.Sprintf("This %s is already registered. Please sign in to continue.", e.Channel)
}

// InvalidAccountRoleError is returned when the account type cannot own a customer record.
type InvalidAccountRoleError struct {
	Role string
}

func (e *InvalidAccountRoleError) Error() string {
	return fmt.Sprintf("account role %q cannot be linked to a customer record", e.Role)
}

// UniquenessViolationError wraps a storage-level duplicate (business_id, email).
// It is produced by concurrent creations and is safe to retry.
type UniquenessViolationError struct {
	BusinessID uint
	Email      string
	Err        error
}

func (e *UniquenessViolationError) Error() string {
	return fmt.Sprintf("customer with email %q already exists in business %d: %v", e.Email, e.BusinessID, e.Err)
}

func (e *UniquenessViolationError) Unwrap() error {
	return e.Err
}

// Retryable reports that the caller may retry the whole operation.
func (e *UniquenessViolationError) Retryable() bool {
	return true
}

// DuplicateLinkError reports several records in one business linked to the same
// account. Storage should never contain this; it needs operator review.
type DuplicateLinkError struct {
	BusinessID  uint
	UserID      uint
	CustomerIDs []uint
}

func (e *DuplicateLinkError) Error() string {
	return fmt.Sprintf("account %d is linked to %d customer records in business %d: %v",
		e.UserID, len(e.CustomerIDs), e.BusinessID, e.CustomerIDs)
}
