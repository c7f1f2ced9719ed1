package goAccount

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotConfirmed is returned by Login for any non-active account.
	ErrAccountNotConfirmed = errors.New("account not confirmed")
	// ErrPasswordNotSet is returned by Login for an active account without a credential.
	ErrPasswordNotSet = errors.New("password not set")
	// ErrEmailAlreadyRegistered is returned when the email belongs to a confirmed account.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidLink is returned by ConfirmRegistration for an unknown token.
	ErrInvalidLink = errors.New("invalid confirmation link")
	// ErrLinkExpired is returned by ConfirmRegistration for an expired token.
	ErrLinkExpired = errors.New("confirmation link expired")
	// ErrInvalidOrExpiredLink is returned by ResetPassword for unknown and expired tokens alike.
	ErrInvalidOrExpiredLink = errors.New("invalid or expired reset link")
	// ErrAccountNotActive is returned by ResetPassword when the account is not active.
	ErrAccountNotActive = errors.New("account not active")

	ErrInvalidEmail   = errors.New("invalid email")
	ErrPasswordPolicy = errors.New("password does not satisfy policy")
	ErrRoleExists     = errors.New("role already exists")
	ErrInvalidRole    = errors.New("invalid role value")
	ErrForbidden      = errors.New("forbidden")
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrTokenInvalid and ErrTokenExpired are returned by the Validate* methods.
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")

	// Store contract errors.
	ErrAccountNotFound = errors.New("account not found")
	ErrRoleNotFound    = errors.New("role not found")
	ErrVersionConflict = errors.New("account version conflict")
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrStoreUnavailable wraps any other store failure.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrHashingUnavailable is returned when the hashing pool is closed or
	// the caller's deadline passed while queued.
	ErrHashingUnavailable = errors.New("password hashing unavailable")
)

// Unique constraint names reported by stores.
const (
	ConstraintEmail = "email"
	ConstraintToken = "verification_token"
	ConstraintRole  = "role_value"
)

// UniqueViolationError names the constraint that rejected a write.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unique constraint violation on %s", e.Constraint)
	}
	return fmt.Sprintf("unique constraint violation on %s: %v", e.Constraint, e.Err)
}

func (e *UniqueViolationError) Is(target error) bool {
	return target == ErrUniqueViolation
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// ViolatedConstraint returns the constraint name of a unique violation, or "".
func ViolatedConstraint(err error) string {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv.Constraint
	}
	return ""
}

var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidCredentials, "Invalid email or password"},
	{ErrAccountNotConfirmed, "Please confirm your email first"},
	{ErrPasswordNotSet, "Please set your password first"},
	{ErrEmailAlreadyRegistered, "Email already registered"},
	{ErrInvalidLink, "Invalid confirmation link"},
	{ErrLinkExpired, "Confirmation link expired"},
	{ErrInvalidOrExpiredLink, "Invalid or expired reset link"},
	{ErrAccountNotActive, "Cannot reset password for inactive account"},
	{ErrInvalidEmail, "Invalid email address"},
	{ErrPasswordPolicy, "Password does not meet the length requirements"},
	{ErrRoleNotFound, "Role not found"},
	{ErrRoleExists, "Role already exists"},
	{ErrInvalidRole, "Role value is required"},
	{ErrAccountNotFound, "User not found"},
	{ErrTokenExpired, "Unauthorized"},
	{ErrTokenInvalid, "Unauthorized"},
	{ErrForbidden, "Forbidden"},
}

// Message returns the caller-facing text for err. Unknown and
// infrastructure errors collapse to a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Internal server error"
}
