package goAccount

import (
	"context"
	"fmt"
	"time"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus uint8

const (
	// AccountPending is the state of a self-registered account that has not
	// confirmed its email. It has no password.
	AccountPending AccountStatus = iota + 1
	// AccountActive accounts may log in.
	AccountActive
	// AccountBanned is set out of band by operators. The engine never enters it.
	AccountBanned
)

func (s AccountStatus) String() string {
	switch s {
	case AccountPending:
		return "pending"
	case AccountActive:
		return "active"
	case AccountBanned:
		return "banned"
	default:
		return fmt.Sprintf("AccountStatus(%d)", uint8(s))
	}
}

// ParseAccountStatus is the inverse of AccountStatus.String.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch s {
	case "pending":
		return AccountPending, nil
	case "active":
		return AccountActive, nil
	case "banned":
		return AccountBanned, nil
	default:
		return 0, fmt.Errorf("unknown account status %q", s)
	}
}

// VerificationPurpose says what a pending verification token unlocks.
type VerificationPurpose uint8

const (
	// PurposeConfirmRegistration tokens are mailed by StartRegistration.
	PurposeConfirmRegistration VerificationPurpose = iota + 1
	// PurposePasswordReset tokens are mailed by ForgotPassword.
	PurposePasswordReset
)

func (p VerificationPurpose) String() string {
	switch p {
	case PurposeConfirmRegistration:
		return "confirm_registration"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return fmt.Sprintf("VerificationPurpose(%d)", uint8(p))
	}
}

// ParseVerificationPurpose is the inverse of VerificationPurpose.String.
func ParseVerificationPurpose(s string) (VerificationPurpose, error) {
	switch s {
	case "confirm_registration":
		return PurposeConfirmRegistration, nil
	case "password_reset":
		return PurposePasswordReset, nil
	default:
		return 0, fmt.Errorf("unknown verification purpose %q", s)
	}
}

// PendingVerification is the single token slot on an account. Issuing a new
// token for either purpose replaces whatever the slot held.
type PendingVerification struct {
	Token     string
	ExpiresAt time.Time
	Purpose   VerificationPurpose
}

// Expired reports whether the token is no longer usable at now.
func (p PendingVerification) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Role is a named permission tag such as "normal" or "ADMIN".
type Role struct {
	ID          int64
	Value       string
	Description string
}

// Account is the stored account record. PasswordHash is empty while the
// account is pending. Version increases on every successful update.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Status       AccountStatus
	Pending      *PendingVerification
	Roles        []Role
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether a credential has been set.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// PrimaryRole is the first role value, or nil when the account has none.
func (a Account) PrimaryRole() *string {
	if len(a.Roles) == 0 {
		return nil
	}
	v := a.Roles[0].Value
	return &v
}

// NewAccount is the input to AccountStore.Create.
type NewAccount struct {
	Email        string
	PasswordHash string
	Status       AccountStatus
	Pending      *PendingVerification
	// Roles are role values. The store assigns them in the same transaction
	// as the insert and fails with ErrRoleNotFound for an unknown value.
	Roles []string
}

// AccountUpdate is a partial update. Nil fields are left untouched.
// ClearPending empties the token slot and wins over Pending.
type AccountUpdate struct {
	PasswordHash *string
	Status       *AccountStatus
	Pending      *PendingVerification
	ClearPending bool
}

// AccountStore persists accounts. Implementations must enforce uniqueness of
// email and of the pending token, reporting collisions with an error that
// matches ErrUniqueViolation.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByVerificationToken(ctx context.Context, token string) (Account, error)
	Create(ctx context.Context, in NewAccount) (Account, error)
	// UpdateFields applies upd only if the stored version equals
	// expectedVersion, otherwise it fails with ErrVersionConflict.
	UpdateFields(ctx context.Context, id string, expectedVersion int64, upd AccountUpdate) (Account, error)
	AddRole(ctx context.Context, accountID, roleValue string) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

// RoleStore persists the flat role catalogue.
type RoleStore interface {
	CreateRole(ctx context.Context, value, description string) (Role, error)
	FindRoleByValue(ctx context.Context, value string) (Role, error)
}

// Notifier delivers verification links. Calls are fire-and-forget from the
// engine's point of view: an error is logged but never undoes the state
// change that preceded it.
type Notifier interface {
	SendConfirmation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// AccountView is the redacted projection returned to callers. It never
// carries the password hash or the verification token.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Role      *string   `json:"role"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// View builds the redacted projection of a.
func (a Account) View() AccountView {
	roles := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		roles = append(roles, r.Value)
	}
	return AccountView{
		ID:        a.ID,
		Email:     a.Email,
		Status:    a.Status.String(),
		Role:      a.PrimaryRole(),
		Roles:     roles,
		CreatedAt: a.CreatedAt,
	}
}

// Session is the result of a successful login.
type Session struct {
	AccessToken     string      `json:"accessToken"`
	RefreshToken    string      `json:"refreshToken"`
	AccessExpiresAt time.Time   `json:"expiresAt"`
	Account         AccountView `json:"user"`
}

// Acknowledgement is the generic response of the registration and reset
// operations. Its content never depends on which internal branch ran.
type Acknowledgement struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// AuthResult is returned by ValidateAccess.
type AuthResult struct {
	AccountID string
	Role      *string
	SessionID string
	TFA       bool
	ExpiresAt time.Time
}

// HasRole reports whether the token's primary role equals value.
func (r *AuthResult) HasRole(value string) bool {
	return r != nil && r.Role != nil && *r.Role == value
}
