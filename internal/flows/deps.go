package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/logging"
)

// Status and purpose codes. The root package enums use the same values.
const (
	StatusPending uint8 = 1
	StatusActive  uint8 = 2
	StatusBanned  uint8 = 3

	PurposeConfirmRegistration uint8 = 1
	PurposePasswordReset       uint8 = 2
)

// PendingRecord is the flow-local copy of the single verification slot.
type PendingRecord struct {
	Token     string
	ExpiresAt time.Time
	Purpose   uint8
}

// Expired reports whether the token is unusable at now.
func (p *PendingRecord) Expired(now time.Time) bool {
	return p == nil || !now.Before(p.ExpiresAt)
}

// AccountRecord is the flow-local account model.
type AccountRecord struct {
	ID           string
	Email        string
	PasswordHash string
	Status       uint8
	Pending      *PendingRecord
	Roles        []string
	Version      int64
	CreatedAt    time.Time
}

// PrimaryRole is the first role value or nil.
func (a AccountRecord) PrimaryRole() *string {
	if len(a.Roles) == 0 {
		return nil
	}
	r := a.Roles[0]
	return &r
}

// NewAccountRecord is passed to the Create dependency.
type NewAccountRecord struct {
	Email        string
	PasswordHash string
	Status       uint8
	Pending      *PendingRecord
	Roles        []string
}

// AccountPatch is passed to the Update dependency. ClearPending wins over Pending.
type AccountPatch struct {
	PasswordHash *string
	Status       *uint8
	Pending      *PendingRecord
	ClearPending bool
}

// StoreErrors lets flows classify errors coming back from store dependencies.
type StoreErrors struct {
	AccountNotFound  error
	VersionConflict  error
	IsEmailCollision func(error) bool
	IsTokenCollision func(error) bool
}

// Observer is the reporting side of every flow. All fields are optional.
type Observer struct {
	Logger    logging.Logger
	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, accountID, email string, err error, metadata func() map[string]string)

	// NotificationFailure is the metric id bumped when a Notifier call fails.
	NotificationFailure int
	// NotificationFailed is the audit event emitted when a Notifier call fails.
	NotificationFailed string
}

func (o *Observer) normalize() {
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.MetricInc == nil {
		o.MetricInc = func(int) {}
	}
	if o.EmitAudit == nil {
		o.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
}

// notify runs send and reports a failure without returning it. The state
// change that preceded the notification stays in place.
func (o Observer) notify(ctx context.Context, kind string, acct AccountRecord, send func(context.Context, string, string) error, token string) {
	if send == nil {
		return
	}
	if err := send(ctx, acct.Email, token); err != nil {
		o.Logger.Warn(ctx, "notification failed",
			"kind", kind,
			"account_id", acct.ID,
			"email", logging.RedactEmail(acct.Email),
			"error", err,
		)
		o.MetricInc(o.NotificationFailure)
		o.EmitAudit(ctx, o.NotificationFailed, false, acct.ID, acct.Email, err, func() map[string]string {
			return map[string]string{"kind": kind}
		})
	}
}

// Tokens bundles the opaque token generator and the clock.
type Tokens struct {
	NewToken      func() (string, error)
	WellFormed    func(string) bool
	Now           func() time.Time
	IssueAttempts int
	// IssueConflict is the metric id bumped on every lost issuance race.
	IssueConflict int
}

func (t *Tokens) normalize() {
	if t.Now == nil {
		t.Now = time.Now
	}
	if t.WellFormed == nil {
		t.WellFormed = func(s string) bool { return s != "" }
	}
	if t.IssueAttempts < 1 {
		t.IssueAttempts = 1
	}
}

// retryable reports whether a token write lost a race that a fresh read
// can resolve.
func retryable(err error, se StoreErrors) bool {
	if errors.Is(err, se.VersionConflict) {
		return true
	}
	return se.IsTokenCollision != nil && se.IsTokenCollision(err)
}

func isEmailCollision(err error, se StoreErrors) bool {
	return se.IsEmailCollision != nil && se.IsEmailCollision(err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
