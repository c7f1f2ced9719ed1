package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/logging"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventRegistrationStarted   = "registration_started"
	auditEventRegistrationConfirmed = "registration_confirmed"
	auditEventPasswordResetRequest  = "password_reset_request"
	auditEventPasswordResetConfirm  = "password_reset_confirm"
	auditEventAccountCreated        = "account_created"
	auditEventRoleAssigned          = "role_assigned"
	auditEventRoleCreated           = "role_created"
	auditEventNotificationFailed    = "notification_failed"
)

// AuditErrorCode is the stable, non-sensitive error label carried by audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrNotConfirmed       AuditErrorCode = "account_not_confirmed"
	auditErrPasswordNotSet     AuditErrorCode = "password_not_set"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidLink        AuditErrorCode = "invalid_link"
	auditErrLinkExpired        AuditErrorCode = "link_expired"
	auditErrAccountNotActive   AuditErrorCode = "account_not_active"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrPolicy             AuditErrorCode = "policy"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if email != "" {
		event.Email = logging.RedactEmail(email)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountNotConfirmed):
		return auditErrNotConfirmed
	case errors.Is(err, ErrPasswordNotSet):
		return auditErrPasswordNotSet
	case errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrRoleExists),
		errors.Is(err, ErrUniqueViolation):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidLink),
		errors.Is(err, ErrInvalidOrExpiredLink):
		return auditErrInvalidLink
	case errors.Is(err, ErrLinkExpired):
		return auditErrLinkExpired
	case errors.Is(err, ErrAccountNotActive):
		return auditErrAccountNotActive
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrRoleNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrInvalidRole):
		return auditErrPolicy
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrHashingUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
