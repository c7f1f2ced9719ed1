package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

const (
	msgConfirmationSent  = "Confirmation email sent. Please check your inbox."
	msgPasswordSet       = "Password set successfully. You can now login."
	msgResetLinkSent     = "If the email exists, a password reset link has been sent."
	msgPasswordResetDone = "Password has been reset successfully. You can now login."
)

// StartRegistration creates a pending account for email, or refreshes the
// confirmation token of one that is still pending, and mails the link.
func (e *Engine) StartRegistration(ctx context.Context, email string) (Acknowledgement, error) {
	if e == nil {
		return Acknowledgement{}, ErrEngineNotReady
	}
	addr, err := internalflows.RunStartRegistration(ctx, normalizeEmail(email), e.registrationFlowDeps())
	if err != nil {
		return Acknowledgement{}, err
	}
	return Acknowledgement{Message: msgConfirmationSent, Email: addr}, nil
}

// ConfirmRegistration sets the first password of a pending account and
// activates it. No session is issued.
func (e *Engine) ConfirmRegistration(ctx context.Context, token, password string) (Acknowledgement, error) {
	if e == nil {
		return Acknowledgement{}, ErrEngineNotReady
	}
	addr, err := internalflows.RunConfirmRegistration(ctx, token, password, e.registrationFlowDeps())
	if err != nil {
		return Acknowledgement{}, err
	}
	return Acknowledgement{Message: msgPasswordSet, Email: addr}, nil
}

func (e *Engine) registrationFlowDeps() internalflows.RegistrationDeps {
	deps := internalflows.RegistrationDeps{
		Observer:         e.observer(),
		Tokens:           e.tokens(),
		Store:            storeErrors(),
		ConfirmationTTL:  e.config.Registration.ConfirmationTTL,
		DefaultRole:      e.config.Registration.DefaultRole,
		ValidateEmail:    e.validateEmail,
		ValidatePassword: e.validatePassword,
		Metrics: internalflows.RegistrationMetrics{
			RegistrationStarted:       int(MetricRegistrationStarted),
			RegistrationResent:        int(MetricRegistrationResent),
			RegistrationDuplicate:     int(MetricRegistrationDuplicate),
			RegistrationConfirmed:     int(MetricRegistrationConfirmed),
			RegistrationConfirmFailed: int(MetricRegistrationConfirmFailure),
		},
		Events: internalflows.RegistrationEvents{
			RegistrationStarted:   auditEventRegistrationStarted,
			RegistrationConfirmed: auditEventRegistrationConfirmed,
		},
		Errors: internalflows.RegistrationErrors{
			EngineNotReady:         ErrEngineNotReady,
			EmailAlreadyRegistered: ErrEmailAlreadyRegistered,
			InvalidLink:            ErrInvalidLink,
			LinkExpired:            ErrLinkExpired,
			StoreUnavailable:       ErrStoreUnavailable,
		},
	}
	if e.accounts != nil {
		deps.FindByEmail = e.findByEmail
		deps.FindByToken = e.findByToken
		deps.Create = e.createAccount
		deps.Update = e.updateAccount
	}
	if e.hasher != nil {
		deps.HashPassword = e.hashPassword
	}
	if e.notifier != nil {
		deps.SendConfirmation = e.notifier.SendConfirmation
	}
	return deps
}
