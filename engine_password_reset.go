package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// ForgotPassword mails a reset link when email belongs to an active account.
// The acknowledgement is identical in every case.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (Acknowledgement, error) {
	if e == nil {
		return Acknowledgement{}, ErrEngineNotReady
	}
	addr, err := internalflows.RunForgotPassword(ctx, normalizeEmail(email), e.passwordResetFlowDeps())
	if err != nil {
		return Acknowledgement{}, err
	}
	return Acknowledgement{Message: msgResetLinkSent, Email: addr}, nil
}

// ResetPassword consumes a reset token and replaces the password.
func (e *Engine) ResetPassword(ctx context.Context, token, password string) (Acknowledgement, error) {
	if e == nil {
		return Acknowledgement{}, ErrEngineNotReady
	}
	addr, err := internalflows.RunResetPassword(ctx, token, password, e.passwordResetFlowDeps())
	if err != nil {
		return Acknowledgement{}, err
	}
	return Acknowledgement{Message: msgPasswordResetDone, Email: addr}, nil
}

func (e *Engine) passwordResetFlowDeps() internalflows.PasswordResetDeps {
	deps := internalflows.PasswordResetDeps{
		Observer:         e.observer(),
		Tokens:           e.tokens(),
		Store:            storeErrors(),
		ResetTTL:         e.config.PasswordReset.ResetTTL,
		ValidateEmail:    e.validateEmail,
		ValidatePassword: e.validatePassword,
		Metrics: internalflows.PasswordResetMetrics{
			PasswordResetRequest: int(MetricPasswordResetRequest),
			PasswordResetIssued:  int(MetricPasswordResetIssued),
			PasswordResetSuccess: int(MetricPasswordResetSuccess),
			PasswordResetFailure: int(MetricPasswordResetFailure),
		},
		Events: internalflows.PasswordResetEvents{
			PasswordResetRequest: auditEventPasswordResetRequest,
			PasswordResetConfirm: auditEventPasswordResetConfirm,
		},
		Errors: internalflows.PasswordResetErrors{
			EngineNotReady:       ErrEngineNotReady,
			InvalidOrExpiredLink: ErrInvalidOrExpiredLink,
			AccountNotActive:     ErrAccountNotActive,
		},
	}
	if e.accounts != nil {
		deps.FindByEmail = e.findByEmail
		deps.FindByToken = e.findByToken
		deps.Update = e.updateAccount
	}
	if e.hasher != nil {
		deps.HashPassword = e.hashPassword
	}
	if e.notifier != nil {
		deps.SendPasswordReset = e.notifier.SendPasswordReset
	}
	return deps
}
