package goAccount

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/jwt"
)

// ValidateAccess verifies an access token offline. The store is never
// consulted, so a role change takes effect at the next login.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		e.logger.Debug(ctx, "access token rejected", "error", err)
		return nil, mapJWTError(err)
	}
	res := &AuthResult{
		AccountID: claims.AccountID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		TFA:       claims.TFA,
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Time
	}
	return res, nil
}

// ValidateRefresh verifies a refresh token and returns its session id.
// Refresh tokens carry no account identity.
func (e *Engine) ValidateRefresh(ctx context.Context, token string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	claims, err := e.jwtManager.ParseRefresh(token)
	if err != nil {
		e.logger.Debug(ctx, "refresh token rejected", "error", err)
		return "", mapJWTError(err)
	}
	return claims.SessionID, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
