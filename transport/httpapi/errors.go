package httpapi

import (
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var statusByError = []struct {
	err    error
	status int
}{
	{goAccount.ErrInvalidCredentials, http.StatusUnauthorized},
	{goAccount.ErrAccountNotConfirmed, http.StatusUnauthorized},
	{goAccount.ErrPasswordNotSet, http.StatusUnauthorized},
	{goAccount.ErrTokenInvalid, http.StatusUnauthorized},
	{goAccount.ErrTokenExpired, http.StatusUnauthorized},
	{goAccount.ErrForbidden, http.StatusForbidden},
	{goAccount.ErrAccountNotFound, http.StatusNotFound},
	{goAccount.ErrRoleNotFound, http.StatusNotFound},
	{goAccount.ErrRoleExists, http.StatusConflict},
	{goAccount.ErrEmailAlreadyRegistered, http.StatusBadRequest},
	{goAccount.ErrInvalidLink, http.StatusBadRequest},
	{goAccount.ErrLinkExpired, http.StatusBadRequest},
	{goAccount.ErrInvalidOrExpiredLink, http.StatusBadRequest},
	{goAccount.ErrAccountNotActive, http.StatusBadRequest},
	{goAccount.ErrInvalidEmail, http.StatusBadRequest},
	{goAccount.ErrPasswordPolicy, http.StatusBadRequest},
	{goAccount.ErrInvalidRole, http.StatusBadRequest},
	{goAccount.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{goAccount.ErrHashingUnavailable, http.StatusServiceUnavailable},
	{goAccount.ErrEngineNotReady, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", "op", op, "status", status, "error", err)
	}
	httpx.WriteError(w, status, goAccount.Message(err))
}

func (a *API) badRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, msg)
}

// invalid writes the field errors produced by ozzo-validation.
func (a *API) invalid(w http.ResponseWriter, err error) {
	body := httpx.ErrorBody{StatusCode: http.StatusBadRequest, Message: "Validation failed"}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		body.Message = err.Error()
		httpx.WriteJSON(w, http.StatusBadRequest, body)
		return
	}
	for _, name := range sortedKeys(fields) {
		constraints := map[string]string{}
		var verr validation.Error
		if errors.As(fields[name], &verr) {
			constraints[verr.Code()] = verr.Message()
		} else {
			constraints["invalid"] = fields[name].Error()
		}
		body.Errors = append(body.Errors, httpx.FieldError{Property: name, Constraints: constraints})
	}
	httpx.WriteJSON(w, http.StatusBadRequest, body)
}
