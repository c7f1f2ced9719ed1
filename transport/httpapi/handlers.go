package httpapi

import (
	"context"
	"net/http"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/httpx"
	"github.com/MrEthical07/goAccount/middleware"
)

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		a.invalid(w, err)
		return
	}

	sess, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, "login", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		a.invalid(w, err)
		return
	}

	ack, err := a.svc.StartRegistration(r.Context(), req.Email)
	if err != nil {
		a.fail(w, r, "register", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ack)
}

func (a *API) confirm(w http.ResponseWriter, r *http.Request) {
	var req tokenPasswordRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(a.password); err != nil {
		a.invalid(w, err)
		return
	}

	ack, err := a.svc.ConfirmRegistration(r.Context(), req.Token, req.Password)
	if err != nil {
		a.fail(w, r, "confirm", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ack)
}

func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		a.invalid(w, err)
		return
	}

	ack, err := a.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		a.fail(w, r, "forgot password", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ack)
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req tokenPasswordRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(a.password); err != nil {
		a.invalid(w, err)
		return
	}

	ack, err := a.svc.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		a.fail(w, r, "reset password", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ack)
}

type meResponse struct {
	AccountID string    `json:"accountId"`
	Role      *string   `json:"role"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		a.fail(w, r, "me", goAccount.ErrTokenInvalid)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		AccountID: res.AccountID,
		Role:      res.Role,
		SessionID: res.SessionID,
		ExpiresAt: res.ExpiresAt,
	})
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validateNew(a.password); err != nil {
		a.invalid(w, err)
		return
	}

	view, err := a.svc.CreateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, "create account", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := a.svc.ListAccounts(r.Context())
	if err != nil {
		a.fail(w, r, "list accounts", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (a *API) addRole(w http.ResponseWriter, r *http.Request) {
	var req addRoleRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		a.invalid(w, err)
		return
	}

	view, err := a.svc.AddRole(r.Context(), r.PathValue("id"), req.Value)
	if err != nil {
		a.fail(w, r, "add role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func toRoleResponse(r goAccount.Role) roleResponse {
	return roleResponse{ID: r.ID, Value: r.Value, Description: r.Description}
}

func (a *API) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decode(w, r, &req); err != nil {
		a.badRequest(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		a.invalid(w, err)
		return
	}

	role, err := a.svc.CreateRole(r.Context(), req.Value, req.Description)
	if err != nil {
		a.fail(w, r, "create role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (a *API) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.svc.GetRoleByValue(r.Context(), r.PathValue("value"))
	if err != nil {
		a.fail(w, r, "get role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRoleResponse(role))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Checks: map[string]string{}}
	status := http.StatusOK
	for _, hc := range a.health {
		if err := hc.Check(ctx); err != nil {
			a.logger.Warn(ctx, "health check failed", "check", hc.Name, "error", err)
			resp.Checks[hc.Name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	httpx.WriteJSON(w, status, resp)
}
