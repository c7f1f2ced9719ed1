package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/httpx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op   string
	args []string
}

type fakeService struct {
	calls []call
	err   error
}

func strPtr(s string) *string { return &s }

func (f *fakeService) record(_ context.Context, op string, args ...string) error {
	f.calls = append(f.calls, call{op: op, args: args})
	return f.err
}

func (f *fakeService) Login(ctx context.Context, email, password string) (goAccount.Session, error) {
	if err := f.record(ctx, "login", email, password); err != nil {
		return goAccount.Session{}, err
	}
	return goAccount.Session{
		AccessToken:     "access",
		RefreshToken:    "refresh",
		AccessExpiresAt: time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC),
		Account:         goAccount.AccountView{ID: "acc-1", Email: email, Status: "active", Role: strPtr("normal"), Roles: []string{"normal"}},
	}, nil
}

func (f *fakeService) StartRegistration(ctx context.Context, email string) (goAccount.Acknowledgement, error) {
	if err := f.record(ctx, "register", email); err != nil {
		return goAccount.Acknowledgement{}, err
	}
	return goAccount.Acknowledgement{Message: "Confirmation email sent. Please check your inbox.", Email: email}, nil
}

func (f *fakeService) ConfirmRegistration(ctx context.Context, token, password string) (goAccount.Acknowledgement, error) {
	if err := f.record(ctx, "confirm", token, password); err != nil {
		return goAccount.Acknowledgement{}, err
	}
	return goAccount.Acknowledgement{Message: "Password set successfully. You can now login.", Email: "a@x.com"}, nil
}

func (f *fakeService) ForgotPassword(ctx context.Context, email string) (goAccount.Acknowledgement, error) {
	if err := f.record(ctx, "forgot", email); err != nil {
		return goAccount.Acknowledgement{}, err
	}
	return goAccount.Acknowledgement{Message: "If the email exists, a password reset link has been sent."}, nil
}

func (f *fakeService) ResetPassword(ctx context.Context, token, password string) (goAccount.Acknowledgement, error) {
	if err := f.record(ctx, "reset", token, password); err != nil {
		return goAccount.Acknowledgement{}, err
	}
	return goAccount.Acknowledgement{Message: "Password has been reset successfully. You can now login."}, nil
}

func (f *fakeService) CreateAccount(ctx context.Context, email, password string) (goAccount.AccountView, error) {
	if err := f.record(ctx, "create account", email, password); err != nil {
		return goAccount.AccountView{}, err
	}
	return goAccount.AccountView{ID: "acc-9", Email: email, Status: "active", Role: strPtr("ADMIN"), Roles: []string{"ADMIN"}}, nil
}

func (f *fakeService) AddRole(ctx context.Context, accountID, roleValue string) (goAccount.AccountView, error) {
	if err := f.record(ctx, "add role", accountID, roleValue); err != nil {
		return goAccount.AccountView{}, err
	}
	return goAccount.AccountView{ID: accountID, Roles: []string{"normal", roleValue}}, nil
}

func (f *fakeService) ListAccounts(ctx context.Context) ([]goAccount.AccountView, error) {
	if err := f.record(ctx, "list"); err != nil {
		return nil, err
	}
	return []goAccount.AccountView{{ID: "acc-1", Email: "a@x.com", Roles: []string{}}}, nil
}

func (f *fakeService) CreateRole(ctx context.Context, value, description string) (goAccount.Role, error) {
	if err := f.record(ctx, "create role", value, description); err != nil {
		return goAccount.Role{}, err
	}
	return goAccount.Role{ID: 4, Value: value, Description: description}, nil
}

func (f *fakeService) GetRoleByValue(ctx context.Context, value string) (goAccount.Role, error) {
	if err := f.record(ctx, "get role", value); err != nil {
		return goAccount.Role{}, err
	}
	return goAccount.Role{ID: 3, Value: value}, nil
}

func (f *fakeService) ValidateAccess(_ context.Context, token string) (*goAccount.AuthResult, error) {
	switch token {
	case "admin":
		return &goAccount.AuthResult{AccountID: "acc-admin", Role: strPtr("ADMIN"), SessionID: "s-admin"}, nil
	case "user":
		return &goAccount.AuthResult{AccountID: "acc-user", Role: strPtr("normal"), SessionID: "s-user"}, nil
	}
	return nil, goAccount.ErrTokenInvalid
}

func newTestAPI(opts ...func(*Options)) (*fakeService, http.Handler) {
	svc := &fakeService{}
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	return svc, New(svc, o).Handler()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("User-Agent", "test-agent")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginSuccess(t *testing.T) {
	svc, h := newTestAPI()

	rec := do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "access", got["accessToken"])
	assert.Equal(t, "refresh", got["refreshToken"])
	user := got["user"].(map[string]any)
	assert.Equal(t, "normal", user["role"])
	assert.NotContains(t, user, "passwordHash")

	require.Len(t, svc.calls, 1)
	assert.Equal(t, call{op: "login", args: []string{"a@x.com", "secret1"}}, svc.calls[0])
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{goAccount.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{goAccount.ErrAccountNotConfirmed, http.StatusUnauthorized, "Please confirm your email first"},
		{goAccount.ErrPasswordNotSet, http.StatusUnauthorized, "Please set your password first"},
		{fmt.Errorf("%w: dial tcp", goAccount.ErrStoreUnavailable), http.StatusServiceUnavailable, "Internal server error"},
		{goAccount.ErrHashingUnavailable, http.StatusServiceUnavailable, "Internal server error"},
		{errors.New("surprise"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc, h := newTestAPI()
			svc.err = tt.err

			rec := do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.status, body.StatusCode)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestRegister(t *testing.T) {
	svc, h := newTestAPI()

	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var ack goAccount.Acknowledgement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "a@x.com", ack.Email)

	svc.err = goAccount.ErrEmailAlreadyRegistered
	rec = do(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", decodeError(t, rec).Message)
}

func TestRegisterValidation(t *testing.T) {
	svc, h := newTestAPI()

	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Validation failed", body.Message)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "email", body.Errors[0].Property)
	assert.Empty(t, svc.calls)
}

func TestConfirmAndResetUsePasswordPolicy(t *testing.T) {
	svc, h := newTestAPI()

	for _, path := range []string{"/auth/confirm", "/auth/reset-password"} {
		rec := do(t, h, http.MethodPost, path, "", map[string]string{"hash": "tok", "password": "123"})
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		body := decodeError(t, rec)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "password", body.Errors[0].Property)
		assert.Contains(t, body.Errors[0].Constraints, "validation_length_out_of_range")
	}
	assert.Empty(t, svc.calls)

	rec := do(t, h, http.MethodPost, "/auth/confirm", "", map[string]string{"hash": "tok", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/auth/reset-password", "", map[string]string{"hash": "tok", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	want := []call{
		{op: "confirm", args: []string{"tok", "secret1"}},
		{op: "reset", args: []string{"tok", "secret1"}},
	}
	if diff := cmp.Diff(want, svc.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestConfirmLinkErrors(t *testing.T) {
	for _, err := range []error{goAccount.ErrInvalidLink, goAccount.ErrLinkExpired, goAccount.ErrInvalidOrExpiredLink, goAccount.ErrAccountNotActive} {
		svc, h := newTestAPI()
		svc.err = err
		rec := do(t, h, http.MethodPost, "/auth/confirm", "", map[string]string{"hash": "tok", "password": "secret1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, goAccount.Message(err), decodeError(t, rec).Message)
	}
}

func TestMalformedBodies(t *testing.T) {
	_, h := newTestAPI()

	rec := do(t, h, http.MethodPost, "/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decodeError(t, rec).Message)
}

func TestMeRequiresToken(t *testing.T) {
	_, h := newTestAPI()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/auth/me", "", nil).Code)

	rec := do(t, h, http.MethodGet, "/auth/me", "user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "acc-user", me.AccountID)
	assert.Equal(t, "s-user", me.SessionID)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/users", map[string]string{"email": "b@x.com", "password": "secret1"}},
		{http.MethodGet, "/users", nil},
		{http.MethodPost, "/users/acc-1/roles", map[string]string{"value": "superuser"}},
		{http.MethodPost, "/roles", map[string]string{"value": "auditor"}},
		{http.MethodGet, "/roles/ADMIN", nil},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			svc, h := newTestAPI()
			assert.Equal(t, http.StatusUnauthorized, do(t, h, rt.method, rt.path, "", rt.body).Code)
			assert.Equal(t, http.StatusForbidden, do(t, h, rt.method, rt.path, "user", rt.body).Code)
			assert.Empty(t, svc.calls)

			rec := do(t, h, rt.method, rt.path, "admin", rt.body)
			assert.Less(t, rec.Code, 300, rec.Body.String())
			assert.Len(t, svc.calls, 1)
		})
	}
}

func TestAddRolePassesPathID(t *testing.T) {
	svc, h := newTestAPI()

	rec := do(t, h, http.MethodPost, "/users/acc-42/roles", "admin", map[string]string{"value": "superuser"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, call{op: "add role", args: []string{"acc-42", "superuser"}}, svc.calls[0])

	svc.err = goAccount.ErrRoleNotFound
	rec = do(t, h, http.MethodPost, "/users/acc-42/roles", "admin", map[string]string{"value": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRoleConflict(t *testing.T) {
	svc, h := newTestAPI()
	svc.err = goAccount.ErrRoleExists

	rec := do(t, h, http.MethodPost, "/roles", "admin", map[string]string{"value": "ADMIN"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Role already exists", decodeError(t, rec).Message)
}

func TestGetRoleResponseShape(t *testing.T) {
	_, h := newTestAPI()

	rec := do(t, h, http.MethodGet, "/roles/ADMIN", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"value":"ADMIN","description":""}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	_, h := newTestAPI(func(o *Options) {
		o.Health = []HealthCheck{
			{Name: "postgres", Check: func(context.Context) error { return nil }},
		}
	})
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":"ok"}}`, rec.Body.String())

	_, h = newTestAPI(func(o *Options) {
		o.Health = []HealthCheck{
			{Name: "postgres", Check: func(context.Context) error { return nil }},
			{Name: "smtp", Check: func(context.Context) error { return errors.New("refused") }},
		}
	})
	rec = do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","smtp":"unavailable"}}`, rec.Body.String())
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	_, h := newTestAPI()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "", nil).Code)

	_, h = newTestAPI(func(o *Options) {
		o.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	})
	rec := do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
