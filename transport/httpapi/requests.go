package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	goAccount "github.com/MrEthical07/goAccount"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validate checks the email format only. Login must not reveal the password
// policy, so the password just has to be present.
func (r credentialsRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, goAccount.EmailRules()...),
		validation.Field(&r.Password, validation.Required),
	)
}

func (r credentialsRequest) validateNew(policy goAccount.PasswordConfig) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, goAccount.EmailRules()...),
		validation.Field(&r.Password, goAccount.PasswordRules(policy)...),
	)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (r emailRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, goAccount.EmailRules()...),
	)
}

// tokenPasswordRequest accepts the token as "hash" to match the query
// parameter of the mailed links.
type tokenPasswordRequest struct {
	Token    string `json:"hash"`
	Password string `json:"password"`
}

func (r tokenPasswordRequest) validate(policy goAccount.PasswordConfig) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, goAccount.PasswordRules(policy)...),
	)
}

type addRoleRequest struct {
	Value string `json:"value"`
}

func (r addRoleRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.Required, validation.Length(1, 64)),
	)
}

type createRoleRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

func (r createRoleRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Description, validation.Length(0, 255)),
	)
}

var errEmptyBody = errors.New("request body is empty")

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

func sortedKeys(errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
