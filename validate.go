package goAccount

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const maxEmailLength = 254

// EmailRules are the rules an email must pass before it reaches the store.
// The HTTP layer reuses them for request validation.
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(3, maxEmailLength),
		is.EmailFormat,
	}
}

// PasswordRules returns the length policy from cfg. Length counts runes.
func PasswordRules(cfg PasswordConfig) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(cfg.MinLength, cfg.MaxLength),
	}
}

func (e *Engine) validateEmail(email string) error {
	if err := validation.Validate(email, EmailRules()...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	return nil
}

func (e *Engine) validatePassword(pw string) error {
	if err := validation.Validate(pw, PasswordRules(e.config.Password)...); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}
	return nil
}
