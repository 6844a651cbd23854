package totpflow

import "github.com/go-playground/validator/v10"

// defaultEmailValidator applies basic structural validation. Callers that
// need disposable-domain rejection or MX checks supply their own
// [EmailValidator] through [Builder.WithEmailValidator].
func defaultEmailValidator() EmailValidator {
	v := validator.New()
	return func(email string) error {
		if err := v.Var(email, "required,email"); err != nil {
			return ErrInvalidEmail
		}
		return nil
	}
}
