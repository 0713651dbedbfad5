package auth

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"

	"corpchat/errors"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,min=1,max=32"`
	Password string `validate:"required,min=1,max=128"`
}

// ValidateRegister checks a registration request before any cryptographic
// work is done. Username characters are constrained because the credential
// file uses ':' as a field separator and the wire protocol uses spaces.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidUsername, err)
	}

	if !isUsernameSafe(req.Username) {
		return errors.ErrInvalidUsername
	}
	return nil
}

func isUsernameSafe(s string) bool {
	for _, char := range s {
		switch {
		case char == ':':
			return false
		case unicode.IsSpace(char):
			return false
		case unicode.IsControl(char):
			return false
		}
	}
	return true
}
