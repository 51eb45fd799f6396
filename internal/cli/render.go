package cli

import (
	"errors"
	"fmt"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/service"
)

// describe renders err for the user. Messages never say which credential was
// wrong or why a record failed to decrypt.
func describe(err error) string {
	var lo *errs.LockedOutError
	var lf *service.LoginFailure
	switch {
	case errors.As(err, &lo):
		return fmt.Sprintf("Too many failed attempts. Try again in %d seconds.", lo.Seconds())
	case errors.As(err, &lf):
		return fmt.Sprintf("Invalid credentials. %d attempts remaining.", lf.Remaining)
	case errors.Is(err, errs.ErrUnauthorized):
		return "Invalid credentials."
	case errors.Is(err, errs.ErrInvalidInput):
		return "Invalid input: required fields must be filled and passwords must match."
	case errors.Is(err, errs.ErrAlreadyExists):
		return "Username already exists."
	case errors.Is(err, errs.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, errs.ErrIndexOutOfRange):
		return "No such item. Run 'list' to see current numbers."
	case errors.Is(err, errs.ErrDecrypt):
		return "Decryption failed."
	case errors.Is(err, errs.ErrNotFound):
		return "Account not found."
	case errors.Is(err, errs.ErrPersistence):
		return "Storage error. Nothing was changed."
	default:
		return "Internal error."
	}
}
