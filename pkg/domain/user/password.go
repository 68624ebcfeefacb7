package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/amirasaad/gastos/pkg/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ErrWeakPassword is returned when a new password fails the password policy.
var ErrWeakPassword = domain.NewError(domain.ErrValidation, "password does not meet requirements")

// PasswordProblems lists every rule the password breaks. An empty result means it is acceptable.
func PasswordProblems(password string) []string {
	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "must contain an upper-case letter")
	}
	if !lower {
		problems = append(problems, "must contain a lower-case letter")
	}
	if !digit {
		problems = append(problems, "must contain a digit")
	}
	return problems
}

// ValidatePassword returns ErrWeakPassword describing every broken rule.
func ValidatePassword(password string) error {
	problems := PasswordProblems(password)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(problems, "; "))
}
