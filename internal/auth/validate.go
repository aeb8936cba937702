package auth

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[\p{L}\s]+$`)
)

// ValidationError collects per-field registration problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateRegistration checks the registration inputs and returns a
// *ValidationError describing every failing field, or nil.
func ValidateRegistration(email, password, fullName string) error {
	fields := make(map[string]string)

	if strings.TrimSpace(email) == "" {
		fields["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		fields["email"] = "invalid email format"
	}

	if msg := passwordProblem(password); msg != "" {
		fields["password"] = msg
	}

	name := strings.TrimSpace(fullName)
	switch {
	case name == "":
		fields["fullName"] = "full name is required"
	case len([]rune(name)) < 2:
		fields["fullName"] = "full name must be at least 2 characters"
	case len([]rune(name)) > 100:
		fields["fullName"] = "full name must be at most 100 characters"
	case !namePattern.MatchString(name):
		fields["fullName"] = "full name may only contain letters and spaces"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func passwordProblem(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	switch {
	case !upper:
		return "password must contain an uppercase letter"
	case !lower:
		return "password must contain a lowercase letter"
	case !digit:
		return "password must contain a digit"
	case !special:
		return "password must contain a special character"
	}
	return ""
}
