// Package validation contains input validation rules for user-supplied fields.
package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLen = 12
	maxPasswordLen = 128
	minUsernameLen = 3
	maxUsernameLen = 30
	maxEmailLen    = 254
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidatePassword enforces the password policy: length bounds plus at
// least one upper, lower, digit and special character. Unicode letters
// count toward the letter classes.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < minPasswordLen {
		return errors.New("password must be at least 12 characters")
	}
	if len(runes) > maxPasswordLen {
		return errors.New("password must be at most 128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain an uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain a lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain a digit")
	}
	if !hasSpecial {
		return errors.New("password must contain a special character")
	}
	return nil
}

// ValidateUsername enforces the username policy: 3-30 characters,
// alphanumeric with underscores and dashes, must start alphanumeric and
// must not end with a separator.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > maxUsernameLen {
		return errors.New("username must be at most 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, underscores and dashes, and must start with a letter or digit")
	}
	if strings.HasSuffix(username, "_") || strings.HasSuffix(username, "-") {
		return errors.New("username must not end with an underscore or dash")
	}
	return nil
}

// ValidateEmail checks the address parses and fits in 254 characters.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLen {
		return errors.New("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email is not a valid address")
	}
	if strings.HasSuffix(email, ".") {
		return errors.New("email is not a valid address")
	}
	return nil
}
