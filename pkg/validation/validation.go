package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Model name must be alphanumeric with hyphens/underscores, 2-100 chars
	modelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,99}$`)

	// Version strings follow a loose semver shape: 1.0.0, 2.1, v3.0.0-rc1
	versionRegex = regexp.MustCompile(`^v?\d+(\.\d+){0,2}([.-][a-zA-Z0-9]+)*$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateModelName checks if a model name is valid
func ValidateModelName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("model name cannot be empty")
	}

	if len(name) > 100 {
		return errors.New("model name must not exceed 100 characters")
	}

	if !modelNameRegex.MatchString(name) {
		return errors.New("model name must start with alphanumeric and contain only letters, numbers, hyphens, and underscores")
	}

	return nil
}

// ValidateVersion checks if a version string is valid
func ValidateVersion(version string) error {
	version = SanitizeString(version)

	if version == "" {
		return errors.New("version cannot be empty")
	}

	if len(version) > 50 {
		return errors.New("version must not exceed 50 characters")
	}

	if !versionRegex.MatchString(version) {
		return errors.New("version must be a dotted numeric string like 1.0.0")
	}

	return nil
}

// ValidateTrafficSplit checks that a split ratio is strictly inside (0,1)
func ValidateTrafficSplit(split float64) error {
	if split <= 0 || split >= 1 {
		return errors.New("traffic split must be strictly between 0 and 1")
	}
	return nil
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}

	return nil
}
