package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingIdentifier = errors.New("identifier is required")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrMissingSecret     = errors.New("password is required")
	ErrMissingContact    = errors.New("contact is required")
	ErrMissingTitle      = errors.New("title is required")
	ErrMissingCompany    = errors.New("company is required")
	ErrFieldTooLong      = errors.New("field too long")
)

const maxFieldRunes = 2000

var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{2,40}$`)

func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingIdentifier
	}
	if !identifierRegex.MatchString(id) {
		return ErrInvalidIdentifier
	}
	return nil
}

func ValidateSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrMissingSecret
	}
	return nil
}

func ValidateContact(contact string) error {
	if strings.TrimSpace(contact) == "" {
		return ErrMissingContact
	}
	return ValidateLength(contact)
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrMissingTitle
	}
	return ValidateLength(title)
}

func ValidateCompany(company string) error {
	if strings.TrimSpace(company) == "" {
		return ErrMissingCompany
	}
	return ValidateLength(company)
}

func ValidateLength(value string) error {
	if utf8.RuneCountInString(value) > maxFieldRunes {
		return ErrFieldTooLong
	}
	return nil
}
