package domain

import (
	"errors"
	"fmt"
	"net"
	"regexp"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidField  = errors.New("invalid field")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrConflict      = errors.New("conflict")
	ErrPluginConfig  = errors.New("plugin config rejected by schema")
)

var (
	namePattern     = regexp.MustCompile(`^[^\x00-\x1f]{1,200}$`)
	codePattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,19}$`)
	hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]{0,253}[a-zA-Z0-9])?$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@+-]{1,150}$`)
)

func requireName(field, value string) error {
	if value == "" || !namePattern.MatchString(value) {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

func requireCode(field, value string) error {
	if !codePattern.MatchString(value) {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

func requireHostname(field, value string) error {
	if !hostnamePattern.MatchString(value) {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

func requireIP(field, value string) error {
	if net.ParseIP(value) == nil {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

func requireUsername(field, value string) error {
	if !usernamePattern.MatchString(value) {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

func requireChoice(field, value string, choices []Choice) error {
	for _, c := range choices {
		if c.Value == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q", ErrInvalidChoice, field, value)
}
