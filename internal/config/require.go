package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks a missing or out-of-range option detected when a
// component is constructed. Match it with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// RequirePath fails when a path option is empty or blank.
func RequirePath(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalid, name)
	}
	return nil
}

// RequirePositive fails when a numeric option is zero or negative.
func RequirePositive[T ~int | ~int64 | ~uint64](name string, v T) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, name)
	}
	return nil
}
