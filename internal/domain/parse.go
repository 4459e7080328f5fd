package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrInvalidTime     = errors.New("invalid time")
)

// ParseSettings parses "SIT STAND" (two positive integer minute values) from
// free-form command text, e.g. "45 5". Anything else is rejected.
func ParseSettings(s string) (sitMinutes, standMinutes int, err error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected two values", ErrInvalidSettings)
	}
	sitMinutes, err = parsePositiveMinutes(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sit: %s", ErrInvalidSettings, parts[0])
	}
	standMinutes, err = parsePositiveMinutes(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: stand: %s", ErrInvalidSettings, parts[1])
	}
	return sitMinutes, standMinutes, nil
}

func parsePositiveMinutes(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

// ParseClockTime parses "HH:MM" into minutes since midnight (0..1439).
func ParseClockTime(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: expected HH:MM", ErrInvalidTime)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour %q", ErrInvalidTime, parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute %q", ErrInvalidTime, parts[1])
	}
	return h*60 + m, nil
}

// FormatMinutes returns HH:MM for minutes since midnight.
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
