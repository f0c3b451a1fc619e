package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxSlugLength = 64
	MinYear       = 2000
	MaxYear       = 2100
)

var (
	ErrValidation   = errors.New("invalid calendar query")
	ErrInvalidSlug  = fmt.Errorf("%w: mosque slug", ErrValidation)
	ErrInvalidMonth = fmt.Errorf("%w: month", ErrValidation)
	ErrInvalidYear  = fmt.Errorf("%w: year", ErrValidation)
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// NormalizeSlug trims and lowercases slug and checks it is lowercase-kebab of at most 64 characters.
func NormalizeSlug(slug string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" || len(s) > maxSlugLength || !slugRe.MatchString(s) {
		snippet := slug
		if len(snippet) > 80 {
			snippet = snippet[:80]
		}
		return "", fmt.Errorf("%w %q", ErrInvalidSlug, snippet)
	}
	return s, nil
}

// MonthName maps 1..12 to the lowercase month names used as calendar identifiers.
func MonthName(month time.Month) (string, error) {
	if month < time.January || month > time.December {
		return "", fmt.Errorf("%w %d", ErrInvalidMonth, month)
	}
	return monthNames[month-1], nil
}

// ParseMonth accepts a lowercase month name.
func ParseMonth(name string) (time.Month, error) {
	for i, n := range monthNames {
		if n == name {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidMonth, name)
}

func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w %d", ErrInvalidYear, year)
	}
	return nil
}

// ValidateMonthly checks a (slug, month, year) query and returns the normalised slug.
func ValidateMonthly(slug, month string, year int) (string, error) {
	s, err := NormalizeSlug(slug)
	if err != nil {
		return "", err
	}
	if _, err := ParseMonth(month); err != nil {
		return "", err
	}
	if err := ValidateYear(year); err != nil {
		return "", err
	}
	return s, nil
}
