// Package iqamah turns the iqamah values stored in mosque calendars into
// concrete congregation times.
//
// Stored values are parsed once, when a calendar is loaded, into a Rule.
// Resolution against the day's adhan times is then a pure function of the Rule.
package iqamah

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
)

// Kind identifies the variant held by a Rule.
type Kind int

const (
	KindLiteral Kind = iota
	KindVarious
	KindEntryTime
	KindStraightAfterMaghrib
	KindSunset
	KindAfterMaghrib
	KindRelative
	KindNone
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindVarious:
		return "various"
	case KindEntryTime:
		return "entry_time"
	case KindStraightAfterMaghrib:
		return "straight_after_maghrib"
	case KindSunset:
		return "sunset"
	case KindAfterMaghrib:
		return "after_maghrib"
	case KindRelative:
		return "relative"
	case KindNone:
		return "none"
	}
	return "unknown"
}

var ErrMalformedRule = errors.New("malformed iqamah value")

var (
	adhanPlusRe  = regexp.MustCompile(`(?i)^adhan\s*\+\s*(\d+)\s*(?:mins?|minutes?)?$`)
	afterAdhanRe = regexp.MustCompile(`(?i)^(\d+)\s*(?:mins?|minutes?)\s*after\s*adhan$`)
)

// Rule is a parsed iqamah value. Time is set for KindLiteral in zero-padded
// form, Minutes for KindRelative. Raw keeps the stored text for display.
type Rule struct {
	Kind    Kind
	Time    string
	Minutes int
	Raw     string
}

// Literal builds a fixed clock-time rule.
func Literal(t string) Rule { return Rule{Kind: KindLiteral, Time: t, Raw: t} }

// Relative builds an "adhan + n minutes" rule.
func Relative(n int) Rule {
	return Rule{Kind: KindRelative, Minutes: n, Raw: fmt.Sprintf("Adhan + %d mins", n)}
}

// ParseRule parses a stored iqamah value.
func ParseRule(raw string) (Rule, error) {
	v := strings.TrimSpace(raw)

	switch strings.ToLower(v) {
	case "various":
		return Rule{Kind: KindVarious, Raw: raw}, nil
	case "entry time":
		return Rule{Kind: KindEntryTime, Raw: raw}, nil
	case "straight after maghrib":
		return Rule{Kind: KindStraightAfterMaghrib, Raw: raw}, nil
	case "sunset":
		return Rule{Kind: KindSunset, Raw: raw}, nil
	case "after maghrib":
		return Rule{Kind: KindAfterMaghrib, Raw: raw}, nil
	case clock.NoTime, clock.BlankTime:
		return Rule{Kind: KindNone, Raw: v}, nil
	}

	if n, ok := relativeMinutes(v); ok {
		return Rule{Kind: KindRelative, Minutes: n, Raw: raw}, nil
	}

	h, m, err := clock.Parse(v)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q", ErrMalformedRule, raw)
	}
	t := fmt.Sprintf("%02d:%02d", h, m)
	return Rule{Kind: KindLiteral, Time: t, Raw: v}, nil
}

// Value is what the rule displays when no adhan-dependent resolution applies.
// Literal times come back as stored.
func (r Rule) Value() string {
	return r.Raw
}

// relative resolves an "adhan + n" rule, falling back to the stored text when
// the adhan is not a clock time.
func (r Rule) relative(adhan string) string {
	out, err := clock.AddMinutes(adhan, r.Minutes)
	if err != nil {
		return r.Raw
	}
	return out
}

func relativeMinutes(v string) (int, bool) {
	match := adhanPlusRe.FindStringSubmatch(v)
	if match == nil {
		match = afterAdhanRe.FindStringSubmatch(v)
	}
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ResolveRelative applies a relative expression ("Adhan + 15 mins",
// "10 mins after adhan") to adhan. Anything else is returned unchanged.
func ResolveRelative(value, adhan string) string {
	n, ok := relativeMinutes(strings.TrimSpace(value))
	if !ok {
		return value
	}
	out, err := clock.AddMinutes(adhan, n)
	if err != nil {
		return value
	}
	return out
}
