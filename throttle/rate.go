/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var rateUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// RateSpec is a parsed rate: at most Limit requests per Window.
type RateSpec struct {
	Limit  int
	Window time.Duration
}

// ParseRate parses a rate in the "<count>/<unit>" form, e.g. "5/s", "100/m", "1000/hour" or "1/d".
// Only the first letter of the unit matters. The error wraps ErrInvalidRateFormat.
func ParseRate(rate string) (RateSpec, error) {
	invalid := func() error {
		return fmt.Errorf("%w %q, should be N/(s|m|h|d), for example 10/s, 100/m, 1000/h", ErrInvalidRateFormat, rate)
	}
	countPart, unitPart, found := strings.Cut(rate, "/")
	if !found {
		return RateSpec{}, invalid()
	}
	countPart, unitPart = strings.TrimSpace(countPart), strings.TrimSpace(unitPart)
	if countPart == "" || unitPart == "" || strings.Contains(unitPart, "/") ||
		strings.TrimLeft(countPart, "0123456789") != "" {
		return RateSpec{}, invalid()
	}
	count, err := strconv.Atoi(countPart)
	if err != nil {
		return RateSpec{}, invalid()
	}
	window, ok := rateUnits[strings.ToLower(unitPart)[0]]
	if !ok {
		return RateSpec{}, invalid()
	}
	return RateSpec{Limit: count, Window: window}, nil
}

// MustParseRate is like ParseRate but panics on malformed input.
func MustParseRate(rate string) RateSpec {
	spec, err := ParseRate(rate)
	if err != nil {
		panic(err)
	}
	return spec
}

// Validate reports whether r can be enforced: a non-negative Limit and a positive Window.
// Values produced by ParseRate are always valid.
func (r RateSpec) Validate() error {
	if r.Limit < 0 || r.Window <= 0 {
		return fmt.Errorf("%w: limit should be >= 0 and window > 0, got %d per %s", ErrInvalidRateFormat, r.Limit, r.Window)
	}
	return nil
}

// IsZero reports whether r is the zero value, i.e. no rate is declared.
func (r RateSpec) IsZero() bool {
	return r == RateSpec{}
}

// String returns the rate in the form accepted by ParseRate.
func (r RateSpec) String() string {
	if r.IsZero() {
		return ""
	}
	for unit, d := range rateUnits {
		if d == r.Window {
			return fmt.Sprintf("%d/%c", r.Limit, unit)
		}
	}
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}

// UnmarshalText implements encoding.TextUnmarshaler, so a RateSpec is decoded from plain strings
// by mapstructure, encoding/json and yaml.v3. An empty text gives the zero RateSpec.
func (r *RateSpec) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*r = RateSpec{}
		return nil
	}
	spec, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = spec
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (r RateSpec) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
