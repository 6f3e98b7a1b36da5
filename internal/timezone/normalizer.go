// Package timezone combines form date, time and zone inputs into timestamps.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Embedded zone database so the binary does not depend on the host's.
	_ "time/tzdata"
)

const (
	dateLayout = "2006-01-02"
)

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrUnknownTimezone = errors.New("unknown timezone")
)

// Normalizer resolves zone names, falling back to a default zone.
type Normalizer struct {
	defaultZone string
}

// NewNormalizer creates a normalizer using defaultZone for empty zone inputs.
func NewNormalizer(defaultZone string) *Normalizer {
	return &Normalizer{defaultZone: defaultZone}
}

// DefaultZone returns the zone used when none is given.
func (n *Normalizer) DefaultZone() string {
	return n.defaultZone
}

// Location loads the named zone, or the default zone when name is blank.
func (n *Normalizer) Location(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = n.defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// Combine interprets date (YYYY-MM-DD) and clock (HH:MM[:SS]) as a wall-clock
// reading in zone and returns the resulting instant located in that zone.
func (n *Normalizer) Combine(date, clock, zone string) (time.Time, error) {
	loc, err := n.Location(zone)
	if err != nil {
		return time.Time{}, err
	}

	d, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}

func parseClock(clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
}
