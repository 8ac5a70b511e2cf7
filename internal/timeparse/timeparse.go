// Package timeparse turns the phrases used in schedule documents ("6:30 am",
// "6 minutes", "59 minutes from now", "tomorrow at 12:00 am", "9/14/29 10:15am")
// into concrete instants.
//
// Every relative phrase is resolved against the anchor passed by the caller,
// never against the wall clock, so a whole control cycle can be replayed
// deterministically. Free-form phrases ("2 hours ago", "in 3 days", "next
// friday") go through olebedev/when with the anchor as its base; the clock,
// date and anchored-offset forms the documents rely on are matched here first
// so that "12:00 am" is always midnight and a bare hour is always rejected.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrParse is returned for any expression the parser does not understand.
var ErrParse = errors.New("unparseable time expression")

// absoluteLayouts are tried, in order, against the original (case-preserved) input.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	relativeRe = regexp.MustCompile(`^(\d+|an?|one)\s*(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?|weeks?)(?:\s+(from now|later|after|before)(?:\s+(.+))?)?$`)
	dayWordRe  = regexp.MustCompile(`^(today|tomorrow|yesterday)(?:\s+(?:at\s+)?(.+))?$`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)
	usDateRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})(?:\s+(?:at\s+)?(.+))?$`)
	isoDateRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(?:at\s+)?(.+)$`)
	// clock and date shapes that failed the strict checks stay rejected
	strictRe = regexp.MustCompile(`^(?:at\s+)?\d[\d:./-]*\s*(?:am|pm|a\.m\.|p\.m\.)?$|^\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b`)
)

// natural handles everything the strict forms below do not cover.
var natural = newNatural()

func newNatural() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

var units = map[string]time.Duration{
	"second": time.Second, "seconds": time.Second, "sec": time.Second, "secs": time.Second,
	"minute": time.Minute, "minutes": time.Minute, "min": time.Minute, "mins": time.Minute,
	"hour": time.Hour, "hours": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"day": 24 * time.Hour, "days": 24 * time.Hour,
	"week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// Parse resolves expr against anchor.
func Parse(expr string, anchor time.Time) (time.Time, error) {
	raw := collapse(expr)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrParse)
	}
	s := strings.ToLower(raw)

	if s == "now" {
		return anchor, nil
	}
	if m := relativeRe.FindStringSubmatch(s); m != nil {
		return parseRelative(m, anchor, expr)
	}
	if m := dayWordRe.FindStringSubmatch(s); m != nil {
		return parseDayWord(m, anchor, expr)
	}
	if h, mi, sec, ok := parseClock(strings.TrimPrefix(s, "at ")); ok {
		return onDay(anchor, 0, h, mi, sec), nil
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, anchor.Location()); err == nil {
			return t, nil
		}
	}
	if m := usDateRe.FindStringSubmatch(s); m != nil {
		return parseDate(m[3], m[1], m[2], m[4], anchor, expr)
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return parseDate(m[1], m[2], m[3], m[4], anchor, expr)
	}
	if strictRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, expr)
	}
	return parseNatural(s, anchor, expr)
}

// parseNatural accepts a when result only if it spans the whole input, so
// "6 minutes from now please" does not resolve to its first three words.
func parseNatural(s string, anchor time.Time, expr string) (time.Time, error) {
	r, err := natural.Parse(s, anchor)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrParse, expr, err)
	}
	if r == nil || strings.TrimSpace(r.Text) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, expr)
	}
	return r.Time, nil
}

// ParseDuration converts a duration phrase ("6 minutes", "an hour") into a
// time.Duration. Go duration literals ("6m") are accepted too.
func ParseDuration(expr string) (time.Duration, error) {
	s := strings.ToLower(collapse(expr))
	if m := relativeRe.FindStringSubmatch(s); m != nil && m[3] == "" {
		return amount(m[1], m[2])
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d, nil
	}
	return 0, fmt.Errorf("%w: duration %q", ErrParse, expr)
}

// Valid reports whether expr can be resolved at all.
func Valid(expr string) bool {
	_, err := Parse(expr, time.Unix(0, 0).UTC())
	return err == nil
}

func parseRelative(m []string, anchor time.Time, expr string) (time.Time, error) {
	d, err := amount(m[1], m[2])
	if err != nil {
		return time.Time{}, err
	}
	base := anchor
	direction, tail := m[3], m[4]
	switch direction {
	case "from now", "later":
		if tail != "" {
			return time.Time{}, fmt.Errorf("%w: %q", ErrParse, expr)
		}
	case "after", "before":
		if tail != "" {
			if base, err = Parse(tail, anchor); err != nil {
				return time.Time{}, err
			}
		}
	}
	if direction == "before" {
		d = -d
	}
	return base.Add(d), nil
}

func parseDayWord(m []string, anchor time.Time, expr string) (time.Time, error) {
	offset := map[string]int{"yesterday": -1, "today": 0, "tomorrow": 1}[m[1]]
	if m[2] == "" {
		return onDay(anchor, offset, 0, 0, 0), nil
	}
	h, mi, sec, ok := parseClock(m[2])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, expr)
	}
	return onDay(anchor, offset, h, mi, sec), nil
}

func parseDate(year, month, day, clock string, anchor time.Time, expr string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	if len(year) == 2 {
		// same pivot as Go's "06" layout
		if y >= 69 {
			y += 1900
		} else {
			y += 2000
		}
	}
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)

	h, mi, sec := 0, 0, 0
	if clock != "" {
		var ok bool
		if h, mi, sec, ok = parseClock(clock); !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrParse, expr)
		}
	}
	t := time.Date(y, time.Month(mo), d, h, mi, sec, 0, anchor.Location())
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, fmt.Errorf("%w: no such date %q", ErrParse, expr)
	}
	return t, nil
}

// parseClock understands "6:30 am", "6am", "10:21:02 am", "23:15", "noon" and "midnight".
// A bare hour without am/pm is rejected as ambiguous.
func parseClock(s string) (hour, minute, second int, ok bool) {
	switch s {
	case "noon":
		return 12, 0, 0, true
	case "midnight":
		return 0, 0, 0, true
	}
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if minute > 59 || second > 59 {
		return 0, 0, 0, false
	}

	switch strings.ReplaceAll(m[4], ".", "") {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if m[2] == "" || hour > 23 {
			return 0, 0, 0, false
		}
	}
	return hour, minute, second, true
}

func amount(count, unit string) (time.Duration, error) {
	per, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unit %q", ErrParse, unit)
	}
	switch count {
	case "a", "an", "one":
		return per, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrParse, count)
	}
	return time.Duration(n) * per, nil
}

func onDay(anchor time.Time, dayOffset, hour, minute, second int) time.Time {
	y, m, d := anchor.Date()
	return time.Date(y, m, d+dayOffset, hour, minute, second, 0, anchor.Location())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
