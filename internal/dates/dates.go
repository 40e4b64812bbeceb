// Package dates parses the date notations that appear in outline graphs:
// ISO dates, journal file stems and journal page titles.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	journalRe = regexp.MustCompile(`^(\d{4})_(\d{2})_(\d{2})$`)
	// "Jan 15th, 2024", "January 2, 2006"
	titleRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parse parses s in any supported absolute notation. Surrounding [[ ]] and
// a trailing weekday ("2024-01-15 Mon") are tolerated.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "[["), "]]")
	s = strings.TrimSpace(s)

	if m := isoRe.FindStringSubmatch(s); m != nil {
		rest := strings.TrimSpace(s[len(m[0]):])
		if rest == "" || isWeekday(rest) {
			return build(m[1], m[2], m[3], s)
		}
	}
	if m := journalRe.FindStringSubmatch(s); m != nil {
		return build(m[1], m[2], m[3], s)
	}
	if m := titleRe.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[1])
		if len(name) < 3 {
			return time.Time{}, fmt.Errorf("invalid date: %q", s)
		}
		month, ok := months[name[:3]]
		if !ok {
			return time.Time{}, fmt.Errorf("invalid date: %q", s)
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return checked(year, month, day, s)
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

// ParseRelative resolves today, yesterday and tomorrow against now before
// falling back to Parse.
func ParseRelative(s string, now time.Time) (time.Time, error) {
	key := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "[]")))
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch key {
	case "today":
		return day, nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	}
	return Parse(s)
}

// JournalTitle formats t the way journal pages are titled: "Jan 15th, 2024".
func JournalTitle(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Format("Jan"), t.Day(), ordinal(t.Day()), t.Year())
}

// LongTitle formats t as "January 15, 2024".
func LongTitle(t time.Time) string {
	return t.Format("January 2, 2006")
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func isWeekday(s string) bool {
	switch strings.ToLower(s) {
	case "mon", "tue", "wed", "thu", "fri", "sat", "sun":
		return true
	}
	return false
}

func build(y, m, d, src string) (time.Time, error) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	return checked(year, time.Month(month), day, src)
}

func checked(year int, month time.Month, day int, src string) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date: %q", src)
	}
	return t, nil
}
