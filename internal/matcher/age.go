package matcher

import (
	"strconv"
	"strings"
	"time"
)

// BirthdayLayout is the profile birthday format (DD/MM/YYYY). Day and month
// may be written without a leading zero.
const BirthdayLayout = "2/1/2006"

// Age returns whole years between birthday and now.
// ok is false when the birthday is empty or unparsable.
func Age(birthday string, now time.Time) (age int, ok bool) {
	birthday = strings.TrimSpace(birthday)
	if birthday == "" {
		return 0, false
	}
	b, err := time.Parse(BirthdayLayout, birthday)
	if err != nil {
		return 0, false
	}

	age = now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}

// AgeRange is an inclusive range. Max only applies when Bounded is set.
type AgeRange struct {
	Min     int
	Max     int
	Bounded bool
}

// Contains reports whether age lies inside the range, bounds included.
func (r AgeRange) Contains(age int) bool {
	if age < r.Min {
		return false
	}
	return !r.Bounded || age <= r.Max
}

// ParseAgeRange parses "25+" or "25-35".
// ok is false for anything else; callers treat that as "no constraint".
func ParseAgeRange(pref string) (AgeRange, bool) {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return AgeRange{}, false
	}

	if min, found := strings.CutSuffix(pref, "+"); found {
		n, err := strconv.Atoi(strings.TrimSpace(min))
		if err != nil || n < 0 {
			return AgeRange{}, false
		}
		return AgeRange{Min: n}, true
	}

	lo, hi, found := strings.Cut(pref, "-")
	if !found {
		return AgeRange{}, false
	}
	min, err1 := strconv.Atoi(strings.TrimSpace(lo))
	max, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || min < 0 || max < min {
		return AgeRange{}, false
	}
	return AgeRange{Min: min, Max: max, Bounded: true}, true
}
