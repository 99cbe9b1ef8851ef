// Package matcher implements the compatibility filter applied to the
// candidate pool. It is pure: callers load the requester and the pool.
package matcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
)

// Filters are the optional free-form refinements sent with a search.
// Empty fields are ignored.
type Filters struct {
	Search   string
	MinAge   string
	MaxAge   string
	Gender   string
	Location string
}

// refinement is Filters after parsing.
type refinement struct {
	search   string
	minAge   *int
	maxAge   *int
	gender   string
	location string
}

func parseFilters(f Filters) (refinement, error) {
	r := refinement{
		search:   strings.ToLower(strings.TrimSpace(f.Search)),
		gender:   strings.TrimSpace(f.Gender),
		location: strings.ToLower(strings.TrimSpace(f.Location)),
	}

	parse := func(name, v string) (*int, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, svcErr.Invalid(name + " must be a non-negative integer")
		}
		return &n, nil
	}

	var err error
	if r.minAge, err = parse("minAge", f.MinAge); err != nil {
		return r, err
	}
	if r.maxAge, err = parse("maxAge", f.MaxAge); err != nil {
		return r, err
	}
	if r.minAge != nil && r.maxAge != nil && *r.minAge > *r.maxAge {
		return r, svcErr.Invalid("minAge must not exceed maxAge")
	}
	return r, nil
}

// Find filters pool against requester's preferences and f.
//
// Behavior:
//   - requester itself is skipped.
//   - Eligibility, then affinity, then the refinements in f are applied.
//   - Output keeps pool order.
//   - Malformed age filters → ErrInvalidInput before anything is scanned.
func Find(requester *db.User, pool []db.User, f Filters, now time.Time) ([]db.User, error) {
	ref, err := parseFilters(f)
	if err != nil {
		return nil, err
	}

	prefRange, hasPref := ParseAgeRange(requester.AgePreference)

	out := make([]db.User, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if c.ID == requester.ID {
			continue
		}
		age, hasAge := Age(c.Birthday, now)

		if !Eligible(requester, c, prefRange, hasPref, age, hasAge) {
			continue
		}
		if !HasAffinity(requester, c) {
			continue
		}
		if !ref.accepts(c, age, hasAge) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// Eligible applies the hard rules: completion, gender preference, age preference.
func Eligible(requester, c *db.User, pref AgeRange, hasPref bool, age int, hasAge bool) bool {
	if c.ProfileCompleted == db.ProfileIncomplete {
		return false
	}
	if requester.GenderPreferred != "" && c.Gender != requester.GenderPreferred {
		return false
	}
	if hasPref && hasAge && !pref.Contains(age) {
		return false
	}
	return true
}

// HasAffinity is the OR gate: a shared goal, a shared interest, or a
// location preference field equal to the candidate's field.
func HasAffinity(requester, c *db.User) bool {
	return intersects(requester.RelationshipGoals, c.RelationshipGoals) ||
		intersects(requester.Interests, c.Interests) ||
		locationMatches(requester.LocationPreference, c.Location)
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func locationMatches(pref, loc db.Location) bool {
	eq := func(p, l string) bool { return p != "" && p == l }
	return eq(pref.Country, loc.Country) || eq(pref.State, loc.State) || eq(pref.City, loc.City)
}

func (r refinement) accepts(c *db.User, age int, hasAge bool) bool {
	if hasAge {
		if r.minAge != nil && age < *r.minAge {
			return false
		}
		if r.maxAge != nil && age > *r.maxAge {
			return false
		}
	}
	if r.gender != "" && c.Gender != r.gender {
		return false
	}
	if r.search != "" &&
		!strings.Contains(strings.ToLower(c.FirstName), r.search) &&
		!strings.Contains(strings.ToLower(c.LastName), r.search) {
		return false
	}
	if r.location != "" && !c.Location.IsZero() {
		hit := false
		for _, field := range []string{c.Location.City, c.Location.State, c.Location.Country} {
			if strings.Contains(strings.ToLower(field), r.location) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
