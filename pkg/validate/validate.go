// Package validate checks create-group input at the form boundary, before
// anything reaches the ledger. Violations are reported per field so callers
// can surface them inline.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Group name length bounds.
const (
	MinNameLength = 3
	MaxNameLength = 100
)

// Cycle duration bounds, in weeks.
const (
	MinCycleWeeks = 1
	MaxCycleWeeks = 52
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a 0x-prefixed 40-hex-digit identifier.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lowercases an address so that equality checks and
// de-duplication are case-insensitive, as hex identifiers are.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Errors maps a field name to the list of problems found with it.
// A nil or empty map means the input passed.
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Error implements the error interface with a compact summary.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return fmt.Sprintf("validation failed for: %s", strings.Join(fields, ", "))
}

// CreateGroupInput is the raw, unvalidated create-group form.
type CreateGroupInput struct {
	Name               string   `json:"name"`
	TokenAddress       string   `json:"token_address"`
	ContributionAmount string   `json:"contribution_amount"`
	CycleWeeks         int      `json:"cycle_weeks"`
	Members            []string `json:"members"`
}

// CreateGroup validates the form and returns the cleaned member list
// (trimmed, normalized, blanks dropped). The returned Errors is non-nil only
// when at least one field failed.
func CreateGroup(in *CreateGroupInput) ([]string, Errors) {
	errs := Errors{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs.add("name", "group name is required")
	} else if len(name) < MinNameLength {
		errs.add("name", fmt.Sprintf("group name must be at least %d characters", MinNameLength))
	} else if len(name) > MaxNameLength {
		errs.add("name", fmt.Sprintf("group name must be at most %d characters", MaxNameLength))
	}

	token := strings.TrimSpace(in.TokenAddress)
	if token == "" {
		errs.add("token_address", "token address is required")
	} else if !IsAddress(token) {
		errs.add("token_address", "invalid address format")
	}

	if strings.TrimSpace(in.ContributionAmount) == "" {
		errs.add("contribution_amount", "contribution amount is required")
	}

	if in.CycleWeeks < MinCycleWeeks {
		errs.add("cycle_weeks", fmt.Sprintf("cycle period must be at least %d week", MinCycleWeeks))
	} else if in.CycleWeeks > MaxCycleWeeks {
		errs.add("cycle_weeks", fmt.Sprintf("cycle period cannot exceed %d weeks", MaxCycleWeeks))
	}

	members := make([]string, 0, len(in.Members))
	seen := make(map[string]struct{}, len(in.Members))
	for i, m := range in.Members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if !IsAddress(m) {
			errs.add("members", fmt.Sprintf("member %d: invalid address format", i+1))
			continue
		}
		normalized := NormalizeAddress(m)
		if _, dup := seen[normalized]; dup {
			errs.add("members", "duplicate member addresses are not allowed")
			continue
		}
		seen[normalized] = struct{}{}
		members = append(members, normalized)
	}
	if len(members) == 0 && len(errs["members"]) == 0 {
		errs.add("members", "at least one member address is required")
	}

	if len(errs) == 0 {
		return members, nil
	}
	return members, errs
}
