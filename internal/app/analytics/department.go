package analytics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultDepartments are the department prefixes recognised when none are configured.
var DefaultDepartments = []string{"ИТ", "ПИ"}

// toUpper builds a fresh Caser per call; Casers keep state and are not goroutine-safe.
func toUpper(s string) string {
	return cases.Upper(language.Russian).String(s)
}

// DepartmentOf infers a department from a group name: the prefix before the
// first '-' when it is one of known (case-insensitive). Unknown or malformed
// names yield "", which callers treat as "no department".
func DepartmentOf(groupName string, known []string) string {
	if len(known) == 0 {
		known = DefaultDepartments
	}
	prefix, _, found := strings.Cut(strings.TrimSpace(groupName), "-")
	if !found || prefix == "" {
		return ""
	}
	prefix = toUpper(prefix)
	for _, k := range known {
		if toUpper(k) == prefix {
			return k
		}
	}
	return ""
}

// NormalizeDepartment maps a user-supplied department onto the configured
// spelling, or "" when it is not known.
func NormalizeDepartment(dept string, known []string) string {
	if len(known) == 0 {
		known = DefaultDepartments
	}
	want := toUpper(strings.TrimSpace(dept))
	for _, k := range known {
		if toUpper(k) == want {
			return k
		}
	}
	return ""
}
