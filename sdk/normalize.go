package sdk

import "strings"

// IDPlaceholder replaces numeric path segments in normalized endpoints.
const IDPlaceholder = ":id"

// ErrorFixture is the fixture returned for unmapped endpoints in mock mode.
const ErrorFixture = "error"

// NormalizeEndpoint turns a concrete logical endpoint into its pattern by
// replacing every purely numeric path segment with ":id". The query string and
// fragment are dropped and a trailing slash is removed.
//
//	NormalizeEndpoint("/courses/17")               // "/courses/:id"
//	NormalizeEndpoint("/enrollments/3/progress")   // "/enrollments/:id/progress"
//	NormalizeEndpoint("/courses?category=design")  // "/courses"
func NormalizeEndpoint(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		endpoint = endpoint[:i]
	}
	if endpoint == "" {
		return "/"
	}

	segments := strings.Split(endpoint, "/")
	for i, seg := range segments {
		if isNumeric(seg) {
			segments[i] = IDPlaceholder
		}
	}
	normalized := strings.Join(segments, "/")

	if len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return normalized
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FixtureMap maps normalized endpoint patterns to fixture names.
type FixtureMap map[string]string

// DefaultFixtureMap returns the mapping for the bundled fixture families.
func DefaultFixtureMap() FixtureMap {
	return FixtureMap{
		"/courses":                    "courses",
		"/courses/:id":                "courses",
		"/users/profile":              "users",
		"/users/:id":                  "users",
		"/enrollments":                "enrollments",
		"/enrollments/:id":            "enrollments",
		"/enrollments/:id/progress":   "enrollments",
		"/subscriptions/me":           "subscriptions",
		"/subscriptions/:id":          "subscriptions",
		"/conversations":              "conversations",
		"/conversations/:id":          "conversations",
		"/conversations/:id/messages": "conversations",
	}
}

// Resolve normalizes endpoint and looks it up. Unmapped endpoints resolve to
// ErrorFixture with mapped set to false.
func (m FixtureMap) Resolve(endpoint string) (pattern, fixture string, mapped bool) {
	pattern = NormalizeEndpoint(endpoint)
	fixture, mapped = m[pattern]
	if !mapped {
		fixture = ErrorFixture
	}
	return pattern, fixture, mapped
}
