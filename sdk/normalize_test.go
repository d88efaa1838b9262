package sdk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"/courses", "/courses"},
		{"/courses/7", "/courses/:id"},
		{"/courses/007", "/courses/:id"},
		{"/enrollments/42/progress", "/enrollments/:id/progress"},
		{"/conversations/3/messages", "/conversations/:id/messages"},
		{"/a/1/b/2", "/a/:id/b/:id"},
		{"/courses/7/", "/courses/:id"},
		{"/courses?category=design&level=1", "/courses"},
		{"/courses/9#reviews", "/courses/:id"},
		{"/subscriptions/me", "/subscriptions/me"},
		{"/courses/7a", "/courses/7a"},
		{"/courses/-1", "/courses/-1"},
		{"/v2/courses", "/v2/courses"},
		{"courses/5", "/courses/:id"},
		{"/", "/"},
		{"", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEndpoint(tt.endpoint))
		})
	}
}

func TestNormalizeEndpoint_IDInvariant(t *testing.T) {
	templates := []string{
		"/courses/%d",
		"/enrollments/%d/progress",
		"/conversations/%d/messages",
		"/users/%d",
	}
	ids := []int{0, 1, 17, 42, 999999}

	for _, tmpl := range templates {
		t.Run(strings.ReplaceAll(tmpl, "%d", "n"), func(t *testing.T) {
			want := NormalizeEndpoint(fmt.Sprintf(tmpl, ids[0]))
			for _, id := range ids[1:] {
				assert.Equal(t, want, NormalizeEndpoint(fmt.Sprintf(tmpl, id)),
					"ids in the same position must normalize identically")
			}
		})
	}
}

func TestFixtureMap_Resolve(t *testing.T) {
	m := DefaultFixtureMap()

	tests := []struct {
		endpoint    string
		wantPattern string
		wantFixture string
		wantMapped  bool
	}{
		{"/courses/17", "/courses/:id", "courses", true},
		{"/users/profile", "/users/profile", "users", true},
		{"/enrollments/3/progress", "/enrollments/:id/progress", "enrollments", true},
		{"/subscriptions/me", "/subscriptions/me", "subscriptions", true},
		{"/conversations/5/messages", "/conversations/:id/messages", "conversations", true},
		{"/unknown/thing", "/unknown/thing", ErrorFixture, false},
		{"/courses/17/reviews", "/courses/:id/reviews", ErrorFixture, false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			pattern, fixture, mapped := m.Resolve(tt.endpoint)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantFixture, fixture)
			assert.Equal(t, tt.wantMapped, mapped)
		})
	}
}
