package sdk

import (
	"net/url"
	"strings"
)

// Endpoints is the closed set of logical endpoint templates consumed by the
// domain services. Templates use {id} placeholders filled in by Path.
type Endpoints struct {
	Auth struct {
		Login          string
		Signup         string
		ForgotPassword string
		Logout         string
	}
	Users struct {
		Profile string
	}
	Courses struct {
		All  string
		ByID string
	}
	Enrollments struct {
		All      string
		Progress string
	}
	Conversations struct {
		All      string
		ByID     string
		Messages string
	}
	Subscriptions struct {
		Me     string
		Cancel string
	}
	Payments struct {
		CreateIntent       string
		CreateSubscription string
	}
}

// DefaultEndpoints returns the endpoint surface served by the academy backend.
func DefaultEndpoints() *Endpoints {
	e := &Endpoints{}
	e.Auth.Login = "/auth/login"
	e.Auth.Signup = "/auth/signup"
	e.Auth.ForgotPassword = "/auth/forgot-password"
	e.Auth.Logout = "/auth/logout"
	e.Users.Profile = "/users/profile"
	e.Courses.All = "/courses"
	e.Courses.ByID = "/courses/{id}"
	e.Enrollments.All = "/enrollments"
	e.Enrollments.Progress = "/enrollments/{id}/progress"
	e.Conversations.All = "/conversations"
	e.Conversations.ByID = "/conversations/{id}"
	e.Conversations.Messages = "/conversations/{id}/messages"
	e.Subscriptions.Me = "/subscriptions/me"
	e.Subscriptions.Cancel = "/subscriptions/{id}/cancel"
	e.Payments.CreateIntent = "/payments/create-intent"
	e.Payments.CreateSubscription = "/payments/create-subscription"
	return e
}

// Path fills the {id} placeholders of template in order, escaping each value.
//
// Example:
//
//	path := endpoints.Path(endpoints.Enrollments.Progress, "42")
//	// Result: "/enrollments/42/progress"
func (e *Endpoints) Path(template string, args ...string) string {
	return buildPath(template, args...)
}

// buildPath replaces successive {id} placeholders with the provided arguments.
//
// QueryEscape is used so that '/', '=' and '&' cannot leak into the path; '+' is
// then turned back into %20 since '+' only means space inside query strings.
func buildPath(pattern string, args ...string) string {
	path := pattern
	for _, arg := range args {
		escaped := url.QueryEscape(arg)
		escaped = strings.ReplaceAll(escaped, "+", "%20")
		path = strings.Replace(path, "{id}", escaped, 1)
	}
	return path
}
