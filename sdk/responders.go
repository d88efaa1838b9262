package sdk

import (
	"encoding/json"
	"fmt"
)

// ResponderKind tags a mock responder entry.
type ResponderKind string

const (
	ResponderLogin          ResponderKind = "login"
	ResponderSignup         ResponderKind = "signup"
	ResponderForgotPassword ResponderKind = "forgot-password"
	ResponderDefault        ResponderKind = "default"
)

// MockToken is the bearer token handed out by the mock login responder.
const MockToken = "mock-jwt-token"

// MockUser is the user handed out by the mock login responder.
var MockUser = User{
	ID:        1,
	Username:  "johndoe",
	Email:     "john@example.com",
	FirstName: "John",
	LastName:  "Doe",
	Role:      "student",
}

// ResponseGenerator returns the fields overlaid on the mock acknowledgement.
// body is the submitted request body, already encoded.
type ResponseGenerator func(body json.RawMessage) map[string]interface{}

// Responder is one row of a ResponderTable.
type Responder struct {
	// Pattern is matched exactly against the normalized endpoint.
	Pattern  string
	Kind     ResponderKind
	Generate ResponseGenerator
}

// ResponderTable synthesizes mock-mode answers for non-GET requests.
// Rows are matched in order; the fallback answers everything else.
type ResponderTable struct {
	entries  []Responder
	fallback Responder
}

// NewResponderTable creates a table with the given rows and the default fallback.
func NewResponderTable(entries ...Responder) *ResponderTable {
	return &ResponderTable{
		entries: entries,
		fallback: Responder{
			Kind: ResponderDefault,
			Generate: func(json.RawMessage) map[string]interface{} {
				return map[string]interface{}{
					"success": true,
					"message": "Operation completed successfully",
				}
			},
		},
	}
}

// DefaultResponders returns the table for the auth endpoints.
func DefaultResponders() *ResponderTable {
	return NewResponderTable(
		Responder{
			Pattern: "/auth/login",
			Kind:    ResponderLogin,
			Generate: func(json.RawMessage) map[string]interface{} {
				return map[string]interface{}{
					"token": MockToken,
					"user":  MockUser,
				}
			},
		},
		Responder{
			Pattern: "/auth/signup",
			Kind:    ResponderSignup,
			Generate: func(json.RawMessage) map[string]interface{} {
				return map[string]interface{}{"message": "User registered successfully"}
			},
		},
		Responder{
			Pattern: "/auth/forgot-password",
			Kind:    ResponderForgotPassword,
			Generate: func(json.RawMessage) map[string]interface{} {
				return map[string]interface{}{"message": "Password reset email sent"}
			},
		},
	)
}

// Register appends a row. Rows registered later lose to earlier ones on the same pattern.
func (t *ResponderTable) Register(r Responder) *ResponderTable {
	t.entries = append(t.entries, r)
	return t
}

// Match returns the responder for a normalized endpoint pattern.
func (t *ResponderTable) Match(pattern string) Responder {
	for _, r := range t.entries {
		if r.Pattern == pattern {
			return r
		}
	}
	return t.fallback
}

// Respond builds {"success": true, "data": <body or {}>} overlaid with the
// matched generator's fields.
func (t *ResponderTable) Respond(pattern string, body json.RawMessage) (json.RawMessage, ResponderKind, error) {
	r := t.Match(pattern)

	data := body
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}

	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	if r.Generate != nil {
		for k, v := range r.Generate(body) {
			response[k] = v
		}
	}

	out, err := json.Marshal(response)
	if err != nil {
		return nil, r.Kind, fmt.Errorf("encoding mock response for %s: %w", pattern, err)
	}
	return out, r.Kind, nil
}
