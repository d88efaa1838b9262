package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// service carries what every domain service needs.
type service struct {
	r      Requester
	config *Config
}

func (s service) endpoints() *Endpoints {
	return s.config.Endpoints
}

func (s service) session() SessionStore {
	return s.config.SessionStore
}

// currentUserID returns the cached session user id, or "" when logged out.
func (s service) currentUserID(ctx context.Context) string {
	user, err := sessionUser(ctx, s.session())
	if err != nil || user == nil || user.ID == 0 {
		return ""
	}
	return idString(user.ID)
}

// UserService covers authentication and the user profile, and is the only
// code that writes a session.
type UserService struct {
	service
}

// signupResponse is what /auth/signup returns. Some backends log the new user
// in straight away and include a token.
type signupResponse struct {
	StatusResponse
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Login authenticates and stores the token and user in the session store.
//
// Example:
//
//	resp, err := client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: "secret"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println("Welcome", resp.User.FirstName)
func (s *UserService) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if creds.Username == "" {
		return nil, validationError("username is required")
	}

	resp, err := Call[LoginResponse](ctx, s.r, s.endpoints().Auth.Login, http.MethodPost, creds)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrInvalidResponse)
	}
	if err := s.storeSession(ctx, resp.Token, &resp.User); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a new account. If the backend returns a token the session
// is stored as with Login.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*StatusResponse, error) {
	resp, err := Call[signupResponse](ctx, s.r, s.endpoints().Auth.Signup, http.MethodPost, req)
	if err != nil {
		return nil, err
	}
	if resp.Token != "" {
		if err := s.storeSession(ctx, resp.Token, resp.User); err != nil {
			return nil, err
		}
	}
	return &resp.StatusResponse, nil
}

// ForgotPassword asks the backend to send a reset email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (*StatusResponse, error) {
	body := map[string]string{"email": email}
	resp, err := Call[StatusResponse](ctx, s.r, s.endpoints().Auth.ForgotPassword, http.MethodPost, body)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the token on the backend and clears the session. The session
// is cleared even when the backend call fails.
func (s *UserService) Logout(ctx context.Context) error {
	_, reqErr := s.r.Request(ctx, s.endpoints().Auth.Logout, http.MethodPost, nil)
	clearErr := s.session().Clear(ctx)

	// A 401 means the transport already tore the session down.
	if reqErr != nil && !IsUnauthorized(reqErr) {
		return reqErr
	}
	return clearErr
}

// GetProfile returns the logged-in user. When the payload is a collection the
// record matching the cached session user is chosen, falling back to the first.
func (s *UserService) GetProfile(ctx context.Context) (*User, error) {
	raw, err := request(ctx, s.r, s.endpoints().Users.Profile, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	raw = unwrapData(raw)

	record, err := firstRecord(raw)
	if id := s.currentUserID(ctx); id != "" {
		if selected, selErr := selectRecord(raw, id); selErr == nil {
			record, err = selected, nil
		}
	}
	if err != nil {
		return nil, err
	}

	var user User
	if err := deserialize(record, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial update and refreshes the cached session user.
// In mock mode the acknowledged fields are overlaid on the cached user.
func (s *UserService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	raw, err := request(ctx, s.r, s.endpoints().Users.Profile, http.MethodPut, update)
	if err != nil {
		return nil, err
	}

	user := User{}
	if isAcknowledgement(raw) {
		if cached, err := sessionUser(ctx, s.session()); err == nil && cached != nil {
			user = *cached
		}
	}
	if err := deserialize(unwrapData(raw), &user); err != nil {
		return nil, err
	}

	if user.ID != 0 {
		if err := s.cacheUser(ctx, &user); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (s *UserService) storeSession(ctx context.Context, token string, user *User) error {
	if err := s.session().SetToken(ctx, token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	if user != nil {
		return s.cacheUser(ctx, user)
	}
	return nil
}

func (s *UserService) cacheUser(ctx context.Context, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session user: %w", err)
	}
	if err := s.session().SetUser(ctx, raw); err != nil {
		return fmt.Errorf("storing session user: %w", err)
	}
	return nil
}
