package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/auth"
	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/telemetry"
	"github.com/birbparty/birb-academy/sdk"
)

const roleStudent = "student"

// Login handles POST /auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var (
		rec *database.UserRecord
		err error
	)
	if strings.Contains(req.Username, "@") {
		rec, err = h.store.UserByEmail(ctx, req.Username)
	} else {
		rec, err = h.store.UserByUsername(ctx, req.Username)
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		RecordAuthAttempt("login", "error")
		return internal("Failed to look up user", err)
	}
	if rec == nil || auth.CheckPassword(rec.PasswordHash, req.Password) != nil {
		RecordAuthAttempt("login", "rejected")
		return unauthorized("Invalid username or password")
	}

	token, _, err := h.tokens.Issue(auth.Identity{
		UserID:   rec.ID,
		Username: rec.Username,
		Role:     rec.Role,
	})
	if err != nil {
		RecordAuthAttempt("login", "error")
		return internal("Failed to issue token", err)
	}

	RecordAuthAttempt("login", "success")
	telemetry.WithContext(ctx).WithField("user_id", rec.ID).Info("User logged in")

	return c.JSON(&sdk.LoginResponse{Token: token, User: rec.User})
}

// Signup handles POST /auth/signup
func (h *Handler) Signup(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		RecordAuthAttempt("signup", "error")
		return internal("Failed to hash password", err)
	}

	user, err := h.store.CreateUser(ctx, &database.UserRecord{
		User: sdk.User{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      roleStudent,
		},
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			RecordAuthAttempt("signup", "conflict")
			return conflict("Username or email is already registered")
		}
		RecordAuthAttempt("signup", "error")
		return storeError(err, "User")
	}

	RecordAuthAttempt("signup", "success")
	telemetry.WithContext(ctx).WithField("user_id", user.ID).Info("User registered")

	return c.Status(fiber.StatusCreated).JSON(&sdk.StatusResponse{
		Success: true,
		Message: "User registered successfully",
	})
}

// ForgotPassword handles POST /auth/forgot-password. The response does not
// reveal whether the address is registered.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	rec, err := h.store.UserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		telemetry.WithContext(ctx).WithField("user_id", rec.ID).Info("Password reset requested")
	case !errors.Is(err, database.ErrNotFound):
		return internal("Failed to look up user", err)
	}

	return c.JSON(&sdk.StatusResponse{
		Success: true,
		Message: "Password reset email sent",
	})
}

// Logout handles POST /auth/logout by revoking the presented token until it
// would have expired anyway.
func (h *Handler) Logout(c *fiber.Ctx) error {
	claims := currentClaims(c)

	until := time.Now().Add(h.tokens.TTL())
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := h.revocations.Revoke(c.UserContext(), claims.ID, until); err != nil {
		RecordAuthAttempt("logout", "error")
		return internal("Failed to revoke token", err)
	}

	RecordAuthAttempt("logout", "success")
	return c.JSON(&sdk.StatusResponse{Success: true, Message: "Logged out successfully"})
}

// GetProfile handles GET /users/profile
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := h.store.UserByID(c.UserContext(), currentClaims(c).UserID())
	if err != nil {
		return storeError(err, "User")
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /users/profile
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.store.UpdateUser(c.UserContext(), currentClaims(c).UserID(), sdk.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
		Bio:       req.Bio,
	})
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return conflict("Email is already registered")
		}
		return storeError(err, "User")
	}
	return c.JSON(user)
}

// maxActivityLimit caps GET /users/activity?limit=
const maxActivityLimit = 100

// GetActivity handles GET /users/activity?limit=
func (h *Handler) GetActivity(c *fiber.Ctx) error {
	limit := database.DefaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxActivityLimit {
			return badRequest(fmt.Sprintf("limit must be between 1 and %d", maxActivityLimit))
		}
		limit = n
	}

	entries, err := h.activity.RecentActivity(c.UserContext(), currentClaims(c).UserID(), limit)
	if err != nil {
		return internal("Failed to load activity", err)
	}
	return c.JSON(entries)
}
