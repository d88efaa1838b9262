package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/sdk"
)

// ListCourses handles GET /courses?category=&level=&search=
func (h *Handler) ListCourses(c *fiber.Ctx) error {
	return c.JSON(h.catalog.List(sdk.CourseFilters{
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Search:   c.Query("search"),
	}))
}

// GetCourse handles GET /courses/:id
func (h *Handler) GetCourse(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	course, ok := h.catalog.Get(id)
	if !ok {
		return notFound("Course not found")
	}
	return c.JSON(course)
}

// ListEnrollments handles GET /enrollments
func (h *Handler) ListEnrollments(c *fiber.Ctx) error {
	list, err := h.store.ListEnrollments(c.UserContext(), currentClaims(c).UserID())
	if err != nil {
		return storeError(err, "Enrollments")
	}
	return c.JSON(list)
}

// Enroll handles POST /enrollments
func (h *Handler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, ok := h.catalog.Get(req.CourseID); !ok {
		return notFound("Course not found")
	}

	enrollment, err := h.store.CreateEnrollment(c.UserContext(), currentClaims(c).UserID(), req.CourseID)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return conflict("Already enrolled in this course")
		}
		return storeError(err, "Enrollment")
	}

	return c.Status(fiber.StatusCreated).JSON(&sdk.EnrollResponse{
		Success:      true,
		EnrollmentID: enrollment.ID,
	})
}

// UpdateProgress handles PUT /enrollments/:id/progress
func (h *Handler) UpdateProgress(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := currentClaims(c)

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req ProgressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	existing, err := h.store.GetEnrollment(ctx, id)
	if err != nil {
		return storeError(err, "Enrollment")
	}
	if existing.UserID != claims.UserID() {
		return forbidden("Enrollment belongs to another user")
	}

	enrollment, err := h.store.UpdateProgress(ctx, id, sdk.ProgressUpdate{
		Progress: req.Progress,
		ModuleID: req.ModuleID,
		LessonID: req.LessonID,
	})
	if err != nil {
		return storeError(err, "Enrollment")
	}

	h.publish(ctx, queue.NewProgressEvent(
		enrollment.UserID, enrollment.ID, enrollment.CourseID,
		enrollment.Progress, enrollment.CurrentModuleID, enrollment.CurrentLessonID,
	))

	return c.JSON(enrollment)
}
