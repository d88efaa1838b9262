package sdk

import (
	"context"
	"net/http"
)

// CourseService covers the catalog and enrollments.
type CourseService struct {
	service
}

// GetAllCourses lists the catalog. Filters are sent as query parameters; in
// mock mode the full catalog fixture is returned regardless.
func (s *CourseService) GetAllCourses(ctx context.Context, filters *CourseFilters) ([]Course, error) {
	var opts []RequestOption
	if filters != nil {
		opts = append(opts,
			WithQueryParam("category", filters.Category),
			WithQueryParam("level", filters.Level),
			WithQueryParam("search", filters.Search),
		)
	}
	return CallData[[]Course](ctx, s.r, s.endpoints().Courses.All, http.MethodGet, nil, opts...)
}

// GetCourse returns one course.
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*Course, error) {
	ep := s.endpoints()
	course, err := CallRecord[Course](ctx, s.r, ep.Path(ep.Courses.ByID, idString(id)), idString(id))
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Enroll enrolls the logged-in user in a course.
func (s *CourseService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResponse, error) {
	if req.CourseID <= 0 {
		return nil, validationError("courseId is required")
	}
	resp, err := Call[EnrollResponse](ctx, s.r, s.endpoints().Enrollments.All, http.MethodPost, req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetEnrollments lists the logged-in user's enrollments. Collections are narrowed
// to the cached session user.
func (s *CourseService) GetEnrollments(ctx context.Context) ([]Enrollment, error) {
	raw, err := request(ctx, s.r, s.endpoints().Enrollments.All, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	raw = unwrapData(raw)
	if id := s.currentUserID(ctx); id != "" {
		raw = filterRecords(raw, "userId", id)
	}

	var enrollments []Enrollment
	if err := deserialize(raw, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// UpdateProgress records progress through a course.
func (s *CourseService) UpdateProgress(ctx context.Context, enrollmentID int64, progress int, moduleID, lessonID string) (*Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, validationError("progress must be between 0 and 100, got %d", progress)
	}

	ep := s.endpoints()
	body := ProgressUpdate{Progress: progress, ModuleID: moduleID, LessonID: lessonID}
	raw, err := request(ctx, s.r, ep.Path(ep.Enrollments.Progress, idString(enrollmentID)), http.MethodPut, body)
	if err != nil {
		return nil, err
	}

	acknowledged := isAcknowledgement(raw)
	record, err := selectRecord(unwrapData(raw), idString(enrollmentID))
	if err != nil {
		return nil, err
	}

	var enrollment Enrollment
	if err := deserialize(record, &enrollment); err != nil {
		return nil, err
	}
	if acknowledged {
		// The acknowledgement only echoes the update body.
		enrollment.ID = enrollmentID
		enrollment.CurrentModuleID = moduleID
		enrollment.CurrentLessonID = lessonID
	}
	return &enrollment, nil
}
