package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type enrollmentStore interface {
	CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ReplaceForStudent(ctx context.Context, studentID string, courseIDs []string) error
}

type assignmentStore interface {
	CourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error)
	ReplaceForTeacher(ctx context.Context, teacherID string, courseIDs []string) error
}

type courseReader interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type principalReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SaveCoursesRequest is the replace-set payload for assignment and
// enrollment saves.
type SaveCoursesRequest struct {
	CourseIDs []string `json:"course_ids" validate:"required"`
}

// RegistryService is the single authorization chokepoint: every other
// component resolves course visibility through it before returning or
// accepting course-scoped rows.
type RegistryService struct {
	enrollments enrollmentStore
	assignments assignmentStore
	courses     courseReader
	users       principalReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistryService constructs RegistryService.
func NewRegistryService(enrollments enrollmentStore, assignments assignmentStore, courses courseReader, users principalReader, validate *validator.Validate, logger *zap.Logger) *RegistryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		enrollments: enrollments,
		assignments: assignments,
		courses:     courses,
		users:       users,
		validator:   validate,
		logger:      logger,
	}
}

// CoursesVisibleTo resolves the course set a principal may see:
// students get their enrollment set, teachers their assignment set,
// administrators everything.
func (s *RegistryService) CoursesVisibleTo(ctx context.Context, principalID string, role models.UserRole) ([]string, error) {
	switch role {
	case models.RoleStudent:
		ids, err := s.enrollments.CourseIDsByStudent(ctx, principalID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollments")
		}
		return ids, nil
	case models.RoleTeacher:
		ids, err := s.assignments.CourseIDsByTeacher(ctx, principalID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignments")
		}
		return ids, nil
	case models.RoleAdmin:
		courses, err := s.courses.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		ids := make([]string, 0, len(courses))
		for _, course := range courses {
			ids = append(ids, course.ID)
		}
		return ids, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

// AssignCourses replaces a teacher's assignment set.
func (s *RegistryService) AssignCourses(ctx context.Context, teacherID string, req SaveCoursesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.checkPrincipal(ctx, teacherID, models.RoleTeacher); err != nil {
		return err
	}
	if err := s.checkCourses(ctx, req.CourseIDs); err != nil {
		return err
	}
	if err := s.assignments.ReplaceForTeacher(ctx, teacherID, req.CourseIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assignments")
	}
	s.logger.Info("assignments replaced", zap.String("teacher_id", teacherID), zap.Int("courses", len(req.CourseIDs)))
	return nil
}

// EnrollCourses replaces a student's enrollment set.
func (s *RegistryService) EnrollCourses(ctx context.Context, studentID string, req SaveCoursesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := s.checkPrincipal(ctx, studentID, models.RoleStudent); err != nil {
		return err
	}
	if err := s.checkCourses(ctx, req.CourseIDs); err != nil {
		return err
	}
	if err := s.enrollments.ReplaceForStudent(ctx, studentID, req.CourseIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollments")
	}
	s.logger.Info("enrollments replaced", zap.String("student_id", studentID), zap.Int("courses", len(req.CourseIDs)))
	return nil
}

// ListAssignments returns a teacher's assignment details.
func (s *RegistryService) ListAssignments(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListEnrollments returns a student's enrollment details.
func (s *RegistryService) ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func (s *RegistryService) checkPrincipal(ctx context.Context, id string, role models.UserRole) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "principal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load principal")
	}
	if user.Role != role {
		return appErrors.Clone(appErrors.ErrValidation, "principal has the wrong role for this save")
	}
	return nil
}

func (s *RegistryService) checkCourses(ctx context.Context, courseIDs []string) error {
	for _, id := range courseIDs {
		if _, err := s.courses.FindByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course "+id+" not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}
	return nil
}
