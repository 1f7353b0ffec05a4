package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/helpers"
	"github.com/mirea/edupulse/internal/pkg/studenthash"
	"github.com/rs/zerolog"
)

// StudentService defines the interface for student listings, records and the headman flag
type StudentService interface {
	ListStudents(ctx context.Context, actor auth.Actor, groups []string, page helpers.Page) (*dto.PaginatedResponse, error)
	GetMe(ctx context.Context, actor auth.Actor) (*dto.StudentResponse, error)
	GetStudent(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error)
	GetByHash(ctx context.Context, actor auth.Actor, hash string) (*dto.StudentResponse, error)
	SetHeadman(ctx context.Context, actor auth.Actor, id int64, isHeadman bool) (*dto.StudentResponse, error)
	GetGrades(ctx context.Context, actor auth.Actor, id int64, courseID *int64) ([]dto.GradeResponse, error)
	GetAttendance(ctx context.Context, actor auth.Actor, id int64, rng models.DateRange) (*dto.StudentAttendanceResponse, error)
	GetAttendanceByHash(ctx context.Context, actor auth.Actor, hash string, rng models.DateRange) (*dto.StudentAttendanceResponse, error)
	CreateGrade(ctx context.Context, actor auth.Actor, req *dto.CreateGradeRequest) (*dto.GradeResponse, error)
}

type studentServiceImpl struct {
	stores Stores
	authz  *auth.AuthorizationService
	hasher *studenthash.Hasher
	opts   AnalyticsOptions
	mapper studentMapper
	audit  auditor
	clock  clock
	logger zerolog.Logger
}

// NewStudentService creates a new student service
func NewStudentService(stores Stores, authz *auth.AuthorizationService, hasher *studenthash.Hasher, opts AnalyticsOptions, logger zerolog.Logger) StudentService {
	return &studentServiceImpl{
		stores: stores,
		authz:  authz,
		hasher: hasher,
		opts:   opts,
		mapper: studentMapper{hasher: hasher, knownDepartments: opts.KnownDepartments},
		audit:  auditor{logs: stores.Logs, logger: logger},
		logger: logger,
	}
}

// ListStudents returns a page of the students visible to the actor
func (s *studentServiceImpl) ListStudents(ctx context.Context, actor auth.Actor, groups []string, page helpers.Page) (*dto.PaginatedResponse, error) {
	visible, err := s.authz.VisibleStudents(ctx, actor)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	offset, limit := page.OffsetLimit()
	filter := models.StudentFilter{IDs: visible, Offset: offset, Limit: limit}
	if len(groups) > 0 {
		filter.GroupNames = groups
	}

	var (
		students []models.Student
		total    int64
	)
	if visible != nil && len(visible) == 0 {
		students = []models.Student{}
	} else {
		students, total, err = s.stores.Students.ListStudents(ctx, filter)
		if err != nil {
			return nil, err
		}
	}

	return &dto.PaginatedResponse{
		Items:      s.mapper.toResponses(students),
		Pagination: helpers.NewPaginationInfo(total, page),
	}, nil
}

// GetMe returns the student profile linked to the caller
func (s *studentServiceImpl) GetMe(ctx context.Context, actor auth.Actor) (*dto.StudentResponse, error) {
	if actor.StudentID == nil {
		return nil, apperrors.NewForbiddenError(auth.ErrNoLinkedStudent.Error())
	}
	return s.GetStudent(ctx, actor, *actor.StudentID)
}

// GetStudent returns one student profile
func (s *studentServiceImpl) GetStudent(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error) {
	student, err := s.stores.Students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, id); err != nil {
		return nil, err
	}
	resp := s.mapper.toResponse(*student)
	return &resp, nil
}

// GetByHash resolves a student from the opaque id used in URLs
func (s *studentServiceImpl) GetByHash(ctx context.Context, actor auth.Actor, hash string) (*dto.StudentResponse, error) {
	st, err := s.resolveHash(ctx, actor, hash)
	if err != nil {
		return nil, err
	}
	resp := s.mapper.toResponse(*st)
	return &resp, nil
}

// resolveHash finds the student behind hash and checks the actor may read them.
func (s *studentServiceImpl) resolveHash(ctx context.Context, actor auth.Actor, hash string) (*models.Student, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if len(hash) != studenthash.Length {
		return nil, apperrors.NewValidationError(fmt.Sprintf("student hash must be %d hex characters", studenthash.Length))
	}
	students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{})
	if err != nil {
		return nil, err
	}
	for i := range students {
		if s.hasher.Match(students[i].ID, hash) {
			if err := s.authz.ValidateStudentAccess(ctx, actor, students[i].ID); err != nil {
				return nil, err
			}
			return &students[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, hash)
}

// SetHeadman sets or clears the headman flag; setting it demotes the previous headman of the group
func (s *studentServiceImpl) SetHeadman(ctx context.Context, actor auth.Actor, id int64, isHeadman bool) (*dto.StudentResponse, error) {
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return nil, apperrors.NewForbiddenError("only teachers and admins may change the headman")
	}
	before, err := s.stores.Students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, id); err != nil {
		return nil, err
	}

	var updated *models.Student
	if isHeadman {
		updated, err = s.stores.Students.SetHeadman(ctx, id)
	} else {
		updated, err = s.stores.Students.ClearHeadman(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if before.IsHeadman != updated.IsHeadman {
		s.audit.record(ctx, actor, models.ActionUpdate, "students", id,
			map[string]bool{"is_headman": before.IsHeadman},
			map[string]bool{"is_headman": updated.IsHeadman})
	}
	s.logger.Info().
		Int64("studentID", id).
		Str("group", updated.GroupName).
		Bool("isHeadman", updated.IsHeadman).
		Int64("userID", actor.UserID).
		Msg("Headman updated")

	resp := s.mapper.toResponse(*updated)
	return &resp, nil
}

// GetGrades lists a student's grades, newest first
func (s *studentServiceImpl) GetGrades(ctx context.Context, actor auth.Actor, id int64, courseID *int64) ([]dto.GradeResponse, error) {
	if _, err := s.stores.Students.GetStudentByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, id); err != nil {
		return nil, err
	}
	filter := models.SummaryFilter{StudentIDs: []int64{id}}
	if courseID != nil {
		if _, err := s.stores.Courses.GetCourseByID(ctx, *courseID); err != nil {
			return nil, err
		}
		filter.CourseIDs = []int64{*courseID}
	}
	grades, err := s.stores.Grades.ListGrades(ctx, filter)
	if err != nil {
		return nil, err
	}

	names, err := s.courseNames(ctx, grades)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GradeResponse, len(grades))
	for i, g := range grades {
		out[i] = toGradeResponse(g, names[g.CourseID])
	}
	return out, nil
}

func (s *studentServiceImpl) courseNames(ctx context.Context, grades []models.Grade) (map[int64]string, error) {
	if len(grades) == 0 {
		return map[int64]string{}, nil
	}
	seen := make(map[int64]struct{})
	var ids []int64
	for _, g := range grades {
		if _, ok := seen[g.CourseID]; !ok {
			seen[g.CourseID] = struct{}{}
			ids = append(ids, g.CourseID)
		}
	}
	courses, err := s.stores.Courses.ListCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	return names, nil
}

// GetAttendance lists a student's attendance records inside rng with the resulting rate
func (s *studentServiceImpl) GetAttendance(ctx context.Context, actor auth.Actor, id int64, rng models.DateRange) (*dto.StudentAttendanceResponse, error) {
	if _, err := s.stores.Students.GetStudentByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, id); err != nil {
		return nil, err
	}
	rng = resolveRange(rng, s.clock.now(), s.opts.AttendanceWindowDays)
	records, err := s.stores.Attendance.ListAttendance(ctx, models.SummaryFilter{StudentIDs: []int64{id}, Range: rng})
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentAttendanceResponse{StudentID: id, Records: make([]dto.AttendanceResponse, len(records))}
	for i, a := range records {
		resp.Records[i] = toAttendanceResponse(a)
		resp.Total++
		if a.Present {
			resp.Present++
		}
	}
	resp.AttendanceRate = analytics.Round2(analytics.AttendanceRate(resp.Present, resp.Total))
	return resp, nil
}

// GetAttendanceByHash is GetAttendance for a student addressed by hash
func (s *studentServiceImpl) GetAttendanceByHash(ctx context.Context, actor auth.Actor, hash string, rng models.DateRange) (*dto.StudentAttendanceResponse, error) {
	st, err := s.resolveHash(ctx, actor, hash)
	if err != nil {
		return nil, err
	}
	return s.GetAttendance(ctx, actor, st.ID, rng)
}

// CreateGrade records a grade issued by the actor
func (s *studentServiceImpl) CreateGrade(ctx context.Context, actor auth.Actor, req *dto.CreateGradeRequest) (*dto.GradeResponse, error) {
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return nil, apperrors.NewForbiddenError("only teachers and admins may record grades")
	}
	if req.Value < models.MinGradeValue || req.Value > models.MaxGradeValue {
		return nil, apperrors.NewValidationError(fmt.Sprintf("grade value must be between %.0f and %.0f", models.MinGradeValue, models.MaxGradeValue))
	}
	if _, err := s.stores.Students.GetStudentByID(ctx, req.StudentID); err != nil {
		return nil, err
	}
	course, err := s.stores.Courses.GetCourseByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateCourseAccess(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}

	date := s.clock.today()
	if req.Date != "" {
		date, err = time.Parse(helpers.DateLayout, req.Date)
		if err != nil {
			return nil, apperrors.NewValidationError("date must be in YYYY-MM-DD format")
		}
	}
	gradeType := req.Type
	if gradeType == "" {
		gradeType = models.GradeTest
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		TeacherID: actor.TeacherID,
		Value:     req.Value,
		Type:      gradeType,
		Date:      date,
	}
	if err := s.stores.Grades.CreateGrade(ctx, grade); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, models.ActionCreate, "grades", grade.ID, nil, grade)

	resp := toGradeResponse(*grade, course.Name)
	return &resp, nil
}
