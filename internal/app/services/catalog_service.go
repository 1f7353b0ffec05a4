package services

import (
	"context"
	"strings"

	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

// CatalogService defines the interface for courses, teachers and the timetable
type CatalogService interface {
	ListCourses(ctx context.Context, actor auth.Actor) ([]dto.CourseResponse, error)
	GetCourse(ctx context.Context, actor auth.Actor, id int64) (*dto.CourseResponse, error)
	ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error)
	ListSchedule(ctx context.Context, actor auth.Actor, group string, courseID *int64) ([]dto.ScheduleEntryResponse, error)
}

type catalogServiceImpl struct {
	stores Stores
	authz  *auth.AuthorizationService
}

// NewCatalogService creates a new catalog service
func NewCatalogService(stores Stores, authz *auth.AuthorizationService) CatalogService {
	return &catalogServiceImpl{stores: stores, authz: authz}
}

func (s *catalogServiceImpl) visibleCourses(ctx context.Context, actor auth.Actor) ([]int64, error) {
	if actor.IsStudent() {
		return nil, nil
	}
	return s.authz.VisibleCourses(ctx, actor)
}

func (s *catalogServiceImpl) teacherLinks(ctx context.Context, courseIDs []int64) (map[int64][]int64, error) {
	links, err := s.stores.Courses.ListCourseTeachers(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	byCourse := make(map[int64][]int64)
	for _, l := range links {
		byCourse[l.CourseID] = append(byCourse[l.CourseID], l.TeacherID)
	}
	return byCourse, nil
}

// ListCourses returns every course, or only their own courses for teachers
func (s *catalogServiceImpl) ListCourses(ctx context.Context, actor auth.Actor) ([]dto.CourseResponse, error) {
	ids, err := s.visibleCourses(ctx, actor)
	if err != nil {
		return nil, err
	}
	if ids != nil && len(ids) == 0 {
		return []dto.CourseResponse{}, nil
	}
	courses, err := s.stores.Courses.ListCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	links, err := s.teacherLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CourseResponse, len(courses))
	for i, c := range courses {
		out[i] = toCourseResponse(c, links[c.ID])
	}
	return out, nil
}

// GetCourse returns one course with its teachers
func (s *catalogServiceImpl) GetCourse(ctx context.Context, actor auth.Actor, id int64) (*dto.CourseResponse, error) {
	course, err := s.stores.Courses.GetCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsTeacher() {
		if err := s.authz.ValidateCourseAccess(ctx, actor, id); err != nil {
			return nil, err
		}
	}
	links, err := s.teacherLinks(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(*course, links[id])
	return &resp, nil
}

// ListTeachers returns every teacher profile
func (s *catalogServiceImpl) ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error) {
	teachers, err := s.stores.Courses.ListTeachers(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TeacherResponse, len(teachers))
	for i, t := range teachers {
		out[i] = toTeacherResponse(t)
	}
	return out, nil
}

// ListSchedule returns timetable slots. Students see their own group, teachers their own courses.
func (s *catalogServiceImpl) ListSchedule(ctx context.Context, actor auth.Actor, group string, courseID *int64) ([]dto.ScheduleEntryResponse, error) {
	group = strings.TrimSpace(group)
	var courseIDs []int64

	switch {
	case actor.IsStudent():
		if actor.StudentID == nil {
			return nil, apperrors.NewForbiddenError(auth.ErrNoLinkedStudent.Error())
		}
		student, err := s.stores.Students.GetStudentByID(ctx, *actor.StudentID)
		if err != nil {
			return nil, err
		}
		if group != "" && group != student.GroupName {
			return nil, apperrors.NewForbiddenError("students may only view their own group's schedule")
		}
		group = student.GroupName
	case actor.IsTeacher():
		own, err := s.authz.TeacherCourses(ctx, actor)
		if err != nil {
			return nil, err
		}
		courseIDs = own
	}

	if courseID != nil {
		if _, err := s.stores.Courses.GetCourseByID(ctx, *courseID); err != nil {
			return nil, err
		}
		if courseIDs != nil {
			if len(intersect([]int64{*courseID}, courseIDs)) == 0 {
				return nil, apperrors.NewForbiddenError(auth.ErrOutsideOwnCourse.Error())
			}
		}
		courseIDs = []int64{*courseID}
	}
	if courseIDs != nil && len(courseIDs) == 0 {
		return []dto.ScheduleEntryResponse{}, nil
	}

	entries, err := s.stores.Courses.ListSchedule(ctx, courseIDs, group)
	if err != nil {
		return nil, err
	}
	names, err := s.courseNames(ctx, entries)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ScheduleEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toScheduleEntryResponse(e, names[e.CourseID])
	}
	return out, nil
}

func (s *catalogServiceImpl) courseNames(ctx context.Context, entries []models.ScheduleEntry) (map[int64]string, error) {
	names := make(map[int64]string)
	if len(entries) == 0 {
		return names, nil
	}
	var ids []int64
	for _, e := range entries {
		if _, ok := names[e.CourseID]; !ok {
			names[e.CourseID] = ""
			ids = append(ids, e.CourseID)
		}
	}
	courses, err := s.stores.Courses.ListCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	return names, nil
}
