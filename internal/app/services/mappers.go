package services

import (
	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/helpers"
	"github.com/mirea/edupulse/internal/pkg/studenthash"
)

type studentMapper struct {
	hasher           *studenthash.Hasher
	knownDepartments []string
}

func (m studentMapper) toResponse(s models.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:         s.ID,
		Hash:       m.hasher.Hash(s.ID),
		Name:       s.Name,
		Email:      s.Email,
		Group:      s.GroupName,
		Department: analytics.DepartmentOf(s.GroupName, m.knownDepartments),
		Year:       s.Year,
		IsHeadman:  s.IsHeadman,
	}
}

func (m studentMapper) toResponses(students []models.Student) []dto.StudentResponse {
	out := make([]dto.StudentResponse, len(students))
	for i, s := range students {
		out[i] = m.toResponse(s)
	}
	return out
}

func toCourseResponse(c models.Course, teacherIDs []int64) dto.CourseResponse {
	if teacherIDs == nil {
		teacherIDs = []int64{}
	}
	return dto.CourseResponse{
		ID:         c.ID,
		Name:       c.Name,
		Code:       c.Code,
		Credits:    c.Credits,
		Semester:   c.Semester,
		TeacherIDs: teacherIDs,
	}
}

func toTeacherResponse(t models.Teacher) dto.TeacherResponse {
	return dto.TeacherResponse{ID: t.ID, Name: t.Name, Email: t.Email, Department: t.Department}
}

func toGradeResponse(g models.Grade, courseName string) dto.GradeResponse {
	return dto.GradeResponse{
		ID:         g.ID,
		CourseID:   g.CourseID,
		CourseName: courseName,
		TeacherID:  g.TeacherID,
		Value:      g.Value,
		Type:       g.Type,
		Date:       g.Date.Format(helpers.DateLayout),
	}
}

func toAttendanceResponse(a models.Attendance) dto.AttendanceResponse {
	return dto.AttendanceResponse{
		ID:        a.ID,
		CourseID:  a.CourseID,
		Date:      a.Date.Format(helpers.DateLayout),
		Present:   a.Present,
		Building:  a.Building,
		EntryTime: a.EntryTime,
		ExitTime:  a.ExitTime,
	}
}

func studentIDs(students []models.Student) []int64 {
	ids := make([]int64, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids
}

// intersect keeps the ids of a that also appear in b, preserving a's order.
func intersect(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]int64, 0, len(a))
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toScheduleEntryResponse(e models.ScheduleEntry, courseName string) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		ID:         e.ID,
		CourseID:   e.CourseID,
		CourseName: courseName,
		TeacherID:  e.TeacherID,
		Group:      e.GroupName,
		DayOfWeek:  e.DayOfWeek,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Room:       e.Room,
		Type:       e.Type,
	}
}
