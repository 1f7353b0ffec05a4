package services

import (
	"context"
	"strings"
	"testing"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStudents_RoleFiltered(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	tests := []struct {
		name   string
		groups []string
		page   helpers.Page
		items  int
		total  int64
	}{
		{name: "admin first page", page: helpers.Page{Number: 1, Size: 2}, items: 2, total: 4},
		{name: "admin by group", groups: []string{"ИТ-21"}, page: helpers.Page{Number: 1}, items: 3, total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListStudents(ctx, w.admin, tt.groups, tt.page)
			require.NoError(t, err)
			assert.Len(t, resp.Items, tt.items)
			assert.Equal(t, tt.total, resp.Pagination.TotalItems)
		})
	}

	teacher, err := svc.ListStudents(ctx, w.teacherActor, nil, helpers.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), teacher.Pagination.TotalItems)

	student, err := svc.ListStudents(ctx, w.studentActor, nil, helpers.Page{})
	require.NoError(t, err)
	items := student.Items.([]dto.StudentResponse)
	require.Len(t, items, 1)
	assert.Equal(t, w.it1, items[0].ID)
}

func TestGetByHash(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	got, err := svc.GetByHash(ctx, w.admin, w.hasher.Hash(w.pi1))
	require.NoError(t, err)
	assert.Equal(t, w.pi1, got.ID)

	_, err = svc.GetByHash(ctx, w.admin, "abc")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.GetByHash(ctx, w.admin, w.hasher.Hash(9999))
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetByHash(ctx, w.studentActor, w.hasher.Hash(w.pi1))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	me, err := svc.GetMe(ctx, w.studentActor)
	require.NoError(t, err)
	assert.Equal(t, w.it1, me.ID)

	_, err = svc.GetMe(ctx, w.admin)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGetAttendanceByHash(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	own, err := svc.GetAttendanceByHash(ctx, w.studentActor, strings.ToUpper(w.hasher.Hash(w.it1)), models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, w.it1, own.StudentID)
	assert.Equal(t, int64(4), own.Total)
	assert.Equal(t, int64(3), own.Present)
	assert.Equal(t, 75.0, own.AttendanceRate)

	byID, err := svc.GetAttendance(ctx, w.studentActor, w.it1, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, byID, own)

	_, err = svc.GetAttendanceByHash(ctx, w.studentActor, w.hasher.Hash(w.it2), models.DateRange{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.GetAttendanceByHash(ctx, w.admin, "zz", models.DateRange{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.GetAttendanceByHash(ctx, w.admin, w.hasher.Hash(9999), models.DateRange{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetHeadman(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	first, err := svc.SetHeadman(ctx, w.admin, w.it1, true)
	require.NoError(t, err)
	assert.True(t, first.IsHeadman)

	second, err := svc.SetHeadman(ctx, w.teacherActor, w.it2, true)
	require.NoError(t, err)
	assert.True(t, second.IsHeadman)

	members, _, err := w.store.ListStudents(ctx, models.StudentFilter{GroupNames: []string{"ИТ-21"}})
	require.NoError(t, err)
	headmen := 0
	for _, m := range members {
		if m.IsHeadman {
			headmen++
			assert.Equal(t, w.it2, m.ID)
		}
	}
	assert.Equal(t, 1, headmen)

	group, err := w.store.GetGroupByName(ctx, "ИТ-21")
	require.NoError(t, err)
	require.NotNil(t, group.HeadmanID)
	assert.Equal(t, w.it2, *group.HeadmanID)

	cleared, err := svc.SetHeadman(ctx, w.admin, w.it2, false)
	require.NoError(t, err)
	assert.False(t, cleared.IsHeadman)
	group, err = w.store.GetGroupByName(ctx, "ИТ-21")
	require.NoError(t, err)
	assert.Nil(t, group.HeadmanID)

	_, total, err := w.store.ListActivityLogs(ctx, models.LogFilter{Table: "students"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, err = svc.SetHeadman(ctx, w.studentActor, w.it1, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.SetHeadman(ctx, w.teacherActor, w.pi1, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.SetHeadman(ctx, w.admin, 9999, true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetHeadman_NoGroup(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	loner := &models.Student{Name: "Без группы", Year: 1}
	require.NoError(t, w.store.CreateStudent(ctx, loner))

	_, err := svc.SetHeadman(ctx, w.admin, loner.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestGetGradesAndAttendance(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	grades, err := svc.GetGrades(ctx, w.studentActor, w.it1, nil)
	require.NoError(t, err)
	require.Len(t, grades, 3)
	assert.Equal(t, 4.0, grades[0].Value, "newest first")
	assert.Equal(t, "Базы данных", grades[0].CourseName)

	none, err := svc.GetGrades(ctx, w.studentActor, w.it1, int64Ptr(w.courseAlg))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.GetGrades(ctx, w.studentActor, w.it1, int64Ptr(9999))
	assert.True(t, apperrors.IsNotFound(err))

	att, err := svc.GetAttendance(ctx, w.studentActor, w.it1, models.DateRange{})
	require.NoError(t, err)
	assert.Len(t, att.Records, 4)
	assert.Equal(t, 75.0, att.AttendanceRate)

	from := testNow.AddDate(0, 0, -2)
	recent, err := svc.GetAttendance(ctx, w.studentActor, w.it1, models.DateRange{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent.Total)
	assert.Equal(t, 100.0, recent.AttendanceRate)

	_, err = svc.GetAttendance(ctx, w.studentActor, w.pi1, models.DateRange{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateGrade(t *testing.T) {
	w := newWorld(t)
	svc := w.studentService()
	ctx := context.Background()

	created, err := svc.CreateGrade(ctx, w.teacherActor, &dto.CreateGradeRequest{StudentID: w.pi1, CourseID: w.courseDB, Value: 4})
	require.NoError(t, err)
	require.NotNil(t, created.TeacherID)
	assert.Equal(t, w.teacherDB, *created.TeacherID)
	assert.Equal(t, "2025-03-14", created.Date)
	assert.Equal(t, models.GradeTest, created.Type)

	roster, err := w.authz.TeacherRoster(ctx, w.teacherActor)
	require.NoError(t, err)
	assert.Contains(t, roster, w.pi1, "grading a student enrolls them in the teacher's roster")

	tests := []struct {
		name    string
		req     dto.CreateGradeRequest
		wantErr error
	}{
		{name: "other teacher's course", req: dto.CreateGradeRequest{StudentID: w.it1, CourseID: w.courseAlg, Value: 5}, wantErr: apperrors.ErrPermissionDenied},
		{name: "value above scale", req: dto.CreateGradeRequest{StudentID: w.it1, CourseID: w.courseDB, Value: 6}, wantErr: apperrors.ErrValidationFailed},
		{name: "bad date", req: dto.CreateGradeRequest{StudentID: w.it1, CourseID: w.courseDB, Value: 5, Date: "14.03.2025"}, wantErr: apperrors.ErrValidationFailed},
		{name: "unknown student", req: dto.CreateGradeRequest{StudentID: 9999, CourseID: w.courseDB, Value: 5}, wantErr: apperrors.ErrStudentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGrade(ctx, w.teacherActor, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = svc.CreateGrade(ctx, w.studentActor, &dto.CreateGradeRequest{StudentID: w.it1, CourseID: w.courseDB, Value: 5})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
