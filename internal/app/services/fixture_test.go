package services

import (
	"context"
	"testing"
	"time"

	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/repositories/memory"
	"github.com/mirea/edupulse/internal/pkg/studenthash"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func int64Ptr(v int64) *int64 { return &v }

// world is a small university:
//
//	ИТ-21: it1 (5,5,4 in databases), it2 (3 in databases), it3 (no grades, attendance only)
//	ПИ-22: pi1 (5 in algorithms)
//
// teacherDB teaches databases, teacherAlg teaches algorithms.
type world struct {
	store  *memory.Store
	stores Stores
	authz  *auth.AuthorizationService
	hasher *studenthash.Hasher

	groupIT, groupPI                  *models.Group
	it1, it2, it3, pi1                int64
	courseDB, courseAlg               int64
	teacherDB, teacherAlg             int64
	admin, teacherActor, studentActor auth.Actor
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	m := memory.New()
	m.SetClock(fixedClock)

	w := &world{
		store: m,
		stores: Stores{
			Students:     m,
			Groups:       m,
			Courses:      m,
			Grades:       m,
			Attendance:   m,
			Achievements: m,
			Users:        m,
			Logs:         m,
		},
		authz:  auth.NewAuthorizationService(m, m),
		hasher: studenthash.New("test-secret"),
	}

	w.groupIT = &models.Group{Name: "ИТ-21", Department: "ИТ"}
	require.NoError(t, m.CreateGroup(ctx, w.groupIT))
	w.groupPI = &models.Group{Name: "ПИ-22"}
	require.NoError(t, m.CreateGroup(ctx, w.groupPI))

	addStudent := func(name string, g *models.Group) int64 {
		st := &models.Student{Name: name, GroupID: &g.ID, GroupName: g.Name, Year: 2}
		require.NoError(t, m.CreateStudent(ctx, st))
		return st.ID
	}
	w.it1 = addStudent("Иванов Иван", w.groupIT)
	w.it2 = addStudent("Петров Пётр", w.groupIT)
	w.it3 = addStudent("Сидорова Анна", w.groupIT)
	w.pi1 = addStudent("Смирнова Ольга", w.groupPI)

	db := &models.Course{Name: "Базы данных", Code: "DB-101", Credits: 4, Semester: 3}
	require.NoError(t, m.CreateCourse(ctx, db))
	alg := &models.Course{Name: "Алгоритмы", Code: "ALG-201", Credits: 5, Semester: 3}
	require.NoError(t, m.CreateCourse(ctx, alg))
	w.courseDB, w.courseAlg = db.ID, alg.ID

	tdb := &models.Teacher{Name: "Кузнецов А.В.", Department: "ИТ"}
	require.NoError(t, m.CreateTeacher(ctx, tdb))
	talg := &models.Teacher{Name: "Орлова Е.С.", Department: "ПИ"}
	require.NoError(t, m.CreateTeacher(ctx, talg))
	w.teacherDB, w.teacherAlg = tdb.ID, talg.ID
	require.NoError(t, m.LinkCourseTeacher(ctx, models.CourseTeacher{CourseID: w.courseDB, TeacherID: w.teacherDB}))
	require.NoError(t, m.LinkCourseTeacher(ctx, models.CourseTeacher{CourseID: w.courseAlg, TeacherID: w.teacherAlg}))
	m.AddScheduleEntry(models.ScheduleEntry{CourseID: w.courseDB, TeacherID: int64Ptr(w.teacherDB), GroupName: "ИТ-21", DayOfWeek: 0, StartTime: "09:00", EndTime: "10:30", Type: "lecture"})
	m.AddScheduleEntry(models.ScheduleEntry{CourseID: w.courseAlg, TeacherID: int64Ptr(w.teacherAlg), GroupName: "ПИ-22", DayOfWeek: 2, StartTime: "10:40", EndTime: "12:10", Type: "seminar"})

	grade := func(student, course, teacher int64, value float64, daysAgo int) {
		g := &models.Grade{StudentID: student, CourseID: course, TeacherID: int64Ptr(teacher), Value: value, Type: models.GradeExam, Date: testNow.AddDate(0, 0, -daysAgo)}
		require.NoError(t, m.CreateGrade(ctx, g))
	}
	grade(w.it1, w.courseDB, w.teacherDB, 5, 20)
	grade(w.it1, w.courseDB, w.teacherDB, 5, 10)
	grade(w.it1, w.courseDB, w.teacherDB, 4, 5)
	grade(w.it2, w.courseDB, w.teacherDB, 3, 5)
	grade(w.pi1, w.courseAlg, w.teacherAlg, 5, 3)

	attend := func(student, course int64, present bool, daysAgo int) {
		a := &models.Attendance{StudentID: student, CourseID: int64Ptr(course), Present: present, Date: testNow.AddDate(0, 0, -daysAgo)}
		require.NoError(t, m.CreateAttendance(ctx, a))
	}
	attend(w.it1, w.courseDB, true, 1)
	attend(w.it1, w.courseDB, true, 2)
	attend(w.it1, w.courseDB, true, 3)
	attend(w.it1, w.courseDB, false, 4)
	attend(w.it3, w.courseDB, true, 0)
	attend(w.it3, w.courseDB, false, 7)
	attend(w.pi1, w.courseAlg, true, 0)
	// Outside the default window.
	attend(w.it2, w.courseDB, false, 90)

	w.admin = auth.Actor{UserID: 1, Role: models.RoleAdmin}
	w.teacherActor = auth.Actor{UserID: 2, Role: models.RoleTeacher, TeacherID: int64Ptr(w.teacherDB)}
	w.studentActor = auth.Actor{UserID: 3, Role: models.RoleStudent, StudentID: int64Ptr(w.it1)}
	return w
}

func (w *world) statsService() *statsServiceImpl {
	svc := NewStatsService(w.stores, w.authz, w.hasher, DefaultAnalyticsOptions(), zerolog.Nop()).(*statsServiceImpl)
	svc.clock = fixedClock
	return svc
}

func (w *world) studentService() *studentServiceImpl {
	svc := NewStudentService(w.stores, w.authz, w.hasher, DefaultAnalyticsOptions(), zerolog.Nop()).(*studentServiceImpl)
	svc.clock = fixedClock
	return svc
}

func (w *world) achievementService() *achievementServiceImpl {
	svc := NewAchievementService(w.stores, w.authz, DefaultAnalyticsOptions(), zerolog.Nop()).(*achievementServiceImpl)
	svc.clock = fixedClock
	return svc
}

func (w *world) publicTemplate(t *testing.T, name string, points int) *models.AchievementTemplate {
	t.Helper()
	tpl := &models.AchievementTemplate{Name: name, Points: points, IsPublic: true}
	require.NoError(t, w.store.CreateTemplate(context.Background(), tpl))
	return tpl
}
