package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Options selects what CreateDefaultData writes.
type Options struct {
	AdminEmail    string
	AdminPassword string
	// DemoData fills an empty store with groups, students, courses, grades and attendance.
	DemoData         bool
	KnownDepartments []string
	Now              time.Time
	// Passwords hashes the admin password; nil uses the default cost.
	Passwords *auth.PasswordHasher
}

// CreateDefaultData creates the default admin account and, when requested, a
// demo dataset. Existing rows are left alone so it is safe on every start.
func CreateDefaultData(ctx context.Context, stores services.Stores, opts Options, lgr zerolog.Logger) error {
	var finalErr error

	if err := ensureAdmin(ctx, stores.Users, opts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		finalErr = errors.Join(finalErr, err)
	}

	if opts.DemoData {
		if err := createDemoData(ctx, stores, opts, lgr); err != nil {
			lgr.Error().Err(err).Msg("Error creating demo data")
			finalErr = errors.Join(finalErr, err)
		}
	}

	return finalErr
}

func ensureAdmin(ctx context.Context, users services.UserStore, opts Options, lgr zerolog.Logger) error {
	if opts.AdminPassword == "" {
		lgr.Warn().Msg("No seed admin password configured, skipping default admin")
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		lgr.Debug().Str("email", email).Msg("Default admin already exists")
		return nil
	}

	passwords := opts.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordHasher(auth.DefaultBcryptCost)
	}
	hash, err := passwords.Hash(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.CreateUser(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		return err
	}
	lgr.Info().Str("email", email).Msg("Default admin created")
	return nil
}

var demoCourses = []models.Course{
	{Name: "Базы данных", Code: "DB-201", Credits: 5, Semester: 3},
	{Name: "Алгоритмы и структуры данных", Code: "ALG-101", Credits: 6, Semester: 2},
	{Name: "Программная инженерия", Code: "SE-301", Credits: 4, Semester: 5},
}

var demoSurnames = []string{"Иванов", "Смирнов", "Кузнецов", "Попов", "Васильев", "Петров", "Соколов", "Михайлов"}

func createDemoData(ctx context.Context, stores services.Stores, opts Options, lgr zerolog.Logger) error {
	existing, err := stores.Groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		lgr.Info().Int("groups", len(existing)).Msg("Store is not empty, skipping demo data")
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rnd := rand.New(rand.NewSource(42))

	departments := opts.KnownDepartments
	if len(departments) == 0 {
		departments = analytics.DefaultDepartments
	}

	teacherIDs := make([]int64, 0, len(demoCourses))
	courseIDs := make([]int64, 0, len(demoCourses))
	for i := range demoCourses {
		course := demoCourses[i]
		if err := stores.Courses.CreateCourse(ctx, &course); err != nil {
			return err
		}
		teacher := &models.Teacher{
			Name:       fmt.Sprintf("Преподаватель %d", i+1),
			Email:      fmt.Sprintf("teacher%d@mirea.ru", i+1),
			Department: departments[i%len(departments)],
		}
		if err := stores.Courses.CreateTeacher(ctx, teacher); err != nil {
			return err
		}
		if err := stores.Courses.LinkCourseTeacher(ctx, models.CourseTeacher{CourseID: course.ID, TeacherID: teacher.ID}); err != nil {
			return err
		}
		courseIDs = append(courseIDs, course.ID)
		teacherIDs = append(teacherIDs, teacher.ID)
	}

	students := 0
	for d, dept := range departments {
		for year := 1; year <= 2; year++ {
			group := &models.Group{Name: fmt.Sprintf("%s-%d%d", dept, 2+d, year), Department: dept}
			if err := stores.Groups.CreateGroup(ctx, group); err != nil {
				return err
			}
			for i, surname := range demoSurnames {
				groupID := group.ID
				student := &models.Student{
					Name:      fmt.Sprintf("%s %c.", surname, 'А'+rune(i)),
					GroupID:   &groupID,
					GroupName: group.Name,
					Year:      year,
				}
				if err := stores.Students.CreateStudent(ctx, student); err != nil {
					return err
				}
				if err := demoRecords(ctx, stores, rnd, student.ID, courseIDs, teacherIDs, now); err != nil {
					return err
				}
				students++
			}
		}
	}

	lgr.Info().Int("students", students).Int("courses", len(courseIDs)).Msg("Demo data created")
	return nil
}

// demoRecords writes a few weeks of grades and attendance for one student.
func demoRecords(ctx context.Context, stores services.Stores, rnd *rand.Rand, studentID int64, courseIDs, teacherIDs []int64, now time.Time) error {
	// A per-student bias keeps the leaderboard spread out.
	bias := rnd.Float64()*1.5 + 3.2
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for i, courseID := range courseIDs {
		teacherID := teacherIDs[i]
		for k := 0; k < 4; k++ {
			value := bias + rnd.Float64() - 0.5
			if value < models.MinGradeValue {
				value = models.MinGradeValue
			}
			if value > models.MaxGradeValue {
				value = models.MaxGradeValue
			}
			grade := &models.Grade{
				StudentID: studentID,
				CourseID:  courseID,
				TeacherID: &teacherID,
				Value:     float64(int(value + 0.5)),
				Type:      models.GradeTest,
				Date:      today.AddDate(0, 0, -rnd.Intn(60)),
			}
			if err := stores.Grades.CreateGrade(ctx, grade); err != nil {
				return err
			}
		}
	}

	for day := 0; day < 30; day += 2 {
		courseID := courseIDs[day%len(courseIDs)]
		att := &models.Attendance{
			StudentID: studentID,
			CourseID:  &courseID,
			Date:      today.AddDate(0, 0, -day),
			Present:   rnd.Float64() < bias/5,
		}
		if err := stores.Attendance.CreateAttendance(ctx, att); err != nil {
			return err
		}
	}
	return nil
}
