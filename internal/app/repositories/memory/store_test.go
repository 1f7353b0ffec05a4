package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, s *Store, name string, students int) (*models.Group, []int64) {
	t.Helper()
	ctx := context.Background()
	g := &models.Group{Name: name}
	require.NoError(t, s.CreateGroup(ctx, g))
	ids := make([]int64, 0, students)
	for i := 0; i < students; i++ {
		st := &models.Student{Name: "student", GroupID: &g.ID, GroupName: name, Year: 1}
		require.NoError(t, s.CreateStudent(ctx, st))
		ids = append(ids, st.ID)
	}
	return g, ids
}

func TestGrantAchievement_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, ids := seedGroup(t, s, "ИТ-1", 1)
	tpl := &models.AchievementTemplate{Name: "Отличник", IsPublic: true}
	require.NoError(t, s.CreateTemplate(ctx, tpl))

	created, err := s.GrantAchievement(ctx, ids[0], tpl.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.GrantAchievement(ctx, ids[0], tpl.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, created)

	counts, err := s.CountGrants(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[ids[0]])
}

func TestSetHeadman_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	g, ids := seedGroup(t, s, "ПИ-2", 8)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := s.SetHeadman(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	students, _, err := s.ListStudents(ctx, models.StudentFilter{GroupNames: []string{g.Name}})
	require.NoError(t, err)
	headmen := 0
	var headmanID int64
	for _, st := range students {
		if st.IsHeadman {
			headmen++
			headmanID = st.ID
		}
	}
	assert.Equal(t, 1, headmen)

	group, err := s.GetGroupByName(ctx, g.Name)
	require.NoError(t, err)
	require.NotNil(t, group.HeadmanID)
	assert.Equal(t, headmanID, *group.HeadmanID)
}

func TestSetHeadman_NoGroup(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := &models.Student{Name: "loner"}
	require.NoError(t, s.CreateStudent(ctx, st))

	_, err := s.SetHeadman(ctx, st.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = s.SetHeadman(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestSummaries_FilterSemantics(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, ids := seedGroup(t, s, "ИТ-1", 2)
	course := &models.Course{Name: "Алгоритмы"}
	require.NoError(t, s.CreateCourse(ctx, course))

	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	for _, v := range []float64{5, 4} {
		require.NoError(t, s.CreateGrade(ctx, &models.Grade{StudentID: ids[0], CourseID: course.ID, Value: v, Date: day}))
	}
	require.NoError(t, s.CreateGrade(ctx, &models.Grade{StudentID: ids[1], CourseID: course.ID, Value: 3, Date: day.AddDate(0, -3, 0)}))

	all, err := s.GradeSummaries(ctx, models.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.GradeSummary{StudentID: ids[0], Sum: 9, Count: 2}, all[0])

	none, err := s.GradeSummaries(ctx, models.SummaryFilter{StudentIDs: []int64{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	recent, err := s.GradeSummaries(ctx, models.SummaryFilter{Range: models.LastDays(day, 30)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[0], recent[0].StudentID)

	err = s.CreateGrade(ctx, &models.Grade{StudentID: ids[0], CourseID: course.ID, Value: 6, Date: day})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAttendance_BuildingRecordsIgnoredByCourseFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, ids := seedGroup(t, s, "ИТ-1", 1)
	course := &models.Course{Name: "Сети"}
	require.NoError(t, s.CreateCourse(ctx, course))

	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateAttendance(ctx, &models.Attendance{StudentID: ids[0], CourseID: &course.ID, Date: day, Present: true}))
	require.NoError(t, s.CreateAttendance(ctx, &models.Attendance{StudentID: ids[0], Date: day, Present: false, Building: "А"}))

	byCourse, err := s.AttendanceSummaries(ctx, models.SummaryFilter{CourseIDs: []int64{course.ID}})
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
	assert.Equal(t, int64(1), byCourse[0].Total)

	everything, err := s.AttendanceSummaries(ctx, models.SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), everything[0].Total)
	assert.Equal(t, int64(1), everything[0].Present)

	present, err := s.PresentStudentIDs(ctx, day.Add(15*time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, present)
}

func TestTemplates_TombstoneAndHardDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, ids := seedGroup(t, s, "ИТ-1", 2)
	tpl := &models.AchievementTemplate{Name: "Активист", IsPublic: true}
	require.NoError(t, s.CreateTemplate(ctx, tpl))
	for _, id := range ids {
		_, err := s.GrantAchievement(ctx, id, tpl.ID, time.Now())
		require.NoError(t, err)
	}

	require.NoError(t, s.SetTemplateStatus(ctx, tpl.ID, models.TemplateTombstoned))
	active, err := s.ListTemplates(ctx, models.TemplateFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
	withDeleted, err := s.ListTemplates(ctx, models.TemplateFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 1)
	grants, err := s.ListTemplateGrants(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 2)

	removed, err := s.DeleteTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	_, err = s.GetTemplateByID(ctx, tpl.ID)
	assert.True(t, apperrors.IsNotFound(err))
	counts, err := s.CountGrants(ctx, ids)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCreateTemplate_ScopeConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	course := &models.Course{Name: "Физика"}
	require.NoError(t, s.CreateCourse(ctx, course))

	err := s.CreateTemplate(ctx, &models.AchievementTemplate{Name: "x", IsPublic: true, CourseID: &course.ID})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLoginLogs_CloseLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &models.User{Email: "a@mirea.ru", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))

	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateLoginLog(ctx, &models.LoginLog{UserID: u.ID, LoginTime: first}))
	require.NoError(t, s.CreateLoginLog(ctx, &models.LoginLog{UserID: u.ID, LoginTime: first.Add(time.Hour)}))
	require.NoError(t, s.CloseLatestLoginLog(ctx, u.ID, first.Add(2*time.Hour)))

	logs, total, err := s.ListLoginLogs(ctx, models.LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.NotNil(t, logs[0].LogoutTime)
	assert.Nil(t, logs[1].LogoutTime)
	assert.Equal(t, u.Email, logs[0].Email)
}
