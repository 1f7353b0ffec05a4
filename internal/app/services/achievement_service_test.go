package services

import (
	"context"
	"testing"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudienceFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.AssignAchievementRequest
		want    AudienceKind
		wantErr bool
	}{
		{name: "students", req: dto.AssignAchievementRequest{StudentIDs: []int64{3, 1, 3}}, want: AudienceStudents},
		{name: "group", req: dto.AssignAchievementRequest{Group: " ИТ-21 "}, want: AudienceGroup},
		{name: "department", req: dto.AssignAchievementRequest{Department: "ИТ"}, want: AudienceDepartment},
		{name: "course", req: dto.AssignAchievementRequest{CourseID: int64Ptr(4)}, want: AudienceCourse},
		{name: "all", req: dto.AssignAchievementRequest{AllStudents: true}, want: AudienceAll},
		{name: "none", req: dto.AssignAchievementRequest{}, wantErr: true},
		{name: "empty list only", req: dto.AssignAchievementRequest{StudentIDs: []int64{}}, wantErr: true},
		{name: "two selectors", req: dto.AssignAchievementRequest{Group: "ИТ-21", AllStudents: true}, wantErr: true},
		{name: "non positive id", req: dto.AssignAchievementRequest{StudentIDs: []int64{0}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aud, err := AudienceFromRequest(&tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, aud.Kind)
		})
	}

	aud, err := AudienceFromRequest(&dto.AssignAchievementRequest{StudentIDs: []int64{3, 1, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, aud.StudentIDs)

	aud, err = AudienceFromRequest(&dto.AssignAchievementRequest{Group: " ИТ-21 "})
	require.NoError(t, err)
	assert.Equal(t, "ИТ-21", aud.Group)
}

func TestAssignAchievement_Idempotent(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	tpl := w.publicTemplate(t, "Активист", 10)

	req := &dto.AssignAchievementRequest{AchievementID: tpl.ID, Group: "ИТ-21"}
	first, err := svc.AssignAchievement(ctx, w.admin, req)
	require.NoError(t, err)
	assert.Equal(t, 3, first.GrantedCount)
	assert.Equal(t, 0, first.AlreadyGranted)

	second, err := svc.AssignAchievement(ctx, w.admin, req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.GrantedCount)
	assert.Equal(t, 3, second.AlreadyGranted)
	for _, r := range second.Results {
		assert.Equal(t, dto.AssignAlreadyGranted, r.Status)
	}

	holders, err := svc.GetAchievementStudents(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, holders, 3)

	logs, total, err := w.store.ListActivityLogs(ctx, models.LogFilter{Action: models.ActionGrant})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 3)
}

func TestAssignAchievement_Audiences(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	tests := []struct {
		name    string
		req     dto.AssignAchievementRequest
		granted int
	}{
		{name: "department", req: dto.AssignAchievementRequest{Department: "пи"}, granted: 1},
		{name: "course", req: dto.AssignAchievementRequest{CourseID: int64Ptr(w.courseDB)}, granted: 3},
		{name: "all", req: dto.AssignAchievementRequest{AllStudents: true}, granted: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := w.publicTemplate(t, "Староста года: "+tt.name, 5)
			tt.req.AchievementID = tpl.ID
			resp, err := svc.AssignAchievement(ctx, w.admin, &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.granted, resp.GrantedCount)
		})
	}

	tpl := w.publicTemplate(t, "Староста года", 5)
	_, err := svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl.ID, Department: "ЭК"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl.ID, Group: "ЭК-99"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: 9999, AllStudents: true})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAssignAchievement_MissingStudentsReportedPerItem(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	tpl := w.publicTemplate(t, "Олимпиадник", 20)

	resp, err := svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{
		AchievementID: tpl.ID,
		StudentIDs:    []int64{w.it1, 9999},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.GrantedCount)
	assert.Equal(t, 1, resp.FailedCount)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, dto.AssignGranted, resp.Results[0].Status)
	assert.Equal(t, int64(9999), resp.Results[1].StudentID)
	assert.Equal(t, dto.AssignNotFound, resp.Results[1].Status)
}

func TestAssignAchievement_TeacherScope(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	public := w.publicTemplate(t, "Лучший доклад", 10)
	algOnly := &models.AchievementTemplate{Name: "Алгоритмист", Points: 15, CourseID: int64Ptr(w.courseAlg)}
	require.NoError(t, w.store.CreateTemplate(ctx, algOnly))

	t.Run("explicit list outside roster is rejected whole", func(t *testing.T) {
		_, err := svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{
			AchievementID: public.ID,
			StudentIDs:    []int64{w.it1, w.pi1},
		})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		grants, err := w.store.ListStudentGrants(ctx, w.it1)
		require.NoError(t, err)
		assert.Empty(t, grants)
	})

	t.Run("group with no roster overlap", func(t *testing.T) {
		_, err := svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{AchievementID: public.ID, Group: "ПИ-22"})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("all students narrowed to roster", func(t *testing.T) {
		resp, err := svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{AchievementID: public.ID, AllStudents: true})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.GrantedCount)
		for _, r := range resp.Results {
			assert.NotEqual(t, w.pi1, r.StudentID)
		}
	})

	t.Run("template of another course", func(t *testing.T) {
		_, err := svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{AchievementID: algOnly.ID, StudentIDs: []int64{w.it1}})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("students cannot grant", func(t *testing.T) {
		_, err := svc.AssignAchievement(ctx, w.studentActor, &dto.AssignAchievementRequest{AchievementID: public.ID, StudentIDs: []int64{w.it1}})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestAssignAchievement_TombstonedTemplate(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	tpl := w.publicTemplate(t, "Архив", 1)

	_, err := svc.DeleteAchievement(ctx, w.admin, tpl.ID, false, false)
	require.NoError(t, err)

	_, err = svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl.ID, AllStudents: true})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	restored, err := svc.RestoreAchievement(ctx, w.admin, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateActive, restored.Status)

	resp, err := svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl.ID, AllStudents: true})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.GrantedCount)
}

func TestDeleteAchievement(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()

	created, err := svc.CreateAchievement(ctx, w.teacherActor, &dto.CreateAchievementRequest{Name: "SQL-мастер", Points: 10, CourseID: int64Ptr(w.courseDB)})
	require.NoError(t, err)
	_, err = svc.AssignAchievement(ctx, w.teacherActor, &dto.AssignAchievementRequest{AchievementID: created.ID, StudentIDs: []int64{w.it1, w.it2}})
	require.NoError(t, err)

	other := w.publicTemplate(t, "Чужой", 1)
	_, err = svc.DeleteAchievement(ctx, w.teacherActor, other.ID, false, false)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied, "teachers may only delete their own templates")

	_, err = svc.DeleteAchievement(ctx, w.teacherActor, created.ID, true, false)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "hard delete needs confirmation")

	soft, err := svc.DeleteAchievement(ctx, w.teacherActor, created.ID, false, false)
	require.NoError(t, err)
	assert.False(t, soft.Permanent)
	tpl, err := w.store.GetTemplateByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, tpl.Tombstoned())
	grants, err := w.store.ListTemplateGrants(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 2, "soft delete keeps grants")

	hard, err := svc.DeleteAchievement(ctx, w.teacherActor, created.ID, true, true)
	require.NoError(t, err)
	assert.True(t, hard.Permanent)
	assert.Equal(t, int64(2), hard.RemovedGrants)
	_, err = w.store.GetTemplateByID(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStudentAchievements_HideTombstoned(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	stats := w.statsService()
	ctx := context.Background()

	kept := w.publicTemplate(t, "Отличник", 10)
	dropped := w.publicTemplate(t, "Устаревший", 5)
	for _, tpl := range []int64{kept.ID, dropped.ID} {
		_, err := svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl, StudentIDs: []int64{w.it1}})
		require.NoError(t, err)
	}
	_, err := svc.DeleteAchievement(ctx, w.admin, dropped.ID, false, false)
	require.NoError(t, err)

	resp, err := svc.GetStudentAchievements(ctx, w.studentActor, w.it1)
	require.NoError(t, err)
	require.Len(t, resp.Achievements, 1)
	assert.Equal(t, kept.ID, resp.Achievements[0].ID)
	assert.Equal(t, 10, resp.TotalPoints)

	st, err := stats.GetStudentStats(ctx, w.admin, w.it1, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, st.AchievementsCount, "the count includes grants of tombstoned templates")

	_, err = svc.GetStudentAchievements(ctx, w.studentActor, w.pi1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestRevokeAchievement(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()
	tpl := w.publicTemplate(t, "Волонтёр", 3)

	_, err := svc.AssignAchievement(ctx, w.admin, &dto.AssignAchievementRequest{AchievementID: tpl.ID, StudentIDs: []int64{w.it2}})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAchievement(ctx, w.teacherActor, tpl.ID, w.it2))
	err = svc.RevokeAchievement(ctx, w.teacherActor, tpl.ID, w.it2)
	assert.True(t, apperrors.IsNotFound(err))

	err = svc.RevokeAchievement(ctx, w.teacherActor, tpl.ID, w.pi1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateAchievement(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.CreateAchievementRequest
		wantErr error
	}{
		{name: "public and scoped", req: dto.CreateAchievementRequest{Name: "X", IsPublic: true, CourseID: int64Ptr(w.courseDB)}, wantErr: apperrors.ErrValidationFailed},
		{name: "negative points", req: dto.CreateAchievementRequest{Name: "X", Points: -1, IsPublic: true}, wantErr: apperrors.ErrValidationFailed},
		{name: "blank name", req: dto.CreateAchievementRequest{Name: "  ", IsPublic: true}, wantErr: apperrors.ErrValidationFailed},
		{name: "other teacher's course", req: dto.CreateAchievementRequest{Name: "X", CourseID: int64Ptr(w.courseAlg)}, wantErr: apperrors.ErrPermissionDenied},
		{name: "unscoped private", req: dto.CreateAchievementRequest{Name: "X"}, wantErr: apperrors.ErrValidationFailed},
		{name: "unknown course", req: dto.CreateAchievementRequest{Name: "X", CourseID: int64Ptr(9999)}, wantErr: apperrors.ErrCourseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAchievement(ctx, w.teacherActor, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	created, err := svc.CreateAchievement(ctx, w.teacherActor, &dto.CreateAchievementRequest{Name: "Знаток SQL", Points: 7, CourseID: int64Ptr(w.courseDB)})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAchievementIcon, created.Icon)
	require.NotNil(t, created.CreatedByID)
	assert.Equal(t, w.teacherDB, *created.CreatedByID)

	_, err = svc.CreateAchievement(ctx, w.studentActor, &dto.CreateAchievementRequest{Name: "Сам себе", IsPublic: true})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestListAchievements(t *testing.T) {
	w := newWorld(t)
	svc := w.achievementService()
	ctx := context.Background()

	public := w.publicTemplate(t, "Общая", 1)
	dbOnly := &models.AchievementTemplate{Name: "БД", CourseID: int64Ptr(w.courseDB)}
	require.NoError(t, w.store.CreateTemplate(ctx, dbOnly))
	algOnly := &models.AchievementTemplate{Name: "Алгоритмы", CourseID: int64Ptr(w.courseAlg)}
	require.NoError(t, w.store.CreateTemplate(ctx, algOnly))
	gone := w.publicTemplate(t, "Удалённая", 1)
	require.NoError(t, w.store.SetTemplateStatus(ctx, gone.ID, models.TemplateTombstoned))

	ids := func(list []dto.AchievementResponse) []int64 {
		out := make([]int64, len(list))
		for i, a := range list {
			out[i] = a.ID
		}
		return out
	}

	admin, err := svc.ListAchievements(ctx, w.admin, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID, dbOnly.ID, algOnly.ID}, ids(admin))

	withDeleted, err := svc.ListAchievements(ctx, w.admin, nil, true)
	require.NoError(t, err)
	assert.Len(t, withDeleted, 4)

	teacher, err := svc.ListAchievements(ctx, w.teacherActor, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID, dbOnly.ID}, ids(teacher))

	student, err := svc.ListAchievements(ctx, w.studentActor, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID, dbOnly.ID}, ids(student), "it1 only has grades in databases")

	_, err = svc.ListAchievements(ctx, w.teacherActor, nil, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
