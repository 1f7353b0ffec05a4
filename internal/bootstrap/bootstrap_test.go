package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/config"
	"github.com/mirea/edupulse/internal/pkg/grouphash"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testApp struct {
	t          *testing.T
	router     *gin.Engine
	s1, s2, s3 int64
	teacherID  int64
	courseID   int64
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "bootstrap-test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "edupulse-test"
	cfg.JWT.BcryptCost = 4
	cfg.Analytics.AttendanceWindowDays = 0
	cfg.Analytics.DashboardWindowDays = 30
	cfg.Analytics.KnownDepartments = []string{"ИТ", "ПИ"}
	cfg.Analytics.LeaderboardLimit = 10
	cfg.Analytics.LeaderboardMaxLimit = 100
	cfg.Seed.Enabled = true
	cfg.Seed.AdminEmail = "admin@mirea.ru"
	cfg.Seed.AdminPassword = "adminpass1"
	return cfg
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	lgr := zerolog.Nop()

	stores := BuildStores(nil)
	SeedData(ctx, cfg, stores, lgr)

	group := &models.Group{Name: "ИТ-21", Department: "ИТ"}
	require.NoError(t, stores.Groups.CreateGroup(ctx, group))
	course := &models.Course{Name: "Базы данных", Code: "DB-201"}
	require.NoError(t, stores.Courses.CreateCourse(ctx, course))
	teacher := &models.Teacher{Name: "Петров П.П.", Email: "petrov@mirea.ru"}
	require.NoError(t, stores.Courses.CreateTeacher(ctx, teacher))
	require.NoError(t, stores.Courses.LinkCourseTeacher(ctx, models.CourseTeacher{CourseID: course.ID, TeacherID: teacher.ID}))

	app := &testApp{t: t, teacherID: teacher.ID, courseID: course.ID}
	ids := make([]int64, 3)
	for i, name := range []string{"Иванов И.", "Смирнова А.", "Кузнецов Д."} {
		groupID := group.ID
		st := &models.Student{Name: name, GroupID: &groupID, GroupName: group.Name, Year: 2}
		require.NoError(t, stores.Students.CreateStudent(ctx, st))
		ids[i] = st.ID
	}
	app.s1, app.s2, app.s3 = ids[0], ids[1], ids[2]

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, g := range []struct {
		student int64
		value   float64
	}{{app.s1, 5}, {app.s1, 4}, {app.s2, 3}} {
		require.NoError(t, stores.Grades.CreateGrade(ctx, &models.Grade{
			StudentID: g.student, CourseID: course.ID, TeacherID: &teacher.ID,
			Value: g.value, Type: models.GradeExam, Date: today,
		}))
	}

	deps, err := BuildDependencies(cfg, stores, nil, lgr)
	require.NoError(t, err)
	app.router, err = SetupRouter(cfg, deps, lgr)
	require.NoError(t, err)
	return app
}

func (a *testApp) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(a.t, data.Token.AccessToken)
	return data.Token.AccessToken
}

func (a *testApp) register(role string, profile gin.H, email string) string {
	a.t.Helper()
	body := gin.H{"email": email, "password": "password1", "role": role}
	for k, v := range profile {
		body[k] = v
	}
	w, _ := a.do(http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return a.login(email, "password1")
}

func TestRouter_Probes(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := app.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":"memory"`)

	w, env = app.do(http.MethodGet, "/api/v1/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_008", env.Error.Code)
}

func TestRouter_StudentStatsAndHeadman(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")

	w, env := app.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", app.s1), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		GPA           float64 `json:"gpa"`
		Rank          int     `json:"rank"`
		TotalStudents int     `json:"total_students"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 4.5, stats.GPA)
	assert.Equal(t, 1, stats.Rank)
	assert.Equal(t, 3, stats.TotalStudents)

	w, _ = app.do(http.MethodGet, "/api/v1/students/999999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(http.MethodGet, "/api/v1/students/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, id := range []int64{app.s1, app.s2} {
		w, _ = app.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d/headman", id), admin, gin.H{"is_headman": true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	headmen := 0
	for _, id := range []int64{app.s1, app.s2, app.s3} {
		_, env = app.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d/profile", id), admin, nil)
		var st struct {
			IsHeadman bool `json:"is_headman"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &st))
		if st.IsHeadman {
			headmen++
			assert.Equal(t, app.s2, id)
		}
	}
	assert.Equal(t, 1, headmen)

	w, _ = app.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d/headman", app.s1), admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "is_headman is required")
}

func TestRouter_GroupStats(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")

	w, env := app.do(http.MethodGet, "/api/v1/groups/"+grouphash.Encode("ИТ-21")+"/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		Group         string  `json:"group"`
		TotalStudents int     `json:"total_students"`
		AverageGPA    float64 `json:"average_gpa"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, "ИТ-21", stats.Group)
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 3.75, stats.AverageGPA)

	w, _ = app.do(http.MethodGet, "/api/v1/groups/"+grouphash.Encode("ПИ-99")+"/stats", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(http.MethodGet, "/api/v1/groups/!!!/stats", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = app.do(http.MethodGet, "/api/v1/groups/bulk-stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"ИТ-21"`)
}

func TestRouter_GroupStatsAccess(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")
	student := app.register("student", gin.H{"student_id": app.s1}, "ivanov@mirea.ru")
	teacher := app.register("teacher", gin.H{"teacher_id": app.teacherID}, "petrov@mirea.ru")
	single := "/api/v1/groups/" + grouphash.Encode("ИТ-21") + "/stats"

	w, env := app.do(http.MethodGet, "/api/v1/groups/bulk-stats", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_009", env.Error.Code)

	w, _ = app.do(http.MethodGet, single, student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "only the headman reads group stats")

	w, _ = app.do(http.MethodGet, "/api/v1/groups/bulk-stats", teacher, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(http.MethodGet, single, teacher, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d/headman", app.s1), admin, gin.H{"is_headman": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = app.do(http.MethodGet, single, student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		Students []struct {
			ID        int64 `json:"id"`
			IsHeadman bool  `json:"is_headman"`
		} `json:"students"`
		Courses []struct {
			CourseName string `json:"course_name"`
			Teachers   []struct {
				TeacherID    int64   `json:"teacher_id"`
				AverageGrade float64 `json:"average_grade"`
			} `json:"teachers"`
		} `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Len(t, stats.Students, 3)
	assert.True(t, stats.Students[0].IsHeadman)
	require.Len(t, stats.Courses, 1)
	assert.Equal(t, "Базы данных", stats.Courses[0].CourseName)
	require.Len(t, stats.Courses[0].Teachers, 1)
	assert.Equal(t, app.teacherID, stats.Courses[0].Teachers[0].TeacherID)
	assert.Equal(t, 4.0, stats.Courses[0].Teachers[0].AverageGrade)

	w, _ = app.do(http.MethodGet, "/api/v1/groups/bulk-stats", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "headmen still cannot list every group")
}

func TestRouter_AttendanceByHash(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")
	student := app.register("student", gin.H{"student_id": app.s1}, "ivanov@mirea.ru")

	hashOf := func(id int64) string {
		_, env := app.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d/profile", id), admin, nil)
		var st struct {
			Hash string `json:"hash"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &st))
		require.NotEmpty(t, st.Hash)
		return st.Hash
	}

	w, env := app.do(http.MethodGet, "/api/v1/students/by-hash/"+hashOf(app.s1)+"/attendance", student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var att struct {
		StudentID int64 `json:"student_id"`
		Total     int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &att))
	assert.Equal(t, app.s1, att.StudentID)
	assert.Equal(t, int64(0), att.Total)

	w, _ = app.do(http.MethodGet, "/api/v1/students/by-hash/"+hashOf(app.s2)+"/attendance", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(http.MethodGet, "/api/v1/students/by-hash/nothex/attendance", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AchievementLifecycle(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")

	w, env := app.do(http.MethodPost, "/api/v1/achievements", admin, gin.H{"name": "Отличник", "points": 10, "is_public": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tpl struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tpl))

	assign := gin.H{"achievement_id": tpl.ID, "group": "ИТ-21"}
	var result struct {
		GrantedCount   int `json:"granted_count"`
		AlreadyGranted int `json:"already_granted"`
	}
	w, env = app.do(http.MethodPost, "/api/v1/achievements/assign", admin, assign)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.GrantedCount)

	w, env = app.do(http.MethodPost, "/api/v1/achievements/assign", admin, assign)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 0, result.GrantedCount)
	assert.Equal(t, 3, result.AlreadyGranted)

	w, _ = app.do(http.MethodPost, "/api/v1/achievements/assign", admin, gin.H{"achievement_id": tpl.ID, "group": "not a group"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(http.MethodPost, "/api/v1/achievements/assign", admin, gin.H{"achievement_id": tpl.ID, "group": "ИТ-21", "all_students": true})
	assert.Equal(t, http.StatusBadRequest, w.Code, "two audiences at once")

	w, _ = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/achievements/%d?permanent=true", tpl.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/achievements/%d?permanent=true&confirm=true", tpl.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deleted struct {
		Permanent     bool  `json:"permanent"`
		RemovedGrants int64 `json:"removed_grants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.True(t, deleted.Permanent)
	assert.Equal(t, int64(3), deleted.RemovedGrants)

	w, _ = app.do(http.MethodGet, "/api/v1/logs/activity", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RoleGuards(t *testing.T) {
	app := newTestApp(t)
	student := app.register("student", gin.H{"student_id": app.s1}, "ivanov@mirea.ru")
	teacher := app.register("teacher", gin.H{"teacher_id": app.teacherID}, "petrov@mirea.ru")

	w, _ := app.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d/headman", app.s2), student, gin.H{"is_headman": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", app.s2), student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "students only see themselves")

	w, _ = app.do(http.MethodGet, "/api/v1/students/me", student, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodGet, "/api/v1/logs/activity", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(http.MethodGet, "/api/v1/teachers", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(http.MethodPost, "/api/v1/grades", teacher, gin.H{"student_id": app.s3, "course_id": app.courseID, "value": 4})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = app.do(http.MethodPost, "/api/v1/grades", teacher, gin.H{"student_id": app.s3, "course_id": app.courseID, "value": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "root@mirea.ru", "password": "password1", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_LeaderboardValidation(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@mirea.ru", "adminpass1")

	w, env := app.do(http.MethodGet, "/api/v1/leaderboard?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rows []struct {
		StudentID int64 `json:"student_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, app.s1, rows[0].StudentID)

	for _, q := range []string{"limit=abc", "limit=0", "min_grades=-1", "min_grades=x", "department=XX"} {
		w, _ = app.do(http.MethodGet, "/api/v1/leaderboard?"+q, admin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestCORSConfig(t *testing.T) {
	open := corsConfig([]string{"*"})
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)
	assert.Empty(t, open.AllowOrigins)

	spa := corsConfig([]string{"http://localhost:5173"})
	assert.False(t, spa.AllowAllOrigins)
	assert.True(t, spa.AllowCredentials)
	assert.Equal(t, []string{"http://localhost:5173"}, spa.AllowOrigins)
}
