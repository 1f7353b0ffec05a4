package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/grouphash"
	"github.com/mirea/edupulse/internal/pkg/studenthash"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// groupCourseWindowDays bounds the attendance of the per-course group breakdown.
const groupCourseWindowDays = 30

// LeaderboardQuery narrows the leaderboard. Zero values fall back to configured defaults.
type LeaderboardQuery struct {
	Limit      int
	Groups     []string
	Department string
	MinGrades  *int64
}

// StatsService defines the interface for the aggregation endpoints
type StatsService interface {
	GetStudentStats(ctx context.Context, actor auth.Actor, studentID int64, rng models.DateRange) (*dto.StudentStatsResponse, error)
	GetBulkStudentStats(ctx context.Context, actor auth.Actor, rng models.DateRange) (map[int64]dto.BulkStudentStats, error)
	GetGroupStats(ctx context.Context, actor auth.Actor, name string, rng models.DateRange) (*dto.GroupStatsResponse, error)
	GetBulkGroupStats(ctx context.Context, actor auth.Actor, rng models.DateRange) (map[string]dto.GroupStatsResponse, error)
	GetCourseStats(ctx context.Context, actor auth.Actor, courseID int64, group string, rng models.DateRange) (*dto.CourseStatsResponse, error)
	GetTeacherStats(ctx context.Context, teacherID int64, rng models.DateRange) (*dto.TeacherStatsResponse, error)
	GetDashboardStats(ctx context.Context, actor auth.Actor, groups []string, department string) (*dto.DashboardStatsResponse, error)
	GetLeaderboard(ctx context.Context, actor auth.Actor, q LeaderboardQuery) ([]dto.LeaderboardEntryResponse, error)
	RefreshGroupRollups(ctx context.Context) (int, error)
}

type statsServiceImpl struct {
	stores Stores
	authz  *auth.AuthorizationService
	opts   AnalyticsOptions
	mapper studentMapper
	clock  clock
	logger zerolog.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(stores Stores, authz *auth.AuthorizationService, hasher *studenthash.Hasher, opts AnalyticsOptions, logger zerolog.Logger) StatsService {
	return &statsServiceImpl{
		stores: stores,
		authz:  authz,
		opts:   opts,
		mapper: studentMapper{hasher: hasher, knownDepartments: opts.KnownDepartments},
		logger: logger,
	}
}

func (s *statsServiceImpl) window(rng models.DateRange) models.DateRange {
	return resolveRange(rng, s.clock.now(), s.opts.AttendanceWindowDays)
}

// loadMetrics fetches grade and attendance summaries for ids concurrently.
// Grades are all-time, attendance is limited to rng.
func (s *statsServiceImpl) loadMetrics(ctx context.Context, ids []int64, rng models.DateRange) (map[int64]analytics.StudentMetrics, error) {
	return s.loadCourseMetrics(ctx, ids, nil, rng)
}

// loadCourseMetrics is loadMetrics restricted to courses; nil means every course.
func (s *statsServiceImpl) loadCourseMetrics(ctx context.Context, ids, courses []int64, rng models.DateRange) (map[int64]analytics.StudentMetrics, error) {
	var (
		grades     []models.GradeSummary
		attendance []models.AttendanceSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		grades, err = s.stores.Grades.GradeSummaries(gctx, models.SummaryFilter{StudentIDs: ids, CourseIDs: courses})
		return err
	})
	g.Go(func() error {
		var err error
		attendance, err = s.stores.Attendance.AttendanceSummaries(gctx, models.SummaryFilter{StudentIDs: ids, CourseIDs: courses, Range: rng})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error loading summaries: %w", err)
	}
	return analytics.BuildStudentMetrics(ids, grades, attendance), nil
}

// population loads every student and their metrics in one pass.
func (s *statsServiceImpl) population(ctx context.Context, rng models.DateRange) ([]models.Student, map[int64]analytics.StudentMetrics, error) {
	students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{})
	if err != nil {
		return nil, nil, err
	}
	metrics, err := s.loadMetrics(ctx, studentIDs(students), rng)
	if err != nil {
		return nil, nil, err
	}
	return students, metrics, nil
}

// GetStudentStats returns GPA, attendance, rank and predictions of one student
func (s *statsServiceImpl) GetStudentStats(ctx context.Context, actor auth.Actor, studentID int64, rng models.DateRange) (*dto.StudentStatsResponse, error) {
	student, err := s.stores.Students.GetStudentByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, studentID); err != nil {
		return nil, err
	}

	students, metrics, err := s.population(ctx, s.window(rng))
	if err != nil {
		return nil, err
	}
	m := metrics[studentID]
	rank, _ := analytics.RankOf(studentID, metrics)

	counts, err := s.stores.Achievements.CountGrants(ctx, []int64{studentID})
	if err != nil {
		return nil, fmt.Errorf("error counting achievements: %w", err)
	}

	prediction, err := s.predict(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &dto.StudentStatsResponse{
		Student:           s.mapper.toResponse(*student),
		GPA:               analytics.Round2(m.GPA),
		AttendanceRate:    analytics.Round2(m.AttendanceRate),
		AchievementsCount: counts[studentID],
		Rank:              rank,
		TotalStudents:     len(students),
		Predictions:       prediction,
	}, nil
}

func (s *statsServiceImpl) predict(ctx context.Context, studentID int64) (*dto.PredictionResponse, error) {
	now := s.clock.now()
	only := []int64{studentID}
	grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{StudentIDs: only})
	if err != nil {
		return nil, fmt.Errorf("error loading grades: %w", err)
	}
	attendance, err := s.stores.Attendance.ListAttendance(ctx, models.SummaryFilter{StudentIDs: only, Range: models.LastDays(now, 60)})
	if err != nil {
		return nil, fmt.Errorf("error loading attendance: %w", err)
	}
	p := analytics.Predict(grades, attendance, now)
	return &dto.PredictionResponse{
		BurnoutRisk:        p.BurnoutRisk,
		SuccessProbability: p.SuccessProbability,
		PredictedGPA:       p.PredictedGPA,
	}, nil
}

// GetBulkStudentStats computes stats for every student visible to the actor in one pass
func (s *statsServiceImpl) GetBulkStudentStats(ctx context.Context, actor auth.Actor, rng models.DateRange) (map[int64]dto.BulkStudentStats, error) {
	visible, err := s.authz.VisibleStudents(ctx, actor)
	if err != nil {
		return nil, err
	}
	students, metrics, err := s.population(ctx, s.window(rng))
	if err != nil {
		return nil, err
	}
	ids := studentIDs(students)
	if visible != nil {
		ids = intersect(ids, visible)
	}

	present, err := s.stores.Attendance.PresentStudentIDs(ctx, s.clock.today(), ids)
	if err != nil {
		return nil, err
	}
	presentSet := make(map[int64]bool, len(present))
	for _, id := range present {
		presentSet[id] = true
	}

	out := make(map[int64]dto.BulkStudentStats, len(ids))
	for _, id := range ids {
		m := metrics[id]
		out[id] = dto.BulkStudentStats{
			GPA:            analytics.Round2(m.GPA),
			AttendanceRate: analytics.Round2(m.AttendanceRate),
			PresentToday:   presentSet[id],
		}
	}
	return out, nil
}

func (s *statsServiceImpl) groupStats(g models.Group, members []int64, metrics map[int64]analytics.StudentMetrics) dto.GroupStatsResponse {
	rollup := analytics.GroupRollup(members, metrics)
	dept := g.Department
	if dept == "" {
		dept = analytics.DepartmentOf(g.Name, s.opts.KnownDepartments)
	}
	return dto.GroupStatsResponse{
		Group:          g.Name,
		Hash:           grouphash.Encode(g.Name),
		Department:     dept,
		TotalStudents:  rollup.TotalStudents,
		AverageGPA:     analytics.Round2(rollup.AverageGPA),
		AttendanceRate: analytics.Round2(rollup.AttendanceRate),
		HeadmanID:      g.HeadmanID,
	}
}

// authorizeGroup lets staff read any group and a headman read their own
func (s *statsServiceImpl) authorizeGroup(ctx context.Context, actor auth.Actor, name string) error {
	if actor.IsAdmin() || actor.IsTeacher() {
		return nil
	}
	if !actor.IsStudent() || actor.StudentID == nil {
		return apperrors.NewForbiddenError("you don't have access to this group")
	}
	st, err := s.stores.Students.GetStudentByID(ctx, *actor.StudentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewForbiddenError("you don't have access to this group")
		}
		return err
	}
	if !st.IsHeadman || st.GroupName != name {
		return apperrors.NewForbiddenError("only the headman may view the stats of their group")
	}
	return nil
}

// GetGroupStats recomputes the rollup of one group from source rows
// and adds the member list and the per-course teacher breakdown.
func (s *statsServiceImpl) GetGroupStats(ctx context.Context, actor auth.Actor, name string, rng models.DateRange) (*dto.GroupStatsResponse, error) {
	group, err := s.stores.Groups.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeGroup(ctx, actor, name); err != nil {
		return nil, err
	}
	members, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{GroupNames: []string{name}})
	if err != nil {
		return nil, err
	}
	ids := studentIDs(members)
	metrics, err := s.loadMetrics(ctx, ids, s.window(rng))
	if err != nil {
		return nil, err
	}
	stats := s.groupStats(*group, ids, metrics)

	if stats.Students, err = s.groupMembers(ctx, members); err != nil {
		return nil, err
	}
	if stats.Courses, err = s.groupCourses(ctx, ids); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *statsServiceImpl) groupMembers(ctx context.Context, members []models.Student) ([]dto.GroupMemberResponse, error) {
	present, err := s.stores.Attendance.PresentStudentIDs(ctx, s.clock.today(), studentIDs(members))
	if err != nil {
		return nil, err
	}
	presentSet := make(map[int64]bool, len(present))
	for _, id := range present {
		presentSet[id] = true
	}
	out := make([]dto.GroupMemberResponse, len(members))
	for i, st := range members {
		out[i] = dto.GroupMemberResponse{
			ID:           st.ID,
			Name:         st.Name,
			Hash:         s.mapper.hasher.Hash(st.ID),
			IsHeadman:    st.IsHeadman,
			PresentToday: presentSet[st.ID],
		}
	}
	return out, nil
}

// groupCourses breaks a group's results down by the courses its members are
// graded in and the teachers of each course. Attendance covers the last
// groupCourseWindowDays days and is shared by every teacher of a course.
func (s *statsServiceImpl) groupCourses(ctx context.Context, ids []int64) ([]dto.GroupCourseStats, error) {
	if len(ids) == 0 {
		return []dto.GroupCourseStats{}, nil
	}
	grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{StudentIDs: ids})
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return []dto.GroupCourseStats{}, nil
	}

	teachersOf := make(map[int64][]int64)
	courseIDs := make([]int64, 0)
	for _, g := range grades {
		if _, ok := teachersOf[g.CourseID]; !ok {
			teachersOf[g.CourseID] = nil
			courseIDs = append(courseIDs, g.CourseID)
		}
		if g.TeacherID != nil {
			teachersOf[g.CourseID] = append(teachersOf[g.CourseID], *g.TeacherID)
		}
	}
	courses, err := s.stores.Courses.ListCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	links, err := s.stores.Courses.ListCourseTeachers(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	var teacherIDs []int64
	for _, l := range links {
		teachersOf[l.CourseID] = append(teachersOf[l.CourseID], l.TeacherID)
	}
	for id, ts := range teachersOf {
		teachersOf[id] = dedupe(ts)
		teacherIDs = append(teacherIDs, teachersOf[id]...)
	}
	names := make(map[int64]string)
	if len(teacherIDs) > 0 {
		teachers, err := s.stores.Courses.ListTeachers(ctx, dedupe(teacherIDs))
		if err != nil {
			return nil, err
		}
		for _, t := range teachers {
			names[t.ID] = t.Name
		}
	}

	records, err := s.stores.Attendance.ListAttendance(ctx, models.SummaryFilter{
		StudentIDs: ids,
		CourseIDs:  courseIDs,
		Range:      models.LastDays(s.clock.now(), groupCourseWindowDays),
	})
	if err != nil {
		return nil, err
	}
	attended := make(map[int64]*models.AttendanceSummary)
	for _, a := range records {
		if a.CourseID == nil {
			continue
		}
		sum, ok := attended[*a.CourseID]
		if !ok {
			sum = &models.AttendanceSummary{}
			attended[*a.CourseID] = sum
		}
		sum.Total++
		if a.Present {
			sum.Present++
		}
	}

	out := make([]dto.GroupCourseStats, 0, len(courses))
	for _, c := range courses {
		rate := 0.0
		if sum, ok := attended[c.ID]; ok {
			rate = analytics.AttendanceRate(sum.Present, sum.Total)
		}
		item := dto.GroupCourseStats{
			CourseID:   c.ID,
			CourseName: c.Name,
			CourseCode: c.Code,
			Teachers:   make([]dto.GroupCourseTeacherStats, 0, len(teachersOf[c.ID])),
		}
		for _, tid := range teachersOf[c.ID] {
			courseID, teacherID := c.ID, tid
			avg := meanGrade(grades, func(g models.Grade) bool {
				return g.CourseID == courseID && (g.TeacherID == nil || *g.TeacherID == teacherID)
			})
			item.Teachers = append(item.Teachers, dto.GroupCourseTeacherStats{
				TeacherID:      tid,
				TeacherName:    names[tid],
				AverageGrade:   analytics.Round2(avg),
				AttendanceRate: analytics.Round2(rate),
			})
		}
		sort.Slice(item.Teachers, func(i, j int) bool { return item.Teachers[i].TeacherName < item.Teachers[j].TeacherName })
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseName < out[j].CourseName })
	return out, nil
}

// GetBulkGroupStats computes every group's rollup in one pass; students may not call it
func (s *statsServiceImpl) GetBulkGroupStats(ctx context.Context, actor auth.Actor, rng models.DateRange) (map[string]dto.GroupStatsResponse, error) {
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return nil, apperrors.NewForbiddenError("only teachers and admins may list group stats")
	}
	return s.bulkGroupStats(ctx, rng)
}

func (s *statsServiceImpl) bulkGroupStats(ctx context.Context, rng models.DateRange) (map[string]dto.GroupStatsResponse, error) {
	groups, err := s.stores.Groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	students, metrics, err := s.population(ctx, s.window(rng))
	if err != nil {
		return nil, err
	}
	members := make(map[string][]int64, len(groups))
	for _, st := range students {
		members[st.GroupName] = append(members[st.GroupName], st.ID)
	}

	out := make(map[string]dto.GroupStatsResponse, len(groups))
	for _, g := range groups {
		out[g.Name] = s.groupStats(g, members[g.Name], metrics)
	}
	return out, nil
}

// GetCourseStats summarizes a course, optionally for one group; admins also get a teacher/group breakdown
func (s *statsServiceImpl) GetCourseStats(ctx context.Context, actor auth.Actor, courseID int64, group string, rng models.DateRange) (*dto.CourseStatsResponse, error) {
	course, err := s.stores.Courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}
	if group != "" {
		if _, err := s.stores.Groups.GetGroupByName(ctx, group); err != nil {
			return nil, err
		}
	}

	roster, err := s.stores.Students.StudentIDsForCourses(ctx, []int64{courseID})
	if err != nil {
		return nil, err
	}
	filter := models.StudentFilter{IDs: roster}
	if group != "" {
		filter.GroupNames = []string{group}
	}
	students, _, err := s.stores.Students.ListStudents(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := studentIDs(students)
	rng = s.window(rng)
	courses := []int64{courseID}

	grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{StudentIDs: ids, CourseIDs: courses})
	if err != nil {
		return nil, err
	}
	attendance, err := s.stores.Attendance.AttendanceSummaries(ctx, models.SummaryFilter{StudentIDs: ids, CourseIDs: courses, Range: rng})
	if err != nil {
		return nil, err
	}

	resp := &dto.CourseStatsResponse{
		CourseID:       course.ID,
		CourseName:     course.Name,
		Group:          group,
		TotalStudents:  len(ids),
		AverageGrade:   analytics.Round2(meanGrade(grades, nil)),
		AttendanceRate: analytics.Round2(analytics.PooledAttendance(attendance)),
	}
	if actor.IsAdmin() {
		resp.Breakdown, err = s.courseBreakdown(ctx, courseID, students, grades, attendance)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func meanGrade(grades []models.Grade, keep func(models.Grade) bool) float64 {
	var sum float64
	var n int64
	for _, g := range grades {
		if keep != nil && !keep(g) {
			continue
		}
		sum += g.Value
		n++
	}
	return analytics.GPA(sum, n)
}

type teacherGroup struct {
	teacherID int64
	group     string
}

// courseBreakdown splits a course by the (teacher, group) pairs that teach it.
// Pairs come from the timetable and from the teacher recorded on grades.
func (s *statsServiceImpl) courseBreakdown(ctx context.Context, courseID int64, students []models.Student, grades []models.Grade, attendance []models.AttendanceSummary) ([]dto.CourseBreakdownItem, error) {
	groupOf := make(map[int64]string, len(students))
	groupMembers := make(map[string][]int64)
	for _, st := range students {
		groupOf[st.ID] = st.GroupName
		groupMembers[st.GroupName] = append(groupMembers[st.GroupName], st.ID)
	}

	pairs := make(map[teacherGroup]struct{})
	slots, err := s.stores.Courses.ListSchedule(ctx, []int64{courseID}, "")
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.TeacherID != nil {
			if _, ok := groupMembers[slot.GroupName]; ok {
				pairs[teacherGroup{*slot.TeacherID, slot.GroupName}] = struct{}{}
			}
		}
	}
	for _, g := range grades {
		if g.TeacherID != nil {
			pairs[teacherGroup{*g.TeacherID, groupOf[g.StudentID]}] = struct{}{}
		}
	}
	if len(pairs) == 0 {
		return []dto.CourseBreakdownItem{}, nil
	}

	teacherIDs := make([]int64, 0, len(pairs))
	for p := range pairs {
		teacherIDs = append(teacherIDs, p.teacherID)
	}
	teachers, err := s.stores.Courses.ListTeachers(ctx, dedupe(teacherIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.Name
	}

	attByStudent := make(map[int64]models.AttendanceSummary, len(attendance))
	for _, a := range attendance {
		attByStudent[a.StudentID] = a
	}

	items := make([]dto.CourseBreakdownItem, 0, len(pairs))
	for p := range pairs {
		var groupAttendance []models.AttendanceSummary
		for _, id := range groupMembers[p.group] {
			if a, ok := attByStudent[id]; ok {
				groupAttendance = append(groupAttendance, a)
			}
		}
		avg := meanGrade(grades, func(g models.Grade) bool {
			return groupOf[g.StudentID] == p.group && (g.TeacherID == nil || *g.TeacherID == p.teacherID)
		})
		items = append(items, dto.CourseBreakdownItem{
			TeacherID:      p.teacherID,
			TeacherName:    names[p.teacherID],
			Group:          p.group,
			Students:       len(groupMembers[p.group]),
			AverageGrade:   analytics.Round2(avg),
			AttendanceRate: analytics.Round2(analytics.PooledAttendance(groupAttendance)),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TeacherName != items[j].TeacherName {
			return items[i].TeacherName < items[j].TeacherName
		}
		return items[i].Group < items[j].Group
	})
	return items, nil
}

// GetTeacherStats summarizes a teacher's courses
func (s *statsServiceImpl) GetTeacherStats(ctx context.Context, teacherID int64, rng models.DateRange) (*dto.TeacherStatsResponse, error) {
	teacher, err := s.stores.Courses.GetTeacherByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	courseIDs, err := s.stores.Courses.CourseIDsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if courseIDs == nil {
		courseIDs = []int64{}
	}
	courses, err := s.stores.Courses.ListCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	links, err := s.stores.Courses.ListCourseTeachers(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	roster, err := s.stores.Students.StudentIDsForCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, err
	}
	attendance, err := s.stores.Attendance.AttendanceSummaries(ctx, models.SummaryFilter{CourseIDs: courseIDs, Range: s.window(rng)})
	if err != nil {
		return nil, err
	}

	var issued int64
	for _, g := range grades {
		if g.TeacherID != nil && *g.TeacherID == teacherID {
			issued++
		}
	}

	return &dto.TeacherStatsResponse{
		Teacher:        toTeacherResponse(*teacher),
		Courses:        courseResponses(courses, links),
		TotalStudents:  len(roster),
		GradesIssued:   issued,
		AverageGrade:   analytics.Round2(meanGrade(grades, nil)),
		AttendanceRate: analytics.Round2(analytics.PooledAttendance(attendance)),
	}, nil
}

func courseResponses(courses []models.Course, links []models.CourseTeacher) []dto.CourseResponse {
	byCourse := make(map[int64][]int64)
	for _, l := range links {
		byCourse[l.CourseID] = append(byCourse[l.CourseID], l.TeacherID)
	}
	out := make([]dto.CourseResponse, len(courses))
	for i, c := range courses {
		out[i] = toCourseResponse(c, byCourse[c.ID])
	}
	return out
}

// GetDashboardStats summarizes the students visible to the actor, optionally narrowed by groups or department
func (s *statsServiceImpl) GetDashboardStats(ctx context.Context, actor auth.Actor, groups []string, department string) (*dto.DashboardStatsResponse, error) {
	visible, err := s.authz.VisibleStudents(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter := models.StudentFilter{IDs: visible}
	if len(groups) > 0 {
		filter.GroupNames = groups
	}
	if department != "" {
		dept := analytics.NormalizeDepartment(department, s.opts.KnownDepartments)
		if dept == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown department %q", department))
		}
		filter.GroupPrefix = dept
	}
	students, _, err := s.stores.Students.ListStudents(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := studentIDs(students)
	groupSet := make(map[string]struct{})
	for _, st := range students {
		if st.GroupName != "" {
			groupSet[st.GroupName] = struct{}{}
		}
	}

	now := s.clock.now()
	grades, err := s.stores.Grades.GradeSummaries(ctx, models.SummaryFilter{StudentIDs: ids})
	if err != nil {
		return nil, err
	}
	attendance, err := s.stores.Attendance.AttendanceSummaries(ctx, models.SummaryFilter{
		StudentIDs: ids,
		Range:      models.LastDays(now, s.opts.DashboardWindowDays),
	})
	if err != nil {
		return nil, err
	}
	present, err := s.stores.Attendance.PresentStudentIDs(ctx, s.clock.today(), ids)
	if err != nil {
		return nil, err
	}

	totalCourses, err := s.visibleCourseCount(ctx, actor, ids)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardStatsResponse{
		TotalStudents:  len(ids),
		TotalGroups:    len(groupSet),
		TotalCourses:   totalCourses,
		AverageGrade:   analytics.Round2(analytics.FlatAverage(grades)),
		AttendanceRate: analytics.Round2(analytics.PooledAttendance(attendance)),
		PresentToday:   len(present),
	}, nil
}

func (s *statsServiceImpl) visibleCourseCount(ctx context.Context, actor auth.Actor, ids []int64) (int, error) {
	if actor.IsStudent() {
		grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{StudentIDs: ids})
		if err != nil {
			return 0, err
		}
		seen := make(map[int64]struct{})
		for _, g := range grades {
			seen[g.CourseID] = struct{}{}
		}
		return len(seen), nil
	}
	courseIDs, err := s.authz.VisibleCourses(ctx, actor)
	if err != nil {
		return 0, err
	}
	if courseIDs != nil {
		return len(courseIDs), nil
	}
	courses, err := s.stores.Courses.ListCourses(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(courses), nil
}

// GetLeaderboard ranks students by GPA with optional group and department filters.
// A teacher ranks only the students of their courses, on the grades given in them.
func (s *statsServiceImpl) GetLeaderboard(ctx context.Context, actor auth.Actor, q LeaderboardQuery) ([]dto.LeaderboardEntryResponse, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.LeaderboardLimit
	}
	if s.opts.LeaderboardMaxLimit > 0 && limit > s.opts.LeaderboardMaxLimit {
		limit = s.opts.LeaderboardMaxLimit
	}
	minGrades := s.opts.LeaderboardMinGrades
	if q.MinGrades != nil {
		if *q.MinGrades < 0 {
			return nil, apperrors.NewValidationError("min_grades must be non-negative")
		}
		minGrades = *q.MinGrades
	}
	var dept string
	if q.Department != "" {
		dept = analytics.NormalizeDepartment(q.Department, s.opts.KnownDepartments)
		if dept == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown department %q", q.Department))
		}
	}

	students, metrics, err := s.leaderboardPopulation(ctx, actor)
	if err != nil {
		return nil, err
	}
	candidates := make([]analytics.Candidate, len(students))
	for i, st := range students {
		candidates[i] = analytics.Candidate{StudentID: st.ID, Name: st.Name, GroupName: st.GroupName}
	}

	entries := analytics.Leaderboard(candidates, metrics, analytics.LeaderboardOptions{
		Limit:            limit,
		Groups:           q.Groups,
		Department:       dept,
		MinGrades:        minGrades,
		KnownDepartments: s.opts.KnownDepartments,
	})
	out := make([]dto.LeaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.LeaderboardEntryResponse{
			Position:       e.Position,
			StudentID:      e.StudentID,
			Name:           e.Name,
			Group:          e.GroupName,
			Department:     e.Department,
			GPA:            analytics.Round2(e.GPA),
			GradeCount:     e.GradeCount,
			AttendanceRate: analytics.Round2(e.AttendanceRate),
		}
	}
	return out, nil
}

func (s *statsServiceImpl) leaderboardPopulation(ctx context.Context, actor auth.Actor) ([]models.Student, map[int64]analytics.StudentMetrics, error) {
	rng := s.window(models.DateRange{})
	if !actor.IsTeacher() {
		return s.population(ctx, rng)
	}
	courses, err := s.authz.TeacherCourses(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	if courses == nil {
		courses = []int64{}
	}
	roster, err := s.stores.Students.StudentIDsForCourses(ctx, courses)
	if err != nil {
		return nil, nil, err
	}
	if roster == nil {
		roster = []int64{}
	}
	students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{IDs: roster})
	if err != nil {
		return nil, nil, err
	}
	metrics, err := s.loadCourseMetrics(ctx, studentIDs(students), courses, rng)
	if err != nil {
		return nil, nil, err
	}
	return students, metrics, nil
}

// RefreshGroupRollups recomputes and writes back the denormalized group columns
func (s *statsServiceImpl) RefreshGroupRollups(ctx context.Context) (int, error) {
	stats, err := s.bulkGroupStats(ctx, models.DateRange{})
	if err != nil {
		return 0, err
	}
	groups, err := s.stores.Groups.ListGroups(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, g := range groups {
		st := stats[g.Name]
		rollup := models.GroupRollup{
			TotalStudents:         st.TotalStudents,
			AverageGPA:            st.AverageGPA,
			AverageAttendanceRate: st.AttendanceRate,
		}
		if err := s.stores.Groups.UpdateGroupRollup(ctx, g.ID, rollup); err != nil {
			return updated, err
		}
		updated++
	}
	s.logger.Info().Int("groups", updated).Msg("Group rollups refreshed")
	return updated, nil
}
