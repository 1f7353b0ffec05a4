package seed

import (
	"context"
	"testing"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/repositories/memory"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStores(s *memory.Store) services.Stores {
	return services.Stores{
		Students: s, Groups: s, Courses: s, Grades: s,
		Attendance: s, Achievements: s, Users: s, Logs: s,
	}
}

func TestCreateDefaultData_Admin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	stores := memoryStores(store)
	passwords := auth.NewPasswordHasher(5)
	opts := Options{AdminEmail: " Admin@MIREA.ru ", AdminPassword: "s3cretpass", Passwords: passwords}

	require.NoError(t, CreateDefaultData(ctx, stores, opts, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, stores, opts, zerolog.Nop()), "second run is a no-op")

	admin, err := store.GetUserByEmail(ctx, "admin@mirea.ru")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, passwords.Verify(admin.PasswordHash, "s3cretpass"))
	assert.False(t, passwords.NeedsRehash(admin.PasswordHash), "hashed at the configured cost")
}

func TestCreateDefaultData_NoPasswordSkipsAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, CreateDefaultData(ctx, memoryStores(store), Options{AdminEmail: "admin@mirea.ru"}, zerolog.Nop()))
	exists, err := store.EmailExists(ctx, "admin@mirea.ru")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateDefaultData_Demo(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	stores := memoryStores(store)
	opts := Options{
		DemoData:         true,
		KnownDepartments: []string{"ИТ", "ПИ"},
		Now:              time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, CreateDefaultData(ctx, stores, opts, zerolog.Nop()))

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 4)

	students, total, err := store.ListStudents(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4*len(demoSurnames)), total)

	grades, err := store.ListGrades(ctx, models.SummaryFilter{StudentIDs: []int64{students[0].ID}})
	require.NoError(t, err)
	assert.Len(t, grades, 4*len(demoCourses))
	for _, g := range grades {
		assert.GreaterOrEqual(t, g.Value, models.MinGradeValue)
		assert.LessOrEqual(t, g.Value, models.MaxGradeValue)
	}

	require.NoError(t, CreateDefaultData(ctx, stores, opts, zerolog.Nop()))
	groups, err = store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 4, "demo data is only written into an empty store")
}
