package services

import (
	"context"
	"testing"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogService_ListActivity(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	students := w.studentService()
	for _, id := range []int64{w.it1, w.it2, w.it3} {
		_, err := students.SetHeadman(ctx, w.admin, id, true)
		require.NoError(t, err)
	}

	svc := NewLogService(w.store)
	resp, err := svc.ListActivity(ctx, models.LogFilter{Table: "students"}, helpers.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Pagination.TotalItems)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	items := resp.Items.([]dto.ActivityLogResponse)
	require.Len(t, items, 2)
	assert.Equal(t, models.ActionUpdate, items[0].ActionType)
	require.NotNil(t, items[0].UserID)
	assert.Equal(t, w.admin.UserID, *items[0].UserID)
	assert.JSONEq(t, `{"is_headman":true}`, items[0].NewValues)
}
