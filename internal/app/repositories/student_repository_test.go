package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadmanLocks_GroupRowFirst(t *testing.T) {
	group, student := headmanLocks(7, 42)

	groupSQL, groupArgs, err := group.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM groups WHERE id = $1 FOR UPDATE", groupSQL)
	assert.Equal(t, []interface{}{int64(7)}, groupArgs)

	studentSQL, studentArgs, err := student.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT group_id FROM students WHERE id = $1 FOR UPDATE", studentSQL)
	assert.Equal(t, []interface{}{int64(42)}, studentArgs)
}

func TestHeadmanLocks_SameGroupSameOrder(t *testing.T) {
	// Two promotions in one group contend on the identical group row lock
	// before touching any student row.
	a, _ := headmanLocks(3, 10)
	b, _ := headmanLocks(3, 11)

	aSQL, aArgs, err := a.ToSql()
	require.NoError(t, err)
	bSQL, bArgs, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, aSQL, bSQL)
	assert.Equal(t, aArgs, bArgs)
}
