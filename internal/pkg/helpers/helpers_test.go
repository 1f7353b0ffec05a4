package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		raw  string
		want []int64
		ok   bool
	}{
		{raw: "1,2,3", want: []int64{1, 2, 3}, ok: true},
		{raw: " 4 , ,5", want: []int64{4, 5}, ok: true},
		{raw: "", want: nil, ok: true},
		{raw: "1,x", ok: false},
		{raw: "0", ok: false},
		{raw: "-3", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseIDList(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	c := testContext("/students?page=3&size=10")
	page := ParsePaginationParams(c)
	assert.Equal(t, Page{Number: 3, Size: 10}, page)

	offset, limit := page.OffsetLimit()
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	info := NewPaginationInfo(25, page)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 3, info.CurrentPage)

	info = NewPaginationInfo(5, page)
	assert.Equal(t, 1, info.CurrentPage, "current page is clamped to the last one")

	defaults := ParsePaginationParams(testContext("/students?page=abc&size=100000"))
	assert.Equal(t, Page{Number: DefaultPage, Size: DefaultPageSize}, defaults)

	empty := NewPaginationInfo(0, Page{Number: 1, Size: 20})
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParseDateQuery(t *testing.T) {
	d, err := ParseDateQuery(testContext("/x?from=2025-02-01"), "from")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2025-02-01", d.Format(DateLayout))

	d, err = ParseDateQuery(testContext("/x"), "from")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDateQuery(testContext("/x?from=01.02.2025"), "from")
	assert.Error(t, err)
}

func TestQueryBool(t *testing.T) {
	assert.True(t, QueryBool(testContext("/x?confirm=true"), "confirm"))
	assert.True(t, QueryBool(testContext("/x?confirm=YES"), "confirm"))
	assert.False(t, QueryBool(testContext("/x?confirm=0"), "confirm"))
	assert.False(t, QueryBool(testContext("/x"), "confirm"))
}
