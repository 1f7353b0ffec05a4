package helpers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// DateLayout is the calendar-date format accepted in query parameters.
const DateLayout = "2006-01-02"

// ParseDateQuery reads an optional YYYY-MM-DD query parameter.
// A missing parameter yields nil without error.
func ParseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in %s format", key, DateLayout)
	}
	return &t, nil
}
