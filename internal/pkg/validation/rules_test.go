package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGroupName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ИТ-21", true},
		{"ПИ-22-1", true},
		{"IT-2021", true},
		{"ИТ21", false},
		{"-21", false},
		{"ИТ-", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGroupName(tt.in))
		})
	}
}

func TestFieldErrors(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type request struct {
		Email string `json:"email" validate:"required,email"`
		Group string `json:"group" validate:"omitempty,groupname"`
		Limit int    `json:"limit" validate:"min=1"`
	}

	errs := FieldErrors(v.Struct(request{Group: "bad", Limit: 0}))
	require.Len(t, errs, 3)
	assert.Equal(t, "email is required", errs["email"])
	assert.Equal(t, "group must be a group name like ИТ-21", errs["group"])
	assert.Equal(t, "limit must be at least 1", errs["limit"])

	assert.Empty(t, FieldErrors(v.Struct(request{Email: "a@mirea.ru", Limit: 1})))
	assert.Nil(t, FieldErrors(assert.AnError))
}
