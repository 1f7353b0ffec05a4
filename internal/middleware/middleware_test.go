package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(exp time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "middleware-test-secret",
		AccessTokenExp: exp,
		TokenIssuer:    "edupulse-test",
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body
}

func TestJWTAuth(t *testing.T) {
	jwtService := newJWT(time.Hour)
	teacherID := int64(7)
	token, _, err := jwtService.GenerateAccessToken(auth.Subject{
		UserID: 3, Email: "t@mirea.ru", Role: string(models.RoleTeacher), TeacherID: &teacherID,
	})
	require.NoError(t, err)

	expired, _, err := newJWT(-time.Minute).GenerateAccessToken(auth.Subject{UserID: 3, Email: "t@mirea.ru", Role: string(models.RoleTeacher)})
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": actor.UserID, "role": actor.Role, "teacher": actor.TeacherID})
	})

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantErr  dto.ErrorCode
	}{
		{name: "bearer header", header: "Bearer " + token, wantCode: http.StatusOK},
		{name: "raw token", header: token, wantCode: http.StatusOK},
		{name: "query token", query: "?token=" + token, wantCode: http.StatusOK},
		{name: "missing", wantCode: http.StatusUnauthorized, wantErr: dto.ErrorCodeUnauthorized},
		{name: "malformed", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantErr: dto.ErrorCodeInvalidToken},
		{name: "expired", header: "Bearer " + expired, wantCode: http.StatusUnauthorized, wantErr: dto.ErrorCodeExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, w).Error.Code)
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, float64(3), body["user"])
			assert.Equal(t, "teacher", body["role"])
			assert.Equal(t, float64(7), body["teacher"])
		})
	}
}

func TestRoleRequired(t *testing.T) {
	jwtService := newJWT(time.Hour)
	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	r.GET("/admin", m.JWTAuth(), m.RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, tc := range []struct {
		role models.Role
		want int
	}{
		{role: models.RoleAdmin, want: http.StatusNoContent},
		{role: models.RoleTeacher, want: http.StatusForbidden},
		{role: models.RoleStudent, want: http.StatusForbidden},
	} {
		token, _, err := jwtService.GenerateAccessToken(auth.Subject{UserID: 1, Email: "u@mirea.ru", Role: string(tc.role)})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "role %s", tc.role)
	}
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    dto.ErrorCode
		wantMessage string
	}{
		{
			name:        "not found keeps id",
			err:         apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, 42),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrorCodeResourceNotFound,
			wantMessage: "student not found: 42",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("loading: %w", apperrors.ErrCourseNotFound),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrorCodeResourceNotFound,
			wantMessage: "loading: course not found",
		},
		{
			name:        "validation",
			err:         apperrors.NewValidationError("min_grades must be non-negative"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrorCodeValidationFailed,
			wantMessage: "min_grades must be non-negative",
		},
		{
			name:        "forbidden",
			err:         apperrors.NewForbiddenError("nope"),
			wantStatus:  http.StatusForbidden,
			wantCode:    dto.ErrorCodeForbidden,
			wantMessage: "nope",
		},
		{
			name:        "disabled account",
			err:         apperrors.ErrAccountDisabled,
			wantStatus:  http.StatusForbidden,
			wantCode:    dto.ErrorCodeAccountDisabled,
			wantMessage: "Account is disabled",
		},
		{
			name:        "bad credentials",
			err:         apperrors.ErrInvalidCredentials,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    dto.ErrorCodeInvalidCredentials,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "duplicate email",
			err:         apperrors.ErrEmailAlreadyExists,
			wantStatus:  http.StatusConflict,
			wantCode:    dto.ErrorCodeResourceAlreadyExists,
			wantMessage: "Email already exists",
		},
		{
			name:        "unknown",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrorCodeInternalServer,
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestBindJSON(t *testing.T) {
	require.NoError(t, SetupValidation())

	type payload struct {
		Email string `json:"email" binding:"required,email"`
		Group string `json:"group" binding:"omitempty,groupname"`
	}
	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var p payload
		if !BindJSON(c, &p) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, send(`{"email":"a@b.ru","group":"ИТ-21"}`).Code)

	w := send(`{"email":"a@b.ru","group":"bad group"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	details, ok := decodeError(t, w).Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "group")

	w = send(`{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeError(t, w).Error.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), generated)

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))
}
