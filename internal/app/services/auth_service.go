package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/auth"
	"github.com/mirea/edupulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// Define custom error types for auth service
var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password format")
	ErrAdminSignup     = errors.New("admin accounts cannot be self-registered")
	ErrProfileRequired = errors.New("role requires a linked profile")
)

// ClientInfo identifies the client of a login request
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthService handles authentication operations
type AuthService struct {
	users      UserStore
	logs       LogStore
	students   StudentStore
	courses    CourseStore
	jwtService *auth.JWTService
	passwords  *auth.PasswordHasher
	clock      clock
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(stores Stores, jwtService *auth.JWTService, passwords *auth.PasswordHasher, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      stores.Users,
		logs:       stores.Logs,
		students:   stores.Students,
		courses:    stores.Courses,
		jwtService: jwtService,
		passwords:  passwords,
		logger:     logger,
	}
}

// validateEmail validates an email address
func (s *AuthService) validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}
	if !validation.IsEmail(email) {
		return apperrors.NewValidationError(ErrInvalidEmail.Error())
	}
	return nil
}

// validatePassword checks if password meets requirements
func (s *AuthService) validatePassword(password string) error {
	if len(password) < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("%s: password must be at least %d characters long", ErrInvalidPassword, validation.PasswordMinLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError(fmt.Sprintf("%s: %s", ErrInvalidPassword, auth.ErrPasswordTooLong))
	}

	hasLetter, hasDigit := false, false
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter {
		return apperrors.NewValidationError(fmt.Sprintf("%s: password must contain at least one letter", ErrInvalidPassword))
	}
	if !hasDigit {
		return apperrors.NewValidationError(fmt.Sprintf("%s: password must contain at least one digit", ErrInvalidPassword))
	}
	return nil
}

// validateProfile checks that the profile required by the role exists
func (s *AuthService) validateProfile(ctx context.Context, req *dto.RegisterRequest) error {
	switch req.Role {
	case models.RoleAdmin:
		return apperrors.NewForbiddenError(ErrAdminSignup.Error())
	case models.RoleStudent:
		if req.StudentID == nil || req.TeacherID != nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s: student accounts need student_id only", ErrProfileRequired))
		}
		_, err := s.students.GetStudentByID(ctx, *req.StudentID)
		return err
	case models.RoleTeacher:
		if req.TeacherID == nil || req.StudentID != nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s: teacher accounts need teacher_id only", ErrProfileRequired))
		}
		_, err := s.courses.GetTeacherByID(ctx, *req.TeacherID)
		return err
	}
	return apperrors.NewValidationError("unknown role")
}

func (s *AuthService) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(auth.Subject{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		StudentID: user.StudentID,
		TeacherID: user.TeacherID,
	})
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// Register creates an account for an existing student or teacher profile
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.validateProfile(ctx, req); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		StudentID:    req.StudentID,
		TeacherID:    req.TeacherID,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.issueToken(user)
}

// Login authenticates a user and opens a login log entry
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.passwords.Verify(user.PasswordHash, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Str("ip", client.IPAddress).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	s.upgradeHash(ctx, user, req.Password)

	resp, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	entry := &models.LoginLog{
		UserID:    user.ID,
		LoginTime: s.clock.now(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.logs.CreateLoginLog(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to write login log")
	}
	return resp, nil
}

// upgradeHash rehashes the password at the configured cost after a successful login.
// Failures only cost the upgrade, never the login.
func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !s.passwords.NeedsRehash(user.PasswordHash) {
		return
	}
	hashed, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hashed)
	}
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to upgrade password hash")
		return
	}
	s.logger.Info().Int64("userID", user.ID).Int("cost", s.passwords.Cost()).Msg("Password hash upgraded")
}

// Me returns the account of the authenticated user
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Logout closes the user's most recent open session
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.logs.CloseLatestLoginLog(ctx, userID, s.clock.now()); err != nil {
		return fmt.Errorf("error closing login log: %w", err)
	}
	s.logger.Info().Int64("userID", userID).Msg("User logged out")
	return nil
}
