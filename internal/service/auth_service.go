package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/config"
	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

type AuthService struct {
	users      UserStore
	sessions   SessionStore
	portfolios PortfolioStore
	cfg        *config.AppConfig
	log        zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, portfolios PortfolioStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		portfolios: portfolios,
		cfg:        cfg,
		log:        log,
	}
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(strings.ToLower(input.Username))
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var fields []apperr.FieldError
	if !usernamePattern.MatchString(input.Username) {
		fields = append(fields, apperr.FieldError{Field: "username", Message: "must be 3-30 lowercase letters, digits or underscores"})
	}
	if !strings.Contains(input.Email, "@") {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "invalid email address"})
	}
	if len(input.Password) < 8 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(fields) > 0 {
		return AuthResult{}, apperr.Validation("invalid registration", fields...)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, apperr.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, apperr.Internal(err)
	}
	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return AuthResult{}, apperr.Conflict("username already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, apperr.Internal(err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Username
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         models.UserRoleUser,
		Plan:         models.UserPlanFree,
		Status:       models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, apperr.Conflict("username or email already taken")
		}
		return AuthResult{}, apperr.Internal(err)
	}

	if err := s.createDefaultPortfolio(ctx, user); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("create default portfolio failed")
		// Remove the half-registered account so the email stays free for
		// a retry.
		if _, delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", user.ID).Msg("rollback of half-registered user failed")
		}
		return AuthResult{}, err
	}

	return s.issueTokens(ctx, user, "", "")
}

func (s *AuthService) createDefaultPortfolio(ctx context.Context, user models.User) error {
	slug, err := uniqueSlug(ctx, s.portfolios, Slugify(user.Username))
	if err != nil {
		return apperr.Internal(err)
	}

	portfolio := models.Portfolio{
		ID:        ids.New(),
		UserID:    user.ID,
		Title:     user.DisplayName + "'s Portfolio",
		Slug:      slug,
		IsPublic:  true,
		IsDefault: true,
		Layout:    models.PortfolioLayoutGrid,
		Theme:     "light",
	}
	if err := s.portfolios.Create(ctx, portfolio); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Auth("invalid credentials")
		}
		return AuthResult{}, apperr.Internal(err)
	}

	if user.Status != models.UserStatusActive {
		return AuthResult{}, apperr.Forbidden("account suspended")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperr.Auth("invalid credentials")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("touch last login failed")
	}

	return s.issueTokens(ctx, user, input.IPAddress, input.UserAgent)
}

func (s *AuthService) issueTokens(ctx context.Context, user models.User, ip, userAgent string) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		IPAddress:        ip,
		UserAgent:        userAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.JWTRefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Security.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldest(ctx, userID, s.cfg.Security.MaxSessions)
}

// Refresh rotates the refresh token. The swap is a conditional update on the
// old hash, so a consumed token cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	oldHash := security.HashRefreshToken(refreshToken)

	session, err := s.sessions.FindByRefreshHash(ctx, oldHash)
	if err != nil {
		return AuthResult{}, apperr.Auth("invalid refresh token")
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, apperr.Auth("refresh token expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return AuthResult{}, apperr.Auth("invalid refresh token")
	}
	if user.Status != models.UserStatusActive {
		return AuthResult{}, apperr.Forbidden("account suspended")
	}

	newToken, newHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	if err := s.sessions.Rotate(ctx, session.ID, oldHash, newHash, time.Now().Add(s.cfg.Security.JWTRefreshTTL)); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// The hash moved between lookup and swap: replayed token.
			return AuthResult{}, apperr.Auth("refresh token already used")
		}
		return AuthResult{}, apperr.Internal(err)
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newToken,
		User:         user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return apperr.Internal(err)
	}
	return nil
}

type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Email       *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, apperr.NotFound("user not found")
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if !strings.Contains(email, "@") {
			return models.User{}, apperr.Validation("invalid email", apperr.FieldError{Field: "email", Message: "invalid email address"})
		}
		user.Email = email
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, apperr.Conflict("email already registered")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user, nil
}
