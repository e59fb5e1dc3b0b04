package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret    string
	ExpiresIn int // hours
}

// AuthService handles authentication and session tokens
type AuthService struct {
	Deps
	jwtConfig  JWTConfig
	limiter    *LoginLimiter
	bcryptCost int
}

// NewAuthService creates a new authentication service. A nil limiter disables login throttling.
func NewAuthService(deps Deps, jwtConfig JWTConfig, limiter *LoginLimiter, bcryptCost int) *AuthService {
	if jwtConfig.ExpiresIn <= 0 {
		jwtConfig.ExpiresIn = 24
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		Deps:       deps.withDefaults(),
		jwtConfig:  jwtConfig,
		limiter:    limiter,
		bcryptCost: bcryptCost,
	}
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	if err := validateStruct(req); err != nil {
		return "", nil, err
	}
	username, password := req.Username, req.Password

	if s.limiter.Blocked(username, s.Now()) {
		s.Metrics.Login("throttled")
		return "", nil, ErrTooManyAttempts
	}

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.limiter.Fail(username, s.Now())
			s.Metrics.Login("invalid")
		}
		return "", nil, err
	}
	s.limiter.Reset(username)

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.Metrics.Login("success")
	s.Logger.Info("User logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return token, user, nil
}

// Authenticate checks a username and password pair and stamps the last login time
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Repos.User.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Check if user is active
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	updated, err := s.Repos.User.Update(ctx, *user)
	if err != nil {
		// a concurrent edit only costs us the timestamp
		s.Logger.Warn("Failed to stamp last login", zap.String("user_id", user.ID), zap.Error(err))
		return user, nil
	}

	return updated, nil
}

// IssueToken signs a token for user
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.jwtConfig.ExpiresIn) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        s.NewID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", internal("Internal server error", fmt.Errorf("failed to sign token: %w", err))
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and time claims against the service clock
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	now := s.Now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, false) || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ResolveToken returns the user a token was issued for
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.Repos.User.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionUserGone
	}
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// Refresh issues a new token for the holder of a valid one. The old token stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, tokenString string) (string, *models.User, error) {
	user, err := s.ResolveToken(ctx, tokenString)
	if err != nil {
		return "", nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// HashPassword hashes password with the configured bcrypt cost
func (s *AuthService) HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", internal("Internal server error", fmt.Errorf("failed to hash password: %w", err))
	}
	return string(hashedPassword), nil
}

// ChangePassword changes the actor's own password and clears the forced reset flag
func (s *AuthService) ChangePassword(ctx context.Context, actor *models.User, req models.PasswordChangeRequest) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	user, err := s.Repos.User.GetByID(ctx, actor.ID)
	if err != nil {
		return storeError(err, "User not found")
	}

	// Verify current password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return invalidField("currentPassword", "Current password is incorrect")
	}

	if problems := checkPasswordPolicy(req.NewPassword); len(problems) > 0 {
		return invalid("Validation failed", map[string][]string{"newPassword": problems})
	}
	if req.NewPassword == req.CurrentPassword {
		return invalidField("newPassword", "New password must be different from the current password")
	}

	hashedPassword, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashedPassword
	user.MustResetPassword = false
	user.UpdatedAt = s.Now()
	if _, err := s.Repos.User.Update(ctx, *user); err != nil {
		return storeError(err, "User not found")
	}

	s.Logger.Info("Password changed", zap.String("user_id", user.ID))
	return nil
}
