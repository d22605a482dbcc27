package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"livepoll/internal/model"
	"livepoll/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// AuthService handles presenter and admin authentication
type AuthService struct {
	users     repository.UserRepo
	jwtSecret []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepo, secret string, expiresIn time.Duration) *AuthService {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		jwtSecret: []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// Register creates a presenter account and logs it in
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	user, err := s.CreateUser(ctx, email, req.Password, req.FirstName, req.LastName, model.RolePresenter)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser stores a new staff account with a hashed password
func (s *AuthService) CreateUser(ctx context.Context, email, password, first, last string, role model.Role) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(first),
		LastName:     strings.TrimSpace(last),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Profile returns the account behind an authenticated identity
func (s *AuthService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// ChangePassword replaces the password and revokes every outstanding token
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) (*model.LoginResponse, error) {
	if len(req.NewPassword) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	version, err := s.users.UpdatePassword(ctx, userID, string(hash))
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	user.TokenVersion = version
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*model.LoginResponse, error) {
	now := s.now()
	claims := &model.StaffClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token: tokenString,
		User:  user,
	}, nil
}

// ValidateStaffToken verifies the signature and checks that the token
// version still matches the stored one.
func (s *AuthService) ValidateStaffToken(ctx context.Context, tokenString string) (*model.StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.StaffClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	version, err := s.users.TokenVersion(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check token version: %w", err)
	}
	if version != claims.TokenVersion {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
