package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/util"
)

// TokenRevoker stores revoked token ids until they would have expired
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService interface {
	Login(username, password string) (string, *model.User, error)
	Register(input RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, token string) (*permission.Principal, *util.Claims, error)
	Logout(ctx context.Context, claims *util.Claims) error
	RevocationEnabled() bool
}

type authService struct {
	userRepo    repository.UserRepository
	revoker     TokenRevoker
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewAuthService builds the service. revoker may be nil, in which case
// logout is unavailable and tokens live until expiry.
func NewAuthService(userRepo repository.UserRepository, revoker TokenRevoker, jwtSecret string, tokenExpiry time.Duration) AuthService {
	return &authService{
		userRepo:    userRepo,
		revoker:     revoker,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

func (s *authService) RevocationEnabled() bool {
	return s.revoker != nil
}

func (s *authService) Login(username, password string) (string, *model.User, error) {
	logger.Info("User login attempt", logger.Fields{"username": username})

	user, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logger.Warn("Login failed: user not found", logger.Fields{"username": username})
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", logger.Fields{"user_id": user.ID})
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warn("Login failed: inactive user", logger.Fields{"user_id": user.ID})
		return "", nil, ErrUserInactive
	}

	token, _, err := util.GenerateToken(user.ID, user.Username, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, logger.Fields{"user_id": user.ID})
		return "", nil, err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", logger.Fields{"user_id": user.ID, "error": err.Error()})
	}
	user.LastLogin = &now

	logger.Info("User logged in successfully", logger.Fields{"user_id": user.ID})
	return token, user, nil
}

// Register creates a customer account with its cart
func (s *authService) Register(input RegisterInput) (*model.User, error) {
	logger.Info("Registering new user", logger.Fields{"username": input.Username})

	user, err := newUser(input.Username, input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user, model.GroupCustomer); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Registration failed: username taken", logger.Fields{"username": input.Username})
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Info("User registered successfully", logger.Fields{"user_id": user.ID})
	return user, nil
}

// Authenticate verifies the token and loads the caller with current groups
func (s *authService) Authenticate(ctx context.Context, token string) (*permission.Principal, *util.Claims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, nil, err
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, util.ErrInvalidToken
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}
	return PrincipalFor(user), claims, nil
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return err
	}
	logger.Info("User logged out", logger.Fields{"user_id": claims.UserID})
	return nil
}

// PrincipalFor maps a loaded user onto the permission model
func PrincipalFor(user *model.User) *permission.Principal {
	return &permission.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Groups:   user.GroupNames(),
		IsStaff:  user.IsStaff,
	}
}

func newUser(username, email, password, firstName, lastName string) (*model.User, error) {
	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &model.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
	}, nil
}
