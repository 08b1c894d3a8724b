package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	jwtsvc "bookswap/internal/pkg/jwt"
)

type Service struct {
	users      *UserRepository
	jwt        *jwtsvc.Service
	sessions   SessionStore
	notifs     WelcomeNotifier
	refreshTTL time.Duration
}

func NewService(users *UserRepository, jwt *jwtsvc.Service, sessions SessionStore, notifs WelcomeNotifier, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		jwt:        jwt,
		sessions:   sessions,
		notifs:     notifs,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.DisplayName)

	if email == "" || !strings.Contains(email, "@") || name == "" {
		return nil, ErrValidation
	}
	if len(req.Password) < 8 {
		return nil, ErrValidation
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		City:         strings.TrimSpace(req.City),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// Best effort: a failed welcome note never fails a registration.
	if s.notifs != nil {
		if n, err := s.notifs.NotifyWelcome(ctx, nil, user.ID, user.DisplayName); err == nil {
			s.notifs.Publish(ctx, n)
		}
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RefreshSession rotates the refresh token: the presented token is revoked
// and a fresh pair is issued.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*LoginResult, error) {
	userID, err := s.sessions.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	_ = s.sessions.Delete(ctx, refreshToken)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Delete(ctx, refreshToken)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*User, error) {
	user, err := s.GetCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, ErrValidation
		}
		user.DisplayName = name
	}
	if req.City != nil {
		user.City = strings.TrimSpace(*req.City)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) issueTokens(ctx context.Context, user *User) (*LoginResult, error) {
	access, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.sessions.Save(ctx, refresh, user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// RefreshTTL exposes the refresh window for cookie max-age.
func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}
