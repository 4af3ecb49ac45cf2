package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
	"github.com/logicalerror-in/elice-dev/internal/logger"
)

// UserRepository is the slice of the relational store the auth core reads
// and creates users through.
type UserRepository interface {
	Create(ctx context.Context, fullname, email, passwordHash string) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id int64) (*db.User, error)
}

// SessionRegistry is the refresh-session surface the service depends on.
// *SessionStore implements it.
type SessionRegistry interface {
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	Redeem(ctx context.Context, jti string) (int64, bool, error)
	Delete(ctx context.Context, jti string) error
}

// Limiter gates login attempts. *LoginLimiter implements it.
type Limiter interface {
	Allow(ctx context.Context, email, ip string) error
}

type UserView struct {
	ID        int64     `json:"id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Service orchestrates signup, login, refresh and logout. Per login attempt
// the stages run strictly in order: rate gate, credential lookup, password
// verify, token issue, session register. A failing stage short-circuits.
type Service struct {
	users    UserRepository
	sessions SessionRegistry
	limiter  Limiter
	hasher   *PasswordHasher
	codec    *TokenCodec
	log      *logger.Logger
}

func NewService(users UserRepository, sessions SessionRegistry, limiter Limiter, hasher *PasswordHasher, codec *TokenCodec) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		hasher:   hasher,
		codec:    codec,
		log:      logger.Default().WithComponent("auth"),
	}
}

func (s *Service) Signup(ctx context.Context, fullname, email, password string) (*UserView, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, apperrors.ValidationError(err.Error())
		}
		return nil, apperrors.InternalError("failed to hash password").WithCause(err)
	}

	user, err := s.users.Create(ctx, fullname, email, passwordHash)
	if err != nil {
		if errors.Is(err, db.ErrEmailExists) {
			return nil, apperrors.EmailExists()
		}
		return nil, apperrors.DatabaseError("failed to create user").WithCause(err)
	}

	s.log.Info(ctx, "user signed up", map[string]interface{}{"user_id": user.ID})
	return userView(user), nil
}

func (s *Service) Login(ctx context.Context, email, password, clientIP string) (*TokenPair, error) {
	if err := s.limiter.Allow(ctx, email, clientIP); err != nil {
		return nil, err
	}

	// Cheap gate before any store access or hashing.
	if len(password) > MaxPasswordBytes {
		return nil, apperrors.ValidationError(ErrPasswordTooLong.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			// Burn a comparison so unknown-user and wrong-password are
			// indistinguishable, in response and in time.
			s.hasher.VerifyDummy(password)
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.DatabaseError("failed to look up user").WithCause(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", map[string]interface{}{"user_id": user.ID})
	return pair, nil
}

// Refresh redeems a refresh token for a new pair. The redeemed token is dead
// from this point on; a concurrent or later replay fails Unauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, true)
	if err != nil {
		return nil, apperrors.InvalidToken("invalid or expired refresh token")
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, apperrors.InvalidToken("invalid or expired refresh token")
	}

	userID, ok, err := s.sessions.Redeem(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to redeem refresh token").WithCause(err)
	}
	if !ok {
		return nil, apperrors.InvalidToken("refresh token invalid")
	}

	pair, err := s.issuePair(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "refresh token rotated", map[string]interface{}{"user_id": userID})
	return pair, nil
}

// Logout revokes the session behind the token. It decodes without expiry
// verification so an expired token still gets cleaned up, and it never
// fails from the caller's perspective: garbage tokens and double logouts
// are no-ops.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.codec.Decode(refreshToken, false)
	if err != nil || claims.TokenType != TokenTypeRefresh {
		return
	}

	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		s.log.Warn(ctx, "failed to delete refresh session", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// ValidateAccess checks a bearer token and returns the subject user id.
func (s *Service) ValidateAccess(tokenString string) (int64, error) {
	claims, err := s.codec.Decode(tokenString, true)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return 0, apperrors.TokenExpired()
		}
		return 0, apperrors.InvalidToken("invalid access token")
	}
	if claims.TokenType != TokenTypeAccess {
		return 0, apperrors.InvalidToken("invalid access token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, apperrors.InvalidToken("invalid access token")
	}
	return userID, nil
}

func (s *Service) UserByID(ctx context.Context, id int64) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("user not found")
		}
		return nil, apperrors.DatabaseError("failed to look up user").WithCause(err)
	}
	return userView(user), nil
}

// issuePair mints an access/refresh pair sharing one jti and registers the
// refresh session under it.
func (s *Service) issuePair(ctx context.Context, userID int64) (*TokenPair, error) {
	jti := uuid.NewString()

	accessToken, err := s.codec.IssueAccess(userID, jti)
	if err != nil {
		return nil, apperrors.InternalError("failed to issue access token").WithCause(err)
	}

	refreshToken, err := s.codec.IssueRefresh(userID, jti)
	if err != nil {
		return nil, apperrors.InternalError("failed to issue refresh token").WithCause(err)
	}

	if err := s.sessions.Save(ctx, jti, userID, s.codec.RefreshTTL()); err != nil {
		return nil, apperrors.DatabaseError("failed to register refresh session").WithCause(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}, nil
}

func userView(user *db.User) *UserView {
	return &UserView{
		ID:        user.ID,
		Fullname:  user.Fullname,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
