package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

type fakeUserRepo struct {
	mu          sync.Mutex
	nextID      int64
	byEmail     map[string]*db.User
	byID        map[int64]*db.User
	createErr   error
	getCalls    int
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:  1,
		byEmail: make(map[string]*db.User),
		byID:    make(map[int64]*db.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, fullname, email, passwordHash string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, db.ErrEmailExists
	}
	user := &db.User{
		ID:           f.nextID,
		Fullname:     fullname,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.nextID++
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	user, ok := f.byEmail[email]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return user, nil
}

type fakeLimiter struct {
	err   error
	calls int
}

func (f *fakeLimiter) Allow(_ context.Context, _, _ string) error {
	f.calls++
	return f.err
}

type serviceFixture struct {
	service  *Service
	users    *fakeUserRepo
	sessions *SessionStore
	kv       *fakeKV
	limiter  *fakeLimiter
	codec    *TokenCodec
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	users := newFakeUserRepo()
	kv := newFakeKV()
	sessions := NewSessionStore(kv)
	limiter := &fakeLimiter{}
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)

	return &serviceFixture{
		service:  NewService(users, sessions, limiter, NewPasswordHasher(), codec),
		users:    users,
		sessions: sessions,
		kv:       kv,
		limiter:  limiter,
		codec:    codec,
	}
}

func (fx *serviceFixture) signup(t *testing.T, email, password string) *UserView {
	t.Helper()
	user, err := fx.service.Signup(context.Background(), "Test User", email, password)
	require.NoError(t, err)
	return user
}

func appErrFrom(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %v", err)
	return appErr
}

func TestService_Signup(t *testing.T) {
	fx := newServiceFixture(t)

	user := fx.signup(t, "alice@example.com", "password123")
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	// Created user carries a hash, never the plaintext.
	stored := fx.users.byEmail["alice@example.com"]
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")

	_, err := fx.service.Signup(context.Background(), "Other", "alice@example.com", "different-pw")
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeEmailExists, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestService_SignupRejectsLongPassword(t *testing.T) {
	fx := newServiceFixture(t)

	long := make([]byte, MaxPasswordBytes+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := fx.service.Signup(context.Background(), "Test", "a@example.com", string(long))
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Zero(t, fx.users.createCalls, "long password must be rejected before the repository")
}

func TestService_LoginHappyPath(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")

	pair, err := fx.service.Login(context.Background(), "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int(15*time.Minute/time.Second), pair.ExpiresIn)

	// The refresh session is registered under the pair's jti.
	claims, err := fx.codec.Decode(pair.RefreshToken, true)
	require.NoError(t, err)
	exists, err := fx.sessions.Exists(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestService_LoginFailuresAreIndistinguishable(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	_, unknownErr := fx.service.Login(ctx, "nobody@example.com", "password123", "1.2.3.4")
	_, wrongPwErr := fx.service.Login(ctx, "alice@example.com", "wrong-password", "1.2.3.4")

	unknown := appErrFrom(t, unknownErr)
	wrongPw := appErrFrom(t, wrongPwErr)
	assert.Equal(t, wrongPw.Code, unknown.Code)
	assert.Equal(t, wrongPw.Message, unknown.Message)
	assert.Equal(t, wrongPw.HTTPStatus, unknown.HTTPStatus)
	assert.Equal(t, 401, unknown.HTTPStatus)
}

func TestService_LoginRateGateRunsFirst(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	fx.users.getCalls = 0
	fx.limiter.err = apperrors.RateLimited()

	_, err := fx.service.Login(context.Background(), "alice@example.com", "password123", "1.2.3.4")
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeRateLimited, appErr.Code)
	assert.Zero(t, fx.users.getCalls, "limited attempt must not reach the repository")
}

func TestService_LoginRejectsLongPasswordBeforeLookup(t *testing.T) {
	fx := newServiceFixture(t)

	long := make([]byte, MaxPasswordBytes+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := fx.service.Login(context.Background(), "alice@example.com", string(long), "1.2.3.4")
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Zero(t, fx.users.getCalls)
}

func TestService_RefreshRotates(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	pair, err := fx.service.Login(ctx, "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)

	rotated, err := fx.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)

	// Replaying the redeemed token fails; the rotated one still works.
	_, err = fx.service.Refresh(ctx, pair.RefreshToken)
	appErr := appErrFrom(t, err)
	assert.Equal(t, 401, appErr.HTTPStatus)

	_, err = fx.service.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestService_RefreshRejectsAccessToken(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	pair, err := fx.service.Login(ctx, "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)

	_, err = fx.service.Refresh(ctx, pair.AccessToken)
	appErr := appErrFrom(t, err)
	assert.Equal(t, 401, appErr.HTTPStatus)
}

func TestService_RefreshRejectsGarbage(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.Refresh(context.Background(), "not-a-token")
	appErr := appErrFrom(t, err)
	assert.Equal(t, 401, appErr.HTTPStatus)
}

func TestService_LogoutRevokesSession(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	pair, err := fx.service.Login(ctx, "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)

	fx.service.Logout(ctx, pair.RefreshToken)

	_, err = fx.service.Refresh(ctx, pair.RefreshToken)
	appErr := appErrFrom(t, err)
	assert.Equal(t, 401, appErr.HTTPStatus)
}

func TestService_LogoutToleratesGarbageAndRepeats(t *testing.T) {
	fx := newServiceFixture(t)
	fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	pair, err := fx.service.Login(ctx, "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)

	fx.service.Logout(ctx, "garbage")
	fx.service.Logout(ctx, pair.RefreshToken)
	fx.service.Logout(ctx, pair.RefreshToken)
	fx.service.Logout(ctx, pair.AccessToken)
}

func TestService_ValidateAccess(t *testing.T) {
	fx := newServiceFixture(t)
	user := fx.signup(t, "alice@example.com", "password123")
	ctx := context.Background()

	pair, err := fx.service.Login(ctx, "alice@example.com", "password123", "1.2.3.4")
	require.NoError(t, err)

	userID, err := fx.service.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// A refresh token is not a bearer credential.
	_, err = fx.service.ValidateAccess(pair.RefreshToken)
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeInvalidToken, appErr.Code)
}

func TestService_ValidateAccessExpired(t *testing.T) {
	users := newFakeUserRepo()
	sessions := NewSessionStore(newFakeKV())
	codec := newTestCodec(-time.Minute, 7*24*time.Hour)
	service := NewService(users, sessions, &fakeLimiter{}, NewPasswordHasher(), codec)

	token, err := codec.IssueAccess(1, "")
	require.NoError(t, err)

	_, err = service.ValidateAccess(token)
	appErr := appErrFrom(t, err)
	assert.Equal(t, apperrors.CodeTokenExpired, appErr.Code)
}

func TestService_UserByID(t *testing.T) {
	fx := newServiceFixture(t)
	user := fx.signup(t, "alice@example.com", "password123")

	got, err := fx.service.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = fx.service.UserByID(context.Background(), 999)
	appErr := appErrFrom(t, err)
	assert.Equal(t, 401, appErr.HTTPStatus)
}
