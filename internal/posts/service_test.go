package posts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

// fakeRepo keeps posts in insertion order so List can page deterministically.
type fakeRepo struct {
	mu    sync.Mutex
	posts []*db.Post
	err   error
}

func (f *fakeRepo) Create(_ context.Context, authorID int64, title, content string) (*db.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	post := &db.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.posts = append(f.posts, post)
	return post, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*db.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, db.ErrPostNotFound
}

func (f *fakeRepo) List(_ context.Context, q string, offset, limit int) ([]*db.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*db.Post
	for _, p := range f.posts {
		if q == "" || strings.Contains(strings.ToLower(p.Title), strings.ToLower(q)) {
			matched = append(matched, p)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, authorID int64, title, content *string) (*db.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID != id {
			continue
		}
		if p.AuthorID != authorID {
			return nil, db.ErrNotOwner
		}
		if title != nil {
			p.Title = *title
		}
		if content != nil {
			p.Content = *content
		}
		p.UpdatedAt = time.Now()
		return p, nil
	}
	return nil, db.ErrPostNotFound
}

func (f *fakeRepo) SoftDelete(_ context.Context, id uuid.UUID, authorID int64) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID != id {
			continue
		}
		if p.AuthorID != authorID {
			return db.ErrNotOwner
		}
		f.posts = append(f.posts[:i], f.posts[i+1:]...)
		return nil
	}
	return db.ErrPostNotFound
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	return NewService(repo), repo
}

func statusOf(t *testing.T, err error) (int, string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %v", err)
	return appErr.HTTPStatus, appErr.Code
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "First post", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.AuthorID)

	got, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		title   string
		content string
	}{
		{"empty title", "", "content"},
		{"title too long", strings.Repeat("x", 101), "content"},
		{"empty content", "Title", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.title, tt.content)
			status, code := statusOf(t, err)
			assert.Equal(t, 422, status)
			assert.Equal(t, apperrors.CodeValidationError, code)
		})
	}
}

func TestService_GetMissing(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), uuid.New())
	status, code := statusOf(t, err)
	assert.Equal(t, 404, status)
	assert.Equal(t, apperrors.CodePostNotFound, code)
}

func TestService_ListPagingAndSearch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, title := range []string{"Go tips", "Redis notes", "More Go tricks"} {
		_, err := svc.Create(ctx, 1, title, "content")
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "", 0, 20)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := svc.List(ctx, "go", 0, 20)
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	paged, err := svc.List(ctx, "", 2, 20)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestService_ListClampsArguments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, 1, "Title", "content")
		require.NoError(t, err)
	}

	// Negative skip and out-of-range limits fall back to defaults instead
	// of erroring.
	list, err := svc.List(ctx, "", -5, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = svc.List(ctx, "", 0, 1000)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestService_UpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "Original", "original content")
	require.NoError(t, err)

	newTitle := "Updated"
	updated, err := svc.Update(ctx, post.ID, 1, &newTitle, nil)
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, "original content", updated.Content)
}

func TestService_UpdateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "Title", "content")
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(ctx, post.ID, 1, nil, &empty)
	status, _ := statusOf(t, err)
	assert.Equal(t, 422, status)

	long := strings.Repeat("x", 101)
	_, err = svc.Update(ctx, post.ID, 1, &long, nil)
	status, _ = statusOf(t, err)
	assert.Equal(t, 422, status)
}

func TestService_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "Title", "content")
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(ctx, post.ID, 2, &title, nil)
	status, code := statusOf(t, err)
	assert.Equal(t, 403, status)
	assert.Equal(t, apperrors.CodeForbidden, code)

	err = svc.Delete(ctx, post.ID, 2)
	status, _ = statusOf(t, err)
	assert.Equal(t, 403, status)

	// The owner can still delete.
	require.NoError(t, svc.Delete(ctx, post.ID, 1))
	_, err = svc.Get(ctx, post.ID)
	status, _ = statusOf(t, err)
	assert.Equal(t, 404, status)
}

func TestService_DeleteMissing(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Delete(context.Background(), uuid.New(), 1)
	status, code := statusOf(t, err)
	assert.Equal(t, 404, status)
	assert.Equal(t, apperrors.CodePostNotFound, code)
}

func TestService_RepoFailureIsDatabaseError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("connection refused")

	_, err := svc.List(context.Background(), "", 0, 20)
	status, code := statusOf(t, err)
	assert.Equal(t, 500, status)
	assert.Equal(t, apperrors.CodeDatabaseError, code)
}
