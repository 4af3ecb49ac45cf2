package posts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

const maxTitleLength = 100

// Repository is the slice of the relational store the post feature uses.
// *db.PostRepository implements it.
type Repository interface {
	Create(ctx context.Context, authorID int64, title, content string) (*db.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.Post, error)
	List(ctx context.Context, q string, offset, limit int) ([]*db.Post, error)
	Update(ctx context.Context, id uuid.UUID, authorID int64, title, content *string) (*db.Post, error)
	SoftDelete(ctx context.Context, id uuid.UUID, authorID int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, authorID int64, title, content string) (*db.Post, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperrors.ValidationError("content is required")
	}

	post, err := s.repo.Create(ctx, authorID, title, content)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to create post").WithCause(err)
	}
	return post, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*db.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "failed to load post")
	}
	return post, nil
}

func (s *Service) List(ctx context.Context, q string, skip, limit int) ([]*db.Post, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.List(ctx, q, skip, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list posts").WithCause(err)
	}
	return list, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, authorID int64, title, content *string) (*db.Post, error) {
	if title != nil {
		if err := validateTitle(*title); err != nil {
			return nil, err
		}
	}
	if content != nil && *content == "" {
		return nil, apperrors.ValidationError("content must not be empty")
	}

	post, err := s.repo.Update(ctx, id, authorID, title, content)
	if err != nil {
		return nil, mapRepoError(err, "failed to update post")
	}
	return post, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, authorID int64) error {
	if err := s.repo.SoftDelete(ctx, id, authorID); err != nil {
		return mapRepoError(err, "failed to delete post")
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.ValidationError("title is required")
	}
	if len(title) > maxTitleLength {
		return apperrors.ValidationError("title must be at most 100 characters")
	}
	return nil
}

func mapRepoError(err error, fallback string) error {
	switch {
	case errors.Is(err, db.ErrPostNotFound):
		return apperrors.PostNotFound()
	case errors.Is(err, db.ErrNotOwner):
		return apperrors.Forbidden("not the owner")
	default:
		return apperrors.DatabaseError(fallback).WithCause(err)
	}
}
