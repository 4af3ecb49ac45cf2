package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPostNotFound = errors.New("post not found")
var ErrNotOwner = errors.New("not the owner")

type Post struct {
	ID        uuid.UUID
	AuthorID  int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, authorID int64, title, content string) (*Post, error) {
	query := `
		INSERT INTO posts (id, author_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	post := &Post{
		ID:       uuid.New(),
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	err := r.db.QueryRowContext(ctx, query, post.ID, authorID, title, content).Scan(
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// GetByID excludes soft-deleted rows.
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	query := `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts
		WHERE id = $1 AND is_deleted = FALSE
	`

	post := &Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return post, nil
}

// List returns non-deleted posts newest first, optionally filtered by a
// case-insensitive title match.
func (r *PostRepository) List(ctx context.Context, q string, offset, limit int) ([]*Post, error) {
	query := `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts
		WHERE is_deleted = FALSE AND ($1 = '' OR title ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*Post, 0)
	for rows.Next() {
		post := &Post{}
		if err := rows.Scan(
			&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// Update patches title and/or content after locking the row and verifying
// ownership. Nil fields are left unchanged.
func (r *PostRepository) Update(ctx context.Context, id uuid.UUID, authorID int64, title, content *string) (*Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	post, err := lockPost(ctx, tx, id, authorID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		post.Title = *title
	}
	if content != nil {
		post.Content = *content
	}

	query := `
		UPDATE posts
		SET title = $1, content = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	if err := tx.QueryRowContext(ctx, query, post.Title, post.Content, id).Scan(&post.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return post, nil
}

// SoftDelete marks the post deleted after locking the row and verifying
// ownership.
func (r *PostRepository) SoftDelete(ctx context.Context, id uuid.UUID, authorID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := lockPost(ctx, tx, id, authorID); err != nil {
		return err
	}

	query := `UPDATE posts SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return tx.Commit()
}

func lockPost(ctx context.Context, tx *sql.Tx, id uuid.UUID, authorID int64) (*Post, error) {
	query := `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts
		WHERE id = $1 AND is_deleted = FALSE
		FOR UPDATE
	`

	post := &Post{}
	err := tx.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, ErrNotOwner
	}

	return post, nil
}
