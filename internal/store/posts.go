// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for blog posts.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// DBTX is the database interface accepted by Queries. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds prepared access to the posts table.
type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Post represents a row in the posts table.
type Post struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Author      string
	Tags        string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

const postColumns = `id, title, slug, content, excerpt, author, tags, is_published, created_at, updated_at, published_at`

// scanPost scans a single post row.
func scanPost(row *sql.Row) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Author,
		&p.Tags, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	)
	return p, err
}

// scanPosts scans all post rows and closes the result set.
func scanPosts(rows *sql.Rows, err error) ([]Post, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Author,
			&p.Tags, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds the fields for creating a post.
type CreatePostParams struct {
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Author      string
	Tags        string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

const createPost = `
INSERT INTO posts (title, slug, content, excerpt, author, tags, is_published, created_at, updated_at, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

// CreatePost inserts a new post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Author,
		arg.Tags, arg.IsPublished, arg.CreatedAt, arg.UpdatedAt, arg.PublishedAt,
	)
	return scanPost(row)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

// GetPostByID returns the post with the given id, or sql.ErrNoRows.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`

// GetPostBySlug returns the post with the given slug, or sql.ErrNoRows.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostBySlug, slug))
}

const getPublishedPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ? AND is_published = 1`

// GetPublishedPostBySlug returns the published post with the given slug, or sql.ErrNoRows.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPublishedPostBySlug, slug))
}

// ListPostsParams holds the optional filters for listing posts.
type ListPostsParams struct {
	PublishedOnly bool
	Search        string // case-insensitive substring match on title or content
	Tag           string // case-insensitive substring match on the flat tags string
	Limit         int64  // 0 means no limit
}

// ListPosts returns posts matching the filters, newest first by creation time.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + postColumns + ` FROM posts`)

	var conds []string
	var args []any

	if arg.PublishedOnly {
		conds = append(conds, "is_published = 1")
	}
	if arg.Search != "" {
		conds = append(conds, "(title LIKE '%' || ? || '%' OR content LIKE '%' || ? || '%')")
		args = append(args, arg.Search, arg.Search)
	}
	if arg.Tag != "" {
		conds = append(conds, "tags LIKE '%' || ? || '%'")
		args = append(args, arg.Tag)
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	if arg.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	return scanPosts(q.db.QueryContext(ctx, sb.String(), args...))
}

const listDraftPosts = `
SELECT ` + postColumns + ` FROM posts
WHERE is_published = 0
ORDER BY created_at DESC, id DESC`

// ListDraftPosts returns all unpublished posts, newest first by creation time.
func (q *Queries) ListDraftPosts(ctx context.Context) ([]Post, error) {
	return scanPosts(q.db.QueryContext(ctx, listDraftPosts))
}

const listPublishedPosts = `
SELECT ` + postColumns + ` FROM posts
WHERE is_published = 1
ORDER BY published_at DESC, id DESC`

// ListPublishedPosts returns all published posts, newest first by publish time.
func (q *Queries) ListPublishedPosts(ctx context.Context) ([]Post, error) {
	return scanPosts(q.db.QueryContext(ctx, listPublishedPosts))
}

const listRecentPublished = listPublishedPosts + ` LIMIT ?`

// ListRecentPublished returns the most recently published posts, up to limit.
func (q *Queries) ListRecentPublished(ctx context.Context, limit int64) ([]Post, error) {
	return scanPosts(q.db.QueryContext(ctx, listRecentPublished, limit))
}

// ListRandomPublishedParams selects random published posts excluding one post.
type ListRandomPublishedParams struct {
	ExcludeID int64
	Limit     int64
}

const listRandomPublished = `
SELECT ` + postColumns + ` FROM posts
WHERE is_published = 1 AND id != ?
ORDER BY RANDOM()
LIMIT ?`

// ListRandomPublished returns up to limit random published posts, excluding the given id.
func (q *Queries) ListRandomPublished(ctx context.Context, arg ListRandomPublishedParams) ([]Post, error) {
	return scanPosts(q.db.QueryContext(ctx, listRandomPublished, arg.ExcludeID, arg.Limit))
}

const slugExists = `SELECT COUNT(*) FROM posts WHERE slug = ?`

// SlugExists returns the number of posts with the given slug.
func (q *Queries) SlugExists(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, slugExists, slug).Scan(&count)
	return count, err
}

// SlugExistsExcludingParams checks a slug against all posts except one.
type SlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

const slugExistsExcluding = `SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?`

// SlugExistsExcluding returns the number of other posts carrying the given slug.
func (q *Queries) SlugExistsExcluding(ctx context.Context, arg SlugExistsExcludingParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, slugExistsExcluding, arg.Slug, arg.ID).Scan(&count)
	return count, err
}

// UpdatePostParams holds the full row state written by an update. Handlers
// start from the existing row and overlay the supplied fields.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Author      string
	Tags        string
	IsPublished bool
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

const updatePost = `
UPDATE posts
SET title = ?, slug = ?, content = ?, excerpt = ?, author = ?, tags = ?,
    is_published = ?, updated_at = ?, published_at = ?
WHERE id = ?
RETURNING ` + postColumns

// UpdatePost writes the full mutable state of a post and returns the stored row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Author, arg.Tags,
		arg.IsPublished, arg.UpdatedAt, arg.PublishedAt, arg.ID,
	)
	return scanPost(row)
}

// TogglePublishPostParams flips the publication state of a post.
type TogglePublishPostParams struct {
	ID  int64
	Now time.Time
}

const togglePublishPost = `
UPDATE posts
SET is_published = NOT is_published,
    published_at = CASE
        WHEN is_published = 0 AND published_at IS NULL THEN ?
        ELSE published_at
    END,
    updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// TogglePublishPost flips is_published in a single statement. The first time
// a post transitions to published its published_at is set; it is never
// cleared afterwards.
func (q *Queries) TogglePublishPost(ctx context.Context, arg TogglePublishPostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, togglePublishPost, arg.Now, arg.Now, arg.ID)
	return scanPost(row)
}

const deletePost = `DELETE FROM posts WHERE id = ?`

// DeletePost removes a post permanently.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const countPosts = `SELECT COUNT(*) FROM posts`

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts).Scan(&count)
	return count, err
}

const countPublishedPosts = `SELECT COUNT(*) FROM posts WHERE is_published = 1`

// CountPublishedPosts returns the number of published posts.
func (q *Queries) CountPublishedPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPosts).Scan(&count)
	return count, err
}

const countDraftPosts = `SELECT COUNT(*) FROM posts WHERE is_published = 0`

// CountDraftPosts returns the number of unpublished posts.
func (q *Queries) CountDraftPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDraftPosts).Scan(&count)
	return count, err
}
