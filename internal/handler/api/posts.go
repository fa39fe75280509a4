// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newheretics/blog/internal/model"
	"github.com/newheretics/blog/internal/store"
	"github.com/newheretics/blog/internal/util"
)

// TagsField accepts either a comma-joined string or a list of strings in
// request bodies. Lists are joined into the flat stored representation;
// strings are stored verbatim.
type TagsField struct {
	value string
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagsField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.value = s
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("tags must be a string or a list of strings")
	}
	t.value = model.JoinTags(list)
	return nil
}

// String returns the flat stored representation.
func (t TagsField) String() string {
	return t.value
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Author      string    `json:"author"`
	Tags        TagsField `json:"tags"`
	IsPublished bool      `json:"is_published"`
}

// UpdatePostRequest represents the request body for a partial update.
// Only fields present in the JSON are applied.
type UpdatePostRequest struct {
	Title       *string    `json:"title,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Tags        *TagsField `json:"tags,omitempty"`
	IsPublished *bool      `json:"is_published,omitempty"`
}

// isEmpty reports whether no recognized field was supplied.
func (r UpdatePostRequest) isEmpty() bool {
	return r.Title == nil && r.Slug == nil && r.Content == nil &&
		r.Excerpt == nil && r.Author == nil && r.Tags == nil && r.IsPublished == nil
}

// ListPosts handles GET /api/posts with optional filtering.
// Query parameters: published (bool), search, tag, limit.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := store.ListPostsParams{
		PublishedOnly: query.Get("published") == "true",
		Search:        query.Get("search"),
		Tag:           query.Get("tag"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.ParseInt(limitStr, 10, 64); err == nil && limit > 0 {
			params.Limit = limit
		}
	}

	posts, err := h.queries.ListPosts(r.Context(), params)
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	WriteJSON(w, http.StatusOK, storePostsToResponses(posts))
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, storePostToResponse(post))
}

// GetPostBySlug handles GET /api/posts/slug/{slug}.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to retrieve post")
		}
		return
	}

	WriteJSON(w, http.StatusOK, storePostToResponse(post))
}

// CreatePost handles POST /api/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	if req.Title == "" || req.Content == "" {
		WriteBadRequest(w, "Title and content are required")
		return
	}

	// Derive slug from title when absent
	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Title)
	}

	exists, err := h.queries.SlugExists(ctx, slug)
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return
	}
	if exists != 0 {
		WriteConflict(w, "A post with this slug already exists")
		return
	}

	author := req.Author
	if author == "" {
		author = model.DefaultAuthor
	}

	now := time.Now()
	params := store.CreatePostParams{
		Title:       req.Title,
		Slug:        slug,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Author:      author,
		Tags:        req.Tags.String(),
		IsPublished: req.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsPublished {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	post, err := h.queries.CreatePost(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to create post")
		return
	}

	WriteJSON(w, http.StatusCreated, storePostToResponse(post))
}

// UpdatePost handles PUT /api/posts/{id}. Only supplied fields change;
// an empty body fails validation before anything is written.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "No data provided")
		return
	}
	if req.isEmpty() {
		WriteBadRequest(w, "No data provided")
		return
	}

	// Start from the existing row and overlay supplied fields
	params := store.UpdatePostParams{
		ID:          existing.ID,
		Title:       existing.Title,
		Slug:        existing.Slug,
		Content:     existing.Content,
		Excerpt:     existing.Excerpt,
		Author:      existing.Author,
		Tags:        existing.Tags,
		IsPublished: existing.IsPublished,
		PublishedAt: existing.PublishedAt,
		UpdatedAt:   time.Now(),
	}

	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.Slug != nil {
		exists, err := h.queries.SlugExistsExcluding(ctx, store.SlugExistsExcludingParams{
			Slug: *req.Slug,
			ID:   existing.ID,
		})
		if err != nil {
			WriteInternalError(w, "Failed to check slug")
			return
		}
		if exists != 0 {
			WriteConflict(w, "A post with this slug already exists")
			return
		}
		params.Slug = *req.Slug
	}
	if req.Content != nil {
		params.Content = *req.Content
	}
	if req.Excerpt != nil {
		params.Excerpt = *req.Excerpt
	}
	if req.Author != nil {
		params.Author = *req.Author
	}
	if req.Tags != nil {
		params.Tags = req.Tags.String()
	}
	if req.IsPublished != nil {
		params.IsPublished = *req.IsPublished

		// First publish sets published_at; it is never reset afterwards
		if *req.IsPublished && !existing.IsPublished && !existing.PublishedAt.Valid {
			params.PublishedAt = sql.NullTime{Time: params.UpdatedAt, Valid: true}
		}
	}

	post, err := h.queries.UpdatePost(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}

	WriteJSON(w, http.StatusOK, storePostToResponse(post))
}

// TogglePublish handles PATCH /api/posts/{id}/publish.
func (h *Handler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.queries.TogglePublishPost(r.Context(), store.TogglePublishPostParams{
		ID:  id,
		Now: time.Now(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to update post")
		}
		return
	}

	WriteJSON(w, http.StatusOK, storePostToResponse(post))
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		WriteInternalError(w, "Failed to delete post")
		return
	}

	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

// ListDrafts handles GET /api/posts/drafts.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.queries.ListDraftPosts(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list drafts")
		return
	}
	WriteJSON(w, http.StatusOK, storePostsToResponses(drafts))
}

// ListPublished handles GET /api/posts/published.
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	published, err := h.queries.ListPublishedPosts(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list published posts")
		return
	}
	WriteJSON(w, http.StatusOK, storePostsToResponses(published))
}

// StatsResponse contains blog statistics.
type StatsResponse struct {
	TotalPosts     int64 `json:"total_posts"`
	PublishedPosts int64 `json:"published_posts"`
	DraftPosts     int64 `json:"draft_posts"`
}

// Stats handles GET /api/posts/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queries.CountPosts(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to load stats")
		return
	}
	published, err := h.queries.CountPublishedPosts(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to load stats")
		return
	}
	drafts, err := h.queries.CountDraftPosts(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to load stats")
		return
	}

	WriteJSON(w, http.StatusOK, StatsResponse{
		TotalPosts:     total,
		PublishedPosts: published,
		DraftPosts:     drafts,
	})
}

// requirePost parses the post ID from the URL and fetches the post.
// Returns the post and true, or writes the error response and returns false.
func (h *Handler) requirePost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return store.Post{}, false
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to retrieve post")
		}
		return store.Post{}, false
	}
	return post, true
}
