// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/newheretics/blog/internal/render"
	"github.com/newheretics/blog/internal/store"
	"github.com/newheretics/blog/web"
)

// testDB creates an in-memory SQLite database with the posts table.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			excerpt TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT 'The New Heretics',
			tags TEXT NOT NULL DEFAULT '',
			is_published BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			published_at DATETIME
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSetup creates a database and frontend handler backed by the real
// embedded templates.
func testSetup(t *testing.T) (*sql.DB, *FrontendHandler) {
	t.Helper()

	db := testDB(t)

	renderer, err := render.New(render.Config{
		TemplatesFS: web.Templates,
		SiteName:    "Test Blog",
	})
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}

	h := NewFrontendHandler(db, renderer, "https://blog.test", "Test Blog", "A blog for tests")
	return db, h
}

// createPublishedPost inserts a published post with a specific publish time.
func createPublishedPost(t *testing.T, db *sql.DB, title, slug, content string, publishedAt time.Time) store.Post {
	t.Helper()

	post, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		Title:       title,
		Slug:        slug,
		Content:     content,
		Author:      "Tester",
		IsPublished: true,
		CreatedAt:   publishedAt,
		UpdatedAt:   publishedAt,
		PublishedAt: sql.NullTime{Time: publishedAt, Valid: true},
	})
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// createDraftPost inserts an unpublished post.
func createDraftPost(t *testing.T, db *sql.DB, title, slug string) store.Post {
	t.Helper()
	now := time.Now()

	post, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		Title:     title,
		Slug:      slug,
		Content:   "Draft content",
		Author:    "Tester",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to create draft post: %v", err)
	}
	return post
}

// getWithSlug issues a request with the slug URL parameter set.
func getWithSlug(handler func(http.ResponseWriter, *http.Request), slug string) *httptest.ResponseRecorder {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)

	req := httptest.NewRequest(http.MethodGet, "/post/"+slug, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHomeEmpty(t *testing.T) {
	_, h := testSetup(t)

	w := httptest.NewRecorder()
	h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Nothing published yet") {
		t.Error("empty home page should show the empty message")
	}
}

func TestHome(t *testing.T) {
	db, h := testSetup(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, slug := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		createPublishedPost(t, db, "Post "+slug, slug, "body", base.Add(time.Duration(i)*time.Hour))
	}
	createDraftPost(t, db, "Hidden Draft", "hidden-draft")

	w := httptest.NewRecorder()
	h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	// Newest post is featured, the next five are listed, the seventh is not.
	if !strings.Contains(body, "Post p7") {
		t.Error("newest post should be featured")
	}
	for _, slug := range []string{"p2", "p3", "p4", "p5", "p6"} {
		if !strings.Contains(body, "/post/"+slug) {
			t.Errorf("recent list should link to %s", slug)
		}
	}
	if strings.Contains(body, "/post/p1\"") {
		t.Error("oldest post should not appear on the front page")
	}
	if strings.Contains(body, "Hidden Draft") {
		t.Error("drafts must not appear on the front page")
	}
}

func TestPost(t *testing.T) {
	db, h := testSetup(t)
	createPublishedPost(t, db, "Markdown Post", "markdown-post",
		"# Heading\n\nSome **bold** text.", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	w := getWithSlug(h.Post, "markdown-post")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("post body should be rendered from markdown")
	}
	if !strings.Contains(body, "Markdown Post") {
		t.Error("post title missing")
	}
}

func TestPostRelated(t *testing.T) {
	db, h := testSetup(t)

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	createPublishedPost(t, db, "Main", "main", "body", base)
	createPublishedPost(t, db, "Other A", "other-a", "body", base)
	createPublishedPost(t, db, "Other B", "other-b", "body", base)

	w := getWithSlug(h.Post, "main")
	body := w.Body.String()

	if !strings.Contains(body, "You might also like") {
		t.Error("related section missing")
	}
	// Related posts exclude the current one.
	if strings.Count(body, "/post/main") != 0 {
		t.Error("post must not be related to itself")
	}
	if !strings.Contains(body, "/post/other-a") || !strings.Contains(body, "/post/other-b") {
		t.Error("both other posts should be related")
	}
}

func TestPostDraftNotVisible(t *testing.T) {
	db, h := testSetup(t)
	createDraftPost(t, db, "Secret", "secret")

	w := getWithSlug(h.Post, "secret")
	if w.Code != http.StatusNotFound {
		t.Errorf("draft post status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Page not found") {
		t.Error("draft should render the 404 page")
	}
}

func TestPostUnknownSlug(t *testing.T) {
	_, h := testSetup(t)

	w := getWithSlug(h.Post, "does-not-exist")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestArchive(t *testing.T) {
	db, h := testSetup(t)

	createPublishedPost(t, db, "Old Post", "old-post", "body",
		time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))
	createPublishedPost(t, db, "New Post", "new-post", "body",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	createDraftPost(t, db, "Draft", "draft")

	w := httptest.NewRecorder()
	h.Archive(w, httptest.NewRequest(http.MethodGet, "/archive", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "2023") || !strings.Contains(body, "2025") {
		t.Error("archive should contain both years")
	}
	if strings.Contains(body, "Draft") {
		t.Error("drafts must not appear in the archive")
	}
	// Newest year first.
	if strings.Index(body, "2025") > strings.Index(body, "2023") {
		t.Error("years should be ordered newest first")
	}
}

func TestRSS(t *testing.T) {
	db, h := testSetup(t)
	createPublishedPost(t, db, "Feed Post", "feed-post", "body",
		time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC))
	createDraftPost(t, db, "Feed Draft", "feed-draft")

	w := httptest.NewRecorder()
	h.RSS(w, httptest.NewRequest(http.MethodGet, "/rss.xml", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q, want application/rss+xml", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "https://blog.test/post/feed-post") {
		t.Error("feed should contain the published post link")
	}
	if strings.Contains(body, "feed-draft") {
		t.Error("drafts must not appear in the feed")
	}
	if !strings.Contains(body, "Thu, 10 Apr 2025 09:00:00 +0000") {
		t.Error("feed dates should be RFC-822 formatted")
	}
}

func TestSitemap(t *testing.T) {
	db, h := testSetup(t)
	createPublishedPost(t, db, "Mapped", "mapped", "body",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	createDraftPost(t, db, "Unmapped", "unmapped")

	w := httptest.NewRecorder()
	h.Sitemap(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "https://blog.test/post/mapped") {
		t.Error("sitemap should contain the published post")
	}
	if strings.Contains(body, "unmapped") {
		t.Error("drafts must not appear in the sitemap")
	}
}

func TestRobots(t *testing.T) {
	_, h := testSetup(t)

	w := httptest.NewRecorder()
	h.Robots(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Sitemap: https://blog.test/sitemap.xml") {
		t.Error("robots.txt should reference the sitemap")
	}
}

func TestHealth(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Errorf("body = %q, want healthy status", w.Body.String())
	}

	// A closed database reports degraded.
	_ = db.Close()
	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed db status = %d, want 503", w.Code)
	}
}
