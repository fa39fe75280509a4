// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the public site.
package handler

import (
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newheretics/blog/internal/feed"
	"github.com/newheretics/blog/internal/markdown"
	"github.com/newheretics/blog/internal/model"
	"github.com/newheretics/blog/internal/render"
	"github.com/newheretics/blog/internal/seo"
	"github.com/newheretics/blog/internal/store"
)

// How many posts the front page shows: one featured plus this many recent.
const homeRecentCount = 5

// How many related posts accompany a post page.
const relatedCount = 2

// PostView represents a post with computed fields for template rendering.
type PostView struct {
	ID          int64
	Title       string
	Slug        string
	Excerpt     string
	Author      string
	Tags        string
	PublishedAt time.Time
}

// HomeData is the front page template payload.
type HomeData struct {
	Featured *PostView
	Recent   []PostView
}

// PostPageData is the single post template payload.
type PostPageData struct {
	Post    PostView
	HTML    template.HTML
	Related []PostView
}

// ArchiveYearGroup holds one year's worth of posts for the archive page.
type ArchiveYearGroup struct {
	Year  int
	Posts []PostView
}

// ArchiveData is the archive template payload.
type ArchiveData struct {
	Years []ArchiveYearGroup
}

// FrontendHandler serves the public HTML pages and the RSS feed.
type FrontendHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	siteURL  string
	siteName string
	siteDesc string
}

// NewFrontendHandler creates a new frontend handler.
func NewFrontendHandler(db *sql.DB, renderer *render.Renderer, siteURL, siteName, siteDesc string) *FrontendHandler {
	return &FrontendHandler{
		queries:  store.New(db),
		renderer: renderer,
		siteURL:  siteURL,
		siteName: siteName,
		siteDesc: siteDesc,
	}
}

// Home handles GET / with the most recent published post featured and the
// next few listed below it.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListRecentPublished(r.Context(), homeRecentCount+1)
	if err != nil {
		h.serverError(w, r, "load front page posts", err)
		return
	}

	data := HomeData{}
	if len(posts) > 0 {
		featured := storePostToView(posts[0])
		data.Featured = &featured
		data.Recent = storePostsToViews(posts[1:])
	}

	h.render(w, r, http.StatusOK, "home", "", data)
}

// Post handles GET /post/{slug}. Unpublished posts are not visible here,
// whatever the slug.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, "load post", err)
		return
	}

	body, err := markdown.ToHTML(post.Content)
	if err != nil {
		h.serverError(w, r, "render post body", err)
		return
	}

	related, err := h.queries.ListRandomPublished(r.Context(), store.ListRandomPublishedParams{
		ExcludeID: post.ID,
		Limit:     relatedCount,
	})
	if err != nil {
		h.serverError(w, r, "load related posts", err)
		return
	}

	data := PostPageData{
		Post:    storePostToView(post),
		HTML:    body,
		Related: storePostsToViews(related),
	}

	h.render(w, r, http.StatusOK, "post", post.Title, data)
}

// Archive handles GET /archive, grouping published posts by year, newest
// year first.
func (h *FrontendHandler) Archive(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPublishedPosts(r.Context())
	if err != nil {
		h.serverError(w, r, "load archive", err)
		return
	}

	groups := make(map[int][]PostView)
	for _, p := range posts {
		year := model.ArchiveYear(p.PublishedAt, p.CreatedAt)
		groups[year] = append(groups[year], storePostToView(p))
	}

	years := make([]ArchiveYearGroup, 0, len(groups))
	for year, views := range groups {
		years = append(years, ArchiveYearGroup{Year: year, Posts: views})
	}
	sort.Slice(years, func(i, j int) bool {
		return years[i].Year > years[j].Year
	})

	h.render(w, r, http.StatusOK, "archive", "Archive", ArchiveData{Years: years})
}

// RSS handles GET /rss.xml with the latest published posts.
func (h *FrontendHandler) RSS(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListRecentPublished(r.Context(), feed.MaxItems)
	if err != nil {
		h.serverError(w, r, "load feed posts", err)
		return
	}

	feedPosts := make([]feed.FeedPost, 0, len(posts))
	for _, p := range posts {
		feedPosts = append(feedPosts, feed.FeedPost{
			Title:       p.Title,
			Slug:        p.Slug,
			Excerpt:     p.Excerpt,
			Author:      p.Author,
			Tags:        p.Tags,
			PublishedAt: publishedTime(p),
		})
	}

	out, err := feed.Generate(h.siteURL, h.siteName, h.siteDesc, feedPosts)
	if err != nil {
		h.serverError(w, r, "build feed", err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write(out)
}

// Sitemap handles GET /sitemap.xml covering all published posts.
func (h *FrontendHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPublishedPosts(r.Context())
	if err != nil {
		h.serverError(w, r, "load sitemap posts", err)
		return
	}

	sitemapPosts := make([]seo.SitemapPost, 0, len(posts))
	for _, p := range posts {
		sitemapPosts = append(sitemapPosts, seo.SitemapPost{
			Slug:      p.Slug,
			UpdatedAt: p.UpdatedAt,
		})
	}

	out, err := seo.GenerateSitemap(h.siteURL, sitemapPosts)
	if err != nil {
		h.serverError(w, r, "build sitemap", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

// Robots handles GET /robots.txt.
func (h *FrontendHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	content := seo.GenerateRobots(seo.RobotsConfig{SiteURL: h.siteURL})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404", "Page not found", nil)
}

// render wraps the renderer with common error handling.
func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, statusCode int, page, title string, data any) {
	err := h.renderer.Render(w, statusCode, page, render.TemplateData{
		Title: title,
		Data:  data,
	})
	if err != nil {
		h.serverError(w, r, "render "+page, err)
	}
}

// serverError logs the failure and sends a plain 500.
func (h *FrontendHandler) serverError(w http.ResponseWriter, r *http.Request, action string, err error) {
	slog.Error("frontend handler failed",
		"action", action,
		"path", r.URL.Path,
		"error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// publishedTime picks the public timestamp of a post, preferring the
// moment of first publication.
func publishedTime(p store.Post) time.Time {
	if p.PublishedAt.Valid {
		return p.PublishedAt.Time
	}
	return p.CreatedAt
}

// storePostToView converts a store.Post to a PostView.
func storePostToView(p store.Post) PostView {
	return PostView{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Author:      p.Author,
		Tags:        p.Tags,
		PublishedAt: publishedTime(p),
	}
}

// storePostsToViews converts a list of posts.
func storePostsToViews(posts []store.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, storePostToView(p))
	}
	return views
}
