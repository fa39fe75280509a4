package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/newheretics/blog/internal/model"
	"github.com/newheretics/blog/internal/util"
)

// Seed creates a welcome post when seeding is enabled and the posts table
// is empty. It is safe to call on every startup.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	total, err := queries.CountPosts(ctx)
	if err != nil {
		return fmt.Errorf("counting posts: %w", err)
	}
	if total > 0 {
		slog.Info("posts already exist, skipping seed", "count", total)
		return nil
	}

	now := time.Now()
	title := "Welcome to the blog"
	post, err := queries.CreatePost(ctx, CreatePostParams{
		Title:       title,
		Slug:        util.Slugify(title),
		Content:     "This is your first post. Edit or delete it through the API, then start writing.",
		Excerpt:     "A short introduction to this blog.",
		Author:      model.DefaultAuthor,
		Tags:        model.JoinTags([]string{"meta"}),
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("creating welcome post: %w", err)
	}

	slog.Info("created welcome post", "id", post.ID, "slug", post.Slug)
	return nil
}
