// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds domain rules for blog posts: the default author,
// the flat tags representation, and publication date derivation.
package model

import (
	"database/sql"
	"strings"
	"time"
)

// DefaultAuthor is the site-wide author name used when a post is created
// without an explicit author.
const DefaultAuthor = "The New Heretics"

// JoinTags converts a list of tag names into the flat comma-joined
// representation stored on a post.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags converts the stored flat tags string back into a list.
// An empty string yields an empty list, never a single empty tag.
func SplitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ArchiveYear returns the year a post is filed under in the archive:
// the publication year when the post has been published, otherwise the
// creation year.
func ArchiveYear(publishedAt sql.NullTime, createdAt time.Time) int {
	if publishedAt.Valid {
		return publishedAt.Time.Year()
	}
	return createdAt.Year()
}
