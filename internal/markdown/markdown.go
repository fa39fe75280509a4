// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown converts stored post markdown to HTML for rendering.
// The stored content is never modified; conversion happens at render time.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the shared converter. Tables, footnotes and strikethrough are
// enabled, and single newlines become line breaks.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Footnote,
		extension.Strikethrough,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// htmlSanitizer strips unsafe HTML from the rendered output.
// UGCPolicy allows safe tags for user-generated content while removing scripts.
var htmlSanitizer = bluemonday.UGCPolicy()

// ToHTML renders markdown source to sanitized HTML.
func ToHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitized above
}
