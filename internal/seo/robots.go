// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
)

// RobotsConfig holds configuration for robots.txt generation.
type RobotsConfig struct {
	SiteURL     string // Base URL for sitemap reference
	DisallowAll bool   // Block all crawlers (for staging sites)
}

// GenerateRobots generates robots.txt content.
func GenerateRobots(config RobotsConfig) string {
	var sb strings.Builder

	sb.WriteString("User-agent: *\n")

	if config.DisallowAll {
		sb.WriteString("Disallow: /\n")
		return sb.String()
	}

	// The JSON API and health endpoint are not for crawlers
	for _, path := range []string{"/api/", "/health"} {
		sb.WriteString("Disallow: ")
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	sb.WriteString("Allow: /\n")

	if config.SiteURL != "" {
		sb.WriteString("\nSitemap: ")
		sb.WriteString(strings.TrimSuffix(config.SiteURL, "/"))
		sb.WriteString("/sitemap.xml\n")
	}

	return sb.String()
}
