// Package feed builds the RSS 2.0 feed for published blog posts.
package feed

import (
	"encoding/xml"
	"time"
)

// MaxItems caps how many posts appear in the feed.
const MaxItems = 20

// RSSItem represents a single item entry in the feed.
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
	Author      string `xml:"author,omitempty"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// RSSChannel represents the feed channel metadata and items.
type RSSChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []RSSItem `xml:"item"`
}

// RSS represents the complete RSS document.
type RSS struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel RSSChannel `xml:"channel"`
}

// FeedPost contains data needed to add a post to the feed.
type FeedPost struct {
	Title       string
	Slug        string
	Excerpt     string
	Author      string
	Tags        string
	PublishedAt time.Time
}

// Builder builds RSS XML from published posts.
type Builder struct {
	siteURL     string
	title       string
	description string
	items       []RSSItem
}

// NewBuilder creates a new feed builder.
func NewBuilder(siteURL, title, description string) *Builder {
	return &Builder{
		siteURL:     siteURL,
		title:       title,
		description: description,
		items:       make([]RSSItem, 0),
	}
}

// AddPost adds a post to the feed. Posts beyond MaxItems are ignored.
func (b *Builder) AddPost(post FeedPost) {
	if len(b.items) >= MaxItems {
		return
	}

	link := b.siteURL + "/post/" + post.Slug
	item := RSSItem{
		Title:       post.Title,
		Link:        link,
		Description: post.Excerpt,
		Author:      post.Author,
		Category:    post.Tags,
		GUID:        link,
	}
	if !post.PublishedAt.IsZero() {
		item.PubDate = post.PublishedAt.Format(time.RFC1123Z)
	}
	b.items = append(b.items, item)
}

// AddPosts adds multiple posts to the feed.
func (b *Builder) AddPosts(posts []FeedPost) {
	for _, p := range posts {
		b.AddPost(p)
	}
}

// Build generates the RSS XML.
func (b *Builder) Build() ([]byte, error) {
	feed := RSS{
		Version: "2.0",
		Channel: RSSChannel{
			Title:         b.title,
			Link:          b.siteURL,
			Description:   b.description,
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         b.items,
		},
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// Generate is a convenience function to generate a feed from posts.
func Generate(siteURL, title, description string, posts []FeedPost) ([]byte, error) {
	builder := NewBuilder(siteURL, title, description)
	builder.AddPosts(posts)
	return builder.Build()
}
