package domain

import (
	"regexp"
	"strings"
	"time"
)

type PublishStatus string

const (
	PublishStatusDraft     PublishStatus = "draft"
	PublishStatusPublished PublishStatus = "published"
)

type ContentBlockType string

const (
	BlockParagraph ContentBlockType = "paragraph"
	BlockHeading   ContentBlockType = "heading"
	BlockImage     ContentBlockType = "image"
	BlockQuote     ContentBlockType = "quote"
	BlockList      ContentBlockType = "list"
)

type ContentBlock struct {
	Type    ContentBlockType `json:"type" validate:"required,oneof=paragraph heading image quote list"`
	Text    string           `json:"text,omitempty"`
	Level   int              `json:"level,omitempty" validate:"gte=0,lte=6"`
	URL     string           `json:"url,omitempty" validate:"omitempty,url"`
	Caption string           `json:"caption,omitempty"`
	Items   []string         `json:"items,omitempty"`
}

type BlogPost struct {
	ID          string         `json:"id"`
	Title       string         `json:"title" validate:"required,max=200"`
	Slug        string         `json:"slug"`
	Excerpt     string         `json:"excerpt,omitempty" validate:"max=500"`
	Content     []ContentBlock `json:"content" validate:"dive"`
	CoverImage  string         `json:"coverImage,omitempty" validate:"omitempty,url"`
	Author      string         `json:"author" validate:"max=100"`
	Tags        []string       `json:"tags,omitempty"`
	Status      PublishStatus  `json:"status"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type BlogPostFilter struct {
	Status PublishStatus
	Tag    string
	Limit  int
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a lowercase, dash separated identifier.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return slug
}
