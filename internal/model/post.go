package model

import (
	"strings"
	"time"
)

const (
	CategoryAll      = "all"
	CategoryTech     = "tech"
	CategoryLife     = "life"
	CategoryThoughts = "thoughts"

	// CategoryFallback is used for records stored without a category.
	CategoryFallback = CategoryLife

	DefaultTitle    = "Untitled"
	DefaultReadTime = 5
	AnonymousAuthor = "Anonymous"
)

var categoryNames = map[string]string{
	CategoryTech:     "Tech",
	CategoryLife:     "Life",
	CategoryThoughts: "Thoughts",
}

// Categories lists the accepted post categories in display order.
func Categories() []string {
	return []string{CategoryTech, CategoryLife, CategoryThoughts}
}

func IsCategory(category string) bool {
	_, ok := categoryNames[category]
	return ok
}

// CategoryName returns the display name of a category, "Other" for unknown values.
func CategoryName(category string) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "Other"
}

type Post struct {
	ID                string    `json:"id" firestore:"-"`
	Title             string    `json:"title" firestore:"title"`
	Excerpt           string    `json:"excerpt" firestore:"excerpt"`
	Content           string    `json:"content" firestore:"content"`
	Category          string    `json:"category" firestore:"category"`
	Tags              []string  `json:"tags" firestore:"tags"`
	AuthorID          string    `json:"author_id" firestore:"authorId"`
	AuthorEmail       string    `json:"author_email" firestore:"authorEmail"`
	AuthorDisplayName string    `json:"author_display_name" firestore:"authorDisplayName"`
	ReadTime          int       `json:"read_time" firestore:"readTime"`
	CreatedAt         time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt         time.Time `json:"updated_at" firestore:"updatedAt"`
}

// PostFields are the fields a create or update replaces wholesale.
type PostFields struct {
	Title    string
	Excerpt  string
	Content  string
	Category string
	Tags     []string
	ReadTime int
}

func (p *Post) Fields() PostFields {
	return PostFields{
		Title:    p.Title,
		Excerpt:  p.Excerpt,
		Content:  p.Content,
		Category: p.Category,
		Tags:     append([]string(nil), p.Tags...),
		ReadTime: p.ReadTime,
	}
}

// Apply copies the mutable fields onto the post. Author and timestamps are untouched.
func (p *Post) Apply(fields PostFields) {
	p.Title = fields.Title
	p.Excerpt = fields.Excerpt
	p.Content = fields.Content
	p.Category = fields.Category
	p.Tags = append([]string(nil), fields.Tags...)
	p.ReadTime = fields.ReadTime
}

// Normalize fills in defaults for records written by older clients.
func (p *Post) Normalize() {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultTitle
	}
	if p.Category == "" {
		p.Category = CategoryFallback
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ReadTime <= 0 {
		p.ReadTime = DefaultReadTime
	}
	if p.AuthorDisplayName == "" {
		p.AuthorDisplayName = AnonymousAuthor
	}
}

// ListOptions selects one page of the feed.
//
// Category "" or "all" disables the filter, Cursor "" starts from the newest post.
type ListOptions struct {
	Category string
	Limit    int
	Cursor   string
}

func (o ListOptions) Filtered() bool {
	return o.Category != "" && o.Category != CategoryAll
}

type Page struct {
	Items      []Post `json:"items"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}
