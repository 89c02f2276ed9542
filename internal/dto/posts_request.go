package dto

import "strings"

type PostInput struct {
	Title    string   `json:"title" validate:"required,max=100"`
	Excerpt  string   `json:"excerpt" validate:"max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"omitempty,oneof=tech life thoughts"`
	Tags     []string `json:"tags"`
	ReadTime int      `json:"read_time" validate:"gte=0"`
}

type GetPostsRequest struct {
	Category string `form:"category"`
	Cursor   string `form:"cursor"`
}

// SplitTags parses the comma-separated tag field of the post form.
func SplitTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	return strings.Split(input, ",")
}
