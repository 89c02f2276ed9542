package dto

import "github.com/BloggingApp/feed-service/internal/model"

type GetPost struct {
	Post       model.Post `json:"post"`
	Permission string     `json:"permission"`
}

type GetPosts struct {
	Posts      []GetPost `json:"posts"`
	NextCursor string    `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

type GetPermission struct {
	PostID     string `json:"post_id"`
	Permission string `json:"permission"`
}
