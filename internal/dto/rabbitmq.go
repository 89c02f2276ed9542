package dto

import "time"

type MQPostCreatedMsg struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	PostTitle string    `json:"post_title"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type MQPostDeletedMsg struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
