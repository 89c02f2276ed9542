package permission

import (
	"strings"

	"github.com/BloggingApp/feed-service/internal/model"
)

// Level is what a caller may do with a post.
type Level int

const (
	// Unknown is the zero value: the level has not been evaluated yet.
	Unknown Level = iota
	None
	Author
	Admin
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Author:
		return "author"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// CanMutate reports whether edit and delete actions are allowed.
func (l Level) CanMutate() bool {
	return l == Author || l == Admin
}

// AllowList holds the admin emails, lower-cased.
type AllowList map[string]struct{}

func NewAllowList(emails ...string) AllowList {
	list := make(AllowList, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			list[email] = struct{}{}
		}
	}
	return list
}

func (a AllowList) Contains(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Evaluate decides the caller's level for post. Admins win over authorship.
// A post without an author id is only mutable by admins.
func Evaluate(identity *model.Identity, post *model.Post, admins AllowList) Level {
	if identity == nil {
		return None
	}
	if admins.Contains(identity.Email) {
		return Admin
	}
	if post == nil || post.AuthorID == "" || identity.UID == "" {
		return None
	}
	if identity.UID == post.AuthorID {
		return Author
	}
	return None
}
