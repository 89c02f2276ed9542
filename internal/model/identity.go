package model

import "strings"

// Identity is the signed-in user as reported by the identity provider.
// A nil *Identity means nobody is signed in.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthorName is the name stamped on posts: display name, else the local part
// of the email, else "Anonymous".
func (i *Identity) AuthorName() string {
	if i == nil {
		return AnonymousAuthor
	}
	if name := strings.TrimSpace(i.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && local != "" {
		return local
	}
	return AnonymousAuthor
}
