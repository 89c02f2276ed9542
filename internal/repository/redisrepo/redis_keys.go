package redisrepo

import "fmt"

const (
	POST_KEY = "post:%s" // <postID>
)

func PostKey(postID string) string {
	return fmt.Sprintf(POST_KEY, postID)
}
