// Package content implements soft delete, restore and author lookups against the website's
// user generated content tables.
package content

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrUnknownType = errors.New("unknown content type")
)

// Type is the kind of content a challenge can be filed against.
type Type string

const (
	Comment     Type = "comment"
	Adage       Type = "adage"
	Blog        Type = "blog"
	ForumThread Type = "forum_thread"
)

func (t Type) Valid() bool {
	switch t {
	case Comment, Adage, Blog, ForumThread:
		return true
	default:
		return false
	}
}

// Target identifies a single piece of content. The ID is opaque and never parsed.
type Target struct {
	Type Type   `json:"target_type"`
	ID   string `json:"target_id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Type, t.ID)
}

func (t Target) Valid() bool {
	return t.Type.Valid() && t.ID != ""
}

type table struct {
	name   string
	idName string
}

func tableFor(contentType Type) (table, error) {
	switch contentType {
	case Comment:
		return table{name: "comment", idName: "comment_id"}, nil
	case Adage:
		return table{name: "adage", idName: "adage_id"}, nil
	case Blog:
		return table{name: "blog_post", idName: "blog_post_id"}, nil
	case ForumThread:
		return table{name: "forum_thread", idName: "forum_thread_id"}, nil
	default:
		return table{}, fmt.Errorf("%w: %s", ErrUnknownType, contentType)
	}
}
