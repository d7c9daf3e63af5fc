package tests

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/adagearchive/moderation/internal/content"
	"github.com/stretchr/testify/require"
)

// RandomUserID returns an id that is unlikely to collide between parallel tests sharing a database.
func RandomUserID() int64 {
	return rand.Int64N(1<<40) + 1000
}

func randomID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, rand.Int64())
}

// CreatePerson inserts a user with the given permission level and returns its id.
func (f *Fixture) CreatePerson(t *testing.T, level int, email string) int64 {
	t.Helper()

	userID := RandomUserID()
	require.NoError(t, f.Database.Exec(context.Background(),
		`INSERT INTO person (user_id, name, email, permission_level) VALUES ($1, $2, $3, $4)`,
		userID, fmt.Sprintf("user-%d", userID), email, level))

	return userID
}

// CreateAdage inserts an adage owned by authorID.
func (f *Fixture) CreateAdage(t *testing.T, authorID int64) content.Target {
	t.Helper()

	target := content.Target{Type: content.Adage, ID: randomID("adage")}
	require.NoError(t, f.Database.Exec(context.Background(),
		`INSERT INTO adage (adage_id, author_id, body) VALUES ($1, $2, $3)`,
		target.ID, authorID, "A stitch in time saves nine"))

	return target
}

// CreateBlogPost inserts a blog post owned by authorID.
func (f *Fixture) CreateBlogPost(t *testing.T, authorID int64, slug string) content.Target {
	t.Helper()

	target := content.Target{Type: content.Blog, ID: randomID("blog")}
	require.NoError(t, f.Database.Exec(context.Background(),
		`INSERT INTO blog_post (blog_post_id, author_id, slug, title) VALUES ($1, $2, $3, $4)`,
		target.ID, authorID, slug, "Proverbs of the week"))

	return target
}

// CreateForumThread inserts a forum thread owned by authorID.
func (f *Fixture) CreateForumThread(t *testing.T, authorID int64) content.Target {
	t.Helper()

	target := content.Target{Type: content.ForumThread, ID: randomID("thread")}
	require.NoError(t, f.Database.Exec(context.Background(),
		`INSERT INTO forum_thread (forum_thread_id, author_id, title) VALUES ($1, $2, $3)`,
		target.ID, authorID, "Origins of early bird"))

	return target
}

// CreateComment inserts a comment owned by authorID attached to parent.
func (f *Fixture) CreateComment(t *testing.T, authorID int64, parent content.Target) content.Target {
	t.Helper()

	target := content.Target{Type: content.Comment, ID: randomID("comment")}
	require.NoError(t, f.Database.Exec(context.Background(),
		`INSERT INTO comment (comment_id, author_id, parent_type, parent_id, body) VALUES ($1, $2, $3, $4, $5)`,
		target.ID, authorID, parent.Type, parent.ID, "This one is plagiarised"))

	return target
}

// IsDeleted reports the current soft delete flag of a comment.
func (f *Fixture) IsDeleted(t *testing.T, target content.Target) bool {
	t.Helper()

	var deleted bool
	require.NoError(t, f.Database.
		QueryRow(context.Background(), `SELECT deleted FROM comment WHERE comment_id = $1`, target.ID).
		Scan(&deleted))

	return deleted
}
