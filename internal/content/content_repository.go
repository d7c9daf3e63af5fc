package content

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adagearchive/moderation/internal/database"
)

// Repository is the postgres backed visibility gateway.
type Repository struct {
	db      database.Database
	baseURL string
}

func NewRepository(db database.Database, externalURL string) Repository {
	return Repository{db: db, baseURL: strings.TrimSuffix(externalURL, "/")}
}

// Hide soft deletes the target content.
func (r Repository) Hide(ctx context.Context, target Target) error {
	return r.setDeleted(ctx, target, true)
}

// Restore reverses a previous Hide.
func (r Repository) Restore(ctx context.Context, target Target) error {
	return r.setDeleted(ctx, target, false)
}

func (r Repository) setDeleted(ctx context.Context, target Target, deleted bool) error {
	tbl, errTable := tableFor(target.Type)
	if errTable != nil {
		return errTable
	}

	affected, errExec := r.db.ExecUpdateBuilderAffected(ctx, r.db.
		Builder().
		Update(tbl.name).
		Set("deleted", deleted).
		Set("updated_on", time.Now()).
		Where(sq.Eq{tbl.idName: target.ID}))
	if errExec != nil {
		return database.DBErr(errExec)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	}

	return nil
}

// ResolveAuthor returns the user id of whoever created the content. Soft deleted content is still
// resolvable so that a hidden comment's author can be warned.
func (r Repository) ResolveAuthor(ctx context.Context, target Target) (int64, error) {
	tbl, errTable := tableFor(target.Type)
	if errTable != nil {
		return 0, errTable
	}

	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("author_id").
		From(tbl.name).
		Where(sq.Eq{tbl.idName: target.ID}))
	if errRow != nil {
		return 0, database.DBErr(errRow)
	}

	var authorID int64
	if errScan := row.Scan(&authorID); errScan != nil {
		return 0, notFound(errScan, target)
	}

	return authorID, nil
}

// ResolveLink builds an absolute url to the content. Comments link to their parent page with a
// fragment pointing at the comment itself.
func (r Repository) ResolveLink(ctx context.Context, target Target) (string, error) {
	path, errPath := r.path(ctx, target)
	if errPath != nil {
		return "", errPath
	}

	return r.baseURL + path, nil
}

func (r Repository) path(ctx context.Context, target Target) (string, error) {
	switch target.Type {
	case Adage:
		return "/adages/" + url.PathEscape(target.ID), nil
	case ForumThread:
		return "/forum/thread/" + url.PathEscape(target.ID), nil
	case Blog:
		var slug string
		if errScan := r.db.
			QueryRow(ctx, `SELECT slug FROM blog_post WHERE blog_post_id = $1`, target.ID).
			Scan(&slug); errScan != nil {
			return "", notFound(errScan, target)
		}

		if slug == "" {
			slug = target.ID
		}

		return "/blog/" + url.PathEscape(slug), nil
	case Comment:
		var parent Target
		if errScan := r.db.
			QueryRow(ctx, `SELECT parent_type, parent_id FROM comment WHERE comment_id = $1`, target.ID).
			Scan(&parent.Type, &parent.ID); errScan != nil {
			return "", notFound(errScan, target)
		}

		if parent.Type == Comment {
			return "", fmt.Errorf("%w: nested comment parent %s", ErrUnknownType, parent)
		}

		parentPath, errParent := r.path(ctx, parent)
		if errParent != nil {
			return "", errParent
		}

		return parentPath + "#comment-" + url.PathEscape(target.ID), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownType, target.Type)
	}
}

func notFound(err error, target Target) error {
	if errors.Is(database.DBErr(err), database.ErrNoResult) {
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	}

	return database.DBErr(err)
}
