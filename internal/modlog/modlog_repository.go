package modlog

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

func (r Repository) Append(ctx context.Context, entry Entry) error {
	if entry.CreatedOn.IsZero() {
		entry.CreatedOn = time.Now()
	}

	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("moderation_log").
		SetMap(map[string]any{
			"moderator_id": entry.ModeratorID,
			"action_type":  entry.Action,
			"target_type":  entry.Target.Type,
			"target_id":    entry.Target.ID,
			"reason":       entry.Reason,
			"created_on":   entry.CreatedOn,
		})))
}

// ForTarget returns the audit history of a piece of content, oldest first.
func (r Repository) ForTarget(ctx context.Context, target content.Target) ([]Entry, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("moderation_log_id", "moderator_id", "action_type", "target_type", "target_id", "reason", "created_on").
		From("moderation_log").
		Where(sq.Eq{"target_type": target.Type, "target_id": target.ID}).
		OrderBy("moderation_log_id"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		var entry Entry
		if errScan := rows.Scan(&entry.ModerationLogID, &entry.ModeratorID, &entry.Action, &entry.Target.Type,
			&entry.Target.ID, &entry.Reason, &entry.CreatedOn); errScan != nil {
			return nil, errors.Join(errScan, database.ErrScanResult)
		}

		entries = append(entries, entry)
	}

	return entries, database.DBErr(rows.Err())
}
