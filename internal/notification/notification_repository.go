package notification

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adagearchive/moderation/internal/database"
	"github.com/adagearchive/moderation/internal/database/query"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

// Insert stores the notification and fills in its id and creation time.
func (r Repository) Insert(ctx context.Context, notif *Notification) error {
	if notif.CreatedOn.IsZero() {
		notif.CreatedOn = time.Now()
	}

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("notification").
		SetMap(map[string]any{
			"user_id":           notif.UserID,
			"notification_type": notif.Type,
			"title":             notif.Title,
			"message":           notif.Message,
			"related_id":        notif.RelatedID,
			"related_type":      notif.RelatedType,
			"link":              notif.Link,
			"created_on":        notif.CreatedOn,
		}).
		Suffix("RETURNING notification_id"), &notif.NotificationID))
}

func (r Repository) ByID(ctx context.Context, notificationID int64) (Notification, error) {
	var notif Notification

	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("notification_id", "user_id", "notification_type", "title", "message", "related_id",
			"related_type", "link", "read", "created_on").
		From("notification").
		Where(sq.Eq{"notification_id": notificationID, "deleted": false}))
	if errRow != nil {
		return notif, database.DBErr(errRow)
	}

	if errScan := row.Scan(&notif.NotificationID, &notif.UserID, &notif.Type, &notif.Title, &notif.Message,
		&notif.RelatedID, &notif.RelatedType, &notif.Link, &notif.Read, &notif.CreatedOn); errScan != nil {
		return notif, database.DBErr(errScan)
	}

	return notif, nil
}

// ForUser lists a user's notifications, newest first by default.
func (r Repository) ForUser(ctx context.Context, userID int64, filter query.Filter) ([]Notification, int64, error) {
	constraints := sq.And{sq.Eq{"n.deleted": false}, sq.Eq{"n.user_id": userID}}

	builder := r.db.
		Builder().
		Select("n.notification_id", "n.user_id", "n.notification_type", "n.title", "n.message", "n.related_id",
			"n.related_type", "n.link", "n.read", "n.created_on").
		From("notification n").
		Where(constraints)

	if filter.OrderBy == "" {
		filter.Desc = true
	}

	builder = filter.ApplySafeOrder(builder, map[string][]string{
		"n.": {"notification_id", "notification_type", "read", "created_on"},
	}, "n.notification_id")
	builder = filter.ApplyLimitOffsetDefault(builder)

	count, errCount := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(n.notification_id)").
		From("notification n").
		Where(constraints))
	if errCount != nil {
		return nil, 0, database.DBErr(errCount)
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, 0, database.DBErr(errRows)
	}

	defer rows.Close()

	notifications := []Notification{}

	for rows.Next() {
		var notif Notification
		if errScan := rows.Scan(&notif.NotificationID, &notif.UserID, &notif.Type, &notif.Title, &notif.Message,
			&notif.RelatedID, &notif.RelatedType, &notif.Link, &notif.Read, &notif.CreatedOn); errScan != nil {
			return nil, 0, errors.Join(errScan, database.ErrScanResult)
		}

		notifications = append(notifications, notif)
	}

	return notifications, count, database.DBErr(rows.Err())
}
