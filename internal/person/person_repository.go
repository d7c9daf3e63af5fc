package person

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/adagearchive/moderation/internal/auth/permission"
	"github.com/adagearchive/moderation/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

func (r Repository) ByID(ctx context.Context, userID int64) (Person, error) {
	var person Person

	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("user_id", "name", "email", "permission_level", "created_on").
		From("person").
		Where(sq.Eq{"user_id": userID}))
	if errRow != nil {
		return person, database.DBErr(errRow)
	}

	if errScan := row.Scan(&person.UserID, &person.Name, &person.Email, &person.PermissionLevel,
		&person.CreatedOn); errScan != nil {
		if errors.Is(database.DBErr(errScan), database.ErrNoResult) {
			return person, fmt.Errorf("%w: %d", ErrNotFound, userID)
		}

		return person, database.DBErr(errScan)
	}

	return person, nil
}

// Email returns the address on file for a user. An empty string means the user has not provided one.
func (r Repository) Email(ctx context.Context, userID int64) (string, error) {
	person, err := r.ByID(ctx, userID)
	if err != nil {
		return "", err
	}

	return person.Email, nil
}

// ListAdmins returns the ids of every user holding admin privileges.
func (r Repository) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("user_id").
		From("person").
		Where(sq.GtOrEq{"permission_level": permission.Admin}).
		OrderBy("user_id"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	admins := []int64{}

	for rows.Next() {
		var userID int64
		if errScan := rows.Scan(&userID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		admins = append(admins, userID)
	}

	return admins, database.DBErr(rows.Err())
}

// StaticAdmins is a fixed admin directory, useful when the admin list is provided by configuration.
type StaticAdmins []int64

func (s StaticAdmins) ListAdmins(_ context.Context) ([]int64, error) {
	return s, nil
}
