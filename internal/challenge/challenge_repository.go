package challenge

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/database"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

//nolint:gochecknoglobals
var challengeColumns = []string{
	"c.challenge_id", "c.target_type", "c.target_id", "c.challenger_id", "c.status", "c.challenge_reason",
	"c.suggested_correction", "c.archived", "c.appeal_count", "c.appeal_allowed", "c.appeal_decision",
	"c.appellant_id", "c.decided_by", "c.created_on", "c.decided_on", "c.last_appeal_on", "c.version",
}

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

func (r Repository) Create(ctx context.Context, challenge *Challenge) error {
	challenge.Version = 1

	if errInsert := r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("challenge").
		SetMap(map[string]any{
			"challenge_id":         challenge.ChallengeID,
			"target_type":          challenge.Target.Type,
			"target_id":            challenge.Target.ID,
			"challenger_id":        challenge.ChallengerID,
			"status":               challenge.Status,
			"challenge_reason":     challenge.Reason,
			"suggested_correction": challenge.SuggestedCorrection,
			"archived":             challenge.Archived,
			"appeal_count":         challenge.AppealCount,
			"appeal_allowed":       challenge.AppealAllowed,
			"appeal_decision":      nullDecision(challenge.AppealDecision),
			"appellant_id":         nullID(challenge.AppellantID),
			"decided_by":           nullID(challenge.DecidedBy),
			"created_on":           challenge.CreatedOn,
			"decided_on":           challenge.DecidedOn,
			"last_appeal_on":       challenge.LastAppealOn,
			"version":              challenge.Version,
		})); errInsert != nil {
		return database.DBErr(errInsert)
	}

	return nil
}

func (r Repository) ByID(ctx context.Context, challengeID uuid.UUID) (Challenge, error) {
	// sq.Eq expands array values, uuid.UUID included, into an IN list.
	return r.one(ctx, r.db.
		Builder().
		Select(challengeColumns...).
		From("challenge c").
		Where(sq.Expr("c.challenge_id = ?", challengeID)))
}

// LatestAccepted returns the most recently decided accepted challenge against target.
func (r Repository) LatestAccepted(ctx context.Context, target content.Target) (Challenge, error) {
	return r.one(ctx, r.db.
		Builder().
		Select(challengeColumns...).
		From("challenge c").
		Where(sq.Eq{"c.target_type": target.Type, "c.target_id": target.ID, "c.status": StatusAccepted}).
		OrderBy("c.decided_on DESC", "c.created_on DESC").
		Limit(1))
}

// CompareAndSwap overwrites the mutable columns of the stored challenge if, and only if, its version
// still matches challenge.Version.
func (r Repository) CompareAndSwap(ctx context.Context, challenge *Challenge) error {
	affected, errUpdate := r.db.ExecUpdateBuilderAffected(ctx, r.db.
		Builder().
		Update("challenge").
		SetMap(map[string]any{
			"status":          challenge.Status,
			"archived":        challenge.Archived,
			"appeal_count":    challenge.AppealCount,
			"appeal_allowed":  challenge.AppealAllowed,
			"appeal_decision": nullDecision(challenge.AppealDecision),
			"appellant_id":    nullID(challenge.AppellantID),
			"decided_by":      nullID(challenge.DecidedBy),
			"decided_on":      challenge.DecidedOn,
			"last_appeal_on":  challenge.LastAppealOn,
			"version":         challenge.Version + 1,
		}).
		Where(sq.And{sq.Expr("challenge_id = ?", challenge.ChallengeID), sq.Eq{"version": challenge.Version}}))
	if errUpdate != nil {
		return database.DBErr(errUpdate)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrPersistenceConflict, challenge.ChallengeID, challenge.Version)
	}

	challenge.Version++

	return nil
}

func (r Repository) Query(ctx context.Context, filter Query) ([]Challenge, int64, error) {
	constraints := sq.And{}

	if filter.Status != "" {
		constraints = append(constraints, sq.Eq{"c.status": filter.Status})
	}

	if filter.Archived != nil {
		constraints = append(constraints, sq.Eq{"c.archived": *filter.Archived})
	}

	if filter.TargetType != "" {
		constraints = append(constraints, sq.Eq{"c.target_type": filter.TargetType})
	}

	if filter.TargetID != "" {
		constraints = append(constraints, sq.Eq{"c.target_id": filter.TargetID})
	}

	if filter.ChallengerID > 0 {
		constraints = append(constraints, sq.Eq{"c.challenger_id": filter.ChallengerID})
	}

	builder := r.db.
		Builder().
		Select(challengeColumns...).
		From("challenge c").
		Where(constraints)

	builder = filter.ApplySafeOrder(builder, map[string][]string{
		"c.": {"created_on", "decided_on", "last_appeal_on", "status", "target_type", "appeal_count"},
	}, "c.created_on")
	builder = filter.ApplyLimitOffsetDefault(builder)

	count, errCount := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(c.challenge_id)").
		From("challenge c").
		Where(constraints))
	if errCount != nil {
		return nil, 0, database.DBErr(errCount)
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, 0, database.DBErr(errRows)
	}

	defer rows.Close()

	challenges := []Challenge{}

	for rows.Next() {
		challenge, errScan := scanChallenge(rows)
		if errScan != nil {
			return nil, 0, errors.Join(errScan, database.ErrScanResult)
		}

		challenges = append(challenges, challenge)
	}

	return challenges, count, database.DBErr(rows.Err())
}

func (r Repository) one(ctx context.Context, builder sq.SelectBuilder) (Challenge, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, builder)
	if errRow != nil {
		return Challenge{}, database.DBErr(errRow)
	}

	challenge, errScan := scanChallenge(row)
	if errScan != nil {
		if errors.Is(database.DBErr(errScan), database.ErrNoResult) {
			return Challenge{}, ErrNotFound
		}

		return Challenge{}, database.DBErr(errScan)
	}

	return challenge, nil
}

func scanChallenge(row pgx.Row) (Challenge, error) {
	var (
		challenge      Challenge
		appealDecision *string
		appellantID    *int64
		decidedBy      *int64
	)

	if errScan := row.Scan(&challenge.ChallengeID, &challenge.Target.Type, &challenge.Target.ID,
		&challenge.ChallengerID, &challenge.Status, &challenge.Reason, &challenge.SuggestedCorrection,
		&challenge.Archived, &challenge.AppealCount, &challenge.AppealAllowed, &appealDecision, &appellantID,
		&decidedBy, &challenge.CreatedOn, &challenge.DecidedOn, &challenge.LastAppealOn,
		&challenge.Version); errScan != nil {
		return challenge, errScan
	}

	if appealDecision != nil {
		challenge.AppealDecision = Decision(*appealDecision)
	}

	if appellantID != nil {
		challenge.AppellantID = *appellantID
	}

	if decidedBy != nil {
		challenge.DecidedBy = *decidedBy
	}

	return challenge, nil
}

func nullDecision(decision Decision) any {
	if decision == "" {
		return nil
	}

	return decision
}

func nullID(userID int64) any {
	if userID <= 0 {
		return nil
	}

	return userID
}
